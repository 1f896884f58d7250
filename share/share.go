//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package share implements the additive-share primitives spec.md §3
// names: BoolTriple, FieldTriple, DaBit, EdaBit, and Cor/CorShare,
// plus the two-party protocols that generate and open them. Beaver
// multiplication itself (MulShare) is grounded directly on the
// teacher's crypto/spdz.MulShare; triple generation is grounded on
// crypto/spdz/triplegen_ot.go's cross-multiply-via-OT shape, with
// the VOLE batching it uses (via the un-vendored sibling mpc module)
// replaced by a direct per-bit Gilboa OT multiplication — see
// SPEC_FULL.md.
package share

import (
	"crypto/rand"

	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/markkurossi/secureagg/crypto/gf2"
	"github.com/markkurossi/secureagg/crypto/ot"
	"github.com/markkurossi/secureagg/proto"
)

var randReader = rand.Reader

// ServerID identifies which of the two non-colluding aggregators a
// peer is. Server1 is always the driver of cross-server exchanges
// (spec.md §5); in the OT sum (§4.4) Server0 is the OT sender and
// Server1 the OT receiver.
type ServerID int

// The two server roles.
const (
	Server0 ServerID = iota
	Server1
)

// Other returns the opposite server role.
func (s ServerID) Other() ServerID {
	if s == Server0 {
		return Server1
	}
	return Server0
}

// FieldTriple is a FieldTriple share: (A, B, C) with C = A*B mod p,
// held in additive shares across the two servers.
type FieldTriple struct {
	A, B, C *field.Elt
}

// BoolTriple is a BoolTriple share: (a, b, c) with c = a AND b, held
// in additive (XOR) shares across the two servers.
type BoolTriple struct {
	A, B, C gf2.Bit
}

// DaBit is a bit held simultaneously as a GF2 share and as an Fp
// share (spec.md §3): the 2-to-p conversion pair.
type DaBit struct {
	Bool gf2.Bit
	Fp   *field.Elt
}

// EdaBit is an n-bit integer held simultaneously as n bitwise GF2
// shares and one Fp share of the integer value.
type EdaBit struct {
	Bits []gf2.Bit  // this party's GF2 share of each bit, LSB first
	Fp   *field.Elt // this party's Fp share of the integer value
}

// CorShare is one party's half of a Beaver-triple opening pair
// (D = x-A, E = y-B).
type CorShare struct {
	D, E *field.Elt
}

// openTwoFieldElts opens two Fp values in one round trip: Server1
// sends first and then receives, Server0 receives first and then
// sends, matching the driver ordering spec.md §5 requires of every
// peer exchange.
func openTwoFieldElts(conn *proto.Conn, role ServerID, s1, s2 *field.Elt) (*field.Elt, *field.Elt, error) {
	send := func() error {
		if err := conn.SendField(s1); err != nil {
			return err
		}
		if err := conn.SendField(s2); err != nil {
			return err
		}
		return conn.Flush()
	}
	recv := func() (*field.Elt, *field.Elt, error) {
		p1, err := conn.RecvField(s1.Prime())
		if err != nil {
			return nil, nil, err
		}
		p2, err := conn.RecvField(s1.Prime())
		if err != nil {
			return nil, nil, err
		}
		return p1, p2, nil
	}

	var peer1, peer2 *field.Elt
	var err error
	if role == Server1 {
		if err = send(); err != nil {
			return nil, nil, err
		}
		peer1, peer2, err = recv()
	} else {
		peer1, peer2, err = recv()
		if err != nil {
			return nil, nil, err
		}
		err = send()
	}
	if err != nil {
		return nil, nil, err
	}
	return s1.Add(peer1), s2.Add(peer2), nil
}

// MulShare computes a share of a*b given additive shares a, b and a
// pre-shared FieldTriple, per the Beaver identity used throughout
// SNIP verification (spec.md §4.2 step 4). Grounded directly on the
// teacher's crypto/spdz.MulShare.
func MulShare(conn *proto.Conn, role ServerID, a, b *field.Elt, triple *FieldTriple) (*field.Elt, error) {
	d := a.Sub(triple.A)
	e := b.Sub(triple.B)

	dv, ev, err := openTwoFieldElts(conn, role, d, e)
	if err != nil {
		return nil, err
	}

	term := triple.C.Add(dv.Mul(triple.B)).Add(ev.Mul(triple.A))
	if role == Server0 {
		// Only one party adds d*e, to avoid double-counting it.
		term = term.Add(dv.Mul(ev))
	}
	return term, nil
}

// fieldMulOTBits is the bit-length used for the Gilboa OT
// multiplication underlying triple and daBit generation: one OT
// instance per bit of the field modulus is enough to cover any
// factor in [0, p).
func fieldMulOTBits(p *field.Prime) int {
	return p.P.BitLen()
}

// gilboaMulSender runs the sender side of a two-party secure
// multiplication of this party's x against the peer's y: it returns
// this party's additive share of x*y mod p. See the doc comment of
// crypto/ot's FieldMulSender for the bit-OT construction.
func gilboaMulSender(conn *proto.Conn, x *field.Elt) (*field.Elt, error) {
	return ot.FieldMulSender(conn, x)
}

// gilboaMulReceiver is the receiver counterpart of
// gilboaMulSender: y is this party's private factor.
func gilboaMulReceiver(conn *proto.Conn, p *field.Prime, y *field.Elt, bits int) (*field.Elt, error) {
	return ot.FieldMulReceiver(conn, p, y, bits)
}

// GenerateFieldTriple runs the two-party protocol that produces one
// party's share of a fresh FieldTriple, grounded on
// crypto/spdz/triplegen_ot.go's two-direction cross-multiply: each
// party samples local random A_i, B_i, then the parties run one
// Gilboa OT multiplication in each direction to obtain shares of the
// two cross terms.
func GenerateFieldTriple(conn *proto.Conn, p *field.Prime, role ServerID) (*FieldTriple, error) {
	a, err := p.Random(randReader)
	if err != nil {
		return nil, err
	}
	b, err := p.Random(randReader)
	if err != nil {
		return nil, err
	}

	bits := fieldMulOTBits(p)

	var term1, term2 *field.Elt
	if role == Server0 {
		term1, err = gilboaMulSender(conn, a)
		if err != nil {
			return nil, err
		}
		term2, err = gilboaMulReceiver(conn, p, b, bits)
		if err != nil {
			return nil, err
		}
	} else {
		term1, err = gilboaMulReceiver(conn, p, b, bits)
		if err != nil {
			return nil, err
		}
		term2, err = gilboaMulSender(conn, a)
		if err != nil {
			return nil, err
		}
	}

	c := a.Mul(b).Add(term1).Add(term2)
	return &FieldTriple{A: a, B: b, C: c}, nil
}

// GenerateDaBit runs the two-party protocol that produces one
// party's share of a fresh DaBit: each party samples a local random
// bit, then the parties run one Gilboa OT multiplication to convert
// the XOR of the two bits into an Fp additive share, using the
// identity b0 XOR b1 = b0 + b1 - 2*b0*b1.
func GenerateDaBit(conn *proto.Conn, p *field.Prime, role ServerID) (*DaBit, error) {
	localBit, err := gf2.Random()
	if err != nil {
		return nil, err
	}
	localFp := p.FromInt64(0)
	if localBit {
		localFp = p.FromInt64(1)
	}

	var prod *field.Elt
	if role == Server0 {
		prod, err = gilboaMulSender(conn, localFp)
	} else {
		prod, err = gilboaMulReceiver(conn, p, localFp, fieldMulOTBits(p))
	}
	if err != nil {
		return nil, err
	}

	fpShare := localFp.Sub(prod.ScalarMul(2))
	return &DaBit{Bool: localBit, Fp: fpShare}, nil
}

// GenerateEdaBit runs the two-party protocol that produces one
// party's share of a fresh n-bit EdaBit by composing n independent
// DaBits: the GF2 shares are each daBit's boolean share directly,
// and the Fp share is the local, interaction-free weighted sum
// Σ fpShare_i * 2^i, since additive sharing is linear in the bit
// weights.
func GenerateEdaBit(conn *proto.Conn, p *field.Prime, role ServerID, n int) (*EdaBit, error) {
	bits := make([]gf2.Bit, n)
	fpShare := p.Zero()
	for i := 0; i < n; i++ {
		db, err := GenerateDaBit(conn, p, role)
		if err != nil {
			return nil, err
		}
		bits[i] = db.Bool
		fpShare = fpShare.Add(db.Fp.ScalarMul(int64(1) << uint(i)))
	}
	return &EdaBit{Bits: bits, Fp: fpShare}, nil
}

// GenerateBoolTriple runs the two-party protocol that produces one
// party's share of a fresh BoolTriple over GF2, using one base OT
// instance to secret-share the cross term a0*b1 (and its mirror)
// exactly as GenerateFieldTriple does over Fp, specialised to
// single-bit messages.
func GenerateBoolTriple(conn *proto.Conn, role ServerID) (*BoolTriple, error) {
	a, err := gf2.Random()
	if err != nil {
		return nil, err
	}
	b, err := gf2.Random()
	if err != nil {
		return nil, err
	}

	var cross1, cross2 bool
	if role == Server0 {
		cross1, err = ot.BoolMulSender(conn, bool(a))
		if err != nil {
			return nil, err
		}
		cross2, err = ot.BoolMulReceiver(conn, bool(b))
		if err != nil {
			return nil, err
		}
	} else {
		cross1, err = ot.BoolMulReceiver(conn, bool(b))
		if err != nil {
			return nil, err
		}
		cross2, err = ot.BoolMulSender(conn, bool(a))
		if err != nil {
			return nil, err
		}
	}

	c := a.And(b).Xor(gf2.Bit(cross1)).Xor(gf2.Bit(cross2))
	return &BoolTriple{A: a, B: b, C: c}, nil
}
