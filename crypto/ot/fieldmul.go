//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"crypto/rand"
	"math/big"

	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/markkurossi/secureagg/proto"
)

func bytesToBig(buf []byte) *big.Int {
	return new(big.Int).SetBytes(buf)
}

// FieldMulSender and FieldMulReceiver implement Gilboa's two-party
// secure multiplication: the sender holds x, the receiver holds y,
// and each ends up with an additive Fp share of x*y, in one round
// trip per bit of the modulus. This is the per-bit, non-batched
// analogue of the cross-multiply step in the teacher's
// crypto/spdz/triplegen_ot.go, which instead batches it via VOLE;
// see SPEC_FULL.md for why VOLE was not available to reuse here.
//
// For each bit j of y, the sender offers the OT pair (r_j, r_j +
// x*2^j): the receiver's choice bit y_j selects r_j when y_j=0
// (contributing nothing) or r_j + x*2^j when y_j=1 (contributing
// x*2^j). The sender's own share of the term is -r_j. Summed over
// all bits, sender-share + receiver-share = x*y mod p.
func FieldMulSender(conn *proto.Conn, x *field.Elt) (*field.Elt, error) {
	p := x.Prime()
	bits := p.P.BitLen()

	share := p.Zero()
	for j := 0; j < bits; j++ {
		r, err := p.Random(rand.Reader)
		if err != nil {
			return nil, err
		}
		term := x.Mul(p.FromBig(new(big.Int).Lsh(big.NewInt(1), uint(j))))
		msg0 := EncodeField(r)
		msg1 := EncodeField(r.Add(term))
		if err := SendMsgs(conn, msg0, msg1); err != nil {
			return nil, err
		}
		share = share.Sub(r)
	}
	return share, nil
}

// FieldMulReceiver is the receiver counterpart of FieldMulSender.
// bits must equal the sender's modulus bit length.
func FieldMulReceiver(conn *proto.Conn, p *field.Prime, y *field.Elt, bits int) (*field.Elt, error) {
	share := p.Zero()
	yInt := y.Int()
	for j := 0; j < bits; j++ {
		choice := yInt.Bit(j) == 1
		msg, err := ReceiveMsg(conn, choice)
		if err != nil {
			return nil, err
		}
		v, err := DecodeField(p, msg)
		if err != nil {
			return nil, err
		}
		share = share.Add(v)
	}
	return share, nil
}

// BoolMulSender and BoolMulReceiver are FieldMulSender/Receiver
// specialised to a single GF2 bit on each side, used by
// GenerateBoolTriple.
func BoolMulSender(conn *proto.Conn, x bool) (bool, error) {
	// Randomise with a one-time pad so the sender's own share isn't
	// simply 0/x: sample r and offer (r, r XOR x).
	r, err := randomBit()
	if err != nil {
		return false, err
	}
	msg0 := []byte{b2B(r)}
	msg1 := []byte{b2B(xorBool(r, x))}
	if err := SendMsgs(conn, msg0, msg1); err != nil {
		return false, err
	}
	return r, nil
}

// BoolMulReceiver is the receiver counterpart of BoolMulSender.
func BoolMulReceiver(conn *proto.Conn, y bool) (bool, error) {
	msg, err := ReceiveMsg(conn, y)
	if err != nil {
		return false, err
	}
	return msg[0] == 1, nil
}

func randomBit() (bool, error) {
	v, err := randomUint64()
	if err != nil {
		return false, err
	}
	return v&1 == 1, nil
}

func xorBool(a, b bool) bool { return a != b }

func b2B(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// EncodeField serialises a field element for use as an OT payload:
// fixed-width, zero-padded to the modulus byte length so both sides
// always exchange equal-length messages regardless of the element's
// value.
func EncodeField(e *field.Elt) []byte {
	p := e.Prime()
	width := (p.P.BitLen() + 7) / 8
	buf := make([]byte, width)
	b := e.Bytes()
	copy(buf[width-len(b):], b)
	return buf
}

// DecodeField is the inverse of EncodeField.
func DecodeField(p *field.Prime, buf []byte) (*field.Elt, error) {
	return p.FromBig(bytesToBig(buf)), nil
}
