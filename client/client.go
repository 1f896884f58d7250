//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package client implements the client side of spec.md §2/§3: for
// each statistic, encode one plaintext value into two correlated
// submissions (one per server), each an opaque pk plus a payload of
// additive (GF(2), for the OT-summed statistics) or additive-Fp (for
// SNIP-bearing statistics) secret shares.
//
// A submission's OT payload and its SNIP proof, when both are
// present, are built from the *same* plaintext value (VarOp passes
// the identical x, y=x*x pair to both the XOR-share split and
// circuit.CheckVar's snip.Prove call; LinRegOp does the same for its
// whole input vector) — this is the property the server-side
// verifier depends on: a SNIP proof only excludes a submission whose
// *claimed* wire values are wrong, so the claimed values it checks
// must be the same ones the OT sum later reconstructs, or proof
// success would say nothing about the aggregated payload.
package client

import (
	"io"

	"github.com/markkurossi/secureagg/crypto/snip"
	"github.com/markkurossi/secureagg/pk"
)

// BoolShares is one bit split additively over GF(2) (XOR) between
// the two servers, per spec.md §4.4.
type BoolShares struct {
	S0, S1 bool
}

// Uint64Shares is one num_bits-wide integer split the same way.
type Uint64Shares struct {
	S0, S1 uint64
}

func splitBool(rng io.Reader, v bool) (BoolShares, error) {
	var buf [1]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return BoolShares{}, err
	}
	r := buf[0]&1 != 0
	return BoolShares{S0: r, S1: r != v}, nil
}

func splitUint64(rng io.Reader, v uint64) (Uint64Shares, error) {
	var buf [8]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return Uint64Shares{}, err
	}
	var r uint64
	for _, b := range buf {
		r = r<<8 | uint64(b)
	}
	return Uint64Shares{S0: r, S1: r ^ v}, nil
}

func splitBoolArray(rng io.Reader, v []bool) ([]bool, []bool, error) {
	s0 := make([]bool, len(v))
	s1 := make([]bool, len(v))
	for i, bit := range v {
		s, err := splitBool(rng, bit)
		if err != nil {
			return nil, nil, err
		}
		s0[i], s1[i] = s.S0, s.S1
	}
	return s0, s1, nil
}

// Submission is everything a client builds for one round's one
// value: an identifier and the per-server data, ready to hand to
// SendSubmission (or Submit) for transmission. Exactly one of the payload fields is
// set, per the round's statistic tag, except SNIP0/SNIP1 which
// additionally accompany Var and LinReg.
type Submission struct {
	ID pk.Pk

	Bit    *BoolShares
	Int    *Uint64Shares
	Var    *VarSharePair
	LinReg *LinRegSharePair
	Array0 []bool // MaxOp/MinOp/FreqOp/CountMinOp/HeavyOp, flattened
	Array1 []bool

	SNIP0, SNIP1 *snip.Packet
}

// VarSharePair is VarShare's two-server split (spec.md §3): v and
// v*v, each XOR-split.
type VarSharePair struct {
	V, VV Uint64Shares
}

// LinRegSharePair is LinRegShare(d)'s two-server split (spec.md §3):
// x_1..x_{d-1}, y, the pairwise x_j*x_k products (j<=k), and the
// x_j*y products, each XOR-split; shapes mirror
// aggregate.LinRegShares.
type LinRegSharePair struct {
	X  []Uint64Shares
	Y  Uint64Shares
	XX map[[2]int]Uint64Shares
	XY []Uint64Shares
}

// newID draws a fresh submission identifier.
func newID() (pk.Pk, error) {
	return pk.New()
}
