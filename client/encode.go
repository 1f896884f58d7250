//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package client

import (
	"io"

	"github.com/markkurossi/secureagg/aggregate"
	"github.com/markkurossi/secureagg/crypto/circuit"
	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/markkurossi/secureagg/crypto/snip"
)

// EncodeBit builds a BitShare submission (spec.md §3), used for
// BIT_SUM_OP, AND_OP, and OR_OP alike: all three reduce, server
// side, to a count of true submissions (package aggregate's
// BitSumServer0/1, AndResult, OrResult).
func EncodeBit(rng io.Reader, v bool) (*Submission, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	s, err := splitBool(rng, v)
	if err != nil {
		return nil, err
	}
	return &Submission{ID: id, Bit: &s}, nil
}

// EncodeInt builds an IntShare submission for INT_SUM_OP. v must fit
// in numBits bits; the caller is expected to have range-checked it
// (spec.md §3's "any Fp element... checked to be in range" applies
// equally to the client's own plaintext, since a client that submits
// an out-of-range value is indistinguishable, server-side, from one
// whose share encoding is simply wrong).
func EncodeInt(rng io.Reader, v uint64, numBits int) (*Submission, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	s, err := splitUint64(rng, v&mask(numBits))
	if err != nil {
		return nil, err
	}
	return &Submission{ID: id, Int: &s}, nil
}

func mask(numBits int) uint64 {
	if numBits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(numBits)) - 1
}

// EncodeVar builds a VarShare submission plus its SNIP proof for
// VAR_OP/STDDEV_OP: the OT payload carries v and v*v XOR-split, and
// the SNIP proof (circuit.CheckVar) asserts the claimed v*v really is
// v squared, both derived from the same plaintext v so a passing
// proof actually vouches for the summed v*v.
func EncodeVar(rng io.Reader, p *field.Prime, v int64) (*Submission, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	vv := v * v

	vShares, err := splitUint64(rng, uint64(v))
	if err != nil {
		return nil, err
	}
	vvShares, err := splitUint64(rng, uint64(vv))
	if err != nil {
		return nil, err
	}

	c := circuit.CheckVar()
	x := p.FromInt64(v)
	y := p.FromInt64(vv)
	pkt0, pkt1, err := snip.Prove(rng, p, c, []*field.Elt{x, y})
	if err != nil {
		return nil, err
	}

	return &Submission{
		ID:    id,
		Var:   &VarSharePair{V: vShares, VV: vvShares},
		SNIP0: pkt0,
		SNIP1: pkt1,
	}, nil
}

// EncodeLinReg builds a LinRegShare(d) submission plus its SNIP
// proof: x holds the d-1 independent variables and y the dependent
// one; every pairwise product and every x_j*y product is computed
// here, XOR-split for the OT sum, and asserted by circuit.CheckLinReg
// via the same values.
func EncodeLinReg(rng io.Reader, p *field.Prime, x []int64, y int64) (*Submission, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	nx := len(x)
	c := circuit.CheckLinReg(nx + 1)

	inputs := make([]*field.Elt, 0, nx+1+nx*(nx+1)/2+nx)
	xElt := make([]*field.Elt, nx)
	for j, xv := range x {
		xElt[j] = p.FromInt64(xv)
		inputs = append(inputs, xElt[j])
	}
	yElt := p.FromInt64(y)
	inputs = append(inputs, yElt)
	for j := 0; j < nx; j++ {
		for k := j; k < nx; k++ {
			inputs = append(inputs, xElt[j].Mul(xElt[k]))
		}
	}
	for j := 0; j < nx; j++ {
		inputs = append(inputs, xElt[j].Mul(yElt))
	}

	pkt0, pkt1, err := snip.Prove(rng, p, c, inputs)
	if err != nil {
		return nil, err
	}

	lr := &LinRegSharePair{
		X:  make([]Uint64Shares, nx),
		XY: make([]Uint64Shares, nx),
		XX: make(map[[2]int]Uint64Shares),
	}
	for j, xv := range x {
		lr.X[j], err = splitUint64(rng, uint64(xv))
		if err != nil {
			return nil, err
		}
	}
	lr.Y, err = splitUint64(rng, uint64(y))
	if err != nil {
		return nil, err
	}
	for j := 0; j < nx; j++ {
		for k := j; k < nx; k++ {
			lr.XX[[2]int{j, k}], err = splitUint64(rng, uint64(x[j]*x[k]))
			if err != nil {
				return nil, err
			}
		}
	}
	for j := 0; j < nx; j++ {
		lr.XY[j], err = splitUint64(rng, uint64(x[j]*y))
		if err != nil {
			return nil, err
		}
	}

	return &Submission{ID: id, LinReg: lr, SNIP0: pkt0, SNIP1: pkt1}, nil
}

// EncodeMax builds a MaxShare(B) submission: array[pos] = 1 iff v >=
// pos, for pos in [0, B], the threshold encoding package aggregate's
// MaxServer0/1 expects (see DESIGN.md for why this is a threshold,
// not exact one-hot, encoding).
func EncodeMax(rng io.Reader, b, v int) (*Submission, error) {
	return encodeThreshold(rng, b, v, true)
}

// EncodeMin builds a MaxShare(B) submission for MIN_OP: array[pos] =
// 1 iff v <= pos.
func EncodeMin(rng io.Reader, b, v int) (*Submission, error) {
	return encodeThreshold(rng, b, v, false)
}

func encodeThreshold(rng io.Reader, b, v int, ge bool) (*Submission, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	arr := make([]bool, b+1)
	for pos := 0; pos <= b; pos++ {
		if ge {
			arr[pos] = v >= pos
		} else {
			arr[pos] = v <= pos
		}
	}
	s0, s1, err := splitBoolArray(rng, arr)
	if err != nil {
		return nil, err
	}
	return &Submission{ID: id, Array0: s0, Array1: s1}, nil
}

// EncodeFreq builds a FreqShare(m) submission for FREQ_OP: exact
// one-hot, array[pos] = 1 iff v == pos.
func EncodeFreq(rng io.Reader, m, v int) (*Submission, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	arr := make([]bool, m)
	if v >= 0 && v < m {
		arr[v] = true
	}
	s0, s1, err := splitBoolArray(rng, arr)
	if err != nil {
		return nil, err
	}
	return &Submission{ID: id, Array0: s0, Array1: s1}, nil
}

// EncodeCountMin builds a FreqShare(d*w) submission for COUNTMIN_OP:
// one one-hot row per hash function, flattened row-major (row h,
// bucket hf.Hash(h, v)).
func EncodeCountMin(rng io.Reader, hf *aggregate.HashFamily, w int, v uint64) (*Submission, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	arr := make([]bool, hf.D()*w)
	for h := 0; h < hf.D(); h++ {
		arr[h*w+hf.Hash(h, v)] = true
	}
	s0, s1, err := splitBoolArray(rng, arr)
	if err != nil {
		return nil, err
	}
	return &Submission{ID: id, Array0: s0, Array1: s1}, nil
}

// EncodeHeavy builds a FreqShare(L*d*w + 2^(num_bits-L)) submission
// for HEAVY_OP (spec.md §3/§4.5): one one-hot count-min row per
// stratification depth, keyed by v's low (depth+1) bits, followed by
// an exact one-hot tail histogram over v's remaining numBits-L high
// bits. families must be derived via aggregate.HeavyHashFamilies with
// the same seed the round's HeavyConfig carries, so the server's
// sketches interpret the same buckets.
func EncodeHeavy(rng io.Reader, families []*aggregate.HashFamily, w, numBits int, v uint64) (*Submission, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	l := len(families)
	tailBits := numBits - l
	if tailBits < 0 {
		tailBits = 0
	}

	var arr []bool
	for depth, hf := range families {
		prefix := v & ((uint64(1) << uint(depth+1)) - 1)
		row := make([]bool, hf.D()*w)
		for h := 0; h < hf.D(); h++ {
			row[h*w+hf.Hash(h, prefix)] = true
		}
		arr = append(arr, row...)
	}
	if tailBits > 0 {
		tail := make([]bool, 1<<uint(tailBits))
		suffix := v >> uint(l)
		if int(suffix) < len(tail) {
			tail[suffix] = true
		}
		arr = append(arr, tail...)
	}

	s0, s1, err := splitBoolArray(rng, arr)
	if err != nil {
		return nil, err
	}
	return &Submission{ID: id, Array0: s0, Array1: s1}, nil
}
