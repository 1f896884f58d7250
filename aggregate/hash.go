//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aggregate

import (
	"fmt"
	"math/big"

	"github.com/markkurossi/secureagg/crypto/prg"
)

// hashModulus is a convenient working prime for the affine universal
// hash family below: large enough that a, b, and any key below
// 2^61-1 never collide through modular wraparound before the final
// reduction into [0, w); keys at or above 2^61-1 do wrap.
var hashModulus, _ = new(big.Int).SetString("2305843009213693951", 10) // 2^61-1

// HashFamily is the deterministically seeded d-wise universal hash
// family spec.md §4.5 requires for COUNTMIN and HEAVY: both the
// client and the two servers derive byte-identical hash functions
// from the same PRG seed carried in the round's HeavyConfig, so no
// coordination beyond that seed is needed.
type HashFamily struct {
	w    int
	a, b []*big.Int
}

// NewHashFamily derives d independent hash functions ax+b mod
// hashModulus, mod w, keyed off sub-seeds of seed labelled by index.
func NewHashFamily(seed prg.Seed, d, w int) (*HashFamily, error) {
	if w <= 0 {
		return nil, fmt.Errorf("aggregate: hash family width must be positive")
	}
	hf := &HashFamily{w: w, a: make([]*big.Int, d), b: make([]*big.Int, d)}
	for i := 0; i < d; i++ {
		sub := prg.Sub(seed, fmt.Sprintf("countmin-hash-%d", i))
		s, err := prg.NewStream(sub)
		if err != nil {
			return nil, err
		}
		hf.a[i] = new(big.Int).Mod(new(big.Int).SetUint64(s.Uint64()), hashModulus)
		hf.b[i] = new(big.Int).Mod(new(big.Int).SetUint64(s.Uint64()), hashModulus)
	}
	return hf, nil
}

// HeavyHashFamilies derives the L independent per-depth hash
// families HEAVY_OP's stratified count-min sketches need (spec.md
// §4.5): depth i's family estimates frequencies of a value's low
// (i+1)-bit prefix. Each depth gets its own sub-seed labelled by index, so
// client and both servers derive byte-identical families from the
// same round seed with no further coordination.
func HeavyHashFamilies(seed prg.Seed, l, d, w int) ([]*HashFamily, error) {
	out := make([]*HashFamily, l)
	for depth := 0; depth < l; depth++ {
		sub := prg.Sub(seed, fmt.Sprintf("heavy-depth-%d", depth))
		hf, err := NewHashFamily(sub, d, w)
		if err != nil {
			return nil, err
		}
		out[depth] = hf
	}
	return out, nil
}

// Hash returns hash function i's bucket in [0, w) for key v.
func (hf *HashFamily) Hash(i int, v uint64) int {
	x := new(big.Int).SetUint64(v)
	z := new(big.Int).Mul(hf.a[i], x)
	z.Add(z, hf.b[i])
	z.Mod(z, hashModulus)
	z.Mod(z, big.NewInt(int64(hf.w)))
	return int(z.Int64())
}

// D returns the number of hash functions in the family.
func (hf *HashFamily) D() int {
	return len(hf.a)
}
