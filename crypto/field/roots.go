//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package field

import (
	"fmt"
	"math/big"
)

// goldilocksPrime is 2^64 - 2^32 + 1, the modulus the default
// deployment uses. It was chosen for being NTT-friendly: p-1 =
// 2^32 * (2^32-1), so Fp* contains elements of every order up to
// 2^32, which is far more than any circuit crypto/snip builds needs
// for its roots-of-unity interpolation domain (spec.md §4.1, §4.2).
// A deployment whose numBits/population size does not satisfy
// Suitable against this modulus must supply a larger one; see
// SPEC_FULL.md's configuration-error handling.
var goldilocksPrime, _ = new(big.Int).SetString("18446744069414584321", 10)

// goldilocksGenerator is a generator of Fp*, per the Goldilocks
// field's documented multiplicative-group generator.
var goldilocksGenerator = big.NewInt(7)

// DefaultPrime returns the default deployment modulus, the
// Goldilocks prime 2^64-2^32+1.
func DefaultPrime() *Prime {
	return NewPrime(goldilocksPrime)
}

// RootOfUnity returns a primitive n-th root of unity in p, where n
// must be a power of two dividing p-1. It returns an error if p is
// not the default Goldilocks prime or n does not divide p-1 evenly
// as a power of two; crypto/snip's interpolation domain sizes are
// always powers of two so this covers every case that arises from
// circuit.Circuit.N().
func (p *Prime) RootOfUnity(n int) (*Elt, error) {
	if p.P.Cmp(goldilocksPrime) != 0 {
		return nil, fmt.Errorf("field: root of unity only supported for the default prime")
	}
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("field: n=%d is not a power of two", n)
	}
	pMinus1 := new(big.Int).Sub(p.P, big.NewInt(1))
	nBig := big.NewInt(int64(n))
	q, r := new(big.Int).QuoRem(pMinus1, nBig, new(big.Int))
	if r.Sign() != 0 {
		return nil, fmt.Errorf("field: %d does not divide p-1", n)
	}
	z := new(big.Int).Exp(goldilocksGenerator, q, p.P)
	return &Elt{v: z, p: p}, nil
}
