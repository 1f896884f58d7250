//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package field implements arithmetic in a prime field Fp, where p is
// large enough that additive sums over a population of clients never
// wrap: p > 2^(2*numBits) * numClients.
package field

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
)

// ErrOutOfRange is returned when a value read off the wire does not
// satisfy 0 <= v < p.
var ErrOutOfRange = errors.New("field: value out of range")

// Elt is an element of Fp, always kept reduced into [0, p).
type Elt struct {
	v *big.Int
	p *Prime
}

// Prime holds a modulus shared by a round of the protocol: the chosen
// prime p, fixed once per deployment. No roots-of-unity table is
// cached alongside it; package snip recomputes the roots it needs
// from p on each Prove/Verify call.
type Prime struct {
	P *big.Int
}

// NewPrime wraps a modulus for use as a field context.
func NewPrime(p *big.Int) *Prime {
	return &Prime{P: new(big.Int).Set(p)}
}

// Suitable reports whether the prime is large enough to hold additive
// sums of numClients values of numBits width without wrapping, per
// spec.md §3: p > 2^(2*numBits) * numClients.
func (p *Prime) Suitable(numBits, numClients int) bool {
	bound := new(big.Int).Lsh(big.NewInt(1), uint(2*numBits))
	bound.Mul(bound, big.NewInt(int64(numClients)))
	return p.P.Cmp(bound) > 0
}

func (p *Prime) reduce(v *big.Int) *big.Int {
	z := new(big.Int).Mod(v, p.P)
	if z.Sign() < 0 {
		z.Add(z, p.P)
	}
	return z
}

// Zero returns the additive identity in p.
func (p *Prime) Zero() *Elt {
	return &Elt{v: big.NewInt(0), p: p}
}

// FromInt64 constructs an element from a signed int64, reduced mod p.
func (p *Prime) FromInt64(v int64) *Elt {
	return &Elt{v: p.reduce(big.NewInt(v)), p: p}
}

// FromBig constructs an element from a big.Int, reduced mod p.
func (p *Prime) FromBig(v *big.Int) *Elt {
	return &Elt{v: p.reduce(v), p: p}
}

// FromBytesChecked constructs an element from its big-endian
// representation, rejecting values outside [0, p) as spec.md §3
// requires for every Fp element received from the wire.
func (p *Prime) FromBytesChecked(b []byte) (*Elt, error) {
	v := new(big.Int).SetBytes(b)
	if v.Sign() < 0 || v.Cmp(p.P) >= 0 {
		return nil, ErrOutOfRange
	}
	return &Elt{v: v, p: p}, nil
}

// Random draws a uniform element of Fp using r as entropy source.
func (p *Prime) Random(r io.Reader) (*Elt, error) {
	v, err := rand.Int(r, p.P)
	if err != nil {
		return nil, err
	}
	return &Elt{v: v, p: p}, nil
}

// Int returns the element's big.Int value. The caller must not
// mutate it.
func (e *Elt) Int() *big.Int {
	return e.v
}

// Prime returns the field context the element belongs to.
func (e *Elt) Prime() *Prime {
	return e.p
}

// Bytes returns the element's big-endian byte representation, not
// padded.
func (e *Elt) Bytes() []byte {
	return e.v.Bytes()
}

// Add returns e + o mod p.
func (e *Elt) Add(o *Elt) *Elt {
	z := new(big.Int).Add(e.v, o.v)
	return &Elt{v: e.p.reduce(z), p: e.p}
}

// Sub returns e - o mod p.
func (e *Elt) Sub(o *Elt) *Elt {
	z := new(big.Int).Sub(e.v, o.v)
	return &Elt{v: e.p.reduce(z), p: e.p}
}

// Mul returns e * o mod p.
func (e *Elt) Mul(o *Elt) *Elt {
	z := new(big.Int).Mul(e.v, o.v)
	return &Elt{v: e.p.reduce(z), p: e.p}
}

// ScalarMul returns e * s mod p for a plain scalar s.
func (e *Elt) ScalarMul(s int64) *Elt {
	z := new(big.Int).Mul(e.v, big.NewInt(s))
	return &Elt{v: e.p.reduce(z), p: e.p}
}

// Neg returns -e mod p.
func (e *Elt) Neg() *Elt {
	z := new(big.Int).Neg(e.v)
	return &Elt{v: e.p.reduce(z), p: e.p}
}

// Inv returns the multiplicative inverse of e via Fermat's little
// theorem (p prime): e^(p-2) mod p.
func (e *Elt) Inv() *Elt {
	exp := new(big.Int).Sub(e.p.P, big.NewInt(2))
	z := new(big.Int).Exp(e.v, exp, e.p.P)
	return &Elt{v: z, p: e.p}
}

// Exp returns e^n mod p for a non-negative exponent n.
func (e *Elt) Exp(n *big.Int) *Elt {
	z := new(big.Int).Exp(e.v, n, e.p.P)
	return &Elt{v: z, p: e.p}
}

// IsZero reports whether e is the additive identity.
func (e *Elt) IsZero() bool {
	return e.v.Sign() == 0
}

// Equal reports whether e and o hold the same value.
func (e *Elt) Equal(o *Elt) bool {
	return e.v.Cmp(o.v) == 0
}

// String renders the element in hex, for debugging and test output.
func (e *Elt) String() string {
	return fmt.Sprintf("%x", e.v)
}

// Bounded reports whether 0 <= e < 2^bits, the range check spec.md
// §3 requires for IntShare/VarShare payloads.
func (e *Elt) Bounded(bits int) bool {
	bound := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return e.v.Sign() >= 0 && e.v.Cmp(bound) < 0
}
