//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package circuit implements the arithmetic-circuit layer spec.md
// §4.1 describes: a fixed sequence of gates over Fp with kinds
// {input, add, multiply, scalar-multiply, negate}, used to express
// each statistic's validity predicate as a circuit whose output must
// equal 0 iff the client's plaintext submission is well-formed.
//
// Both circuits spec.md §4.1 names (CheckVar and CheckLinReg) share
// one restriction that keeps the SNIP protocol in package
// crypto/snip tractable: every multiplication gate's two factors are
// either raw circuit inputs or affine (add/negate/scalar-multiply)
// combinations of raw inputs — no gate multiplies the output of
// another multiplication gate. This matches how the two circuits are
// actually specified (every product is x_i*x_j, x_i*y, or x*x) and
// lets the prover/verifier treat each multiplication gate's claimed
// product as checked against another raw input (the client's claimed
// cross-product value) rather than against a chain of derived wires.
package circuit

import (
	"github.com/markkurossi/secureagg/crypto/field"
)

// Kind is a gate's operation.
type Kind int

// Gate kinds, per spec.md §4.1.
const (
	Input Kind = iota
	Add
	Multiply
	ScalarMultiply
	Negate
)

// Gate is one node of the circuit. In0/In1 are indices into the
// circuit's wire array (which input gates populate from the
// external input vector, and other gates populate by combining
// earlier wires). Scalar holds the multiplier for ScalarMultiply
// gates. For Multiply gates, Claim names the wire the client claims
// the product equals; the prover/verifier in crypto/snip combines
// every multiplication gate's claim check into one random linear
// combination, opened and checked separately from the h = f*g
// identity.
type Gate struct {
	Kind   Kind
	In0    int
	In1    int
	Scalar int64
	Claim  int
}

// Circuit is a fixed sequence of gates. Gates are indexed by
// position; wire i is the output of gate i. Input gates must come
// first, in input-vector order.
type Circuit struct {
	Gates     []Gate
	NumInputs int
}

// NMul returns the number of multiplication gates.
func (c *Circuit) NMul() int {
	n := 0
	for _, g := range c.Gates {
		if g.Kind == Multiply {
			n++
		}
	}
	return n
}

// N returns the next power of two that is >= NMul()+1, the
// interpolation-domain size the SNIP prover needs (spec.md §4.1,
// §4.2).
func (c *Circuit) N() int {
	return nextPow2(c.NMul() + 1)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// MulGates returns the wire indices of every multiplication gate, in
// circuit order; gate index i corresponds to SNIP root ω^(i+1) (root
// ω^0 is reserved for the blinding term f0/g0).
func (c *Circuit) MulGates() []int {
	var out []int
	for i, g := range c.Gates {
		if g.Kind == Multiply {
			out = append(out, i)
		}
	}
	return out
}

// Eval evaluates every gate in the clear given the circuit's input
// vector, returning the value of every wire. Used by the client
// (prover), which holds the plaintext submission.
func (c *Circuit) Eval(p *field.Prime, inputs []*field.Elt) []*field.Elt {
	wires := make([]*field.Elt, len(c.Gates))
	inputIdx := 0
	for i, g := range c.Gates {
		switch g.Kind {
		case Input:
			wires[i] = inputs[inputIdx]
			inputIdx++
		case Add:
			wires[i] = wires[g.In0].Add(wires[g.In1])
		case Multiply:
			wires[i] = wires[g.In0].Mul(wires[g.In1])
		case ScalarMultiply:
			wires[i] = wires[g.In0].ScalarMul(g.Scalar)
		case Negate:
			wires[i] = wires[g.In0].Neg()
		}
	}
	_ = p
	return wires
}

// CheckVar builds the circuit asserting x*x - y = 0, for the VAR_OP
// / STDDEV_OP statistics' per-submission correctness proof (spec.md
// §4.1).
func CheckVar() *Circuit {
	c := &Circuit{NumInputs: 2}
	// wire 0: x
	c.Gates = append(c.Gates, Gate{Kind: Input})
	// wire 1: y
	c.Gates = append(c.Gates, Gate{Kind: Input})
	// wire 2: x*x, claimed to equal y (wire 1)
	c.Gates = append(c.Gates, Gate{Kind: Multiply, In0: 0, In1: 0, Claim: 1})
	return c
}

// CheckLinReg builds the circuit asserting every claimed product in
// a degree-d linear-regression submission equals the product of its
// claimed factors (spec.md §4.1): inputs are x_1..x_{d-1}, y, the
// d(d-1)/2 pairwise products x_j*x_k (1<=j<=k<=d-1, in
// lexicographic (j,k) order), and the d-1 products x_j*y.
func CheckLinReg(d int) *Circuit {
	nx := d - 1
	c := &Circuit{}

	// Input wires: x_1..x_{nx}, then y.
	xWire := make([]int, nx)
	for j := 0; j < nx; j++ {
		xWire[j] = len(c.Gates)
		c.Gates = append(c.Gates, Gate{Kind: Input})
	}
	yWire := len(c.Gates)
	c.Gates = append(c.Gates, Gate{Kind: Input})

	// Input wires: claimed x_j*x_k products, j<=k.
	xxWire := make(map[[2]int]int)
	for j := 0; j < nx; j++ {
		for k := j; k < nx; k++ {
			xxWire[[2]int{j, k}] = len(c.Gates)
			c.Gates = append(c.Gates, Gate{Kind: Input})
		}
	}

	// Input wires: claimed x_j*y products.
	xyWire := make([]int, nx)
	for j := 0; j < nx; j++ {
		xyWire[j] = len(c.Gates)
		c.Gates = append(c.Gates, Gate{Kind: Input})
	}

	// Multiplication gates, one per claim, each asserted against its
	// claimed input wire.
	for j := 0; j < nx; j++ {
		for k := j; k < nx; k++ {
			c.Gates = append(c.Gates, Gate{
				Kind: Multiply, In0: xWire[j], In1: xWire[k],
				Claim: xxWire[[2]int{j, k}],
			})
		}
	}
	for j := 0; j < nx; j++ {
		c.Gates = append(c.Gates, Gate{
			Kind: Multiply, In0: xWire[j], In1: yWire,
			Claim: xyWire[j],
		})
	}

	c.NumInputs = nx + 1 + len(xxWire) + nx
	return c
}
