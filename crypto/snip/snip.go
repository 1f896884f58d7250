//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package snip implements the Secret-shared Non-Interactive Proof
// prover and verifier spec.md §4.2 describes: the client (prover)
// interpolates f, g, h = f*g over a circuit.Circuit's multiplication
// gates and splits the result into two additive-share packets; the
// two servers (verifier) jointly check f(X)*g(X) = h(X) at a shared
// random challenge X via a Beaver-masked exchange, without either
// server ever reconstructing a client's plaintext input.
//
// The Beaver triple a SNIP packet carries is dealt by the client
// itself, not generated by the two servers over OT: since the
// triple only ever masks this one client's own proof, the client can
// pick A, B uniformly and compute C = A*B directly, same as the
// teacher's crypto/spdz package treats triples as opaque
// pre-shared material the protocol consumes.
package snip

import (
	"io"

	"github.com/markkurossi/secureagg/crypto/circuit"
	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/markkurossi/secureagg/share"
	"github.com/markkurossi/secureagg/proto"
)

// Packet is one server's additive share of a client's SNIP proof
// (the ClientPacket of spec.md §3): shares of f and g's blinding
// constant terms, of every multiplication gate's left/right input,
// of h's 2N-1 committed point evaluations, and of one fresh Beaver
// triple.
type Packet struct {
	F0, G0            *field.Elt
	MulLeft, MulRight []*field.Elt
	HPoints           []*field.Elt
	// Claims holds, for each multiplication gate in circuit order,
	// this party's share of the wire the client claims that gate's
	// product equals (circuit.Gate.Claim). Verify checks each gate's
	// real product (recovered from HPoints once the h=f*g identity
	// below holds) against this claim, folded into one random linear
	// combination so a dishonest client can't zero out the check by
	// making several gates' errors cancel.
	Claims  []*field.Elt
	TripleA *field.Elt
	TripleB *field.Elt
	TripleC *field.Elt
}

// domain returns the n roots of unity ω^0..ω^(n-1) that f and g are
// interpolated over.
func domain(p *field.Prime, n int) ([]*field.Elt, error) {
	root, err := p.RootOfUnity(n)
	if err != nil {
		return nil, err
	}
	out := make([]*field.Elt, n)
	out[0] = p.FromInt64(1)
	for i := 1; i < n; i++ {
		out[i] = out[i-1].Mul(root)
	}
	return out, nil
}

// hDomain extends the n roots of unity with n-1 extra points, giving
// the 2n-1 points needed to commit to h = f*g (degree 2n-2).
func hDomain(p *field.Prime, roots []*field.Elt, n int) []*field.Elt {
	d := make([]*field.Elt, 0, 2*n-1)
	d = append(d, roots...)
	for i := 0; i < n-1; i++ {
		d = append(d, p.FromInt64(int64(n+i)))
	}
	return d
}

// mulLinear multiplies a polynomial (coefficients low-to-high) by
// the monomial (x - root).
func mulLinear(p *field.Prime, coeffs []*field.Elt, root *field.Elt) []*field.Elt {
	out := make([]*field.Elt, len(coeffs)+1)
	for i := range out {
		out[i] = p.Zero()
	}
	for i, c := range coeffs {
		out[i+1] = out[i+1].Add(c)
		out[i] = out[i].Sub(c.Mul(root))
	}
	return out
}

// interpolateToCoeffs returns the coefficients (low-to-high) of the
// unique degree len(xs)-1 polynomial through (xs[i], ys[i]).
func interpolateToCoeffs(p *field.Prime, xs, ys []*field.Elt) []*field.Elt {
	n := len(xs)
	coeffs := make([]*field.Elt, n)
	for i := range coeffs {
		coeffs[i] = p.Zero()
	}
	for i := 0; i < n; i++ {
		numer := []*field.Elt{p.FromInt64(1)}
		denom := p.FromInt64(1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			numer = mulLinear(p, numer, xs[j])
			denom = denom.Mul(xs[i].Sub(xs[j]))
		}
		scale := ys[i].Mul(denom.Inv())
		for k := range numer {
			coeffs[k] = coeffs[k].Add(numer[k].Mul(scale))
		}
	}
	return coeffs
}

// multiplyPoly returns the coefficient-form product of two
// polynomials (convolution).
func multiplyPoly(p *field.Prime, a, b []*field.Elt) []*field.Elt {
	out := make([]*field.Elt, len(a)+len(b)-1)
	for i := range out {
		out[i] = p.Zero()
	}
	for i, av := range a {
		if av.IsZero() {
			continue
		}
		for j, bv := range b {
			out[i+j] = out[i+j].Add(av.Mul(bv))
		}
	}
	return out
}

// evalPoly evaluates a polynomial (coefficients low-to-high) at x via
// Horner's method.
func evalPoly(p *field.Prime, coeffs []*field.Elt, x *field.Elt) *field.Elt {
	acc := p.Zero()
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = acc.Mul(x).Add(coeffs[i])
	}
	return acc
}

// lagrangeBasis returns L_i(x) for the public domain xs, the i-th
// Lagrange basis polynomial evaluated at x.
func lagrangeBasis(xs []*field.Elt, i int, x *field.Elt) *field.Elt {
	num := x.Prime().FromInt64(1)
	den := x.Prime().FromInt64(1)
	for j := range xs {
		if j == i {
			continue
		}
		num = num.Mul(x.Sub(xs[j]))
		den = den.Mul(xs[i].Sub(xs[j]))
	}
	return num.Mul(den.Inv())
}

// lagrangeEvalShare evaluates, on one party's additive shares
// yShares of the values at domain xs, that party's share of the
// interpolated polynomial's value at x. Since the Lagrange basis
// coefficients depend only on the public domain and x, this is a
// local linear combination requiring no communication (spec.md §4.2
// step 1).
func lagrangeEvalShare(xs []*field.Elt, yShares []*field.Elt, x *field.Elt) *field.Elt {
	acc := x.Prime().Zero()
	for i := range xs {
		acc = acc.Add(yShares[i].Mul(lagrangeBasis(xs, i, x)))
	}
	return acc
}

// Prove runs the SNIP prover: given the circuit and the client's
// plaintext inputs, it returns the two servers' additive-share
// packets.
func Prove(rng io.Reader, p *field.Prime, c *circuit.Circuit, inputs []*field.Elt) (pkt0, pkt1 *Packet, err error) {
	nmul := c.NMul()
	n := c.N()
	wires := c.Eval(p, inputs)

	roots, err := domain(p, n)
	if err != nil {
		return nil, nil, err
	}

	fVals := make([]*field.Elt, n)
	gVals := make([]*field.Elt, n)

	f0, err := p.Random(rng)
	if err != nil {
		return nil, nil, err
	}
	g0, err := p.Random(rng)
	if err != nil {
		return nil, nil, err
	}
	fVals[0], gVals[0] = f0, g0

	mulGates := c.MulGates()
	for i, gi := range mulGates {
		g := c.Gates[gi]
		fVals[i+1] = wires[g.In0]
		gVals[i+1] = wires[g.In1]
	}
	for i := nmul + 1; i < n; i++ {
		fVals[i] = p.Zero()
		gVals[i] = p.Zero()
	}

	fCoeffs := interpolateToCoeffs(p, roots, fVals)
	gCoeffs := interpolateToCoeffs(p, roots, gVals)
	hCoeffs := multiplyPoly(p, fCoeffs, gCoeffs)

	hd := hDomain(p, roots, n)
	hVals := make([]*field.Elt, len(hd))
	for i, pt := range hd {
		hVals[i] = evalPoly(p, hCoeffs, pt)
	}

	a, err := p.Random(rng)
	if err != nil {
		return nil, nil, err
	}
	b, err := p.Random(rng)
	if err != nil {
		return nil, nil, err
	}
	cc := a.Mul(b)

	pkt0 = &Packet{
		MulLeft:  make([]*field.Elt, nmul),
		MulRight: make([]*field.Elt, nmul),
		HPoints:  make([]*field.Elt, len(hVals)),
		Claims:   make([]*field.Elt, nmul),
	}
	pkt1 = &Packet{
		MulLeft:  make([]*field.Elt, nmul),
		MulRight: make([]*field.Elt, nmul),
		HPoints:  make([]*field.Elt, len(hVals)),
		Claims:   make([]*field.Elt, nmul),
	}

	split := func(v *field.Elt) (*field.Elt, *field.Elt, error) {
		s0, err := p.Random(rng)
		if err != nil {
			return nil, nil, err
		}
		return s0, v.Sub(s0), nil
	}

	if pkt0.F0, pkt1.F0, err = split(f0); err != nil {
		return nil, nil, err
	}
	if pkt0.G0, pkt1.G0, err = split(g0); err != nil {
		return nil, nil, err
	}
	for i, gi := range mulGates {
		if pkt0.MulLeft[i], pkt1.MulLeft[i], err = split(fVals[i+1]); err != nil {
			return nil, nil, err
		}
		if pkt0.MulRight[i], pkt1.MulRight[i], err = split(gVals[i+1]); err != nil {
			return nil, nil, err
		}
		claimVal := wires[c.Gates[gi].Claim]
		if pkt0.Claims[i], pkt1.Claims[i], err = split(claimVal); err != nil {
			return nil, nil, err
		}
	}
	for i, v := range hVals {
		if pkt0.HPoints[i], pkt1.HPoints[i], err = split(v); err != nil {
			return nil, nil, err
		}
	}
	if pkt0.TripleA, pkt1.TripleA, err = split(a); err != nil {
		return nil, nil, err
	}
	if pkt0.TripleB, pkt1.TripleB, err = split(b); err != nil {
		return nil, nil, err
	}
	if pkt0.TripleC, pkt1.TripleC, err = split(cc); err != nil {
		return nil, nil, err
	}

	return pkt0, pkt1, nil
}

// DrawChallenge establishes the round's shared SNIP challenge X:
// Server1 draws it and sends it to Server0 before any submission is
// processed (spec.md §4.2, §5); both servers must land on the
// identical value or the entire round is invalid.
func DrawChallenge(conn *proto.Conn, role share.ServerID, p *field.Prime, rng io.Reader) (*field.Elt, error) {
	if role == share.Server1 {
		x, err := p.Random(rng)
		if err != nil {
			return nil, err
		}
		if err := conn.SendField(x); err != nil {
			return nil, err
		}
		if err := conn.Flush(); err != nil {
			return nil, err
		}
		return x, nil
	}
	return conn.RecvField(p)
}

// Verify runs one party's side of the two-server SNIP verification
// protocol (spec.md §4.2 steps 1-5) for a single submission's
// packet, returning whether the reconstructed check value is 0. If
// the circuit has no multiplication gates it is trivially valid and
// no communication occurs.
func Verify(conn *proto.Conn, role share.ServerID, p *field.Prime, c *circuit.Circuit, pkt *Packet, x *field.Elt) (bool, error) {
	nmul := c.NMul()
	if nmul == 0 {
		return true, nil
	}
	n := c.N()

	roots, err := domain(p, n)
	if err != nil {
		return false, err
	}
	hd := hDomain(p, roots, n)

	fShares := make([]*field.Elt, n)
	gShares := make([]*field.Elt, n)
	fShares[0] = pkt.F0
	gShares[0] = pkt.G0
	for i := 0; i < nmul; i++ {
		fShares[i+1] = pkt.MulLeft[i]
		gShares[i+1] = pkt.MulRight[i]
	}
	for i := nmul + 1; i < n; i++ {
		fShares[i] = p.Zero()
		gShares[i] = p.Zero()
	}

	fx := lagrangeEvalShare(roots, fShares, x)
	gx := lagrangeEvalShare(roots, gShares, x)
	hx := lagrangeEvalShare(hd, pkt.HPoints, x)

	d := fx.Sub(pkt.TripleA)
	e := gx.Sub(pkt.TripleB)

	dOpen, eOpen, err := openTwo(conn, role, d, e)
	if err != nil {
		return false, err
	}

	term := pkt.TripleC.Add(dOpen.Mul(pkt.TripleB)).Add(eOpen.Mul(pkt.TripleA))
	if role == share.Server0 {
		term = term.Add(dOpen.Mul(eOpen))
	}
	diffShare := term.Sub(hx)

	// Once f(X)*g(X) == h(X) holds (checked via diffShare), h is
	// identically the polynomial f*g, so h(root_i) truly is the real
	// product of gate i's two factors for every i — not just
	// probabilistically, since that's a polynomial identity holding
	// everywhere once it holds at the random X. hd's first n points
	// are exactly the roots in order, so HPoints[i+1] is already this
	// party's share of gate i's real product; no extra interpolation
	// or communication is needed to recover it.
	//
	// Each gate's real product is compared against its claimed wire,
	// weighted by a power of X so a dishonest client can't make
	// several gates' errors cancel in the combined sum. This combined
	// value MUST be opened and checked separately from diffShare,
	// not added to it: h's coefficients are otherwise free enough
	// that a dishonest client can pick them so the two checks' errors
	// cancel identically for every X, defeating both at once.
	claimDiff := p.Zero()
	weight := x
	for i := 0; i < nmul; i++ {
		gateDiff := pkt.HPoints[i+1].Sub(pkt.Claims[i])
		claimDiff = claimDiff.Add(gateDiff.Mul(weight))
		weight = weight.Mul(x)
	}

	sum1, sum2, err := openTwo(conn, role, diffShare, claimDiff)
	if err != nil {
		return false, err
	}
	return sum1.IsZero() && sum2.IsZero(), nil
}

// openTwo and openOne mirror the Server1-drives-first exchange
// ordering spec.md §5 requires of every peer exchange (grounded on
// the same pattern as package share's openTwoFieldElts).

func openTwo(conn *proto.Conn, role share.ServerID, s1, s2 *field.Elt) (*field.Elt, *field.Elt, error) {
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
	if role == share.Server1 {
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

// SendPacket writes one party's half of a client's SNIP proof to the
// wire (the ClientPacket payload of spec.md §3), as a sequence of
// framed field elements. The receiver must already know the circuit
// (and hence nmul and the number of h-points) from the round's init
// message, same as RecvPacket requires below.
func SendPacket(conn *proto.Conn, pkt *Packet) error {
	if err := conn.SendField(pkt.F0); err != nil {
		return err
	}
	if err := conn.SendField(pkt.G0); err != nil {
		return err
	}
	for i := range pkt.MulLeft {
		if err := conn.SendField(pkt.MulLeft[i]); err != nil {
			return err
		}
		if err := conn.SendField(pkt.MulRight[i]); err != nil {
			return err
		}
	}
	for _, h := range pkt.HPoints {
		if err := conn.SendField(h); err != nil {
			return err
		}
	}
	for _, cl := range pkt.Claims {
		if err := conn.SendField(cl); err != nil {
			return err
		}
	}
	if err := conn.SendField(pkt.TripleA); err != nil {
		return err
	}
	if err := conn.SendField(pkt.TripleB); err != nil {
		return err
	}
	if err := conn.SendField(pkt.TripleC); err != nil {
		return err
	}
	return conn.Flush()
}

// RecvPacket reads one party's half of a client's SNIP proof, sized
// for the given circuit (c.NMul() multiplication gates, 2*c.N()-1
// h-points).
func RecvPacket(conn *proto.Conn, p *field.Prime, c *circuit.Circuit) (*Packet, error) {
	nmul := c.NMul()
	n := c.N()
	pkt := &Packet{
		MulLeft:  make([]*field.Elt, nmul),
		MulRight: make([]*field.Elt, nmul),
		HPoints:  make([]*field.Elt, 2*n-1),
		Claims:   make([]*field.Elt, nmul),
	}
	var err error
	if pkt.F0, err = conn.RecvField(p); err != nil {
		return nil, err
	}
	if pkt.G0, err = conn.RecvField(p); err != nil {
		return nil, err
	}
	for i := 0; i < nmul; i++ {
		if pkt.MulLeft[i], err = conn.RecvField(p); err != nil {
			return nil, err
		}
		if pkt.MulRight[i], err = conn.RecvField(p); err != nil {
			return nil, err
		}
	}
	for i := range pkt.HPoints {
		if pkt.HPoints[i], err = conn.RecvField(p); err != nil {
			return nil, err
		}
	}
	for i := 0; i < nmul; i++ {
		if pkt.Claims[i], err = conn.RecvField(p); err != nil {
			return nil, err
		}
	}
	if pkt.TripleA, err = conn.RecvField(p); err != nil {
		return nil, err
	}
	if pkt.TripleB, err = conn.RecvField(p); err != nil {
		return nil, err
	}
	if pkt.TripleC, err = conn.RecvField(p); err != nil {
		return nil, err
	}
	return pkt, nil
}

func openOne(conn *proto.Conn, role share.ServerID, s *field.Elt) (*field.Elt, error) {
	var peer *field.Elt
	var err error
	if role == share.Server1 {
		if err = conn.SendField(s); err != nil {
			return nil, err
		}
		if err = conn.Flush(); err != nil {
			return nil, err
		}
		peer, err = conn.RecvField(s.Prime())
	} else {
		peer, err = conn.RecvField(s.Prime())
		if err != nil {
			return nil, err
		}
		if err = conn.SendField(s); err != nil {
			return nil, err
		}
		err = conn.Flush()
	}
	if err != nil {
		return nil, err
	}
	return s.Add(peer), nil
}
