//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package snip

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/secureagg/crypto/circuit"
	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/markkurossi/secureagg/share"
	"github.com/markkurossi/secureagg/proto"
)

func runTwoParty(t *testing.T, f0, f1 func(conn *proto.Conn) error) {
	t.Helper()
	a, b := proto.Pipe()
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var err1 error
	go func() {
		defer wg.Done()
		err1 = f1(b)
	}()

	err0 := f0(a)
	wg.Wait()
	require.NoError(t, err0)
	require.NoError(t, err1)
}

func verifyBoth(t *testing.T, p *field.Prime, c *circuit.Circuit, pkt0, pkt1 *Packet) (bool, bool) {
	t.Helper()
	var x0, x1 *field.Elt
	var ok0, ok1 bool

	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		x0, err = DrawChallenge(conn, share.Server0, p, rand.Reader)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		x1, err = DrawChallenge(conn, share.Server1, p, rand.Reader)
		return err
	})
	require.True(t, x0.Equal(x1))

	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		ok0, err = Verify(conn, share.Server0, p, c, pkt0, x0)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		ok1, err = Verify(conn, share.Server1, p, c, pkt1, x1)
		return err
	})
	return ok0, ok1
}

func TestProveVerifyCheckVarHonest(t *testing.T) {
	p := field.DefaultPrime()
	c := circuit.CheckVar()

	x := p.FromInt64(6)
	y := p.FromInt64(36)
	pkt0, pkt1, err := Prove(rand.Reader, p, c, []*field.Elt{x, y})
	require.NoError(t, err)

	ok0, ok1 := verifyBoth(t, p, c, pkt0, pkt1)
	require.True(t, ok0)
	require.True(t, ok1)
}

func TestProveVerifyCheckVarCheating(t *testing.T) {
	p := field.DefaultPrime()
	c := circuit.CheckVar()

	x := p.FromInt64(6)
	y := p.FromInt64(37) // should be 36
	pkt0, pkt1, err := Prove(rand.Reader, p, c, []*field.Elt{x, y})
	require.NoError(t, err)

	ok0, ok1 := verifyBoth(t, p, c, pkt0, pkt1)
	require.False(t, ok0)
	require.False(t, ok1)
}

func TestProveVerifyCheckLinReg(t *testing.T) {
	p := field.DefaultPrime()
	c := circuit.CheckLinReg(3)

	x1 := p.FromInt64(2)
	x2 := p.FromInt64(5)
	y := p.FromInt64(9)
	inputs := []*field.Elt{
		x1, x2, y,
		x1.Mul(x1), x1.Mul(x2), x2.Mul(x2),
		x1.Mul(y), x2.Mul(y),
	}
	pkt0, pkt1, err := Prove(rand.Reader, p, c, inputs)
	require.NoError(t, err)

	ok0, ok1 := verifyBoth(t, p, c, pkt0, pkt1)
	require.True(t, ok0)
	require.True(t, ok1)
}

func TestProveVerifyCheckLinRegCheating(t *testing.T) {
	p := field.DefaultPrime()
	c := circuit.CheckLinReg(3)

	x1 := p.FromInt64(2)
	x2 := p.FromInt64(5)
	y := p.FromInt64(9)
	inputs := []*field.Elt{
		x1, x2, y,
		x1.Mul(x1), x1.Mul(x2), x2.Mul(x2),
		x1.Mul(y), x2.Mul(y).Add(p.FromInt64(1)), // tampered claim
	}
	pkt0, pkt1, err := Prove(rand.Reader, p, c, inputs)
	require.NoError(t, err)

	ok0, ok1 := verifyBoth(t, p, c, pkt0, pkt1)
	require.False(t, ok0)
	require.False(t, ok1)
}
