//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package share

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/markkurossi/secureagg/proto"
)

func testPrime() *field.Prime {
	p, _ := new(big.Int).SetString("2305843009213693951", 10) // 2^61-1
	return field.NewPrime(p)
}

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

func TestGenerateFieldTriple(t *testing.T) {
	p := testPrime()

	var t0, t1 *FieldTriple
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		t0, err = GenerateFieldTriple(conn, p, Server0)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		t1, err = GenerateFieldTriple(conn, p, Server1)
		return err
	})

	a := t0.A.Add(t1.A)
	b := t0.B.Add(t1.B)
	c := t0.C.Add(t1.C)
	require.True(t, c.Equal(a.Mul(b)))
}

func TestGenerateDaBit(t *testing.T) {
	p := testPrime()

	var d0, d1 *DaBit
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		d0, err = GenerateDaBit(conn, p, Server0)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		d1, err = GenerateDaBit(conn, p, Server1)
		return err
	})

	boolVal := d0.Bool.Xor(d1.Bool)
	fpVal := d0.Fp.Add(d1.Fp)

	expected := p.FromInt64(0)
	if boolVal {
		expected = p.FromInt64(1)
	}
	require.True(t, fpVal.Equal(expected))
}

func TestGenerateEdaBit(t *testing.T) {
	p := testPrime()
	const n = 5

	var e0, e1 *EdaBit
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		e0, err = GenerateEdaBit(conn, p, Server0, n)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		e1, err = GenerateEdaBit(conn, p, Server1, n)
		return err
	})

	var intVal int64
	for i := 0; i < n; i++ {
		if e0.Bits[i].Xor(e1.Bits[i]) {
			intVal |= int64(1) << uint(i)
		}
	}

	fpVal := e0.Fp.Add(e1.Fp)
	require.True(t, fpVal.Equal(p.FromInt64(intVal)))
}

func TestGenerateBoolTriple(t *testing.T) {
	var t0, t1 *BoolTriple
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		t0, err = GenerateBoolTriple(conn, Server0)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		t1, err = GenerateBoolTriple(conn, Server1)
		return err
	})

	a := t0.A.Xor(t1.A)
	b := t0.B.Xor(t1.B)
	c := t0.C.Xor(t1.C)
	require.Equal(t, a.And(b), c)
}

func TestMulShare(t *testing.T) {
	p := testPrime()

	var t0, t1 *FieldTriple
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		t0, err = GenerateFieldTriple(conn, p, Server0)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		t1, err = GenerateFieldTriple(conn, p, Server1)
		return err
	})

	x := p.FromInt64(12)
	y := p.FromInt64(34)

	// Split x, y additively across the two parties.
	x0 := p.FromInt64(7)
	x1 := x.Sub(x0)
	y0 := p.FromInt64(20)
	y1 := y.Sub(y0)

	var s0, s1 *field.Elt
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		s0, err = MulShare(conn, Server0, x0, y0, t0)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		s1, err = MulShare(conn, Server1, x1, y1, t1)
		return err
	})

	require.True(t, s0.Add(s1).Equal(x.Mul(y)))
}
