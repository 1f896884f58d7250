//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package client

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/secureagg/aggregate"
	"github.com/markkurossi/secureagg/crypto/circuit"
	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/markkurossi/secureagg/crypto/snip"
	"github.com/markkurossi/secureagg/pk"
	"github.com/markkurossi/secureagg/proto"
	"github.com/markkurossi/secureagg/share"
)

// snipVerifies runs one submission's SNIP proof through a real
// Server0/Server1 presence-and-verify exchange over an in-memory
// pipe and reports whether both sides accepted it, mirroring how
// package server's ingest/protocol pipeline actually uses a
// submission's packets.
func snipVerifies(t *testing.T, p *field.Prime, c *circuit.Circuit, pkt0, pkt1 *snip.Packet) bool {
	t.Helper()
	id, err := pk.New()
	require.NoError(t, err)

	r0 := aggregate.NewRound()
	r1 := aggregate.NewRound()
	r0.Ingest(id, true)
	r1.Ingest(id, true)

	a, b := proto.Pipe()
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var err1 error
	go func() {
		defer wg.Done()
		err1 = r1.RunSNIP(b, share.Server1, p, c, rand.Reader, []*snip.Packet{pkt1})
	}()
	err0 := r0.RunSNIP(a, share.Server0, p, c, rand.Reader, []*snip.Packet{pkt0})
	wg.Wait()
	require.NoError(t, err0)
	require.NoError(t, err1)

	require.Equal(t, r0.Valid[0], r1.Valid[0])
	return r0.Valid[0]
}

func TestEncodeBitXORsToValue(t *testing.T) {
	for _, v := range []bool{true, false} {
		sub, err := EncodeBit(rand.Reader, v)
		require.NoError(t, err)
		require.Equal(t, v, sub.Bit.S0 != sub.Bit.S1)
	}
}

func TestEncodeIntXORsToValue(t *testing.T) {
	sub, err := EncodeInt(rand.Reader, 12345, 16)
	require.NoError(t, err)
	require.Equal(t, uint64(12345), sub.Int.S0^sub.Int.S1)
}

func TestEncodeIntMasksToNumBits(t *testing.T) {
	sub, err := EncodeInt(rand.Reader, 0xffffffff, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(0xff), sub.Int.S0^sub.Int.S1)
}

// TestEncodeVarProvesItsOwnShares checks the cross-consistency
// invariant package client's doc comment describes: the SNIP proof
// and the OT-summed payload must vouch for the same plaintext.
func TestEncodeVarProvesItsOwnShares(t *testing.T) {
	p := field.DefaultPrime()
	sub, err := EncodeVar(rand.Reader, p, 7)
	require.NoError(t, err)

	v := sub.Var.V.S0 ^ sub.Var.V.S1
	vv := sub.Var.VV.S0 ^ sub.Var.VV.S1
	require.Equal(t, uint64(7), v)
	require.Equal(t, uint64(49), vv)

	c := circuit.CheckVar()
	require.True(t, snipVerifies(t, p, c, sub.SNIP0, sub.SNIP1))
}

func TestEncodeLinRegProvesItsOwnShares(t *testing.T) {
	p := field.DefaultPrime()
	sub, err := EncodeLinReg(rand.Reader, p, []int64{3, 5}, 11)
	require.NoError(t, err)

	require.Equal(t, uint64(3), sub.LinReg.X[0].S0^sub.LinReg.X[0].S1)
	require.Equal(t, uint64(5), sub.LinReg.X[1].S0^sub.LinReg.X[1].S1)
	require.Equal(t, uint64(11), sub.LinReg.Y.S0^sub.LinReg.Y.S1)
	xx := sub.LinReg.XX[[2]int{0, 1}]
	require.Equal(t, uint64(15), xx.S0^xx.S1) // x0*x1

	c := circuit.CheckLinReg(3)
	require.True(t, snipVerifies(t, p, c, sub.SNIP0, sub.SNIP1))
}

func TestEncodeMaxMinThreshold(t *testing.T) {
	maxSub, err := EncodeMax(rand.Reader, 5, 3)
	require.NoError(t, err)
	for pos := 0; pos <= 5; pos++ {
		require.Equal(t, pos <= 3, maxSub.Array0[pos] != maxSub.Array1[pos])
	}

	minSub, err := EncodeMin(rand.Reader, 5, 3)
	require.NoError(t, err)
	for pos := 0; pos <= 5; pos++ {
		require.Equal(t, pos >= 3, minSub.Array0[pos] != minSub.Array1[pos])
	}
}

func TestEncodeFreqOneHot(t *testing.T) {
	sub, err := EncodeFreq(rand.Reader, 8, 3)
	require.NoError(t, err)
	for pos := 0; pos < 8; pos++ {
		require.Equal(t, pos == 3, sub.Array0[pos] != sub.Array1[pos])
	}
}
