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
	"github.com/markkurossi/secureagg/proto"
)

func TestSendRecvInitRoundTrip(t *testing.T) {
	cfg := aggregate.Config{Tag: aggregate.IntSumOp, NumBits: 32, NumInputs: 5, MaxInp: 0, Degree: 0}

	a, b := proto.Pipe()
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var got aggregate.Config
	var recvErr error
	go func() {
		defer wg.Done()
		got, recvErr = RecvInit(b)
	}()
	require.NoError(t, SendInit(a, cfg))
	wg.Wait()
	require.NoError(t, recvErr)
	require.Equal(t, cfg.Tag, got.Tag)
	require.Equal(t, cfg.NumBits, got.NumBits)
	require.Equal(t, cfg.NumInputs, got.NumInputs)
}

func TestSendRecvInitHeavyConfigRoundTrip(t *testing.T) {
	cfg := aggregate.Config{Tag: aggregate.HeavyOp, NumBits: 16, NumInputs: 5}
	cfg.Heavy.W = 32
	cfg.Heavy.D = 3
	cfg.Heavy.L = 4
	cfg.Heavy.T = 0.1
	cfg.Heavy.Seed = [32]byte{1, 2, 3}

	a, b := proto.Pipe()
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var got aggregate.Config
	var recvErr error
	go func() {
		defer wg.Done()
		got, recvErr = RecvInit(b)
	}()
	require.NoError(t, SendInit(a, cfg))
	wg.Wait()
	require.NoError(t, recvErr)
	require.Equal(t, cfg.Heavy, got.Heavy)
}

// TestSendSubmissionBitRoundTrip exercises SendSubmission's half
// selection over two independent connections, the way Submit sends
// one half to each server: each side's received share, XORed
// together, must reconstruct the original bit.
func TestSendSubmissionBitRoundTrip(t *testing.T) {
	sub, err := EncodeBit(rand.Reader, true)
	require.NoError(t, err)

	a0, b0 := proto.Pipe()
	defer a0.Close()
	defer b0.Close()
	a1, b1 := proto.Pipe()
	defer a1.Close()
	defer b1.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	var s0, s1 bool
	var err0, err1 error
	go func() {
		defer wg.Done()
		if _, err := b0.RecvPk(); err != nil {
			err0 = err
			return
		}
		s0, err0 = b0.RecvBool()
	}()
	go func() {
		defer wg.Done()
		if _, err := b1.RecvPk(); err != nil {
			err1 = err
			return
		}
		s1, err1 = b1.RecvBool()
	}()

	require.NoError(t, SendSubmission(a0, aggregate.BitSumOp, sub, 0))
	require.NoError(t, SendSubmission(a1, aggregate.BitSumOp, sub, 1))
	wg.Wait()
	require.NoError(t, err0)
	require.NoError(t, err1)
	require.True(t, s0 != s1)
}
