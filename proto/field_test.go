//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package proto

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/secureagg/crypto/field"
)

func TestFieldRoundTrip(t *testing.T) {
	p, _ := new(big.Int).SetString("2305843009213693951", 10)
	prime := field.NewPrime(p)

	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	values := []int64{0, 1, 42, 1<<40 + 17}

	done := make(chan error, 1)
	go func() {
		for _, v := range values {
			if err := a.SendField(prime.FromInt64(v)); err != nil {
				done <- err
				return
			}
		}
		done <- a.Flush()
	}()

	for _, v := range values {
		got, err := b.RecvField(prime)
		require.NoError(t, err)
		require.True(t, got.Equal(prime.FromInt64(v)))
	}
	require.NoError(t, <-done)
}

func TestRecvFieldRejectsOutOfRange(t *testing.T) {
	p, _ := new(big.Int).SetString("2305843009213693951", 10)
	prime := field.NewPrime(p)

	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	go func() {
		_ = a.SendFrame(encodeBigInt(prime.P))
		_ = a.Flush()
	}()

	_, err := b.RecvField(prime)
	require.ErrorIs(t, err, field.ErrOutOfRange)
}
