//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/secureagg/crypto/prg"
)

func TestHashFamilyDeterministic(t *testing.T) {
	var seed prg.Seed
	for i := range seed {
		seed[i] = byte(i * 7)
	}
	hf1, err := NewHashFamily(seed, 4, 16)
	require.NoError(t, err)
	hf2, err := NewHashFamily(seed, 4, 16)
	require.NoError(t, err)

	for h := 0; h < 4; h++ {
		for v := uint64(0); v < 100; v++ {
			require.Equal(t, hf1.Hash(h, v), hf2.Hash(h, v))
		}
	}
}

func TestHashFamilyInRange(t *testing.T) {
	var seed prg.Seed
	for i := range seed {
		seed[i] = byte(i)
	}
	hf, err := NewHashFamily(seed, 3, 10)
	require.NoError(t, err)
	for v := uint64(0); v < 1000; v++ {
		for h := 0; h < 3; h++ {
			b := hf.Hash(h, v)
			require.GreaterOrEqual(t, b, 0)
			require.Less(t, b, 10)
		}
	}
}
