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
	"github.com/markkurossi/secureagg/proto"
)

func oneHotShares(t *testing.T, values []int, m int) ([][]bool, [][]bool) {
	t.Helper()
	shares0 := make([][]bool, m)
	shares1 := make([][]bool, m)
	for v := 0; v < m; v++ {
		shares0[v] = make([]bool, len(values))
		shares1[v] = make([]bool, len(values))
		for i, val := range values {
			shares0[v][i], shares1[v][i] = splitBool(t, val == v)
		}
	}
	return shares0, shares1
}

func TestFreqCounts(t *testing.T) {
	// spec.md §8 scenario 6: num_bits=2, values 0,0,1,2,2,2,3 ->
	// counts (2,1,3,1).
	values := []int{0, 0, 1, 2, 2, 2, 3}
	const m = 4
	r0, r1 := buildRounds(t, len(values), nil)

	shares0, shares1 := oneHotShares(t, values, m)
	var counts0, counts1 []uint64
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		counts0, err = FreqServer0(conn, r0, shares0)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		counts1, err = FreqServer1(conn, r1, shares1)
		return err
	})

	require.Equal(t, []uint64{2, 1, 3, 1}, counts0)
	require.Equal(t, counts0, counts1)
}

func TestCountMinEstimate(t *testing.T) {
	values := []int{1, 1, 2, 5, 5, 5}
	const w, d = 4, 3
	var seed prg.Seed
	for i := range seed {
		seed[i] = byte(i)
	}
	hf, err := NewHashFamily(seed, d, w)
	require.NoError(t, err)

	r0, r1 := buildRounds(t, len(values), nil)

	shares0 := make([][][]bool, d)
	shares1 := make([][][]bool, d)
	for h := 0; h < d; h++ {
		shares0[h] = make([][]bool, w)
		shares1[h] = make([][]bool, w)
		for b := 0; b < w; b++ {
			shares0[h][b] = make([]bool, len(values))
			shares1[h][b] = make([]bool, len(values))
			for i, v := range values {
				bit := hf.Hash(h, uint64(v)) == b
				shares0[h][b][i], shares1[h][b][i] = splitBool(t, bit)
			}
		}
	}

	var sketch0, sketch1 *Sketch
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		sketch0, err = CountMinServer0(conn, r0, hf, shares0)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		sketch1, err = CountMinServer1(conn, r1, hf, shares1)
		return err
	})

	require.GreaterOrEqual(t, sketch0.Estimate(5), uint64(3))
	require.GreaterOrEqual(t, sketch0.Estimate(1), uint64(2))
	require.Equal(t, sketch0.Estimate(5), sketch1.Estimate(5))
}
