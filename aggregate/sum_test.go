//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/secureagg/proto"
	"github.com/markkurossi/secureagg/share"
)

// buildRounds constructs a matching pair of already-presence-agreed
// Rounds for n fresh submissions, all valid except those listed in
// invalid.
func buildRounds(t *testing.T, n int, invalid map[int]bool) (*Round, *Round) {
	t.Helper()
	r0 := NewRound()
	r1 := NewRound()
	for i := 0; i < n; i++ {
		id := newPk(t)
		v := !invalid[i]
		r0.Ingest(id, v)
		r1.Ingest(id, v)
	}
	runTwoParty(t, func(conn *proto.Conn) error {
		return r0.ExchangePresence(conn, share.Server0)
	}, func(conn *proto.Conn) error {
		return r1.ExchangePresence(conn, share.Server1)
	})
	return r0, r1
}

func TestIntSum(t *testing.T) {
	values := []uint64{3, 11, 7, 11, 2}
	r0, r1 := buildRounds(t, len(values), nil)

	shares0 := make([]uint64, len(values))
	shares1 := make([]uint64, len(values))
	for i, v := range values {
		shares0[i], shares1[i] = splitUint64(t, v)
	}

	var sum0, sum1 uint64
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		sum0, err = SumServer0(conn, r0, shares0, 8)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		sum1, err = SumServer1(conn, r1, shares1, 8)
		return err
	})

	require.Equal(t, uint64(34), sum0)
	require.Equal(t, sum0, sum1)
}

func TestIntSumExcludesInvalid(t *testing.T) {
	values := []uint64{10, 20, 30}
	r0, r1 := buildRounds(t, len(values), map[int]bool{1: true})

	shares0 := make([]uint64, len(values))
	shares1 := make([]uint64, len(values))
	for i, v := range values {
		shares0[i], shares1[i] = splitUint64(t, v)
	}

	var sum0, sum1 uint64
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		sum0, err = SumServer0(conn, r0, shares0, 8)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		sum1, err = SumServer1(conn, r1, shares1, 8)
		return err
	})

	require.Equal(t, uint64(40), sum0) // 10+30, the cheater at index 1 excluded
	require.Equal(t, sum0, sum1)
}

func TestAndOrResult(t *testing.T) {
	values := []bool{true, true, false, true}
	r0, r1 := buildRounds(t, len(values), nil)

	shares0 := make([]bool, len(values))
	shares1 := make([]bool, len(values))
	for i, v := range values {
		shares0[i], shares1[i] = splitBool(t, v)
	}

	var sum0, sum1 uint64
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		sum0, err = BitSumServer0(conn, r0, shares0)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		sum1, err = BitSumServer1(conn, r1, shares1)
		return err
	})
	require.Equal(t, sum0, sum1)

	require.False(t, AndResult(sum0, r0.ValidCount()), "one false value must fail AND")
	require.True(t, OrResult(sum0), "at least one true value must pass OR")
}

func TestAndResultAllTrue(t *testing.T) {
	values := []bool{true, true, true}
	r0, r1 := buildRounds(t, len(values), nil)

	shares0 := make([]bool, len(values))
	shares1 := make([]bool, len(values))
	for i, v := range values {
		shares0[i], shares1[i] = splitBool(t, v)
	}

	var sum0 uint64
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		sum0, err = BitSumServer0(conn, r0, shares0)
		return err
	}, func(conn *proto.Conn) error {
		_, err := BitSumServer1(conn, r1, shares1)
		return err
	})

	require.True(t, AndResult(sum0, r0.ValidCount()))
}
