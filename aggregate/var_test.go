//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aggregate

import (
	"crypto/rand"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/secureagg/crypto/circuit"
	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/markkurossi/secureagg/crypto/snip"
	"github.com/markkurossi/secureagg/proto"
	"github.com/markkurossi/secureagg/share"
)

func TestVarResultExcludesCheater(t *testing.T) {
	// spec.md §8 scenario 7: a population of honest values plus one
	// cheater whose SNIP proof fails; the cheater must be excluded
	// from the variance.
	p := field.DefaultPrime()
	c := circuit.CheckVar()
	values := []int64{2, 4, 6}

	r0 := NewRound()
	r1 := NewRound()
	var packets0, packets1 []*snip.Packet
	vShares0 := make([]uint64, 0, 4)
	vShares1 := make([]uint64, 0, 4)
	vvShares0 := make([]uint64, 0, 4)
	vvShares1 := make([]uint64, 0, 4)

	addHonest := func(v int64) {
		id := newPk(t)
		r0.Ingest(id, true)
		r1.Ingest(id, true)
		x := p.FromInt64(v)
		y := p.FromInt64(v * v)
		pkt0, pkt1, err := snip.Prove(rand.Reader, p, c, []*field.Elt{x, y})
		require.NoError(t, err)
		packets0 = append(packets0, pkt0)
		packets1 = append(packets1, pkt1)

		s0, s1 := splitUint64(t, uint64(v))
		vShares0 = append(vShares0, s0)
		vShares1 = append(vShares1, s1)
		sq0, sq1 := splitUint64(t, uint64(v*v))
		vvShares0 = append(vvShares0, sq0)
		vvShares1 = append(vvShares1, sq1)
	}
	for _, v := range values {
		addHonest(v)
	}

	// Cheater: claims y = x*x+1, a false square.
	id := newPk(t)
	r0.Ingest(id, true)
	r1.Ingest(id, true)
	x := p.FromInt64(10)
	y := p.FromInt64(101) // should be 100
	pkt0, pkt1, err := snip.Prove(rand.Reader, p, c, []*field.Elt{x, y})
	require.NoError(t, err)
	packets0 = append(packets0, pkt0)
	packets1 = append(packets1, pkt1)
	s0, s1 := splitUint64(t, 10)
	vShares0 = append(vShares0, s0)
	vShares1 = append(vShares1, s1)
	sq0, sq1 := splitUint64(t, 101)
	vvShares0 = append(vvShares0, sq0)
	vvShares1 = append(vvShares1, sq1)

	runTwoParty(t, func(conn *proto.Conn) error {
		return r0.ExchangePresence(conn, share.Server0)
	}, func(conn *proto.Conn) error {
		return r1.ExchangePresence(conn, share.Server1)
	})

	// Presence exchange may have reordered; packets/shares here were
	// built in ingestion order and r0/r1 ingested identically and
	// ExchangePresence preserves Server1's (already-matching) order,
	// so no re-indexing is needed in this test.

	runTwoParty(t, func(conn *proto.Conn) error {
		return r0.RunSNIP(conn, share.Server0, p, c, rand.Reader, packets0)
	}, func(conn *proto.Conn) error {
		return r1.RunSNIP(conn, share.Server1, p, c, rand.Reader, packets1)
	})

	require.Equal(t, 3, r0.ValidCount(), "the cheater must be excluded")

	var sumV0, sumVV0, sumV1, sumVV1 uint64
	runTwoParty(t, func(conn *proto.Conn) error {
		var err error
		sumV0, sumVV0, err = VarServer0(conn, r0, vShares0, vvShares0, 8)
		return err
	}, func(conn *proto.Conn) error {
		var err error
		sumV1, sumVV1, err = VarServer1(conn, r1, vShares1, vvShares1, 8)
		return err
	})
	require.Equal(t, sumV0, sumV1)
	require.Equal(t, sumVV0, sumVV1)

	// mean=4, E[v^2]=(4+16+36)/3=18.667, var=18.667-16=2.667
	v := VarResult(sumV0, sumVV0, r0.ValidCount())
	require.InDelta(t, 2.6667, v, 1e-3)
	require.InDelta(t, math.Sqrt(2.6667), StdDevResult(sumV0, sumVV0, r0.ValidCount()), 1e-3)
}
