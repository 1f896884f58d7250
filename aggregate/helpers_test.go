//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aggregate

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/secureagg/pk"
	"github.com/markkurossi/secureagg/proto"
)

// runTwoParty drives a Server0/Server1 pair of closures over an
// in-memory Conn pipe, the same pattern used throughout
// share's and crypto/snip's tests.
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

// splitUint64 returns a pair of XOR shares of v, for a client-side
// submission encoding in tests.
func splitUint64(t *testing.T, v uint64) (uint64, uint64) {
	t.Helper()
	var buf [8]byte
	_, err := rand.Read(buf[:])
	require.NoError(t, err)
	share0 := binary.BigEndian.Uint64(buf[:])
	return share0, share0 ^ v
}

// splitBool returns a pair of XOR shares of b.
func splitBool(t *testing.T, b bool) (bool, bool) {
	t.Helper()
	var buf [1]byte
	_, err := rand.Read(buf[:])
	require.NoError(t, err)
	s0 := buf[0]&1 == 1
	return s0, s0 != b
}

func newPk(t *testing.T) pk.Pk {
	t.Helper()
	id, err := pk.New()
	require.NoError(t, err)
	return id
}
