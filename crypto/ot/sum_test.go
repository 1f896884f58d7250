//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/secureagg/proto"
)

func TestBaseOTTransfersChosenMessage(t *testing.T) {
	a, b := proto.Pipe()
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var sendErr error
	go func() {
		defer wg.Done()
		sendErr = SendMsgs(a, []byte("message-zero......"), []byte("message-one......."))
	}()

	got, err := ReceiveMsg(b, true)
	require.NoError(t, err)
	wg.Wait()
	require.NoError(t, sendErr)
	require.Equal(t, []byte("message-one......."), got)
}

func TestIntsumOT(t *testing.T) {
	const numBits = 8
	x := []uint64{7, 250, 3}

	// Split each value into XOR shares.
	x0 := make([]uint64, len(x))
	x1 := make([]uint64, len(x))
	for i, v := range x {
		mask := uint64(0x5a)
		x0[i] = mask
		x1[i] = v ^ mask
	}
	valid := []bool{true, true, true}

	a, b := proto.Pipe()
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var senderSum uint64
	var senderErr error
	go func() {
		defer wg.Done()
		senderSum, senderErr = IntsumSender(a, x0, valid, numBits)
	}()

	receiverSum, err := IntsumReceiver(b, x1, numBits)
	require.NoError(t, err)
	wg.Wait()
	require.NoError(t, senderErr)

	require.EqualValues(t, 260, senderSum+receiverSum)
}

func TestIntsumOTExcludesInvalid(t *testing.T) {
	const numBits = 8
	x0 := []uint64{5, 9}
	x1 := []uint64{2, 200}
	valid := []bool{true, false}

	a, b := proto.Pipe()
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var senderSum uint64
	var senderErr error
	go func() {
		defer wg.Done()
		senderSum, senderErr = IntsumSender(a, x0, valid, numBits)
	}()

	receiverSum, err := IntsumReceiver(b, x1, numBits)
	require.NoError(t, err)
	wg.Wait()
	require.NoError(t, senderErr)

	require.EqualValues(t, x0[0]^x1[0], senderSum+receiverSum)
}

func TestBitsumOT(t *testing.T) {
	x0 := []bool{true, false, true, true, false}
	x1 := []bool{false, false, false, false, false}
	valid := []bool{true, true, true, true, true}

	a, b := proto.Pipe()
	defer a.Close()
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var senderSum uint64
	var senderErr error
	go func() {
		defer wg.Done()
		senderSum, senderErr = BitsumSender(a, x0, valid)
	}()

	receiverSum, err := BitsumReceiver(b, x1)
	require.NoError(t, err)
	wg.Wait()
	require.NoError(t, senderErr)

	require.EqualValues(t, 3, senderSum+receiverSum)
}
