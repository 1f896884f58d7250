//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ot

import (
	"encoding/binary"

	"github.com/markkurossi/secureagg/proto"
)

// A client splits its plaintext bit/int value x into two shares via
// XOR, x = x0 XOR x1, one per server (spec.md §4.4 — distinct from
// the additive Fp shares SNIP validates). Reconstructing Σx without
// revealing any x0/x1 pair runs one correlated 1-out-of-2 OT per bit
// position of every valid submission.

func uint64Msg(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func parseUint64Msg(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// IntsumSender runs the sender (Server 0) side of the OT-assisted
// sum for numBits-wide shares. shares[i] is Server 0's XOR share of
// submission i, bounded to [0, 2^numBits); valid[i] marks whether
// submission i passed verification. It returns Server 0's half of
// the reconstructed sum, modulo 2^64.
func IntsumSender(conn *proto.Conn, shares []uint64, valid []bool, numBits int) (uint64, error) {
	if len(shares) != len(valid) {
		return 0, errInputLengthMismatch
	}
	var sum uint64
	for i, x0 := range shares {
		for b := 0; b < numBits; b++ {
			bit := uint64(1) << uint(b)
			x0b := (x0 >> uint(b)) & 1

			var r uint64
			var msg1term uint64
			if valid[i] {
				var err error
				r, err = randomUint64()
				if err != nil {
					return 0, err
				}
				if x0b == 1 {
					msg1term = r - bit
				} else {
					msg1term = r + bit
				}
				if x0b == 1 {
					sum += (-r) + bit
				} else {
					sum += -r
				}
			}

			msg0 := uint64Msg(r)
			msg1 := uint64Msg(msg1term)
			if err := SendMsgs(conn, msg0, msg1); err != nil {
				return 0, err
			}
		}
	}
	return sum, nil
}

// IntsumReceiver runs the receiver (Server 1) side of
// IntsumSender. shares[i] is Server 1's XOR share of submission i;
// Server 1 does not need the validity vector, since invalid
// submissions are forced to contribute zero on the sender side. It
// returns Server 1's half of the reconstructed sum, modulo 2^64.
func IntsumReceiver(conn *proto.Conn, shares []uint64, numBits int) (uint64, error) {
	var sum uint64
	for _, x1 := range shares {
		for b := 0; b < numBits; b++ {
			x1b := (x1>>uint(b))&1 == 1
			msg, err := ReceiveMsg(conn, x1b)
			if err != nil {
				return 0, err
			}
			sum += parseUint64Msg(msg)
		}
	}
	return sum, nil
}

// BitsumSender is IntsumSender specialised to numBits = 1, used for
// BIT_SUM.
func BitsumSender(conn *proto.Conn, shares []bool, valid []bool) (uint64, error) {
	ints := make([]uint64, len(shares))
	for i, b := range shares {
		if b {
			ints[i] = 1
		}
	}
	return IntsumSender(conn, ints, valid, 1)
}

// BitsumReceiver is IntsumReceiver specialised to numBits = 1, used
// for BIT_SUM.
func BitsumReceiver(conn *proto.Conn, shares []bool) (uint64, error) {
	ints := make([]uint64, len(shares))
	for i, b := range shares {
		if b {
			ints[i] = 1
		}
	}
	return IntsumReceiver(conn, ints, 1)
}
