//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package ot implements the 1-out-of-2 oblivious transfer primitive
// spec.md §4.4 builds the bit/int-sum aggregation on top of, plus the
// correlated-OT sum itself (bitsum_ot_sender/receiver,
// intsum_ot_sender/receiver).
//
// The base OT instance run per bit position is the Chou-Orlandi
// "simplest protocol for oblivious transfer" over P-256, grounded on
// the teacher's own elliptic-curve Diffie-Hellman code
// (crypto/tls/dh.go, crypto/spdz's use of crypto/elliptic): two
// curve points exchanged in one round trip give the sender a pair of
// independent symmetric keys, of which the receiver can only derive
// the one matching its choice bit.
package ot

import (
	"crypto/elliptic"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/markkurossi/secureagg/crypto/prg"
	"github.com/markkurossi/secureagg/proto"
)

var curve = elliptic.P256()

// ErrDecrypt is returned when the AEAD tag on a transferred message
// fails to verify, which can only happen if the peer deviated from
// the protocol or the transport corrupted a frame.
var ErrDecrypt = errors.New("ot: message authentication failed")

func randomScalar() (*big.Int, error) {
	return rand.Int(rand.Reader, curve.Params().N)
}

var errInputLengthMismatch = errors.New("ot: shares/valid length mismatch")

func randomUint64() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func marshalPoint(x, y *big.Int) []byte {
	return elliptic.Marshal(curve, x, y)
}

func unmarshalPoint(buf []byte) (x, y *big.Int, err error) {
	x, y = elliptic.Unmarshal(curve, buf)
	if x == nil {
		return nil, nil, fmt.Errorf("ot: invalid curve point")
	}
	return x, y, nil
}

func deriveKey(x, y *big.Int, label string) []byte {
	var key [32]byte
	prg.Expand(marshalPoint(x, y), []byte(label), key[:])
	return key[:]
}

func seal(key, msg []byte) []byte {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		panic(err) // key is always exactly chacha20poly1305.KeySize bytes
	}
	var nonce [chacha20poly1305.NonceSize]byte
	return aead.Seal(nil, nonce[:], msg, nil)
}

func open(key, ct []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		panic(err)
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], ct, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}

// SendMsgs runs the sender side of one base-OT instance, offering
// msg0 (delivered if the receiver's choice bit is false) and msg1
// (delivered if true). Both messages must be the same length.
func SendMsgs(conn *proto.Conn, msg0, msg1 []byte) error {
	y, err := randomScalar()
	if err != nil {
		return err
	}
	sx, sy := curve.ScalarBaseMult(y.Bytes())

	if err := conn.SendFrame(marshalPoint(sx, sy)); err != nil {
		return err
	}
	if err := conn.Flush(); err != nil {
		return err
	}

	rBuf, err := conn.RecvFrame()
	if err != nil {
		return err
	}
	rx, ry, err := unmarshalPoint(rBuf)
	if err != nil {
		return err
	}

	// k0 = H(y*R)
	k0x, k0y := curve.ScalarMult(rx, ry, y.Bytes())
	k0 := deriveKey(k0x, k0y, "secureagg-ot-v1")

	// k1 = H(y*(R - S)) = H(y*R - y*S)
	negSx, negSy := sx, new(big.Int).Neg(sy)
	negSy.Mod(negSy, curve.Params().P)
	rMinusSx, rMinusSy := curve.Add(rx, ry, negSx, negSy)
	k1x, k1y := curve.ScalarMult(rMinusSx, rMinusSy, y.Bytes())
	k1 := deriveKey(k1x, k1y, "secureagg-ot-v1")

	ct0 := seal(k0, msg0)
	ct1 := seal(k1, msg1)

	if err := conn.SendFrame(ct0); err != nil {
		return err
	}
	if err := conn.SendFrame(ct1); err != nil {
		return err
	}
	return conn.Flush()
}

// ReceiveMsg runs the receiver side of one base-OT instance,
// obtaining the message corresponding to choice without revealing
// choice to the sender.
func ReceiveMsg(conn *proto.Conn, choice bool) ([]byte, error) {
	sBuf, err := conn.RecvFrame()
	if err != nil {
		return nil, err
	}
	sx, sy, err := unmarshalPoint(sBuf)
	if err != nil {
		return nil, err
	}

	x, err := randomScalar()
	if err != nil {
		return nil, err
	}

	var rx, ry *big.Int
	if !choice {
		rx, ry = curve.ScalarBaseMult(x.Bytes())
	} else {
		xgx, xgy := curve.ScalarBaseMult(x.Bytes())
		rx, ry = curve.Add(sx, sy, xgx, xgy)
	}

	if err := conn.SendFrame(marshalPoint(rx, ry)); err != nil {
		return nil, err
	}
	if err := conn.Flush(); err != nil {
		return nil, err
	}

	ct0, err := conn.RecvFrame()
	if err != nil {
		return nil, err
	}
	ct1, err := conn.RecvFrame()
	if err != nil {
		return nil, err
	}

	// k = H(x*S). With S = y*G: for choice false R = x*G, so the
	// sender's k0 = H(y*R) = H(x*S); for choice true R = S + x*G, so
	// the sender's k1 = H(y*(R - S)) = H(x*S).
	kx, ky := curve.ScalarMult(sx, sy, x.Bytes())
	k := deriveKey(kx, ky, "secureagg-ot-v1")

	if !choice {
		return open(k, ct0)
	}
	return open(k, ct1)
}
