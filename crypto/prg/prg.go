//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package prg implements the seeded cryptographic pseudo-random
// generator spec.md §3 names as a primitive: a deterministic stream
// keyed by a per-round seed, used to derive the d-wise hash family
// for COUNTMIN/HEAVY (§4.5) and, independently, to derive
// sub-streams for other per-round randomness that must be
// reproducible from a transmitted seed (HeavyConfig's PRG seed,
// spec.md §6).
package prg

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

// SeedSize is the width of a PRG seed in bytes.
const SeedSize = 32

// Seed is a PRG seed as carried in the init/HeavyConfig wire message.
type Seed [SeedSize]byte

// expandLabel is an HKDF-Expand-style label expansion, adapted from
// the TLS 1.3 key schedule: derive 'out' pseudorandom bytes from
// 'prk' bound to 'info', one HMAC block at a time.
func expandLabel(prk, info, out []byte) {
	expander := hmac.New(sha256.New, prk)
	counter := []byte{1}

	var prev []byte
	for len(out) > 0 {
		if counter[0] > 1 {
			expander.Reset()
			expander.Write(prev)
		}
		expander.Write(info)
		expander.Write(counter)
		prev = expander.Sum(prev[:0])
		counter[0]++

		n := copy(out, prev)
		out = out[n:]
	}
}

// Expand is the HKDF-Expand-style label expansion used throughout
// this package and by crypto/ot to turn an ECDH shared point into a
// symmetric key.
func Expand(prk, info, out []byte) {
	expandLabel(prk, info, out)
}

// Sub derives a child seed from a parent seed and a label, so that a
// single transmitted seed can deterministically fan out into the d
// independent hash functions of a hash family, or into per-depth
// sub-seeds for the HEAVY pipeline's stratified sketches.
func Sub(seed Seed, label string) Seed {
	var out Seed
	expandLabel(seed[:], []byte(label), out[:])
	return out
}

// Stream is a keyed pseudo-random byte stream built on ChaCha20,
// reseeded deterministically from a Seed so that two peers holding
// the same seed derive byte-identical randomness without
// communication (the hash-family coefficients, for instance).
type Stream struct {
	cipher *chacha20.Cipher
}

// NewStream creates a deterministic stream from seed. The nonce is
// fixed at zero: Stream is only ever used with a fresh, high-entropy
// seed per round, never the same seed reused for two different
// purposes without a Sub label.
func NewStream(seed Seed) (*Stream, error) {
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &Stream{cipher: c}, nil
}

// Uint64 draws the next 8 pseudo-random bytes as a big-endian
// uint64.
func (s *Stream) Uint64() uint64 {
	var buf [8]byte
	s.cipher.XORKeyStream(buf[:], buf[:])
	return binary.BigEndian.Uint64(buf[:])
}

// Bytes fills buf with pseudo-random bytes.
func (s *Stream) Bytes(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	s.cipher.XORKeyStream(buf, buf)
}
