//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package proto

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/markkurossi/secureagg/crypto/field"
)

// wordBits is the limb width used by the field-element wire format:
// a 32-bit big-endian limb count followed by that many 64-bit
// big-endian limbs, least-significant limb first (spec.md §6).
const wordBits = 64

// EncodeField serialises a field element per spec.md §6.
func EncodeField(e *field.Elt) []byte {
	return encodeBigInt(e.Int())
}

func encodeBigInt(v *big.Int) []byte {
	// math/big stores words in the machine's native Word size; for
	// portability across 32/64-bit hosts we re-slice into fixed
	// 64-bit limbs explicitly, least-significant limb first, as the
	// wire format mandates.
	nbits := v.BitLen()
	nlimbs := (nbits + wordBits - 1) / wordBits
	if nlimbs == 0 {
		nlimbs = 1
	}

	buf := make([]byte, 4+nlimbs*8)
	binary.BigEndian.PutUint32(buf[0:4], uint32(nlimbs))

	tmp := new(big.Int).Set(v)
	mask := new(big.Int).SetUint64(^uint64(0))
	for i := 0; i < nlimbs; i++ {
		limb := new(big.Int).And(tmp, mask)
		binary.BigEndian.PutUint64(buf[4+i*8:4+i*8+8], limb.Uint64())
		tmp.Rsh(tmp, wordBits)
	}
	return buf
}

func decodeBigInt(buf []byte) (*big.Int, error) {
	if len(buf) < 4 {
		return nil, fmt.Errorf("proto: truncated field element")
	}
	nlimbs := binary.BigEndian.Uint32(buf[0:4])
	want := 4 + int(nlimbs)*8
	if len(buf) != want {
		return nil, fmt.Errorf("proto: field element length mismatch: "+
			"have %d want %d", len(buf), want)
	}
	v := new(big.Int)
	for i := int(nlimbs) - 1; i >= 0; i-- {
		limb := binary.BigEndian.Uint64(buf[4+i*8 : 4+i*8+8])
		v.Lsh(v, wordBits)
		v.Or(v, new(big.Int).SetUint64(limb))
	}
	return v, nil
}

// SendField writes one field element as a framed message.
func (c *Conn) SendField(e *field.Elt) error {
	return c.SendFrame(EncodeField(e))
}

// RecvField reads one field element, validating it lies in [0, p)
// per spec.md §3.
func (c *Conn) RecvField(p *field.Prime) (*field.Elt, error) {
	buf, err := c.RecvFrame()
	if err != nil {
		return nil, err
	}
	v, err := decodeBigInt(buf)
	if err != nil {
		return nil, err
	}
	return p.FromBytesChecked(v.Bytes())
}
