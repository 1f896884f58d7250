//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.

package proto

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/markkurossi/secureagg/pk"
)

// SendUint32 writes a plain 32-bit count, used for the "map size"
// header of the per-round presence exchange (spec.md §4.3 step 4).
func (c *Conn) SendUint32(v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := c.w.Write(buf[:])
	return err
}

// RecvUint32 reads a plain 32-bit count.
func (c *Conn) RecvUint32() (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(c.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// SendPk writes a fixed-width submission identifier.
func (c *Conn) SendPk(id pk.Pk) error {
	_, err := c.w.Write(id[:])
	return err
}

// RecvPk reads a fixed-width submission identifier.
func (c *Conn) RecvPk() (pk.Pk, error) {
	var buf [pk.Size]byte
	if _, err := io.ReadFull(c.r, buf[:]); err != nil {
		return pk.Pk{}, fmt.Errorf("proto: short pk: %w", err)
	}
	return pk.FromBytes(buf[:])
}

// SendBool and RecvBool exchange a single validity/presence bit,
// unbuffered (spec.md §4.3 steps 4-5 exchange many of these, one per
// submission).
func (c *Conn) SendBool(b bool) error {
	if b {
		return c.SendByte(1)
	}
	return c.SendByte(0)
}

// RecvBool is the inverse of SendBool.
func (c *Conn) RecvBool() (bool, error) {
	b, err := c.RecvByte()
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// SendUint64 sends a plain 64-bit value, flushed immediately; used
// for the OT-sum partial results exchanged throughout package
// aggregate.
func (c *Conn) SendUint64(v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	if _, err := c.w.Write(buf[:]); err != nil {
		return err
	}
	return c.w.Flush()
}

// RecvUint64 reads a plain 64-bit value.
func (c *Conn) RecvUint64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(c.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}
