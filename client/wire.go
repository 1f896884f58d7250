//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package client

import (
	"math"

	"github.com/markkurossi/secureagg/aggregate"
	"github.com/markkurossi/secureagg/crypto/circuit"
	"github.com/markkurossi/secureagg/crypto/snip"
	"github.com/markkurossi/secureagg/proto"
)

// SendInit writes a round's init message (spec.md §6): the
// statistic tag, num_bits, num_of_inputs, max_inp, and — for the
// heavy-hitter variants — a HeavyConfig record and PRG seed. This is
// the first message of a round on every client-to-server
// connection; the server derives its round aggregate.Config from the
// first one it sees (package server enforces this).
func SendInit(conn *proto.Conn, cfg aggregate.Config) error {
	if err := conn.SendUint32(uint32(cfg.Tag)); err != nil {
		return err
	}
	if err := conn.SendUint32(uint32(cfg.NumBits)); err != nil {
		return err
	}
	if err := conn.SendUint32(uint32(cfg.NumInputs)); err != nil {
		return err
	}
	if err := conn.SendUint32(uint32(cfg.MaxInp)); err != nil {
		return err
	}
	if err := conn.SendUint32(uint32(cfg.Degree)); err != nil {
		return err
	}
	if isHeavyFamily(cfg.Tag) {
		if err := conn.SendUint64(math.Float64bits(cfg.Heavy.T)); err != nil {
			return err
		}
		if err := conn.SendUint32(uint32(cfg.Heavy.W)); err != nil {
			return err
		}
		if err := conn.SendUint32(uint32(cfg.Heavy.D)); err != nil {
			return err
		}
		if err := conn.SendUint32(uint32(cfg.Heavy.L)); err != nil {
			return err
		}
		for _, b := range cfg.Heavy.Seed {
			if err := conn.SendByte(b); err != nil {
				return err
			}
		}
	}
	return conn.Flush()
}

func isHeavyFamily(tag aggregate.Tag) bool {
	return tag == aggregate.CountMinOp || tag == aggregate.HeavyOp
}

// RecvInit is SendInit's inverse, used by package server.
func RecvInit(conn *proto.Conn) (aggregate.Config, error) {
	var cfg aggregate.Config
	tag, err := conn.RecvUint32()
	if err != nil {
		return cfg, err
	}
	cfg.Tag = aggregate.Tag(tag)

	numBits, err := conn.RecvUint32()
	if err != nil {
		return cfg, err
	}
	cfg.NumBits = int(numBits)

	numInputs, err := conn.RecvUint32()
	if err != nil {
		return cfg, err
	}
	cfg.NumInputs = int(numInputs)

	maxInp, err := conn.RecvUint32()
	if err != nil {
		return cfg, err
	}
	cfg.MaxInp = int(maxInp)

	degree, err := conn.RecvUint32()
	if err != nil {
		return cfg, err
	}
	cfg.Degree = int(degree)

	if isHeavyFamily(cfg.Tag) {
		tBits, err := conn.RecvUint64()
		if err != nil {
			return cfg, err
		}
		cfg.Heavy.T = math.Float64frombits(tBits)

		w, err := conn.RecvUint32()
		if err != nil {
			return cfg, err
		}
		cfg.Heavy.W = int(w)

		d, err := conn.RecvUint32()
		if err != nil {
			return cfg, err
		}
		cfg.Heavy.D = int(d)

		l, err := conn.RecvUint32()
		if err != nil {
			return cfg, err
		}
		cfg.Heavy.L = int(l)

		for i := range cfg.Heavy.Seed {
			b, err := conn.RecvByte()
			if err != nil {
				return cfg, err
			}
			cfg.Heavy.Seed[i] = b
		}
	}
	return cfg, nil
}

// CircuitFor returns the SNIP circuit a submission's statistic uses,
// or nil for statistics with no proof. Package server uses this to
// decode each submission's SNIP packet halves without duplicating
// the tag-to-circuit dispatch.
func CircuitFor(tag aggregate.Tag, degree int) *circuit.Circuit {
	switch tag {
	case aggregate.VarOp, aggregate.StdDevOp:
		return circuit.CheckVar()
	case aggregate.LinRegOp:
		return circuit.CheckLinReg(degree)
	default:
		return nil
	}
}

// SendSubmission writes one server's half of a submission: the pk,
// the statistic-specific share payload, and (for Var/LinReg) the
// SNIP packet half. half (0 or 1) selects which server's half is
// written: the S0 or S1 shares, and SNIP0 or SNIP1.
func SendSubmission(conn *proto.Conn, tag aggregate.Tag, sub *Submission, half int) error {
	if err := conn.SendPk(sub.ID); err != nil {
		return err
	}
	switch tag {
	case aggregate.BitSumOp, aggregate.AndOp, aggregate.OrOp:
		return sendBool(conn, half, *sub.Bit)
	case aggregate.IntSumOp:
		return sendUint64(conn, half, *sub.Int)
	case aggregate.VarOp, aggregate.StdDevOp:
		if err := sendUint64(conn, half, sub.Var.V); err != nil {
			return err
		}
		if err := sendUint64(conn, half, sub.Var.VV); err != nil {
			return err
		}
		return sendSNIP(conn, half, sub)
	case aggregate.LinRegOp:
		return sendLinReg(conn, half, sub)
	case aggregate.MaxOp, aggregate.MinOp, aggregate.FreqOp, aggregate.CountMinOp, aggregate.HeavyOp:
		return sendBoolArray(conn, half, sub)
	default:
		return nil
	}
}

func sendBool(conn *proto.Conn, half int, s BoolShares) error {
	v := s.S0
	if half == 1 {
		v = s.S1
	}
	if err := conn.SendBool(v); err != nil {
		return err
	}
	return conn.Flush()
}

func sendUint64(conn *proto.Conn, half int, s Uint64Shares) error {
	v := s.S0
	if half == 1 {
		v = s.S1
	}
	return conn.SendUint64(v)
}

func sendBoolArray(conn *proto.Conn, half int, sub *Submission) error {
	arr := sub.Array0
	if half == 1 {
		arr = sub.Array1
	}
	if err := conn.SendUint32(uint32(len(arr))); err != nil {
		return err
	}
	for _, b := range arr {
		if err := conn.SendBool(b); err != nil {
			return err
		}
	}
	return conn.Flush()
}

func sendSNIP(conn *proto.Conn, half int, sub *Submission) error {
	pkt := sub.SNIP0
	if half == 1 {
		pkt = sub.SNIP1
	}
	return snip.SendPacket(conn, pkt)
}

func sendLinReg(conn *proto.Conn, half int, sub *Submission) error {
	lr := sub.LinReg
	nx := len(lr.X)
	for j := 0; j < nx; j++ {
		if err := sendUint64(conn, half, lr.X[j]); err != nil {
			return err
		}
	}
	if err := sendUint64(conn, half, lr.Y); err != nil {
		return err
	}
	for j := 0; j < nx; j++ {
		for k := j; k < nx; k++ {
			if err := sendUint64(conn, half, lr.XX[[2]int{j, k}]); err != nil {
				return err
			}
		}
	}
	for j := 0; j < nx; j++ {
		if err := sendUint64(conn, half, lr.XY[j]); err != nil {
			return err
		}
	}
	if err := conn.Flush(); err != nil {
		return err
	}
	return sendSNIP(conn, half, sub)
}
