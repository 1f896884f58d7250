//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package server

import (
	"fmt"
	"net"

	"github.com/markkurossi/secureagg/aggregate"
	"github.com/markkurossi/secureagg/client"
	"github.com/markkurossi/secureagg/crypto/circuit"
	"github.com/markkurossi/secureagg/crypto/snip"
	"github.com/markkurossi/secureagg/pk"
	"github.com/markkurossi/secureagg/proto"
)

// ingest holds one round's ingested client data, in the order this
// server happened to accept connections — Round.ExchangePresence
// rebases this onto Server1's order before anything here is read by
// the aggregation phase.
type ingest struct {
	cfg   aggregate.Config
	round *aggregate.Round

	bit  []bool
	ints []uint64

	v, vv []uint64

	lrX  [][]uint64
	lrY  []uint64
	lrXX map[[2]int][]uint64
	lrXY [][]uint64

	arrays [][]bool // MaxOp/MinOp/FreqOp/CountMinOp/HeavyOp, one row per submission

	packets []*snip.Packet
	circuit *circuit.Circuit
}

// newIngest accepts client connections until cfg.NumInputs distinct
// submissions are in the round (cfg itself is read from the first
// one; failed and duplicate connections do not count) and decodes
// each submission's
// half into the round, spec.md §4.3 steps 1-3. A connection that
// fails to decode cleanly is dropped (its submission, if partially
// ingested, is simply absent — the peer's presence exchange then
// marks the matching pk invalid on both sides).
func newIngest(listener net.Listener) (*ingest, error) {
	ing := &ingest{
		round: aggregate.NewRound(),
		lrXX:  make(map[[2]int][]uint64),
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			return nil, err
		}
		if err := ing.handle(conn); err != nil {
			conn.Close()
			continue
		}
		conn.Close()
		if ing.cfg.NumInputs != 0 && ing.round.N() >= ing.cfg.NumInputs {
			break
		}
	}
	return ing, nil
}

func (ing *ingest) handle(raw net.Conn) error {
	pc := proto.NewConn(raw)
	cfg, err := client.RecvInit(pc)
	if err != nil {
		return err
	}
	if ing.round.N() == 0 && ing.circuit == nil && ing.cfg.Tag == aggregate.NoneOp {
		ing.cfg = cfg
		ing.circuit = client.CircuitFor(cfg.Tag, cfg.Degree)
	}

	id, err := pc.RecvPk()
	if err != nil {
		return err
	}

	switch ing.cfg.Tag {
	case aggregate.BitSumOp, aggregate.AndOp, aggregate.OrOp:
		return ing.recvBool(pc, id)
	case aggregate.IntSumOp:
		return ing.recvInt(pc, id)
	case aggregate.VarOp, aggregate.StdDevOp:
		return ing.recvVar(pc, id)
	case aggregate.LinRegOp:
		return ing.recvLinReg(pc, id)
	case aggregate.MaxOp, aggregate.MinOp, aggregate.FreqOp, aggregate.CountMinOp, aggregate.HeavyOp:
		return ing.recvArray(pc, id)
	default:
		return fmt.Errorf("server: unknown statistic tag %d", ing.cfg.Tag)
	}
}

func (ing *ingest) place(id pk.Pk) (int, bool) {
	idx, admitted := ing.round.Ingest(id, true)
	return idx, admitted
}

func (ing *ingest) recvBool(conn *proto.Conn, id pk.Pk) error {
	v, err := conn.RecvBool()
	if err != nil {
		return err
	}
	idx, ok := ing.place(id)
	if !ok {
		return nil
	}
	ing.growBool(idx + 1)
	ing.bit[idx] = v
	return nil
}

func (ing *ingest) recvInt(conn *proto.Conn, id pk.Pk) error {
	v, err := conn.RecvUint64()
	if err != nil {
		return err
	}
	idx, ok := ing.place(id)
	if !ok {
		return nil
	}
	ing.growInts(idx + 1)
	ing.ints[idx] = v
	return nil
}

func (ing *ingest) recvVar(conn *proto.Conn, id pk.Pk) error {
	v, err := conn.RecvUint64()
	if err != nil {
		return err
	}
	vv, err := conn.RecvUint64()
	if err != nil {
		return err
	}
	pkt, err := snip.RecvPacket(conn, Prime, ing.circuit)
	if err != nil {
		return err
	}
	idx, ok := ing.place(id)
	if !ok {
		return nil
	}
	ing.growVar(idx + 1)
	ing.v[idx], ing.vv[idx] = v, vv
	ing.packets[idx] = pkt
	return nil
}

func (ing *ingest) recvLinReg(conn *proto.Conn, id pk.Pk) error {
	nx := ing.cfg.Degree - 1
	x := make([]uint64, nx)
	for j := range x {
		v, err := conn.RecvUint64()
		if err != nil {
			return err
		}
		x[j] = v
	}
	y, err := conn.RecvUint64()
	if err != nil {
		return err
	}
	xx := make(map[[2]int]uint64)
	for j := 0; j < nx; j++ {
		for k := j; k < nx; k++ {
			v, err := conn.RecvUint64()
			if err != nil {
				return err
			}
			xx[[2]int{j, k}] = v
		}
	}
	xy := make([]uint64, nx)
	for j := range xy {
		v, err := conn.RecvUint64()
		if err != nil {
			return err
		}
		xy[j] = v
	}
	pkt, err := snip.RecvPacket(conn, Prime, ing.circuit)
	if err != nil {
		return err
	}

	idx, ok := ing.place(id)
	if !ok {
		return nil
	}
	ing.growLinReg(idx+1, nx)
	ing.lrY[idx] = y
	for j := 0; j < nx; j++ {
		ing.lrX[j][idx] = x[j]
		ing.lrXY[j][idx] = xy[j]
	}
	for j := 0; j < nx; j++ {
		for k := j; k < nx; k++ {
			ing.lrXX[[2]int{j, k}][idx] = xx[[2]int{j, k}]
		}
	}
	ing.packets[idx] = pkt
	return nil
}

func (ing *ingest) recvArray(conn *proto.Conn, id pk.Pk) error {
	n, err := conn.RecvUint32()
	if err != nil {
		return err
	}
	row := make([]bool, n)
	for i := range row {
		b, err := conn.RecvBool()
		if err != nil {
			return err
		}
		row[i] = b
	}
	idx, ok := ing.place(id)
	if !ok {
		return nil
	}
	ing.growArrays(idx+1, len(row))
	ing.arrays[idx] = row
	return nil
}

func (ing *ingest) growBool(n int) {
	for len(ing.bit) < n {
		ing.bit = append(ing.bit, false)
	}
}

func (ing *ingest) growInts(n int) {
	for len(ing.ints) < n {
		ing.ints = append(ing.ints, 0)
	}
}

func (ing *ingest) growVar(n int) {
	for len(ing.v) < n {
		ing.v = append(ing.v, 0)
		ing.vv = append(ing.vv, 0)
		ing.packets = append(ing.packets, nil)
	}
}

func (ing *ingest) growLinReg(n, nx int) {
	if ing.lrX == nil {
		ing.lrX = make([][]uint64, nx)
		ing.lrXY = make([][]uint64, nx)
	}
	for len(ing.lrY) < n {
		ing.lrY = append(ing.lrY, 0)
		for j := 0; j < nx; j++ {
			ing.lrX[j] = append(ing.lrX[j], 0)
			ing.lrXY[j] = append(ing.lrXY[j], 0)
			for k := j; k < nx; k++ {
				key := [2]int{j, k}
				ing.lrXX[key] = append(ing.lrXX[key], 0)
			}
		}
		ing.packets = append(ing.packets, nil)
	}
}

func (ing *ingest) growArrays(n, width int) {
	for len(ing.arrays) < n {
		ing.arrays = append(ing.arrays, make([]bool, width))
	}
}
