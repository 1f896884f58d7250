//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package server

import (
	"crypto/rand"
	"fmt"

	"github.com/markkurossi/secureagg/aggregate"
	"github.com/markkurossi/secureagg/proto"
	"github.com/markkurossi/secureagg/share"
)

// runProtocol runs spec.md §4.3 steps 4-6 over an already-ingested
// round: presence exchange, SNIP verification (if the statistic
// carries proofs), the threshold check, and finally the
// statistic-specific OT-assisted aggregation.
func (s *Server) runProtocol(peerConn, otConn *proto.Conn, ing *ingest) (*Result, error) {
	r := ing.round
	cfg := ing.cfg

	if err := r.ExchangePresence(peerConn, s.Role); err != nil {
		return nil, fmt.Errorf("server: presence exchange: %w", err)
	}

	if ing.circuit != nil {
		if err := r.RunSNIP(peerConn, s.Role, Prime, ing.circuit, rand.Reader, ing.packets); err != nil {
			return nil, fmt.Errorf("server: SNIP verification: %w", err)
		}
	}

	minFrac := s.MinValidFraction
	if minFrac == 0 {
		minFrac = aggregate.DefaultMinValidFraction
	}
	if err := r.CheckThreshold(minFrac); err != nil {
		return &Result{Tag: cfg.Tag, Invalid: true}, nil
	}

	switch cfg.Tag {
	case aggregate.BitSumOp:
		return s.sumBit(otConn, r, ing, cfg)
	case aggregate.IntSumOp:
		return s.sumInt(otConn, r, ing, cfg)
	case aggregate.AndOp, aggregate.OrOp:
		return s.sumBoolOp(otConn, r, ing, cfg)
	case aggregate.VarOp, aggregate.StdDevOp:
		return s.sumVar(otConn, r, ing, cfg)
	case aggregate.LinRegOp:
		return s.sumLinReg(otConn, r, ing, cfg)
	case aggregate.MaxOp, aggregate.MinOp:
		return s.sumMinMax(otConn, r, ing, cfg)
	case aggregate.FreqOp:
		return s.sumFreq(otConn, r, ing, cfg)
	case aggregate.CountMinOp:
		return s.sumCountMin(otConn, r, ing, cfg)
	case aggregate.HeavyOp:
		return s.sumHeavy(otConn, r, ing, cfg)
	default:
		return nil, fmt.Errorf("server: unknown statistic tag %d", cfg.Tag)
	}
}

func (s *Server) sumBit(conn *proto.Conn, r *aggregate.Round, ing *ingest, cfg aggregate.Config) (*Result, error) {
	total, err := s.bitSum(conn, r, ing.bit)
	if err != nil {
		return nil, err
	}
	return &Result{Tag: cfg.Tag, Uint64: total}, nil
}

func (s *Server) sumInt(conn *proto.Conn, r *aggregate.Round, ing *ingest, cfg aggregate.Config) (*Result, error) {
	total, err := s.intSum(conn, r, ing.ints, cfg.NumBits)
	if err != nil {
		return nil, err
	}
	return &Result{Tag: cfg.Tag, Uint64: total}, nil
}

func (s *Server) sumBoolOp(conn *proto.Conn, r *aggregate.Round, ing *ingest, cfg aggregate.Config) (*Result, error) {
	trueCount, err := s.bitSum(conn, r, ing.bit)
	if err != nil {
		return nil, err
	}
	res := &Result{Tag: cfg.Tag}
	if cfg.Tag == aggregate.AndOp {
		res.Bool = aggregate.AndResult(trueCount, r.ValidCount())
	} else {
		res.Bool = aggregate.OrResult(trueCount)
	}
	return res, nil
}

func (s *Server) bitSum(conn *proto.Conn, r *aggregate.Round, shares []bool) (uint64, error) {
	if s.Role == share.Server0 {
		return aggregate.BitSumServer0(conn, r, shares)
	}
	return aggregate.BitSumServer1(conn, r, shares)
}

func (s *Server) intSum(conn *proto.Conn, r *aggregate.Round, shares []uint64, numBits int) (uint64, error) {
	if s.Role == share.Server0 {
		return aggregate.SumServer0(conn, r, shares, numBits)
	}
	return aggregate.SumServer1(conn, r, shares, numBits)
}

func (s *Server) sumVar(conn *proto.Conn, r *aggregate.Round, ing *ingest, cfg aggregate.Config) (*Result, error) {
	var sumV, sumVV uint64
	var err error
	if s.Role == share.Server0 {
		sumV, sumVV, err = aggregate.VarServer0(conn, r, ing.v, ing.vv, cfg.NumBits)
	} else {
		sumV, sumVV, err = aggregate.VarServer1(conn, r, ing.v, ing.vv, cfg.NumBits)
	}
	if err != nil {
		return nil, err
	}
	res := &Result{Tag: cfg.Tag}
	if cfg.Tag == aggregate.StdDevOp {
		res.Float = aggregate.StdDevResult(sumV, sumVV, r.ValidCount())
	} else {
		res.Float = aggregate.VarResult(sumV, sumVV, r.ValidCount())
	}
	return res, nil
}

func (s *Server) sumLinReg(conn *proto.Conn, r *aggregate.Round, ing *ingest, cfg aggregate.Config) (*Result, error) {
	shares := &aggregate.LinRegShares{
		YShares:  ing.lrY,
		XShares:  ing.lrX,
		XXShares: ing.lrXX,
		XYShares: ing.lrXY,
	}
	var sums *aggregate.LinRegSums
	var err error
	if s.Role == share.Server0 {
		sums, err = aggregate.LinRegServer0(conn, r, shares, cfg.NumBits)
	} else {
		sums, err = aggregate.LinRegServer1(conn, r, shares, cfg.NumBits)
	}
	if err != nil {
		return nil, err
	}
	beta, err := sums.Solve(r.ValidCount())
	if err != nil {
		return nil, err
	}
	return &Result{Tag: cfg.Tag, Beta: beta}, nil
}

// columns transposes ing.arrays ([]submission][]position) into
// [position][]submission, the shape combinedCounts/FreqServer*/
// CountMinServer* expect.
func columns(rows [][]bool, width int) [][]bool {
	cols := make([][]bool, width)
	for pos := range cols {
		cols[pos] = make([]bool, len(rows))
	}
	for i, row := range rows {
		for pos, b := range row {
			if pos < width {
				cols[pos][i] = b
			}
		}
	}
	return cols
}

func (s *Server) sumMinMax(conn *proto.Conn, r *aggregate.Round, ing *ingest, cfg aggregate.Config) (*Result, error) {
	cols := columns(ing.arrays, cfg.MaxInp+1)
	var v int
	var err error
	if cfg.Tag == aggregate.MaxOp {
		if s.Role == share.Server0 {
			v, err = aggregate.MaxServer0(conn, r, cols)
		} else {
			v, err = aggregate.MaxServer1(conn, r, cols)
		}
	} else {
		if s.Role == share.Server0 {
			v, err = aggregate.MinServer0(conn, r, cols)
		} else {
			v, err = aggregate.MinServer1(conn, r, cols)
		}
	}
	if err != nil {
		return nil, err
	}
	return &Result{Tag: cfg.Tag, Int: v}, nil
}

func (s *Server) sumFreq(conn *proto.Conn, r *aggregate.Round, ing *ingest, cfg aggregate.Config) (*Result, error) {
	cols := columns(ing.arrays, cfg.MaxInp)
	var counts []uint64
	var err error
	if s.Role == share.Server0 {
		counts, err = aggregate.FreqServer0(conn, r, cols)
	} else {
		counts, err = aggregate.FreqServer1(conn, r, cols)
	}
	if err != nil {
		return nil, err
	}
	return &Result{Tag: cfg.Tag, Freq: counts}, nil
}

func (s *Server) sumCountMin(conn *proto.Conn, r *aggregate.Round, ing *ingest, cfg aggregate.Config) (*Result, error) {
	hf, err := s.countMinFamily(cfg)
	if err != nil {
		return nil, err
	}
	rows := splitRows(ing.arrays, hf.D(), cfg.Heavy.W)
	var sketch *aggregate.Sketch
	if s.Role == share.Server0 {
		sketch, err = aggregate.CountMinServer0(conn, r, hf, rows)
	} else {
		sketch, err = aggregate.CountMinServer1(conn, r, hf, rows)
	}
	if err != nil {
		return nil, err
	}
	return &Result{Tag: cfg.Tag, Sketch: sketch}, nil
}

func (s *Server) countMinFamily(cfg aggregate.Config) (*aggregate.HashFamily, error) {
	return aggregate.NewHashFamily(cfg.Heavy.Seed, cfg.Heavy.D, cfg.Heavy.W)
}

// splitRows turns a flattened [submission][d*w]bool matrix into the
// [h][bucket][submission]bool shape CountMinServer0/1 expects.
func splitRows(arrays [][]bool, d, w int) [][][]bool {
	rows := make([][][]bool, d)
	for h := range rows {
		rows[h] = make([][]bool, w)
		for b := range rows[h] {
			rows[h][b] = make([]bool, len(arrays))
		}
	}
	for i, row := range arrays {
		for h := 0; h < d; h++ {
			for b := 0; b < w; b++ {
				pos := h*w + b
				if pos < len(row) {
					rows[h][b][i] = row[pos]
				}
			}
		}
	}
	return rows
}

func (s *Server) sumHeavy(conn *proto.Conn, r *aggregate.Round, ing *ingest, cfg aggregate.Config) (*Result, error) {
	families, err := aggregate.HeavyHashFamilies(cfg.Heavy.Seed, cfg.Heavy.L, cfg.Heavy.D, cfg.Heavy.W)
	if err != nil {
		return nil, err
	}
	rowWidth := cfg.Heavy.D * cfg.Heavy.W
	tailBits := cfg.NumBits - cfg.Heavy.L
	if tailBits < 0 {
		tailBits = 0
	}
	tailWidth := 1 << uint(tailBits)

	sketches := make([]*aggregate.Sketch, cfg.Heavy.L)
	for depth := 0; depth < cfg.Heavy.L; depth++ {
		depthRows := sliceColumn(ing.arrays, depth*rowWidth, rowWidth)
		rows := splitRows(depthRows, families[depth].D(), cfg.Heavy.W)
		var sketch *aggregate.Sketch
		if s.Role == share.Server0 {
			sketch, err = aggregate.CountMinServer0(conn, r, families[depth], rows)
		} else {
			sketch, err = aggregate.CountMinServer1(conn, r, families[depth], rows)
		}
		if err != nil {
			return nil, err
		}
		sketches[depth] = sketch
	}

	var tail []uint64
	if tailWidth > 0 {
		tailRows := sliceColumn(ing.arrays, cfg.Heavy.L*rowWidth, tailWidth)
		cols := columns(tailRows, tailWidth)
		if s.Role == share.Server0 {
			tail, err = aggregate.FreqServer0(conn, r, cols)
		} else {
			tail, err = aggregate.FreqServer1(conn, r, cols)
		}
		if err != nil {
			return nil, err
		}
	}

	threshold := uint64(cfg.Heavy.T * float64(r.ValidCount()) / 2)
	heavy := aggregate.HeavyRecover(sketches, tail, cfg.NumBits, cfg.Heavy.L, threshold)
	return &Result{Tag: cfg.Tag, Heavy: heavy}, nil
}

// sliceColumn extracts, per submission, the [offset, offset+width)
// slice of its flattened array — one stratification depth's row, or
// the tail histogram, out of EncodeHeavy's concatenated layout.
func sliceColumn(arrays [][]bool, offset, width int) [][]bool {
	out := make([][]bool, len(arrays))
	for i, row := range arrays {
		seg := make([]bool, width)
		for j := 0; j < width && offset+j < len(row); j++ {
			seg[j] = row[offset+j]
		}
		out[i] = seg
	}
	return out
}
