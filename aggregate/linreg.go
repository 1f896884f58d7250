//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aggregate

import (
	"fmt"

	"github.com/markkurossi/secureagg/proto"
)

// LinRegSums is every reconstructed accumulator LIN_REG_OP(d) needs
// (spec.md §4.3 step 6): the population count is already public via
// Round.ValidCount and needs no OT sum, leaving
// 1 + 2*(d-1) + d*(d-1)/2 private accumulators — SumY, SumX[j],
// SumXX[j][k] (j<=k), and SumXY[j] — exactly matching the shape of
// circuit.CheckLinReg(d)'s claimed-product inputs, since every
// accumulator here is the sum, across submissions, of one of that
// circuit's already-SNIP-verified input wires.
type LinRegSums struct {
	SumY  uint64
	SumX  []uint64            // nx = d-1 entries
	SumXX map[[2]int]uint64   // j<=k, 0<=j,k<nx
	SumXY []uint64            // nx entries
}

// LinRegShares is the client-submitted, per-slot XOR share data one
// server holds for a LIN_REG_OP(d) round, in round order: YShares[i]
// is submission i's share of y, etc. Shapes mirror LinRegSums.
type LinRegShares struct {
	YShares  []uint64
	XShares  [][]uint64          // XShares[j][i]
	XXShares map[[2]int][]uint64 // XXShares[j,k][i], j<=k
	XYShares [][]uint64          // XYShares[j][i]
}

func linRegSumsServer(conn *proto.Conn, r *Round, s *LinRegShares, numBits int, sum func(*proto.Conn, *Round, []uint64, int) (uint64, error)) (*LinRegSums, error) {
	out := &LinRegSums{SumXX: make(map[[2]int]uint64)}
	var err error
	out.SumY, err = sum(conn, r, s.YShares, numBits)
	if err != nil {
		return nil, err
	}

	nx := len(s.XShares)
	out.SumX = make([]uint64, nx)
	for j := 0; j < nx; j++ {
		out.SumX[j], err = sum(conn, r, s.XShares[j], numBits)
		if err != nil {
			return nil, err
		}
	}
	out.SumXY = make([]uint64, nx)
	for j := 0; j < nx; j++ {
		out.SumXY[j], err = sum(conn, r, s.XYShares[j], 2*numBits)
		if err != nil {
			return nil, err
		}
	}
	for j := 0; j < nx; j++ {
		for k := j; k < nx; k++ {
			key := [2]int{j, k}
			out.SumXX[key], err = sum(conn, r, s.XXShares[key], 2*numBits)
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// LinRegServer0/1 reconstruct every accumulator for a LIN_REG_OP(d)
// round; callers are expected to have already run Round.RunSNIP with
// circuit.CheckLinReg(d) to gate r.Valid on every submission's
// claimed products being genuine.
func LinRegServer0(conn *proto.Conn, r *Round, s *LinRegShares, numBits int) (*LinRegSums, error) {
	return linRegSumsServer(conn, r, s, numBits, SumServer0)
}

func LinRegServer1(conn *proto.Conn, r *Round, s *LinRegShares, numBits int) (*LinRegSums, error) {
	return linRegSumsServer(conn, r, s, numBits, SumServer1)
}

// Solve turns the reconstructed sums into OLS regression coefficients
// y = beta[0] + beta[1]*x_1 + ... + beta[nx]*x_nx, by building and
// solving the (nx+1)x(nx+1) normal-equation matrix. n is the round's
// valid submission count (Round.ValidCount()), already public and so
// not part of LinRegSums.
func (s *LinRegSums) Solve(n int) ([]float64, error) {
	nx := len(s.SumX)
	d := nx + 1
	a := make([][]float64, d)
	for i := range a {
		a[i] = make([]float64, d)
	}
	b := make([]float64, d)

	a[0][0] = float64(n)
	b[0] = float64(s.SumY)
	for j := 0; j < nx; j++ {
		a[0][j+1] = float64(s.SumX[j])
		a[j+1][0] = float64(s.SumX[j])
		b[j+1] = float64(s.SumXY[j])
	}
	for j := 0; j < nx; j++ {
		for k := 0; k < nx; k++ {
			lo, hi := j, k
			if lo > hi {
				lo, hi = hi, lo
			}
			v, ok := s.SumXX[[2]int{lo, hi}]
			if !ok {
				return nil, fmt.Errorf("aggregate: missing sum x[%d]*x[%d]", lo, hi)
			}
			a[j+1][k+1] = float64(v)
		}
	}

	return GaussJordan(a, b)
}
