//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aggregate

import (
	"math"

	"github.com/markkurossi/secureagg/proto"
)

// VarResult combines the two reconstructed sums SumServer0/1 produce
// for a VAR_OP/STDDEV_OP round (Σv and Σv², each gated beforehand by
// CheckVar-verified SNIP proofs via Round.RunSNIP, per spec.md §4.3)
// into the population variance, using the identity
// Var(v) = E[v^2] - E[v]^2. Both servers compute this identically
// from the two public sums; no further communication is needed.
func VarResult(sumV, sumVV uint64, n int) float64 {
	if n == 0 {
		return 0
	}
	mean := float64(sumV) / float64(n)
	meanSq := float64(sumVV) / float64(n)
	v := meanSq - mean*mean
	if v < 0 {
		// Float64 rounding of the exact sums and their quotients can
		// push this fractionally below zero for a near-constant
		// population.
		v = 0
	}
	return v
}

// StdDevResult is VarResult's square root, for STDDEV_OP.
func StdDevResult(sumV, sumVV uint64, n int) float64 {
	return math.Sqrt(VarResult(sumV, sumVV, n))
}

// VarServer0/1 run the two int-sum reconstructions VAR_OP/STDDEV_OP
// need: vShares/vvShares are each server's XOR shares of every
// submission's value and its square, in round order. Callers run
// Round.RunSNIP with circuit.CheckVar beforehand to gate r.Valid on
// the proof that each submission's claimed square really is its
// value squared.
func VarServer0(conn *proto.Conn, r *Round, vShares, vvShares []uint64, numBits int) (sumV, sumVV uint64, err error) {
	sumV, err = SumServer0(conn, r, vShares, numBits)
	if err != nil {
		return 0, 0, err
	}
	sumVV, err = SumServer0(conn, r, vvShares, 2*numBits)
	return sumV, sumVV, err
}

func VarServer1(conn *proto.Conn, r *Round, vShares, vvShares []uint64, numBits int) (sumV, sumVV uint64, err error) {
	sumV, err = SumServer1(conn, r, vShares, numBits)
	if err != nil {
		return 0, 0, err
	}
	sumVV, err = SumServer1(conn, r, vvShares, 2*numBits)
	return sumV, sumVV, err
}
