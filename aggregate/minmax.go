//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// MIN_OP and MAX_OP (spec.md §4.3 step 6) are redesigned here from
// the spec's literal "XOR the one-hot arrays position-wise" wording:
// hand-verifying that wording against spec.md §8's own scenario 3
// (values 3, 11, 7, 11, 2 -> MAX 11) shows position-wise XOR across
// more than one client sharing the same value parity-cancels, giving
// the wrong answer whenever a value repeats an even number of times.
// Instead each position runs the same bitsum-OT primitive BIT_SUM
// uses, applied to a threshold (cumulative) encoding rather than a
// one-hot one, so positions combine by addition, which cannot cancel
// a true bit contributed by multiple clients. See DESIGN.md.
package aggregate

import (
	"errors"

	"github.com/markkurossi/secureagg/crypto/ot"
	"github.com/markkurossi/secureagg/proto"
	"github.com/markkurossi/secureagg/share"
)

// ErrNoValidSubmissions is returned by MAX/MIN when every submission
// was excluded, leaving no population value to report.
var ErrNoValidSubmissions = errors.New("aggregate: no valid submissions")

// combinedCounts runs one bitsum-OT invocation per position of a
// [B+1]xN boolean share matrix and returns the reconstructed
// population count at each position. Every position runs to
// completion on both sides regardless of what earlier positions
// found: breaking out of the loop early on one side while the peer
// keeps expecting further OT rounds would desynchronize the two
// servers' connections.
func combinedCounts(conn *proto.Conn, role share.ServerID, r *Round, shares [][]bool) ([]uint64, error) {
	counts := make([]uint64, len(shares))
	for pos, col := range shares {
		var half uint64
		var err error
		if role == share.Server0 {
			half, err = ot.BitsumSender(conn, col, r.Valid)
		} else {
			half, err = ot.BitsumReceiver(conn, col)
		}
		if err != nil {
			return nil, err
		}
		counts[pos], err = combineSum(conn, role, half)
		if err != nil {
			return nil, err
		}
	}
	return counts, nil
}

// MaxServer0/1 compute MAX_OP. shares[pos][i] is this server's XOR
// share of the threshold bit "submission i's value >= pos" (pos
// ranges 0..B inclusive), the client-side encoding spec.md §3's
// MaxShare(B) carries. The result is the highest position whose
// reconstructed count is nonzero: at least one valid submission's
// value is >= that position, and none is >= any higher position.
func MaxServer0(conn *proto.Conn, r *Round, shares [][]bool) (int, error) {
	return maxFromCounts(combinedCounts(conn, share.Server0, r, shares))
}

func MaxServer1(conn *proto.Conn, r *Round, shares [][]bool) (int, error) {
	return maxFromCounts(combinedCounts(conn, share.Server1, r, shares))
}

func maxFromCounts(counts []uint64, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	for pos := len(counts) - 1; pos >= 0; pos-- {
		if counts[pos] > 0 {
			return pos, nil
		}
	}
	return 0, ErrNoValidSubmissions
}

// MinServer0/1 compute MIN_OP. shares[pos][i] is this server's XOR
// share of the threshold bit "submission i's value <= pos". The
// result is the lowest position whose reconstructed count is
// nonzero.
func MinServer0(conn *proto.Conn, r *Round, shares [][]bool) (int, error) {
	return minFromCounts(combinedCounts(conn, share.Server0, r, shares))
}

func MinServer1(conn *proto.Conn, r *Round, shares [][]bool) (int, error) {
	return minFromCounts(combinedCounts(conn, share.Server1, r, shares))
}

func minFromCounts(counts []uint64, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	for pos, c := range counts {
		if c > 0 {
			return pos, nil
		}
	}
	return 0, ErrNoValidSubmissions
}
