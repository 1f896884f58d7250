//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aggregate

import (
	"github.com/markkurossi/secureagg/proto"
	"github.com/markkurossi/secureagg/share"
)

// FreqServer0/1 compute FREQ_OP: shares[v][i] is this server's XOR
// share of the one-hot bit "submission i's value == v", for v in
// [0, m). This is the exact encoding spec.md §4.3 describes for
// FREQ_OP ("XOR the one-hot arrays ... reveal each bucket count via
// OT-assisted bit sum"). Each position's count is still summed across
// clients via combinedCounts rather than XOR-ed: a position-wise XOR
// of several clients' one-hot bits would cancel in pairs whenever a
// value repeats.
func FreqServer0(conn *proto.Conn, r *Round, shares [][]bool) ([]uint64, error) {
	return combinedCounts(conn, share.Server0, r, shares)
}

func FreqServer1(conn *proto.Conn, r *Round, shares [][]bool) ([]uint64, error) {
	return combinedCounts(conn, share.Server1, r, shares)
}

// Sketch is a reconstructed count-min sketch: D independent hash
// rows, each W buckets wide (spec.md §4.5).
type Sketch struct {
	Hash    *HashFamily
	Buckets [][]uint64 // Buckets[h][b]
}

// CountMinServer0/1 compute COUNTMIN_OP: shares[h][b][i] is this
// server's XOR share of the bit "hash function h maps submission i's
// value into bucket b" (client-built from the shared HashFamily).
// Each (h, b) position reduces to the same bitsum-OT primitive as
// FREQ_OP; the resulting D*W buckets form the sketch used to
// estimate any key's frequency.
func CountMinServer0(conn *proto.Conn, r *Round, hf *HashFamily, shares [][][]bool) (*Sketch, error) {
	return countMin(conn, share.Server0, r, hf, shares)
}

func CountMinServer1(conn *proto.Conn, r *Round, hf *HashFamily, shares [][][]bool) (*Sketch, error) {
	return countMin(conn, share.Server1, r, hf, shares)
}

func countMin(conn *proto.Conn, role share.ServerID, r *Round, hf *HashFamily, shares [][][]bool) (*Sketch, error) {
	buckets := make([][]uint64, len(shares))
	for h, row := range shares {
		counts, err := combinedCounts(conn, role, r, row)
		if err != nil {
			return nil, err
		}
		buckets[h] = counts
	}
	return &Sketch{Hash: hf, Buckets: buckets}, nil
}

// Estimate returns the count-min point estimate for key: the minimum
// bucket count across the D hash rows, which never undercounts (every
// row's bucket for the true key includes every collision's count, so
// the true count is a lower bound on each row, hence on the minimum).
func (s *Sketch) Estimate(key uint64) uint64 {
	min := ^uint64(0)
	for h, row := range s.Buckets {
		c := row[s.Hash.Hash(h, key)]
		if c < min {
			min = c
		}
	}
	return min
}

// HeavyResult is one recovered heavy hitter: a value whose estimated
// frequency clears the configured threshold.
type HeavyResult struct {
	Value uint64
	Count uint64
}

// HeavyRecover implements spec.md §4.5's stratified recovery: sketches
// []*Sketch holds one count-min sketch per prefix depth 0..L-1 (depth
// i estimates the frequency of a value's low (i+1) bits), and tail
// holds one exact histogram (from FreqServer0/1) of the remaining
// high numBits-L bits (v >> L) over the whole valid population, not
// split by prefix. Candidates are grown bit by bit, keeping only
// prefixes whose estimated count exceeds the threshold; each
// surviving L-bit prefix is then paired with every tail value whose
// count exceeds the threshold, and the reported Count is that tail
// count.
//
// threshold is t*N/2 in absolute count terms (t the configured
// fraction, N the valid population size), per spec.md §4.5.
func HeavyRecover(sketches []*Sketch, tail []uint64, numBits, l int, threshold uint64) []HeavyResult {
	type candidate struct {
		prefix uint64 // low `depth` bits, value-order (not bit-reversed)
		depth  int
	}
	candidates := []candidate{{prefix: 0, depth: 0}}
	for depth := 0; depth < l; depth++ {
		var next []candidate
		for _, c := range candidates {
			for _, bit := range []uint64{0, 1} {
				ext := c.prefix | (bit << uint(depth))
				if sketches[depth].Estimate(ext) > threshold {
					next = append(next, candidate{prefix: ext, depth: depth + 1})
				}
			}
		}
		candidates = next
	}

	var results []HeavyResult
	tailBits := numBits - l
	if tailBits <= 0 {
		for _, c := range candidates {
			results = append(results, HeavyResult{Value: c.prefix, Count: sketches[l-1].Estimate(c.prefix)})
		}
		return results
	}
	for _, c := range candidates {
		for suffix, count := range tail {
			if count == 0 || uint64(count) <= threshold {
				continue
			}
			value := c.prefix | (uint64(suffix) << uint(l))
			results = append(results, HeavyResult{Value: value, Count: uint64(count)})
		}
	}
	return results
}
