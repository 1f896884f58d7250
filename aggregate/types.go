//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package aggregate implements the per-statistic server state
// machines of spec.md §4.3: the common pk-keyed ingest/presence/SNIP
// prologue (round.go), and the per-statistic combination logic built
// on top of crypto/ot's OT-sum primitive and crypto/snip's proof
// verifier.
package aggregate

// Tag identifies which statistic a round computes, the tagged
// variant spec.md §9's design notes describe ("Polymorphism across
// statistics").
type Tag int

// Statistic tags, spec.md §6.
const (
	NoneOp Tag = iota
	BitSumOp
	IntSumOp
	AndOp
	OrOp
	MaxOp
	MinOp
	VarOp
	StdDevOp
	LinRegOp
	FreqOp
	CountMinOp
	HeavyOp
)

// HeavyConfig carries the extra parameters the HeavyConfig record
// attaches to a round's init message (spec.md §6) for the COUNTMIN
// and HEAVY variants.
type HeavyConfig struct {
	T    float64 // detection threshold, as a fraction of the population
	W    int     // sketch width
	D    int     // number of hash functions
	L    int     // prefix-stratification depth, for HEAVY only
	Seed [32]byte
}

// Config carries a round's init-message parameters (spec.md §6): the
// statistic tag, the common width/population parameters, and
// whichever statistic-specific parameters apply.
type Config struct {
	Tag              Tag
	NumBits          int
	NumInputs        int
	MaxInp           int // B, for MAX_OP/MIN_OP/FREQ_OP
	Degree           int // d, for LINREG_OP
	Heavy            HeavyConfig
	MinValidFraction float64
}

// DefaultMinValidFraction is the configured rejection threshold
// spec.md §9's open question resolves to a CLI-configurable default
// (SPEC_FULL.md's --min-valid-fraction flag).
const DefaultMinValidFraction = 0.5
