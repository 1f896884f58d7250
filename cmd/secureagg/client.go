//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/markkurossi/secureagg/aggregate"
	agclient "github.com/markkurossi/secureagg/client"
	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/spf13/cobra"
)

var statisticNames = map[string]aggregate.Tag{
	"BIT_SUM":  aggregate.BitSumOp,
	"INT_SUM":  aggregate.IntSumOp,
	"AND":      aggregate.AndOp,
	"OR":       aggregate.OrOp,
	"MAX":      aggregate.MaxOp,
	"MIN":      aggregate.MinOp,
	"VAR":      aggregate.VarOp,
	"STDDEV":   aggregate.StdDevOp,
	"LINREG":   aggregate.LinRegOp,
	"FREQ":     aggregate.FreqOp,
	"COUNTMIN": aggregate.CountMinOp,
	"HEAVY":    aggregate.HeavyOp,
}

func clientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client <num_submissions> <server0_port> <server1_port> <STATISTIC> <num_bits> [statistic-params...]",
		Short: "Submit simulated values to both servers for one round",
		Args:  cobra.MinimumNArgs(5),
		RunE:  runClient,
	}
	return cmd
}

func runClient(cmd *cobra.Command, args []string) error {
	numSubmissions, err := strconv.Atoi(args[0])
	if err != nil || numSubmissions < 1 {
		return fmt.Errorf("num_submissions must be positive, got %q", args[0])
	}
	server0 := fmt.Sprintf("127.0.0.1:%s", args[1])
	server1 := fmt.Sprintf("127.0.0.1:%s", args[2])
	tag, ok := statisticNames[strings.ToUpper(args[3])]
	if !ok {
		return fmt.Errorf("unknown statistic %q", args[3])
	}
	numBits, err := strconv.Atoi(args[4])
	if err != nil || numBits < 1 || numBits > 63 {
		return fmt.Errorf("num_bits must be in [1, 63], got %q", args[4])
	}
	params := args[5:]

	cfg := aggregate.Config{Tag: tag, NumBits: numBits, NumInputs: numSubmissions}
	p := field.DefaultPrime()

	switch tag {
	case aggregate.MaxOp, aggregate.MinOp:
		b, err := intParam(params, 0, "B")
		if err != nil {
			return err
		}
		cfg.MaxInp = b
	case aggregate.FreqOp:
		m, err := intParam(params, 0, "M")
		if err != nil {
			return err
		}
		cfg.MaxInp = m
	case aggregate.LinRegOp:
		degree, err := intParam(params, 0, "degree")
		if err != nil {
			return err
		}
		cfg.Degree = degree
	case aggregate.CountMinOp:
		w, err := intParam(params, 0, "W")
		if err != nil {
			return err
		}
		d, err := intParam(params, 1, "D")
		if err != nil {
			return err
		}
		cfg.Heavy.W, cfg.Heavy.D = w, d
		if err := randomSeed(&cfg.Heavy.Seed); err != nil {
			return err
		}
	case aggregate.HeavyOp:
		w, err := intParam(params, 0, "W")
		if err != nil {
			return err
		}
		d, err := intParam(params, 1, "D")
		if err != nil {
			return err
		}
		l, err := intParam(params, 2, "L")
		if err != nil {
			return err
		}
		t, err := floatParam(params, 3, "T")
		if err != nil {
			return err
		}
		cfg.Heavy.W, cfg.Heavy.D, cfg.Heavy.L, cfg.Heavy.T = w, d, l, t
		if err := randomSeed(&cfg.Heavy.Seed); err != nil {
			return err
		}
	}

	var families []*aggregate.HashFamily
	var hf *aggregate.HashFamily
	if tag == aggregate.HeavyOp {
		families, err = aggregate.HeavyHashFamilies(cfg.Heavy.Seed, cfg.Heavy.L, cfg.Heavy.D, cfg.Heavy.W)
		if err != nil {
			return err
		}
	}
	if tag == aggregate.CountMinOp {
		hf, err = aggregate.NewHashFamily(cfg.Heavy.Seed, cfg.Heavy.D, cfg.Heavy.W)
		if err != nil {
			return err
		}
	}

	for i := 0; i < numSubmissions; i++ {
		sub, err := buildSubmission(tag, cfg, p, families, hf)
		if err != nil {
			return fmt.Errorf("submission %d: %w", i, err)
		}
		if err := agclient.Submit(server0, server1, cfg, sub); err != nil {
			return fmt.Errorf("submission %d: %w", i, err)
		}
	}
	fmt.Printf("submitted %d values for %s\n", numSubmissions, args[3])
	return nil
}

func buildSubmission(tag aggregate.Tag, cfg aggregate.Config, p *field.Prime, families []*aggregate.HashFamily, hf *aggregate.HashFamily) (*agclient.Submission, error) {
	switch tag {
	case aggregate.BitSumOp, aggregate.AndOp, aggregate.OrOp:
		v, err := randomBool()
		if err != nil {
			return nil, err
		}
		return agclient.EncodeBit(rand.Reader, v)
	case aggregate.IntSumOp:
		v, err := randomUint(cfg.NumBits)
		if err != nil {
			return nil, err
		}
		return agclient.EncodeInt(rand.Reader, v, cfg.NumBits)
	case aggregate.VarOp, aggregate.StdDevOp:
		// v*v must not overflow int64/the field, so values are drawn
		// from a narrower range than num_bits would otherwise allow.
		v, err := randomInt64(squareSafeBits(cfg.NumBits))
		if err != nil {
			return nil, err
		}
		return agclient.EncodeVar(rand.Reader, p, v)
	case aggregate.LinRegOp:
		nx := cfg.Degree - 1
		x := make([]int64, nx)
		for j := range x {
			v, err := randomInt64(squareSafeBits(cfg.NumBits))
			if err != nil {
				return nil, err
			}
			x[j] = v
		}
		y, err := randomInt64(squareSafeBits(cfg.NumBits))
		if err != nil {
			return nil, err
		}
		return agclient.EncodeLinReg(rand.Reader, p, x, y)
	case aggregate.MaxOp:
		v, err := randomIntRange(cfg.MaxInp + 1)
		if err != nil {
			return nil, err
		}
		return agclient.EncodeMax(rand.Reader, cfg.MaxInp, v)
	case aggregate.MinOp:
		v, err := randomIntRange(cfg.MaxInp + 1)
		if err != nil {
			return nil, err
		}
		return agclient.EncodeMin(rand.Reader, cfg.MaxInp, v)
	case aggregate.FreqOp:
		v, err := randomIntRange(cfg.MaxInp)
		if err != nil {
			return nil, err
		}
		return agclient.EncodeFreq(rand.Reader, cfg.MaxInp, v)
	case aggregate.CountMinOp:
		v, err := randomUint(cfg.NumBits)
		if err != nil {
			return nil, err
		}
		return agclient.EncodeCountMin(rand.Reader, hf, cfg.Heavy.W, v)
	case aggregate.HeavyOp:
		v, err := randomUint(cfg.NumBits)
		if err != nil {
			return nil, err
		}
		return agclient.EncodeHeavy(rand.Reader, families, cfg.Heavy.W, cfg.NumBits, v)
	default:
		return nil, fmt.Errorf("cannot encode statistic %d", tag)
	}
}

func intParam(params []string, i int, name string) (int, error) {
	if i >= len(params) {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	v, err := strconv.Atoi(params[i])
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter %q: %w", name, params[i], err)
	}
	return v, nil
}

func floatParam(params []string, i int, name string) (float64, error) {
	if i >= len(params) {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	v, err := strconv.ParseFloat(params[i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter %q: %w", name, params[i], err)
	}
	return v, nil
}

func randomSeed(seed *[32]byte) error {
	_, err := rand.Read(seed[:])
	return err
}

func randomBool() (bool, error) {
	var buf [1]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return false, err
	}
	return buf[0]&1 != 0, nil
}

func randomUint(numBits int) (uint64, error) {
	max := new(big.Int).Lsh(big.NewInt(1), uint(numBits))
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

func randomInt64(numBits int) (int64, error) {
	v, err := randomUint(numBits)
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// squareSafeBits caps the width used to draw a VarOp/LinRegOp value
// so that its square (and pairwise products, for LinRegOp) stay well
// inside int64 and the Goldilocks field's range.
func squareSafeBits(numBits int) int {
	if numBits > 20 {
		return 20
	}
	return numBits
}

func randomIntRange(n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
