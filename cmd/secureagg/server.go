//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/markkurossi/secureagg/aggregate"
	"github.com/markkurossi/secureagg/server"
	"github.com/markkurossi/secureagg/share"
	"github.com/spf13/cobra"
)

func serverCmd() *cobra.Command {
	var peerHost string
	var otPort int
	var minValidFraction float64

	cmd := &cobra.Command{
		Use:   "server <role 0|1> <client_port> <peer_port> <num_bits>",
		Short: "Run one role of a two-server aggregation round",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := strconv.Atoi(args[0])
			if err != nil || (role != 0 && role != 1) {
				return fmt.Errorf("role must be 0 or 1, got %q", args[0])
			}
			clientPort, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid client_port: %w", err)
			}
			peerPort, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid peer_port: %w", err)
			}
			numBits, err := strconv.Atoi(args[3])
			if err != nil || numBits < 1 || numBits > 63 {
				return fmt.Errorf("num_bits must be in [1, 63], got %q", args[3])
			}

			s := &server.Server{
				Role:             share.ServerID(role),
				ClientAddr:       fmt.Sprintf(":%d", clientPort),
				NumBits:          numBits,
				MinValidFraction: minValidFraction,
				Logger:           log.New(os.Stderr, "secureagg: ", 0),
			}
			if role == 0 {
				s.PeerAddr = fmt.Sprintf(":%d", peerPort)
				s.OTAddr = fmt.Sprintf(":%d", otPort)
			} else {
				s.PeerAddr = fmt.Sprintf("%s:%d", peerHost, peerPort)
				s.OTAddr = fmt.Sprintf("%s:%d", peerHost, otPort)
			}

			result, err := s.RunRound()
			if err != nil {
				return err
			}
			if result.Invalid {
				return fmt.Errorf("round invalid: %w", aggregate.ErrRoundInvalid)
			}
			printResult(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&peerHost, "peer-host", "127.0.0.1",
		"address of the other server, dialled by role 1")
	cmd.Flags().IntVar(&otPort, "ot-port", 60051,
		"port of the dedicated OT side channel, separate from peer_port")
	cmd.Flags().Float64Var(&minValidFraction, "min-valid-fraction",
		aggregate.DefaultMinValidFraction,
		"minimum surviving-valid fraction below which a round is rejected")
	return cmd
}

func printResult(r *server.Result) {
	switch r.Tag {
	case aggregate.BitSumOp, aggregate.IntSumOp:
		fmt.Println(r.Uint64)
	case aggregate.AndOp, aggregate.OrOp:
		fmt.Println(r.Bool)
	case aggregate.MaxOp, aggregate.MinOp:
		fmt.Println(r.Int)
	case aggregate.VarOp, aggregate.StdDevOp:
		fmt.Println(r.Float)
	case aggregate.LinRegOp:
		fmt.Println(r.Beta)
	case aggregate.FreqOp:
		fmt.Println(r.Freq)
	case aggregate.CountMinOp:
		width := 0
		if len(r.Sketch.Buckets) > 0 {
			width = len(r.Sketch.Buckets[0])
		}
		fmt.Printf("count-min sketch: %d rows x %d buckets\n", len(r.Sketch.Buckets), width)
	case aggregate.HeavyOp:
		for _, h := range r.Heavy {
			fmt.Printf("%d: %d\n", h.Value, h.Count)
		}
	}
}
