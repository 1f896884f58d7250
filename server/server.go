//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package server implements the two-server aggregator role spec.md
// §2/§5 describes: accept client submissions over a listener
// (package client's wire encoding), deduplicate them into an
// aggregate.Round (every decoded submission starts valid; shares are
// not range-checked at ingest), then run the cross-server phases
// (challenge agreement, presence exchange, SNIP verification, and
// finally OT-assisted aggregation) over a dedicated peer connection
// plus a separate OT side-channel connection, per spec.md §5's
// "dedicated side connection on a fixed port separate from the main
// peer socket."
//
// The listener/dial halves follow kernel.Kernel's accept-loop shape
// (kernel.Kernel.Evaluator/Spawn), but without a goroutine per
// connection: RunRound accepts and decodes client submissions one at
// a time on its own goroutine, and only once ingest is complete does
// it connect to the peer and run the cross-server phases.
package server

import (
	"fmt"
	"log"
	"net"

	"github.com/google/uuid"

	"github.com/markkurossi/secureagg/aggregate"
	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/markkurossi/secureagg/proto"
	"github.com/markkurossi/secureagg/share"
)

// Server holds one role's network configuration for a round. Role0
// listens on PeerAddr/OTAddr for Role1 to connect (spec.md §2 step
// 2: "Server 1 connects to Server 0"); Role1 dials them.
type Server struct {
	Role             share.ServerID
	ClientAddr       string // listen address for client submissions
	PeerAddr         string // role0: listen address; role1: dial address
	OTAddr           string // role0: listen address; role1: dial address
	NumBits          int    // expected width, cross-checked against the round's init message
	MinValidFraction float64
	Logger           *log.Logger
}

// Prime is the shared SNIP field, fixed process-wide per spec.md §9:
// "the only process-wide state is the chosen prime p and the
// roots-of-unity table, initialised once at program start."
var Prime = field.DefaultPrime()

// RunRound runs one complete aggregation round: ingest, cross-server
// verification, and aggregation. It blocks until cfg.NumInputs
// distinct client connections have been ingested (cfg is established
// from the first client connection's init message) and the peer
// connection yields a result.
func (s *Server) RunRound() (*Result, error) {
	roundID := uuid.New()

	listener, err := net.Listen("tcp", s.ClientAddr)
	if err != nil {
		return nil, fmt.Errorf("server: listen on client address: %w", err)
	}
	defer listener.Close()
	s.logf("round %s: listening for client submissions on %s", roundID, s.ClientAddr)

	ing, err := newIngest(listener)
	if err != nil {
		return nil, err
	}
	s.logf("round %s: ingested %d submissions (tag=%d)", roundID, ing.round.N(), ing.cfg.Tag)
	if s.NumBits != 0 && ing.cfg.NumBits != s.NumBits {
		s.logf("warning: round num_bits=%d does not match configured %d", ing.cfg.NumBits, s.NumBits)
	}

	var peerConn, otConn *proto.Conn
	if s.Role == share.Server0 {
		peerConn, otConn, err = s.acceptPeer()
	} else {
		peerConn, otConn, err = s.dialPeer()
	}
	if err != nil {
		return nil, fmt.Errorf("server: peer connection: %w", err)
	}
	defer peerConn.Close()
	defer otConn.Close()

	result, err := s.runProtocol(peerConn, otConn, ing)
	if err != nil {
		return nil, err
	}
	result.RoundID = roundID
	return result, nil
}

func (s *Server) acceptPeer() (*proto.Conn, *proto.Conn, error) {
	peerL, err := net.Listen("tcp", s.PeerAddr)
	if err != nil {
		return nil, nil, err
	}
	defer peerL.Close()
	otL, err := net.Listen("tcp", s.OTAddr)
	if err != nil {
		return nil, nil, err
	}
	defer otL.Close()

	peerRaw, err := peerL.Accept()
	if err != nil {
		return nil, nil, err
	}
	otRaw, err := otL.Accept()
	if err != nil {
		peerRaw.Close()
		return nil, nil, err
	}
	return proto.NewConn(peerRaw), proto.NewConn(otRaw), nil
}

func (s *Server) dialPeer() (*proto.Conn, *proto.Conn, error) {
	peerConn, err := proto.Dial("tcp", s.PeerAddr)
	if err != nil {
		return nil, nil, err
	}
	otConn, err := proto.Dial("tcp", s.OTAddr)
	if err != nil {
		peerConn.Close()
		return nil, nil, err
	}
	return peerConn, otConn, nil
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
	}
}

// Result is one round's outcome, per spec.md §4.3 step 6 /§7.
type Result struct {
	RoundID uuid.UUID
	Tag     aggregate.Tag
	Invalid bool

	Uint64 uint64 // BIT_SUM_OP, INT_SUM_OP
	Bool   bool   // AND_OP, OR_OP
	Int    int    // MAX_OP, MIN_OP

	Float float64 // VAR_OP, STDDEV_OP

	Freq []uint64 // FREQ_OP

	Sketch *aggregate.Sketch // COUNTMIN_OP

	Heavy []aggregate.HeavyResult // HEAVY_OP

	Beta []float64 // LINREG_OP
}
