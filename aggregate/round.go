//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package aggregate

import (
	"errors"
	"fmt"
	"io"

	"github.com/markkurossi/secureagg/crypto/circuit"
	"github.com/markkurossi/secureagg/crypto/field"
	"github.com/markkurossi/secureagg/crypto/snip"
	"github.com/markkurossi/secureagg/pk"
	"github.com/markkurossi/secureagg/proto"
	"github.com/markkurossi/secureagg/share"
)

// ErrRoundInvalid is returned when a round's surviving fraction of
// valid submissions falls below the configured threshold (spec.md
// §4.3 step 6 / §7's "round invalid" error kind): the round is
// suppressed rather than producing a skewed aggregate.
var ErrRoundInvalid = errors.New("aggregate: round invalid: too few valid submissions")

// Round holds one server's view of a single aggregation round: the
// pk-keyed map of ingested submissions spec.md §4.3 describes, and
// the per-submission validity vector that every prologue step (local
// range check, presence, SNIP) only ever narrows.
//
// Ingest may run concurrently with the verify-and-aggregate phase
// spec.md §5 describes, since the map only grows (first-writer-wins)
// during ingest and is never mutated once ingest ends; callers are
// expected to close off ingest (e.g. via a channel) before calling
// ExchangePresence.
type Round struct {
	Pks   []pk.Pk
	Valid []bool

	index map[pk.Pk]int
}

// NewRound creates an empty round.
func NewRound() *Round {
	return &Round{index: make(map[pk.Pk]int)}
}

// Ingest records one client submission's identifier and its local
// validity (the range-check outcome computed before this call, spec.md
// §3's "range checks"), honoring first-writer-wins deduplication on
// pk. It returns the submission's index within the round and whether
// this call was the one that admitted it (false if id was already
// present, in which case the duplicate is silently dropped and the
// original's slot is unaffected).
func (r *Round) Ingest(id pk.Pk, localValid bool) (int, bool) {
	if _, dup := r.index[id]; dup {
		return -1, false
	}
	idx := len(r.Pks)
	r.index[id] = idx
	r.Pks = append(r.Pks, id)
	r.Valid = append(r.Valid, localValid)
	return idx, true
}

// Lookup returns the index of a previously-ingested pk, if any.
func (r *Round) Lookup(id pk.Pk) (int, bool) {
	idx, ok := r.index[id]
	return idx, ok
}

// N is the number of distinct submissions ingested this round.
func (r *Round) N() int {
	return len(r.Pks)
}

// ValidCount returns how many submissions are still marked valid.
func (r *Round) ValidCount() int {
	n := 0
	for _, v := range r.Valid {
		if v {
			n++
		}
	}
	return n
}

// CheckThreshold enforces spec.md §4.3 step 6's rejection policy: if
// the surviving valid fraction is below minFraction, the round is
// aborted as invalid rather than aggregated.
func (r *Round) CheckThreshold(minFraction float64) error {
	if r.N() == 0 {
		return ErrRoundInvalid
	}
	frac := float64(r.ValidCount()) / float64(r.N())
	if frac < minFraction {
		return ErrRoundInvalid
	}
	return nil
}

// ExchangePresence runs spec.md §4.3 step 4: Server1 sends the size
// of its pk list and then every pk, in its own insertion order;
// Server0 replies with one presence bit per pk. Both sides then
// rebase their round state onto this shared order (Server1's), since
// every later per-submission exchange (RunSNIP, the per-statistic
// sums) zips values by position and the two servers' independent
// ingestion orders are otherwise unrelated. A submission only one
// server saw is dropped from the order entirely — it can never be
// reconstructed — except on Server1's own list, where it is kept but
// marked invalid so indices stay aligned with Server1's driving order.
//
// Server1 drives (spec.md §5: "Server 1 is the driver of every
// cross-server exchange"), deciding the pk order; Server0 only
// responds.
func (r *Round) ExchangePresence(conn *proto.Conn, role share.ServerID) error {
	if role == share.Server1 {
		return r.exchangePresenceDriver(conn)
	}
	return r.exchangePresenceResponder(conn)
}

func (r *Round) exchangePresenceDriver(conn *proto.Conn) error {
	order := append([]pk.Pk(nil), r.Pks...)
	localValid := r.Valid

	if err := conn.SendUint32(uint32(len(order))); err != nil {
		return err
	}
	for _, id := range order {
		if err := conn.SendPk(id); err != nil {
			return err
		}
	}
	if err := conn.Flush(); err != nil {
		return err
	}

	newValid := make([]bool, len(order))
	for i := range order {
		present, err := conn.RecvBool()
		if err != nil {
			return err
		}
		newValid[i] = localValid[i] && present
	}
	r.rebase(order, newValid)
	return nil
}

func (r *Round) exchangePresenceResponder(conn *proto.Conn) error {
	n, err := conn.RecvUint32()
	if err != nil {
		return err
	}
	order := make([]pk.Pk, n)
	for i := range order {
		id, err := conn.RecvPk()
		if err != nil {
			return err
		}
		order[i] = id
	}

	newValid := make([]bool, n)
	for i, id := range order {
		idx, present := r.index[id]
		newValid[i] = present && r.Valid[idx]
		if err := conn.SendBool(present); err != nil {
			return err
		}
	}
	if err := conn.Flush(); err != nil {
		return err
	}
	r.rebase(order, newValid)
	return nil
}

// rebase replaces the round's working pk order and validity vector,
// used once by ExchangePresence to switch from each server's own
// ingestion order to the shared, position-aligned order the rest of
// the round's protocol steps depend on.
func (r *Round) rebase(order []pk.Pk, valid []bool) {
	r.Pks = order
	r.Valid = valid
	r.index = make(map[pk.Pk]int, len(order))
	for i, id := range order {
		r.index[id] = i
	}
}

// exchangeBool sends this side's bool and returns the peer's: RunSNIP
// ANDs the returned value with its own to fold the two sides'
// independent SNIP verdicts for one submission into a single shared
// validity bit. Server1 drives, matching every other peer exchange.
func exchangeBool(conn *proto.Conn, role share.ServerID, mine bool) (bool, error) {
	if role == share.Server1 {
		if err := conn.SendBool(mine); err != nil {
			return false, err
		}
		if err := conn.Flush(); err != nil {
			return false, err
		}
		peer, err := conn.RecvBool()
		if err != nil {
			return false, err
		}
		return peer, nil
	}
	peer, err := conn.RecvBool()
	if err != nil {
		return false, err
	}
	if err := conn.SendBool(mine); err != nil {
		return false, err
	}
	return peer, conn.Flush()
}

// RunSNIP gates every still-valid submission's validity on its SNIP
// proof (spec.md §4.3 step 5): it draws the round's shared challenge
// once, then for submission i verifies this server's half of the
// proof against it, exchanges the two sides' local verdicts, and
// narrows Valid[i] to present (already
// reflected by the incoming Valid vector) AND my result AND the
// peer's result. packets[i] may be nil for a submission this server
// already marked invalid (e.g. failed presence or local range check);
// such entries are skipped on this side, but the two sides must still
// agree to skip together, so skip is itself communicated as a false
// vote.
//
// If c.NMul() == 0 no multiplication gate exists to verify and
// snip.Verify passes every surviving submission without exchanging
// anything; the challenge draw and the per-submission verdict
// exchange still run.
func (r *Round) RunSNIP(conn *proto.Conn, role share.ServerID, p *field.Prime, c *circuit.Circuit, rng io.Reader, packets []*snip.Packet) error {
	if len(packets) != len(r.Pks) {
		return fmt.Errorf("aggregate: packet count %d does not match round size %d", len(packets), len(r.Pks))
	}
	x, err := snip.DrawChallenge(conn, role, p, rng)
	if err != nil {
		return err
	}
	for i := range r.Pks {
		myOK := false
		if r.Valid[i] && packets[i] != nil {
			myOK, err = snip.Verify(conn, role, p, c, packets[i], x)
			if err != nil {
				return err
			}
		}

		peerOK, err := exchangeBool(conn, role, myOK)
		if err != nil {
			return err
		}
		if !myOK || !peerOK {
			r.Valid[i] = false
		}
	}
	return nil
}
