//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package client

import (
	"github.com/markkurossi/secureagg/aggregate"
	"github.com/markkurossi/secureagg/proto"
)

// Submit dials both servers and sends one submission's init message
// and share payload to each (spec.md §2 step 1: "clients each
// produce two share bundles and send one to each server"). cfg.Tag
// and cfg.Degree select which of Submission's payload fields are
// sent; the caller builds sub with the matching Encode* function.
func Submit(server0Addr, server1Addr string, cfg aggregate.Config, sub *Submission) error {
	conn0, err := proto.Dial("tcp", server0Addr)
	if err != nil {
		return err
	}
	defer conn0.Close()

	conn1, err := proto.Dial("tcp", server1Addr)
	if err != nil {
		return err
	}
	defer conn1.Close()

	if err := SendInit(conn0, cfg); err != nil {
		return err
	}
	if err := SendInit(conn1, cfg); err != nil {
		return err
	}
	if err := SendSubmission(conn0, cfg.Tag, sub, 0); err != nil {
		return err
	}
	return SendSubmission(conn1, cfg.Tag, sub, 1)
}
