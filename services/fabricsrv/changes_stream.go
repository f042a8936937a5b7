// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabricsrv

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dharc-go/fabric/services/fabric/wire"
)

// changesPollInterval is how often the websocket drains the change log and
// forwards new entries. Independent of Config.MaintenanceSweepInterval —
// this is a client-facing cadence, not the significance reordering sweep.
const changesPollInterval = 200 * time.Millisecond

// changesDrainBatch bounds how many entries are drained per poll tick, so
// one slow client can't force an unbounded drain of the change log.
const changesDrainBatch = 128

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// HandleSubscribeChanges handles GET /v1/fabric/changes (SPEC_FULL.md
// SUPPLEMENTED FEATURES point 9): upgrades to a websocket and streams
// Fabric.DrainChanges entries as they accumulate. Grounded on
// services/orchestrator/handlers/websocket.go's upgrader configuration and
// sendJSON-then-check-error loop shape.
func (h *Handlers) HandleSubscribeChanges(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	// Detect client-initiated close without blocking the write loop: a
	// read pump that only ever observes control frames/errors.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(changesPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			tails := h.fab.DrainChanges(changesDrainBatch)
			for _, t := range tails {
				ev := wire.ChangeEvent{A: wire.FromNode(t.A), B: wire.FromNode(t.B)}
				if err := ws.WriteJSON(ev); err != nil {
					return
				}
			}
		}
	}
}
