// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fabricsrv exposes a fabric.Fabric over HTTP and websocket,
// implementing the version/unique/query/define_const/define/partners
// operation surface plus subscribe_changes and stats.
package fabricsrv

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dharc-go/fabric/services/fabric"
	"github.com/dharc-go/fabric/services/fabric/wire"
)

// Handlers binds a Fabric to gin.HandlerFuncs.
type Handlers struct {
	fab       *fabric.Fabric
	startedAt time.Time
}

// NewHandlers wraps fab for HTTP/websocket exposure.
func NewHandlers(fab *fabric.Fabric) *Handlers {
	return &Handlers{fab: fab, startedAt: time.Now()}
}

func getOrCreateRequestID(c *gin.Context) string {
	id := c.GetHeader("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	c.Header("X-Request-ID", id)
	return id
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, wire.ErrorResponse{
		Error: err.Error(),
		Code:  "INVALID_REQUEST",
	})
}

// HandleVersion handles GET /v1/fabric/version (spec §6).
func (h *Handlers) HandleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, wire.VersionResponse{Version: wire.ProtocolVersion})
}

// HandleUnique handles POST /v1/fabric/unique (spec §6, §4.3). A Count
// greater than one exercises Fabric.UniqueRange rather than Unique
// (SPEC_FULL.md SUPPLEMENTED FEATURES point 1).
func (h *Handlers) HandleUnique(c *gin.Context) {
	var req wire.UniqueRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, err)
		return
	}
	if req.Count <= 1 {
		n := h.fab.Unique()
		c.JSON(http.StatusOK, wire.UniqueResponse{First: wire.FromNode(n), Last: wire.FromNode(n)})
		return
	}
	first, last := h.fab.UniqueRange(req.Count)
	c.JSON(http.StatusOK, wire.UniqueResponse{First: wire.FromNode(first), Last: wire.FromNode(last)})
}

// HandleQuery handles POST /v1/fabric/query (spec §6, §4.3). A cycle or
// recursion-limit failure surfaces as 422 with the EvaluationFailed code;
// a missing/invalid body is 400 (spec §7's distinction between
// InvalidRequest and EvaluationFailed).
func (h *Handlers) HandleQuery(c *gin.Context) {
	var req wire.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	head, err := h.fab.Query(c.Request.Context(), req.A.ToNode(), req.B.ToNode())
	if err != nil {
		var evalErr *fabric.EvaluationError
		if errors.As(err, &evalErr) {
			c.JSON(http.StatusUnprocessableEntity, wire.ErrorResponse{
				Error: evalErr.Error(),
				Code:  "EVALUATION_FAILED",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, wire.ErrorResponse{Error: err.Error(), Code: "INTERNAL"})
		return
	}
	c.JSON(http.StatusOK, wire.QueryResponse{Head: wire.FromNode(head)})
}

// HandleDefineConst handles POST /v1/fabric/define_const (spec §6, §4.2).
func (h *Handlers) HandleDefineConst(c *gin.Context) {
	var req wire.DefineConstRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.fab.DefineConst(req.A.ToNode(), req.B.ToNode(), req.Head.ToNode())
	c.Status(http.StatusNoContent)
}

// HandleDefine handles POST /v1/fabric/define with a Path body (spec §6,
// §4.2's define(Path)).
func (h *Handlers) HandleDefine(c *gin.Context) {
	var req wire.DefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := validateDefinePath(req, h.fab.Config().MaxRecursionDepth); err != nil {
		badRequest(c, err)
		return
	}
	h.fab.Define(req.A.ToNode(), req.B.ToNode(), req.Path.ToPath())
	c.Status(http.StatusNoContent)
}

// HandlePartners handles POST /v1/fabric/partners (spec §6, §4.3).
func (h *Handlers) HandlePartners(c *gin.Context) {
	var req wire.PartnersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	partners := h.fab.Partners(req.Node.ToNode(), req.Start, req.Limit)
	out := make([]wire.Node, len(partners))
	for i, n := range partners {
		out[i] = wire.FromNode(n)
	}
	c.JSON(http.StatusOK, wire.PartnersResponse{Partners: out})
}

// HandleStats handles GET /v1/fabric/stats (SPEC_FULL.md SUPPLEMENTED
// FEATURES point 10), polled by the daemon's top dashboard.
func (h *Handlers) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, wire.StatsResponse{
		HarcCount:      h.fab.HarcCount(),
		NodeCount:      h.fab.NodeCount(),
		TickCount:      h.fab.Tick(),
		PendingChanges: h.fab.PendingChangeCount(),
		UptimeSeconds:  time.Since(h.startedAt).Seconds(),
	})
}

// HandleHealth handles GET /v1/fabric/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
