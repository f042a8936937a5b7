// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package wire

// ProtocolVersion is the wire protocol's version, returned by the version
// operation (spec §6). The server does not compare it against any
// client-supplied version.
const ProtocolVersion = 1

// VersionResponse is the body for GET /v1/fabric/version.
type VersionResponse struct {
	Version int `json:"version"`
}

// UniqueRequest is the body for POST /v1/fabric/unique. Count defaults to 1;
// a count greater than 1 exercises Fabric.UniqueRange rather than Unique
// (spec §4.3, SPEC_FULL.md SUPPLEMENTED FEATURES point 1).
type UniqueRequest struct {
	Count uint64 `json:"count"`
}

// UniqueResponse is the body for POST /v1/fabric/unique. First and Last are
// equal when Count <= 1.
type UniqueResponse struct {
	First Node `json:"first"`
	Last  Node `json:"last"`
}

// QueryRequest is the body for POST /v1/fabric/query. A and B carry no
// "required" tag: a special-variant Node (including null) is a zero
// Node struct and a legal query endpoint (spec §4.5, §7).
type QueryRequest struct {
	A Node `json:"a"`
	B Node `json:"b"`
}

// QueryResponse is the body for POST /v1/fabric/query.
type QueryResponse struct {
	Head Node `json:"head"`
}

// DefineConstRequest is the body for POST /v1/fabric/define_const. None
// of A, B, or Head carry "required": a null head is a legal target
// (spec §4.5, §7), and as a zero-value Node struct it would otherwise be
// rejected by that tag.
type DefineConstRequest struct {
	A    Node `json:"a"`
	B    Node `json:"b"`
	Head Node `json:"head"`
}

// DefineRequest is the body for POST /v1/fabric/define, with a Path body
// instead of a fixed head (spec §4.2's define(Path)).
type DefineRequest struct {
	A    Node `json:"a"`
	B    Node `json:"b"`
	Path Path `json:"path" binding:"required,min=1,dive,min=0"`
}

// PartnersRequest is the body for POST /v1/fabric/partners.
type PartnersRequest struct {
	Node  Node `json:"node"`
	Start int  `json:"start"`
	Limit int  `json:"limit" binding:"required,min=1,max=1000"`
}

// PartnersResponse is the body for POST /v1/fabric/partners.
type PartnersResponse struct {
	Partners []Node `json:"partners"`
}

// ChangeEvent is one entry streamed over the subscribe_changes websocket
// (SPEC_FULL.md SUPPLEMENTED FEATURES point 9): the tail that changed, encoded
// as its two endpoint Nodes.
type ChangeEvent struct {
	A Node `json:"a"`
	B Node `json:"b"`
}

// StatsResponse is the body for GET /v1/fabric/stats (SPEC_FULL.md SUPPLEMENTED
// FEATURES point 10), polled by the daemon's top dashboard.
type StatsResponse struct {
	HarcCount    int     `json:"harc_count"`
	NodeCount    uint64  `json:"node_count"`
	TickCount    uint64  `json:"tick_count"`
	PendingChanges int   `json:"pending_changes"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
}
