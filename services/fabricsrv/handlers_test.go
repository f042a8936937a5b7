// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabricsrv

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/dharc-go/fabric/services/fabric"
	"github.com/dharc-go/fabric/services/fabric/wire"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	fab := fabric.NewWithRegisterer(prometheus.NewRegistry())
	t.Cleanup(fab.Close)
	return NewRouter(fab, false)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleVersion(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/v1/fabric/version", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.VersionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, wire.ProtocolVersion, resp.Version)
}

func TestHandleUniqueDefaultsToSingleNode(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/v1/fabric/unique", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.UniqueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, resp.First, resp.Last)
}

func TestHandleUniqueRange(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/v1/fabric/unique", wire.UniqueRequest{Count: 5})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.UniqueResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, resp.First.Magnitude+4, resp.Last.Magnitude)
}

func TestHandleDefineConstThenQuery(t *testing.T) {
	router := newTestRouter(t)
	a := wire.FromNode(fabric.Integer(1))
	b := wire.FromNode(fabric.Integer(2))
	head := wire.FromNode(fabric.Integer(42))

	rec := doJSON(t, router, http.MethodPost, "/v1/fabric/define_const", wire.DefineConstRequest{A: a, B: b, Head: head})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/fabric/query", wire.QueryRequest{A: a, B: b})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, head, resp.Head)
}

func TestHandleQueryAcceptsNullEndpoint(t *testing.T) {
	router := newTestRouter(t)
	null := wire.FromNode(fabric.Null)
	a := wire.FromNode(fabric.Integer(1))

	// A null-valued wire Node is the zero Node{} struct; the binding tags
	// on QueryRequest must accept it rather than rejecting it as a
	// missing "required" field (spec §4.5, §7: query({a, null}) is
	// well-defined and merely emits an Information diagnostic).
	rec := doJSON(t, router, http.MethodPost, "/v1/fabric/query", wire.QueryRequest{A: null, B: a})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, null, resp.Head)
}

func TestHandleDefineConstAcceptsNullHead(t *testing.T) {
	router := newTestRouter(t)
	a := wire.FromNode(fabric.Integer(10))
	b := wire.FromNode(fabric.Integer(11))
	null := wire.FromNode(fabric.Null)

	rec := doJSON(t, router, http.MethodPost, "/v1/fabric/define_const", wire.DefineConstRequest{A: a, B: b, Head: null})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/fabric/query", wire.QueryRequest{A: a, B: b})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, null, resp.Head)
}

func TestHandleQueryEvaluationFailureReturns422(t *testing.T) {
	router := newTestRouter(t)
	a := wire.FromNode(fabric.Integer(1))
	b := wire.FromNode(fabric.Integer(2))

	rec := doJSON(t, router, http.MethodPost, "/v1/fabric/define", wire.DefineRequest{
		A: a, B: b, Path: wire.Path{{a, b}},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/fabric/query", wire.QueryRequest{A: a, B: b})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp wire.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "EVALUATION_FAILED", resp.Code)
}

func TestHandleDefineRejectsOversizedSubPath(t *testing.T) {
	router := newTestRouter(t)
	a := wire.FromNode(fabric.Integer(1))
	b := wire.FromNode(fabric.Integer(2))

	longSub := make([]wire.Node, 0, 30)
	for i := 0; i < 30; i++ {
		longSub = append(longSub, wire.FromNode(fabric.Integer(uint64(100+i))))
	}

	rec := doJSON(t, router, http.MethodPost, "/v1/fabric/define", wire.DefineRequest{
		A: a, B: b, Path: wire.Path{longSub},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePartners(t *testing.T) {
	router := newTestRouter(t)
	center := wire.FromNode(fabric.Integer(0))
	for i := 1; i <= 3; i++ {
		partner := wire.FromNode(fabric.Integer(uint64(i)))
		rec := doJSON(t, router, http.MethodPost, "/v1/fabric/define_const", wire.DefineConstRequest{A: center, B: partner, Head: wire.FromNode(fabric.Integer(900))})
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/v1/fabric/partners", wire.PartnersRequest{Node: center, Limit: 10})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.PartnersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Partners, 3)
}

func TestHandleStatsReflectsActivity(t *testing.T) {
	router := newTestRouter(t)
	a := wire.FromNode(fabric.Integer(1))
	b := wire.FromNode(fabric.Integer(2))
	rec := doJSON(t, router, http.MethodPost, "/v1/fabric/define_const", wire.DefineConstRequest{A: a, B: b, Head: wire.FromNode(fabric.Integer(3))})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/fabric/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp wire.StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.HarcCount)
	require.Equal(t, 1, resp.PendingChanges)
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/v1/fabric/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDIsEchoedAndGenerated(t *testing.T) {
	router := newTestRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/v1/fabric/version", nil)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
