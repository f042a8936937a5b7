// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabricsrv

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/dharc-go/fabric/services/fabric"
)

// NewRouter builds the gin router exposing fab's operation surface under
// /v1/fabric (spec §6, plus the subscribe_changes/stats supplements). debug
// additionally installs gin's request logger, matching the teacher's
// cmd/trace/main.go debug-flag gating of gin.Logger().
func NewRouter(fab *fabric.Fabric, debug bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("fabric"))
	router.Use(requestIDMiddleware())
	if debug {
		router.Use(gin.Logger())
	}

	h := NewHandlers(fab)
	v1 := router.Group("/v1")
	RegisterRoutes(v1, h)
	return router
}

// RegisterRoutes registers all /v1/fabric/* endpoints on rg, matching the
// teacher's RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) shape
// (services/code_buddy/routes.go).
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	fab := rg.Group("/fabric")
	{
		fab.GET("/version", h.HandleVersion)
		fab.POST("/unique", h.HandleUnique)
		fab.POST("/query", h.HandleQuery)
		fab.POST("/define_const", h.HandleDefineConst)
		fab.POST("/define", h.HandleDefine)
		fab.POST("/partners", h.HandlePartners)
		fab.GET("/stats", h.HandleStats)
		fab.GET("/health", h.HandleHealth)
		fab.GET("/changes", h.HandleSubscribeChanges)
	}
}
