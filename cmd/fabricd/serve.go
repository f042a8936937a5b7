// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/dharc-go/fabric/pkg/logging"
	"github.com/dharc-go/fabric/services/fabric"
	"github.com/dharc-go/fabric/services/fabricsrv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fabric HTTP/websocket daemon",
	RunE:  runServe,
}

// setupTracing wires the global TracerProvider to stdouttrace rather than
// an OTLP/gRPC collector (DESIGN.md: dropped otlptracegrpc — no component
// in scope dials an external collector, and stdouttrace still exercises
// the same sdktrace.TracerProvider/resource construction the teacher uses
// in cmd/aleutian/internal/diagnostics/tracer.go's OTelDiagnosticsTracer).
func setupTracing(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return provider.Shutdown, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadDaemonConfig(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Service: "fabricd", Quiet: false})
	defer logger.Close()

	ctx := cmd.Context()
	shutdownTracing, err := setupTracing(ctx, "fabricd")
	if err != nil {
		logger.Warn("tracing setup failed, continuing without export", "error", err.Error())
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer shutdownTracing(context.Background())

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	fab := fabric.New(
		fabric.WithSignificanceBoost(cfg.SignificanceBoost),
		fabric.WithSignificanceHalfLife(cfg.SignificanceHalfLife),
		fabric.WithTickResolution(cfg.TickResolution),
		fabric.WithPartnerReorderThreshold(cfg.PartnerReorderThreshold),
		fabric.WithMaxRecursionDepth(cfg.MaxRecursionDepth),
		fabric.WithMaintenanceSweep(cfg.MaintenanceSweepInterval, cfg.MaintenanceSweepRate),
	)
	defer fab.Close()

	fab.SetDiagnostics(func(d fabric.Diagnostic) {
		logger.Warn("fabric diagnostic", "severity", d.Severity.String(), "message", d.Message, "tail", d.Tail.String())
	})

	router := fabricsrv.NewRouter(fab, cfg.Debug)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("fabricd listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-quit:
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
