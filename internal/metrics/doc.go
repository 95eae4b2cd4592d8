// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics records chat turn measurements with Prometheus.
//
// # Key Types
//
//   - Recorder: session.Recorder backed by a private registry
//   - Server: Optional /metrics endpoint
//
// # Usage
//
//	rec := metrics.New()
//	s := session.New(session.Config{Recorder: rec, ...}, client, display, doc)
//	srv, err := metrics.Listen(":9464", rec, logger)
//	go srv.Serve(ctx)
package metrics
