// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package diagnostics exposes the conservation-report side channel of
// attribution-style backward passes.
//
// Layers never print. They hand a ConservationReport to a Sink, which may
// write it to a zap logger, klog, or memory.
//
// Example:
//
//	logger, _ := zap.NewDevelopment()
//	split := nn.NewSplit[float32](nn.WithSink(diagnostics.NewZapSink(logger)))
package diagnostics

import (
	"github.com/born-ml/fanout/internal/diagnostics"
	"go.uber.org/zap"
)

// ConservationReport holds the gradient totals observed by one backward call.
type ConservationReport = diagnostics.ConservationReport

// Sink receives conservation reports.
type Sink = diagnostics.Sink

// Recorder keeps reports in memory.
type Recorder = diagnostics.Recorder

// ZapSink logs reports as structured zap entries.
type ZapSink = diagnostics.ZapSink

// KlogSink logs reports through klog.
type KlogSink = diagnostics.KlogSink

// ReportMessage is the log message attached to every emitted report.
const ReportMessage = diagnostics.ReportMessage

// Nop returns a sink that discards every report.
func Nop() Sink { return diagnostics.Nop() }

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder { return diagnostics.NewRecorder() }

// NewZapSink creates a sink logging to logger at debug level.
func NewZapSink(logger *zap.Logger) *ZapSink { return diagnostics.NewZapSink(logger) }

// NewKlogSink creates a sink logging through klog.V(verbosity).
func NewKlogSink(verbosity int) *KlogSink { return diagnostics.NewKlogSink(verbosity) }

// Multi forwards every report to each of sinks.
func Multi(sinks ...Sink) Sink { return diagnostics.Multi(sinks...) }
