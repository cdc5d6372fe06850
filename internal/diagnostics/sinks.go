package diagnostics

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
)

// ReportMessage is the log message attached to every emitted report.
const ReportMessage = "split conservation"

// ZapSink writes reports as structured zap entries.
type ZapSink struct {
	logger *zap.Logger
	level  zapcore.Level
}

// NewZapSink creates a sink logging at debug level. A nil logger yields a no-op sink.
func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger, level: zapcore.DebugLevel}
}

// WithLevel returns a copy of s logging at level.
func (s *ZapSink) WithLevel(level zapcore.Level) *ZapSink {
	return &ZapSink{logger: s.logger, level: level}
}

// ReportConservation logs r with one named field per value.
func (s *ZapSink) ReportConservation(r ConservationReport) {
	ce := s.logger.Check(s.level, ReportMessage)
	if ce == nil {
		return
	}
	ce.Write(
		zap.String("layer", r.Layer),
		zap.String("policy", r.Policy),
		zap.Int("branches", r.Branches),
		zap.Int("selected", r.Selected),
		zap.Float64("branch0_sum", r.Branch0Sum),
		zap.Float64("branch1_sum", r.Branch1Sum),
		zap.Float64("input_sum", r.InputSum),
		zap.Float64("residual", r.Residual()),
	)
}

// KlogSink writes reports through klog's structured logging at a given verbosity.
type KlogSink struct {
	verbosity klog.Level
}

// NewKlogSink creates a sink that logs when klog's -v is at least verbosity.
func NewKlogSink(verbosity int) *KlogSink {
	return &KlogSink{verbosity: klog.Level(verbosity)}
}

// ReportConservation logs r via klog.InfoS.
func (s *KlogSink) ReportConservation(r ConservationReport) {
	klog.V(s.verbosity).InfoS(ReportMessage,
		"layer", r.Layer,
		"policy", r.Policy,
		"branches", r.Branches,
		"selected", r.Selected,
		"branch0_sum", r.Branch0Sum,
		"branch1_sum", r.Branch1Sum,
		"input_sum", r.InputSum,
		"residual", r.Residual(),
	)
}
