// Package diagnostics carries the numeric side channel of attribution-style
// backward passes. Layers hand a ConservationReport to a Sink; the sink
// decides where it goes (structured log, klog, memory).
package diagnostics

import (
	"math"
	"sync"
)

// ConservationReport holds the gradient totals observed by one backward call
// of a fan-out layer.
//
// For a summing policy, InputSum should equal Branch0Sum+Branch1Sum when the
// layer has exactly two branches. For a selecting policy it equals the
// selected branch's sum instead.
type ConservationReport struct {
	Layer      string  // Name of the reporting layer.
	Policy     string  // Backward policy that produced the report.
	Branches   int     // Number of outputs the layer has.
	Selected   int     // Propagated branch, or -1 when all branches are summed.
	Branch0Sum float64 // Sum of output 0's gradient.
	Branch1Sum float64 // Sum of output 1's gradient; 0 with a single branch.
	InputSum   float64 // Sum of the resulting input gradient.
}

// Residual returns Branch0Sum + Branch1Sum - InputSum.
func (r ConservationReport) Residual() float64 {
	return r.Branch0Sum + r.Branch1Sum - r.InputSum
}

// Conserved reports whether |Residual| <= tol, scaled by the magnitude of
// the totals when they exceed 1.
func (r ConservationReport) Conserved(tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(r.InputSum), math.Abs(r.Branch0Sum)+math.Abs(r.Branch1Sum)))
	return math.Abs(r.Residual()) <= tol*scale
}

// Sink receives conservation reports.
// Implementations must not retain pointers into layer buffers; reports are plain values.
type Sink interface {
	ReportConservation(r ConservationReport)
}

type nopSink struct{}

func (nopSink) ReportConservation(ConservationReport) {}

// Nop returns a sink that discards every report.
func Nop() Sink {
	return nopSink{}
}

// Recorder is an in-memory Sink. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	reports []ConservationReport
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// ReportConservation appends r.
func (rec *Recorder) ReportConservation(r ConservationReport) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.reports = append(rec.reports, r)
}

// Reports returns a copy of every report recorded so far.
func (rec *Recorder) Reports() []ConservationReport {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]ConservationReport, len(rec.reports))
	copy(out, rec.reports)
	return out
}

// Last returns the most recent report, if any.
func (rec *Recorder) Last() (ConservationReport, bool) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.reports) == 0 {
		return ConservationReport{}, false
	}
	return rec.reports[len(rec.reports)-1], true
}

// Reset drops all recorded reports.
func (rec *Recorder) Reset() {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.reports = rec.reports[:0]
}

type multiSink []Sink

func (m multiSink) ReportConservation(r ConservationReport) {
	for _, s := range m {
		s.ReportConservation(r)
	}
}

// Multi returns a sink forwarding every report to each of sinks, in order.
// Nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	m := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}
