// Package report implements the two severities of the patch engine: soft
// warnings, logged only in debug mode, and hard errors, returned only in
// debug mode.
package report

import (
	"log"

	"github.com/livefir/livepatch/internal/metrics"
)

// Reporter routes warnings and hard errors according to the debug switch.
// A nil *Reporter is valid and behaves as a silent, non-debug reporter.
type Reporter struct {
	Debug   bool
	Logger  *log.Logger
	Metrics *metrics.Collector
}

// Warnf records a soft warning. The affected update is skipped by the caller.
func (r *Reporter) Warnf(format string, args ...any) {
	if r == nil {
		return
	}
	if r.Metrics != nil {
		r.Metrics.IncrementWarning()
	}
	if r.Debug && r.Logger != nil {
		r.Logger.Printf(format, args...)
	}
}

// Fail records a hard error. In debug mode the error is returned so the
// caller aborts; otherwise nil is returned and the caller degrades.
func (r *Reporter) Fail(err error) error {
	if r == nil || err == nil {
		return nil
	}
	if r.Metrics != nil {
		r.Metrics.IncrementHardError()
	}
	if !r.Debug {
		return nil
	}
	if r.Logger != nil {
		r.Logger.Printf("ERROR: %v", err)
	}
	return err
}
