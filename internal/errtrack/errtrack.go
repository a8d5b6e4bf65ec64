// Package errtrack reports failures with call-site context. Reporting is
// fire-and-forget and never changes what the caller returns.
package errtrack

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/codyseavey/cardboard-compass/backend/internal/auth"
	"github.com/codyseavey/cardboard-compass/backend/internal/metrics"
)

// Fields is extra context attached to a report. The "context" key names the
// call site, e.g. "collection/add-card".
type Fields map[string]any

// Reporter accepts errors for out-of-band tracking
type Reporter interface {
	Capture(ctx context.Context, err error, fields Fields)
}

// LogReporter writes reports to the standard logger and counts them
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter creates a reporter; a nil logger uses the standard logger
func NewLogReporter(logger *log.Logger) *LogReporter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) Capture(ctx context.Context, err error, fields Fields) {
	if err == nil {
		return
	}

	site := "unknown"
	if v, ok := fields["context"].(string); ok && v != "" {
		site = v
	}
	metrics.ErrorsReportedTotal.WithLabelValues(site).Inc()

	var extra []string
	for k, v := range fields {
		if k == "context" {
			continue
		}
		extra = append(extra, fmt.Sprintf("%s=%v", k, v))
	}
	if owner, ok := auth.OwnerFromContext(ctx); ok {
		extra = append(extra, "owner="+owner)
	}
	sort.Strings(extra)

	r.logger.Printf("Error [%s]: %v %s", site, err, strings.Join(extra, " "))
}

// Nop discards reports
type Nop struct{}

func (Nop) Capture(context.Context, error, Fields) {}
