package tools

import (
	"context"
	"time"

	domerrors "github.com/haksamate/advisor-go/internal/errors"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/metrics"
	"github.com/haksamate/advisor-go/internal/parser"
)

// Registry maps intent categories to tools. The orchestrator selects the
// tool by category; it never inspects tool types.
type Registry struct {
	tools   map[parser.Category]Tool
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewRegistry creates an empty registry. m may be nil in tests.
func NewRegistry(m *metrics.Metrics, log *logger.Logger) *Registry {
	return &Registry{
		tools:   make(map[parser.Category]Tool),
		metrics: m,
		logger:  log.WithModule("tools"),
	}
}

// Register binds a category to a tool, replacing any previous binding.
func (r *Registry) Register(category parser.Category, tool Tool) {
	r.tools[category] = tool
}

// Get returns the tool for category.
func (r *Registry) Get(category parser.Category) (Tool, bool) {
	t, ok := r.tools[category]
	return t, ok
}

// Execute runs the tool bound to intent.Category with identity checks and
// per-tool metrics. Unverified identities never reach a tool.
func (r *Registry) Execute(ctx context.Context, intent *parser.Intent, id Identity) (*ResultSet, error) {
	tool, ok := r.tools[intent.Category]
	if !ok {
		return nil, domerrors.ErrUnknownIntent
	}
	if !id.Verified || id.StudentID == "" {
		return nil, domerrors.ErrUnverifiedIdentity
	}

	start := time.Now()
	result, err := tool.Execute(ctx, intent, id)
	elapsed := time.Since(start)

	if r.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		r.metrics.ToolRequestsTotal.WithLabelValues(tool.Name(), status).Inc()
		r.metrics.ToolDurationSeconds.WithLabelValues(tool.Name()).Observe(elapsed.Seconds())
	}

	if err != nil {
		r.logger.WithError(err).
			WithField("tool", tool.Name()).
			WithStudent(id.StudentID).
			Warnf("tool execution failed")
		return nil, err
	}
	return result, nil
}
