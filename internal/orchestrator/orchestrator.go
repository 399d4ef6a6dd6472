// Package orchestrator drives one chat turn end to end: parse, validate,
// tool execution, formatting, and memory bookkeeping. Each turn walks a
// fixed state machine and every failure is converted to a user-safe
// message at this boundary.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/haksamate/advisor-go/internal/config"
	domerrors "github.com/haksamate/advisor-go/internal/errors"
	"github.com/haksamate/advisor-go/internal/format"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/memory"
	"github.com/haksamate/advisor-go/internal/metrics"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/reqctx"
	"github.com/haksamate/advisor-go/internal/semester"
	"github.com/haksamate/advisor-go/internal/tools"
	"github.com/haksamate/advisor-go/internal/validate"
	"golang.org/x/sync/errgroup"
)

// State is one step of the per-turn state machine.
type State string

const (
	StateReceived  State = "RECEIVED"
	StateParsed    State = "PARSED"
	StateValidated State = "VALIDATED"
	StateExecuting State = "EXECUTING"
	StateFormatted State = "FORMATTED"
	StateDelivered State = "DELIVERED"
	StateErrored   State = "ERRORED"
)

// Request is one incoming chat turn from an authenticated student.
type Request struct {
	Identity tools.Identity
	Message  string
}

// Response is the outcome of one turn. Text is always safe to show the
// student, including on the ERRORED path.
type Response struct {
	State    State
	Category parser.Category
	Text     string
}

// summarySection pairs a fan-out category with the section title used when
// the sub-call fails before producing a titled result.
type summarySection struct {
	category parser.Category
	title    string
}

// summaryFanOut lists the tools a SUMMARY turn invokes, in display order.
var summaryFanOut = []summarySection{
	{parser.CategoryStudentInfo, "학생 정보"},
	{parser.CategoryEnrollmentHistory, "수강 이력"},
	{parser.CategoryGraduation, "졸업 요건"},
}

// Config holds the collaborators a new Orchestrator needs.
type Config struct {
	Parser    *parser.Parser
	Validator *validate.Validator
	Registry  *tools.Registry
	Formatter *format.Formatter
	Memory    *memory.Store
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// Orchestrator processes chat turns. It is safe for concurrent use across
// student sessions.
type Orchestrator struct {
	parser    *parser.Parser
	validator *validate.Validator
	registry  *tools.Registry
	formatter *format.Formatter
	memory    *memory.Store
	metrics   *metrics.Metrics
	logger    *logger.Logger
	now       func() time.Time
}

// New builds an Orchestrator from its collaborators.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		parser:    cfg.Parser,
		validator: cfg.Validator,
		registry:  cfg.Registry,
		formatter: cfg.Formatter,
		memory:    cfg.Memory,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.WithModule("orchestrator"),
		now:       time.Now,
	}
}

// Process runs one turn. The returned Response is terminal: DELIVERED or
// ERRORED, never an intermediate state.
func (o *Orchestrator) Process(ctx context.Context, req Request) Response {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, config.TurnProcessing)
	defer cancel()
	ctx = reqctx.WithStudentID(ctx, req.Identity.StudentID)

	log := o.logger.WithStudent(req.Identity.StudentID)

	sem := semester.Resolve(o.now())
	intent := o.parser.Parse(req.Message, sem)
	log.WithField("category", string(intent.Category)).Debugf("turn parsed")

	o.memory.Append(req.Identity.StudentID, memory.Turn{
		Role:     memory.RoleUser,
		Text:     req.Message,
		Category: intent.Category,
	})

	if intent.Category == parser.CategoryUnknown {
		// Not fatal: fall back to a capability reminder plus recent
		// conversation topics.
		hint := o.memory.Summary(req.Identity.StudentID)
		text := o.formatter.UnknownFallback(hint)
		return o.deliver(req, intent, text, start)
	}

	if err := o.validator.Validate(intent); err != nil {
		log.WithError(err).Warnf("slot validation rejected the turn")
		return o.errored(intent, err, start)
	}

	var text string
	var err error
	if intent.Category == parser.CategorySummary {
		text, err = o.executeSummary(ctx, intent, req.Identity)
	} else {
		var rs *tools.ResultSet
		rs, err = o.registry.Execute(ctx, intent, req.Identity)
		if err == nil {
			text = o.formatter.Format(intent, rs)
		}
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = domerrors.ErrTimeout
		}
		if errors.Is(err, domerrors.ErrNotFound) {
			// A verified identity without a record means the auth store
			// and the academic store disagree.
			log.WithError(err).Warnf("record missing for verified identity")
		} else {
			log.WithError(err).Errorf("turn execution failed")
		}
		return o.errored(intent, err, start)
	}

	return o.deliver(req, intent, text, start)
}

// executeSummary fans out to the summary tools concurrently and waits for
// all of them. A failed sub-call degrades to a per-section notice; only
// when every sub-call fails does the whole turn fail.
func (o *Orchestrator) executeSummary(ctx context.Context, intent *parser.Intent, id tools.Identity) (string, error) {
	sections := make([]format.Section, len(summaryFanOut))

	var g errgroup.Group
	for i, fan := range summaryFanOut {
		sub := &parser.Intent{
			Category: fan.category,
			Slots:    intent.Slots,
			RawText:  intent.RawText,
		}
		idx, title := i, fan.title
		g.Go(func() error {
			rs, err := o.registry.Execute(ctx, sub, id)
			sections[idx] = format.Section{Title: title, Result: rs, Err: err}
			if err == nil && rs != nil && rs.Title != "" {
				sections[idx].Title = rs.Title
			}
			// Sub-call failures degrade per section instead of
			// cancelling the siblings.
			return nil
		})
	}
	_ = g.Wait()

	var firstErr error
	failed := 0
	for _, s := range sections {
		if s.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = s.Err
			}
		}
	}
	if failed == len(sections) {
		return "", firstErr
	}
	return o.formatter.FormatSummary(sections), nil
}

func (o *Orchestrator) deliver(req Request, intent *parser.Intent, text string, start time.Time) Response {
	o.memory.Append(req.Identity.StudentID, memory.Turn{
		Role:     memory.RoleAssistant,
		Text:     text,
		Category: intent.Category,
	})
	o.observe(intent.Category, "delivered", start)
	return Response{State: StateDelivered, Category: intent.Category, Text: text}
}

// errored converts err to a user-safe message. The user turn stays in
// memory; no synthetic assistant turn is recorded.
func (o *Orchestrator) errored(intent *parser.Intent, err error, start time.Time) Response {
	o.observe(intent.Category, "errored", start)
	return Response{State: StateErrored, Category: intent.Category, Text: o.formatter.FormatError(err)}
}

func (o *Orchestrator) observe(category parser.Category, status string, start time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.TurnsTotal.WithLabelValues(string(category), status).Inc()
	o.metrics.TurnDurationSeconds.WithLabelValues(string(category)).Observe(time.Since(start).Seconds())
}
