// Package tools implements the five advising capabilities behind a uniform
// contract: student profile, course catalog search, enrollment history,
// graduation requirement check, and next-term recommendation. Every tool is
// scoped to the verified identity it is called with and only reaches the
// store through parameterized queries.
package tools

import (
	"context"

	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/rag"
)

// Identity is the already-authenticated caller. The advising core trusts
// the transport layer's verification and only checks the format and the
// Verified flag.
type Identity struct {
	StudentID string
	Name      string
	Verified  bool
}

// Field is one labelled value inside a row. Fields keep their order so
// formatted output is deterministic.
type Field struct {
	Label string
	Value string
}

// Row is one record of a result.
type Row struct {
	Fields []Field
}

// Get returns the value for label, or "".
func (r Row) Get(label string) string {
	for _, f := range r.Fields {
		if f.Label == label {
			return f.Value
		}
	}
	return ""
}

// ResultSet is the bounded, paginated outcome of one tool call.
//
// Invariants: len(Rows) <= PageSize and TotalCount >= len(Rows).
type ResultSet struct {
	Title      string
	Rows       []Row
	TotalCount int
	Page       int // 1-based
	PageSize   int

	// Notes are extra lines appended after the rows (aggregates, hints).
	Notes []string

	// Passages are policy-text excerpts from the similarity search,
	// only set by the graduation tool.
	Passages []rag.Passage

	// NarrativeUnavailable marks that the similarity search produced
	// nothing above threshold (or failed); the structured portion stands
	// alone and no policy text is fabricated.
	NarrativeUnavailable bool
}

// Tool is one advising capability.
type Tool interface {
	// Name identifies the tool in logs and metrics.
	Name() string

	// Execute answers intent for the given identity. Lookups are scoped
	// to identity.StudentID; failures carry a user-safe message as a
	// *errors.ToolError.
	Execute(ctx context.Context, intent *parser.Intent, id Identity) (*ResultSet, error)
}
