// Package config provides centralized timeout constants for the application.
//
// The relational store and the similarity-search collaborator are the only
// potentially slow boundaries in a turn. Both are fronted by fixed timeouts;
// when a call times out the turn degrades to a partial answer instead of
// hanging.
package config

import "time"

// Turn processing timeouts
const (
	// TurnProcessing bounds one full chat turn: parse, validate, tool
	// execution (including the SUMMARY fan-out), and formatting.
	TurnProcessing = 30 * time.Second

	// StoreQuery bounds a single relational store read. SQLite in WAL mode
	// answers well under this; the margin covers lock contention.
	StoreQuery = 5 * time.Second

	// SimilaritySearch bounds one call to the similarity-search collaborator.
	// Embedding-backed search may call out to the Gemini API, which needs
	// more headroom than local BM25.
	SimilaritySearch = 10 * time.Second
)

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Chat payloads are small JSON.
	HTTPRead = 10 * time.Second

	// HTTPWrite accommodates TurnProcessing plus response serialization.
	HTTPWrite = 35 * time.Second

	// HTTPIdle is the keep-alive idle timeout.
	HTTPIdle = 120 * time.Second
)
