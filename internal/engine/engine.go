// Package engine wraps the native whisper.cpp inference engine behind an
// init/run/read/free contract. The real implementation is compiled in with
// the whisper_cpp build tag; without it a deterministic stub stands in so
// the bridge and its loaders stay fully testable.
package engine

import "errors"

// ErrInit reports that the engine rejected the assembled model source.
var ErrInit = errors.New("engine: context initialisation failed")

// ModelLoader is the pull-based byte source the engine drains while
// constructing a model context. The engine calls Read until EOF reports
// true and calls Close exactly once when loading finishes; Close must be
// idempotent because failed construction paths close again defensively.
type ModelLoader interface {
	// Read copies up to len(p) bytes into p and returns the count.
	// 0 means end of stream or a captured fault; the engine cannot tell
	// the difference and does not need to.
	Read(p []byte) int
	// EOF reports whether the source has no more bytes to offer.
	EOF() bool
	// Close releases the source.
	Close()
}

// Params configures one blocking transcription run.
type Params struct {
	// Language is an explicit code, or "auto" (or empty) for detection.
	Language string
	// Threads must be >= 1; the bridge normalises before calling.
	Threads int
	// Translate requests translation to English inside the engine.
	Translate bool
}

// tick units: 10 ms per tick, matching whisper segment timestamps.
