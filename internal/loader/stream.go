// Package loader implements the pull-based {Read, EOF, Close} adapters the
// engine drains while building a model context from a stream or a packaged
// asset. File-based construction needs no adapter: the engine maps the
// file itself.
package loader

import (
	"io"

	"github.com/rs/zerolog/log"

	"github.com/obiente/whisperbridge/internal/hostrt"
)

// BufferSize is the shared read buffer allocated once per stream loader
// and reused for every chunk, so a multi-hundred-megabyte model does not
// cause per-read allocation.
const BufferSize = 64 * 1024

type streamState int

const (
	stateReading streamState = iota
	stateExhausted
	stateFaulted
	stateClosed
)

// StreamLoader adapts an arbitrary host byte stream to the engine's pull
// interface. The stream object and its buffer are pinned in the host
// runtime for the lifetime of the loader; callbacks may arrive on engine
// worker threads, so each one resolves its execution context through the
// loader's Env. Callbacks for one loader never run concurrently.
type StreamLoader struct {
	env   *hostrt.Env
	src   *hostrt.Ref // pins the host stream object
	buf   *hostrt.Ref // pins the shared read buffer
	state streamState
}

// NewStream pins src and its read buffer in rt and returns a loader in the
// reading state. On any failure every reference created so far is released
// before returning.
func NewStream(rt *hostrt.Runtime, src io.Reader) (*StreamLoader, error) {
	srcRef, err := rt.NewRef(src)
	if err != nil {
		log.Error().Err(err).Msg("loader: pinning stream object failed")
		return nil, err
	}
	bufRef, err := rt.NewRef(make([]byte, BufferSize))
	if err != nil {
		srcRef.Release()
		log.Error().Err(err).Msg("loader: pinning read buffer failed")
		return nil, err
	}
	return &StreamLoader{
		env: hostrt.NewEnv(rt),
		src: srcRef,
		buf: bufRef,
	}, nil
}

// Read pulls up to min(len(p), BufferSize) bytes from the host stream into
// p and returns the count. A host-side fault is captured here and reported
// as 0 bytes; the engine has no fault channel, so nothing propagates. Zero
// bytes from the host likewise latches end-of-stream.
func (l *StreamLoader) Read(p []byte) int {
	if l.state != stateReading {
		return 0
	}
	if _, err := l.env.Context(); err != nil {
		log.Error().Err(err).Msg("loader: execution context unavailable during read")
		l.state = stateFaulted
		return 0
	}

	src, _ := l.src.Value().(io.Reader)
	buf, _ := l.buf.Value().([]byte)
	if src == nil || buf == nil {
		l.state = stateFaulted
		return 0
	}

	chunk := len(p)
	if chunk > len(buf) {
		chunk = len(buf)
	}
	n, err := src.Read(buf[:chunk])
	if err != nil && err != io.EOF {
		log.Error().Err(err).Msg("loader: host stream read faulted")
		l.state = stateFaulted
		return 0
	}
	if n <= 0 {
		l.state = stateExhausted
		return 0
	}
	// copy out before anything can invalidate the shared buffer
	copy(p, buf[:n])
	return n
}

// EOF reports whether the stream is exhausted or a fault permanently ended
// it.
func (l *StreamLoader) EOF() bool {
	return l.state == stateExhausted || l.state == stateFaulted
}

// Close releases the pinned stream and buffer and detaches the execution
// context if this loader attached it. Idempotent: the engine closes the
// loader after loading finishes, and construction failure paths close it
// again.
func (l *StreamLoader) Close() {
	if l.state == stateClosed {
		return
	}
	l.state = stateClosed
	l.src.Release()
	l.buf.Release()
	l.env.Release()
}
