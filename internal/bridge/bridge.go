// Package bridge is the boundary surface between host callers and the
// native engine. It owns the handle table: contexts are exposed as opaque
// integer handles into an owning registry, never as pointers, so freeing
// twice or using a stale handle is a detectable no-op instead of memory
// corruption. A zero handle is a documented no-op everywhere it is passed.
//
// Callers observe only success (non-zero handle, populated segments) or
// failure (zero handle, empty segment set); each distinct failure cause is
// logged, and no structured error crosses the boundary.
//
// A handle's context is not safe for concurrent Transcribe calls; callers
// must serialise runs per handle. Creating and freeing handles is safe
// from any goroutine.
package bridge

import (
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/obiente/whisperbridge/internal/assets"
	"github.com/obiente/whisperbridge/internal/engine"
	"github.com/obiente/whisperbridge/internal/hostrt"
	"github.com/obiente/whisperbridge/internal/loader"
)

// Handle identifies a live model context. Zero is never issued.
type Handle uint64

// Bridge owns the handle table and the host runtime used to pin stream
// sources during loading.
type Bridge struct {
	rt *hostrt.Runtime

	mu   sync.Mutex
	next Handle
	ctxs map[Handle]*engine.Context
}

// New returns an empty bridge bound to rt.
func New(rt *hostrt.Runtime) *Bridge {
	return &Bridge{
		rt:   rt,
		ctxs: make(map[Handle]*engine.Context),
	}
}

func (b *Bridge) insert(ctx *engine.Context) Handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	h := b.next
	b.ctxs[h] = ctx
	return h
}

func (b *Bridge) get(h Handle) *engine.Context {
	if h == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ctxs[h]
}

// CreateFromPath builds a context straight from a model file path. The
// engine maps the file itself; no loader adapter is involved.
func (b *Bridge) CreateFromPath(path string) Handle {
	if path == "" {
		log.Warn().Msg("bridge: createFromPath with empty path")
		return 0
	}
	ctx, err := engine.InitFromFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("bridge: file construction failed")
		return 0
	}
	h := b.insert(ctx)
	log.Info().Str("path", path).Uint64("handle", uint64(h)).Msg("bridge: model loaded from file")
	return h
}

// CreateFromAsset builds a context by streaming an entry out of a packaged
// resource store.
func (b *Bridge) CreateFromAsset(store *assets.Store, name string) Handle {
	if store == nil || name == "" {
		log.Warn().Msg("bridge: createFromAsset with missing store or name")
		return 0
	}
	a, err := store.Open(name)
	if err != nil {
		log.Error().Err(err).Str("asset", name).Msg("bridge: asset open failed")
		return 0
	}
	l := loader.NewAsset(a)
	ctx, err := engine.InitFromLoader(l)
	if err != nil {
		// the engine closes the loader after loading; closing again here
		// covers early-failure paths and is idempotent
		l.Close()
		log.Error().Err(err).Str("asset", name).Msg("bridge: asset construction failed")
		return 0
	}
	h := b.insert(ctx)
	log.Info().Str("asset", name).Uint64("handle", uint64(h)).Msg("bridge: model loaded from asset")
	return h
}

// CreateFromStream builds a context by pulling model bytes from an
// arbitrary host byte stream. The stream object is pinned in the host
// runtime until the loader closes.
func (b *Bridge) CreateFromStream(src io.Reader) Handle {
	if src == nil {
		log.Warn().Msg("bridge: createFromStream with nil stream")
		return 0
	}
	l, err := loader.NewStream(b.rt, src)
	if err != nil {
		log.Error().Err(err).Msg("bridge: stream loader construction failed")
		return 0
	}
	ctx, err := engine.InitFromLoader(l)
	if err != nil {
		l.Close()
		log.Error().Err(err).Msg("bridge: stream construction failed")
		return 0
	}
	h := b.insert(ctx)
	log.Info().Uint64("handle", uint64(h)).Msg("bridge: model loaded from stream")
	return h
}

// Free releases the context behind h. Freeing handle 0, or a handle that
// was already freed, is a no-op.
func (b *Bridge) Free(h Handle) {
	if h == 0 {
		return
	}
	b.mu.Lock()
	ctx, ok := b.ctxs[h]
	if ok {
		delete(b.ctxs, h)
	}
	b.mu.Unlock()
	if !ok {
		log.Warn().Uint64("handle", uint64(h)).Msg("bridge: free of unknown handle ignored")
		return
	}
	ctx.Free()
	log.Info().Uint64("handle", uint64(h)).Msg("bridge: context freed")
}

// Transcribe runs one blocking inference over samples and replaces the
// handle's result set. threads <= 0 is normalised to 1; language "auto" or
// empty enables detection. Failure is logged and reported as false, never
// raised.
func (b *Bridge) Transcribe(h Handle, samples []float32, language string, threads int, translate bool) bool {
	ctx := b.get(h)
	if ctx == nil {
		log.Warn().Uint64("handle", uint64(h)).Msg("bridge: transcribe on invalid handle")
		return false
	}
	if threads <= 0 {
		threads = 1
	}
	err := ctx.Full(engine.Params{
		Language:  language,
		Threads:   threads,
		Translate: translate,
	}, samples)
	if err != nil {
		log.Error().Err(err).Uint64("handle", uint64(h)).Msg("bridge: transcription failed")
		return false
	}
	return true
}

// SegmentCount reports the number of result segments on h, 0 for any
// invalid handle.
func (b *Bridge) SegmentCount(h Handle) int {
	ctx := b.get(h)
	if ctx == nil {
		return 0
	}
	return ctx.Segments()
}

// SegmentText returns the text of segment i, or "" when h or i is out of
// range. The bounds check is load-bearing: the engine's own accessor does
// not guard.
func (b *Bridge) SegmentText(h Handle, i int) string {
	ctx := b.get(h)
	if ctx == nil || i < 0 || i >= ctx.Segments() {
		return ""
	}
	return ctx.SegmentText(i)
}

// SegmentStart returns the start tick of segment i, or 0 out of range.
func (b *Bridge) SegmentStart(h Handle, i int) int64 {
	ctx := b.get(h)
	if ctx == nil || i < 0 || i >= ctx.Segments() {
		return 0
	}
	return ctx.SegmentT0(i)
}

// SegmentEnd returns the end tick of segment i, or 0 out of range.
func (b *Bridge) SegmentEnd(h Handle, i int) int64 {
	ctx := b.get(h)
	if ctx == nil || i < 0 || i >= ctx.Segments() {
		return 0
	}
	return ctx.SegmentT1(i)
}

// SystemInfo describes the engine build and its capabilities.
func (b *Bridge) SystemInfo() string {
	return engine.SystemInfo()
}

// BenchMemcpy runs the engine memcpy benchmark.
func (b *Bridge) BenchMemcpy(threads int) string {
	if threads <= 0 {
		threads = 1
	}
	return engine.BenchMemcpy(threads)
}

// BenchMulMat runs the engine matmul benchmark.
func (b *Bridge) BenchMulMat(threads int) string {
	if threads <= 0 {
		threads = 1
	}
	return engine.BenchMulMat(threads)
}

// Live reports the number of live handles, for diagnostics and tests.
func (b *Bridge) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ctxs)
}
