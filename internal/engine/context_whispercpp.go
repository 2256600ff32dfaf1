//go:build whisper_cpp

package engine

/*
#cgo CFLAGS: -I${SRCDIR}/../../third_party/whisper.cpp/include -I${SRCDIR}/../../third_party/whisper.cpp/ggml/include
#cgo LDFLAGS: -L${SRCDIR}/../../third_party/whisper.cpp/build/src -lwhisper -lm -lstdc++

#include <stdlib.h>
#include "whisper.h"

extern size_t whisperbridgeLoaderRead(void *ctx, void *output, size_t read_size);
extern bool whisperbridgeLoaderEOF(void *ctx);
extern void whisperbridgeLoaderClose(void *ctx);

static struct whisper_context *whisperbridge_init_from_loader(void *ctx) {
	struct whisper_model_loader loader = {
		ctx,
		whisperbridgeLoaderRead,
		whisperbridgeLoaderEOF,
		whisperbridgeLoaderClose,
	};
	struct whisper_context_params cparams = whisper_context_default_params();
	return whisper_init_with_params(&loader, cparams);
}
*/
import "C"

import (
	"fmt"
	"runtime/cgo"
	"unsafe"

	"github.com/rs/zerolog/log"
)

// Context owns one native whisper_context until Free.
type Context struct {
	ctx *C.struct_whisper_context
}

// InitFromFile hands the path straight to the engine, which maps the file
// itself.
func InitFromFile(path string) (*Context, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	cparams := C.whisper_context_default_params()
	ctx := C.whisper_init_from_file_with_params(cPath, cparams)
	if ctx == nil {
		return nil, fmt.Errorf("%w: whisper_init_from_file_with_params(%s)", ErrInit, path)
	}
	return &Context{ctx: ctx}, nil
}

// InitFromLoader builds a context by letting the engine pull model bytes
// through l. The loader handle only lives for the duration of this call;
// the engine's loading routine is synchronous, so the callbacks never
// outlive it. The engine closes the loader when loading finishes.
func InitFromLoader(l ModelLoader) (*Context, error) {
	handle := cgo.NewHandle(l)
	defer handle.Delete()

	ctx := C.whisperbridge_init_from_loader(unsafe.Pointer(&handle))
	if ctx == nil {
		return nil, fmt.Errorf("%w: whisper_init_with_params (loader)", ErrInit)
	}
	return &Context{ctx: ctx}, nil
}

func loaderFromUserData(userData unsafe.Pointer) (ModelLoader, bool) {
	if userData == nil {
		return nil, false
	}
	handle := *(*cgo.Handle)(userData)
	l, ok := handle.Value().(ModelLoader)
	return l, ok
}

//export whisperbridgeLoaderRead
func whisperbridgeLoaderRead(userData unsafe.Pointer, output unsafe.Pointer, readSize C.size_t) C.size_t {
	l, ok := loaderFromUserData(userData)
	if !ok || output == nil || readSize == 0 {
		return 0
	}
	dst := unsafe.Slice((*byte)(output), int(readSize))
	return C.size_t(l.Read(dst))
}

//export whisperbridgeLoaderEOF
func whisperbridgeLoaderEOF(userData unsafe.Pointer) C.bool {
	l, ok := loaderFromUserData(userData)
	if !ok {
		return C.bool(true)
	}
	return C.bool(l.EOF())
}

//export whisperbridgeLoaderClose
func whisperbridgeLoaderClose(userData unsafe.Pointer) {
	if l, ok := loaderFromUserData(userData); ok {
		l.Close()
	}
}

// Full runs one blocking transcription over samples, replacing the
// previous result set held inside the native context. Timing counters are
// reset before the run and printed after a successful one.
func (c *Context) Full(p Params, samples []float32) error {
	if c == nil || c.ctx == nil {
		return fmt.Errorf("engine: run on freed context")
	}

	params := C.whisper_full_default_params(C.WHISPER_SAMPLING_GREEDY)
	threads := p.Threads
	if threads < 1 {
		threads = 1
	}
	params.n_threads = C.int(threads)
	params.translate = C.bool(p.Translate)
	params.no_context = C.bool(true)
	params.single_segment = C.bool(false)
	params.print_realtime = C.bool(false)
	params.print_progress = C.bool(false)
	params.print_timestamps = C.bool(false)
	params.print_special = C.bool(false)

	lang := p.Language
	if lang == "" {
		lang = "auto"
	}
	var cLang *C.char
	if lang != "auto" {
		cLang = C.CString(lang)
		defer C.free(unsafe.Pointer(cLang))
		params.language = cLang
		params.detect_language = C.bool(false)
	} else {
		params.detect_language = C.bool(true)
	}

	var pcm *C.float
	if len(samples) > 0 {
		pcm = (*C.float)(unsafe.Pointer(&samples[0]))
	}

	C.whisper_reset_timings(c.ctx)
	if ret := C.whisper_full(c.ctx, params, pcm, C.int(len(samples))); ret != 0 {
		return fmt.Errorf("engine: whisper_full failed with code %d", int(ret))
	}
	C.whisper_print_timings(c.ctx)
	log.Debug().Int("samples", len(samples)).Str("language", lang).Msg("engine: run complete")
	return nil
}

// Segments returns the result count of the last run.
func (c *Context) Segments() int {
	if c == nil || c.ctx == nil {
		return 0
	}
	return int(C.whisper_full_n_segments(c.ctx))
}

// SegmentText returns the decoded text of segment i. The native accessor
// does not bounds check; the bridge guards every index.
func (c *Context) SegmentText(i int) string {
	return C.GoString(C.whisper_full_get_segment_text(c.ctx, C.int(i)))
}

// SegmentT0 returns the start tick of segment i.
func (c *Context) SegmentT0(i int) int64 {
	return int64(C.whisper_full_get_segment_t0(c.ctx, C.int(i)))
}

// SegmentT1 returns the end tick of segment i.
func (c *Context) SegmentT1(i int) int64 {
	return int64(C.whisper_full_get_segment_t1(c.ctx, C.int(i)))
}

// Free releases the native context. The bridge guarantees at most one call
// per live handle.
func (c *Context) Free() {
	if c == nil || c.ctx == nil {
		return
	}
	C.whisper_free(c.ctx)
	c.ctx = nil
}

// SystemInfo describes the native build and its enabled capabilities.
func SystemInfo() string {
	return C.GoString(C.whisper_print_system_info())
}

// BenchMemcpy runs the engine memcpy benchmark with the given thread count.
func BenchMemcpy(threads int) string {
	if threads < 1 {
		threads = 1
	}
	return C.GoString(C.whisper_bench_memcpy_str(C.int(threads)))
}

// BenchMulMat runs the engine matmul benchmark with the given thread count.
func BenchMulMat(threads int) string {
	if threads < 1 {
		threads = 1
	}
	return C.GoString(C.whisper_bench_ggml_mul_mat_str(C.int(threads)))
}
