//go:build !whisper_cpp

package engine

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// byteLoader is a minimal in-memory ModelLoader for engine tests.
type byteLoader struct {
	data   []byte
	off    int
	closed int
}

func (l *byteLoader) Read(p []byte) int {
	n := copy(p, l.data[l.off:])
	l.off += n
	return n
}

func (l *byteLoader) EOF() bool { return l.off >= len(l.data) }
func (l *byteLoader) Close()    { l.closed++ }

func modelBytes(extra string) []byte {
	b := make([]byte, 4, 4+len(extra))
	binary.LittleEndian.PutUint32(b, magicGGML)
	return append(b, extra...)
}

func TestInitFromLoaderValidatesMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		ok   bool
	}{
		{"ggml magic", modelBytes("weights"), true},
		{"too short", []byte{0x6c}, false},
		{"wrong magic", []byte("XXXXrest-of-model"), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := &byteLoader{data: tc.data}
			ctx, err := InitFromLoader(l)
			if tc.ok && err != nil {
				t.Fatalf("InitFromLoader() error = %v", err)
			}
			if !tc.ok {
				if !errors.Is(err, ErrInit) {
					t.Fatalf("InitFromLoader() error = %v, want ErrInit", err)
				}
				return
			}
			if l.closed != 1 {
				t.Fatalf("loader closed %d times, want 1", l.closed)
			}
			ctx.Free()
		})
	}
}

func TestInitFromFileMatchesLoader(t *testing.T) {
	data := modelBytes("identical-bytes")
	path := filepath.Join(t.TempDir(), "model.bin")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := InitFromFile(path)
	if err != nil {
		t.Fatalf("InitFromFile() error = %v", err)
	}
	defer fromFile.Free()
	fromLoader, err := InitFromLoader(&byteLoader{data: data})
	if err != nil {
		t.Fatalf("InitFromLoader() error = %v", err)
	}
	defer fromLoader.Free()

	audio := []float32{0.1, -0.2, 0.3}
	p := Params{Language: "en", Threads: 1}
	if err := fromFile.Full(p, audio); err != nil {
		t.Fatal(err)
	}
	if err := fromLoader.Full(p, audio); err != nil {
		t.Fatal(err)
	}
	if fromFile.Segments() != fromLoader.Segments() {
		t.Fatalf("segment counts differ: %d vs %d", fromFile.Segments(), fromLoader.Segments())
	}
	for i := 0; i < fromFile.Segments(); i++ {
		if fromFile.SegmentText(i) != fromLoader.SegmentText(i) {
			t.Fatalf("segment %d text differs", i)
		}
		if fromFile.SegmentT0(i) != fromLoader.SegmentT0(i) || fromFile.SegmentT1(i) != fromLoader.SegmentT1(i) {
			t.Fatalf("segment %d timestamps differ", i)
		}
	}
}

func TestFullReplacesPreviousResults(t *testing.T) {
	ctx, err := InitFromLoader(&byteLoader{data: modelBytes("m")})
	if err != nil {
		t.Fatal(err)
	}
	defer ctx.Free()

	if err := ctx.Full(Params{Threads: 1}, []float32{0.5, 0.5}); err != nil {
		t.Fatal(err)
	}
	first := ctx.Segments()
	if first == 0 {
		t.Fatal("Segments() = 0 after run with audio")
	}

	// empty audio: engine decides, stub yields zero segments
	if err := ctx.Full(Params{Threads: 1}, nil); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Segments(); got != 0 {
		t.Fatalf("Segments() after empty run = %d, want 0", got)
	}
}

func TestFreeContext(t *testing.T) {
	ctx, err := InitFromLoader(&byteLoader{data: modelBytes("m")})
	if err != nil {
		t.Fatal(err)
	}
	ctx.Free()
	if got := ctx.Segments(); got != 0 {
		t.Fatalf("Segments() after free = %d, want 0", got)
	}
	if err := ctx.Full(Params{Threads: 1}, []float32{1}); err == nil {
		t.Fatal("Full() on freed context succeeded, want error")
	}
}
