//go:build !whisper_cpp

package httpapi

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/obiente/whisperbridge/internal/bridge"
	"github.com/obiente/whisperbridge/internal/config"
	"github.com/obiente/whisperbridge/internal/hostrt"
	"github.com/obiente/whisperbridge/internal/translation"
)

func modelBytes() []byte {
	b := make([]byte, 64)
	binary.LittleEndian.PutUint32(b, 0x67676d6c)
	return b
}

func pcmBody(n int) []byte {
	b := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(int16(i*3)))
	}
	return b
}

func newTestServer(t *testing.T, translator *translation.Client) *Server {
	t.Helper()
	rt := hostrt.New()
	t.Cleanup(func() { rt.Shutdown() })
	b := bridge.New(rt)
	h := b.CreateFromStream(bytes.NewReader(modelBytes()))
	if h == 0 {
		t.Fatal("CreateFromStream returned zero handle")
	}
	t.Cleanup(func() { b.Free(h) })
	cfg := config.LoadFrom(func(string) (string, bool) { return "", false })
	return NewServer(cfg, b, h, translator)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out["ok"] != true || out["model_loaded"] != true {
		t.Fatalf("body = %v", out)
	}
}

func TestInfoAndBench(t *testing.T) {
	srv := newTestServer(t, nil)
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	var info map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info["system_info"] == "" || info["live_handles"].(float64) != 1 {
		t.Fatalf("info = %v", info)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/bench?threads=2", nil))
	var bench map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &bench); err != nil {
		t.Fatal(err)
	}
	if bench["memcpy"] == "" || bench["mul_mat"] == "" {
		t.Fatalf("bench = %v", bench)
	}
}

func TestTranscribePCM16(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/transcribe?lang=en", bytes.NewReader(pcmBody(1600)))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Count    int           `json:"count"`
		Segments []segmentJSON `json:"segments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count < 1 || len(out.Segments) != out.Count {
		t.Fatalf("count = %d, segments = %d", out.Count, len(out.Segments))
	}
	for i, seg := range out.Segments {
		if seg.Index != i || seg.Text == "" {
			t.Errorf("segment %d malformed: %+v", i, seg)
		}
		if seg.EndMs <= seg.StartMs {
			t.Errorf("segment %d times: start %d end %d", i, seg.StartMs, seg.EndMs)
		}
	}
}

func TestTranscribeRejectsOddPCM(t *testing.T) {
	srv := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/transcribe", strings.NewReader("abc"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTranscribeMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/transcribe", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestTranscribeWithoutModel(t *testing.T) {
	rt := hostrt.New()
	defer rt.Shutdown()
	srv := NewServer(config.LoadFrom(func(string) (string, bool) { return "", false }), bridge.New(rt), 0, nil)
	req := httptest.NewRequest(http.MethodPost, "/transcribe", bytes.NewReader(pcmBody(16)))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestTranscribeTranslatesSegments(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"translatedText": "uebersetzt"})
	}))
	defer upstream.Close()

	srv := newTestServer(t, translation.New(upstream.URL, 2))
	req := httptest.NewRequest(http.MethodPost, "/transcribe?lang=en&translate_to=de", bytes.NewReader(pcmBody(1600)))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Segments []segmentJSON `json:"segments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Segments) == 0 {
		t.Fatal("no segments")
	}
	for i, seg := range out.Segments {
		if seg.Translation != "uebersetzt" {
			t.Errorf("segment %d translation = %q", i, seg.Translation)
		}
	}
}
