// Package httpapi exposes the transcription bridge over HTTP.
package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/obiente/whisperbridge/internal/audio"
	"github.com/obiente/whisperbridge/internal/bridge"
	"github.com/obiente/whisperbridge/internal/config"
	"github.com/obiente/whisperbridge/internal/translation"
)

// Server serves requests against one loaded model handle.
type Server struct {
	cfg        config.Config
	bridge     *bridge.Bridge
	handle     bridge.Handle
	translator *translation.Client
}

// NewServer wires the shared bridge and model handle into an HTTP surface.
// translator may be nil when translation is disabled.
func NewServer(cfg config.Config, b *bridge.Bridge, h bridge.Handle, translator *translation.Client) *Server {
	return &Server{cfg: cfg, bridge: b, handle: h, translator: translator}
}

// Router returns the HTTP mux for the server.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/bench", s.handleBench)
	mux.HandleFunc("/transcribe", s.handleTranscribe)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "model_loaded": s.handle != 0})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"system_info":  s.bridge.SystemInfo(),
		"live_handles": s.bridge.Live(),
		"model_loaded": s.handle != 0,
	})
}

func (s *Server) handleBench(w http.ResponseWriter, r *http.Request) {
	threads := intQuery(r, "threads", 1)
	writeJSON(w, http.StatusOK, map[string]any{
		"memcpy":  s.bridge.BenchMemcpy(threads),
		"mul_mat": s.bridge.BenchMulMat(threads),
	})
}

type segmentJSON struct {
	Index       int    `json:"index"`
	StartMs     int64  `json:"start_ms"`
	EndMs       int64  `json:"end_ms"`
	Text        string `json:"text"`
	Translation string `json:"translation,omitempty"`
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.handle == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "no model loaded"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "read body: " + err.Error()})
		return
	}

	samples, err := decodeBody(r, body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	lang := r.URL.Query().Get("lang")
	if lang == "" {
		lang = s.cfg.Language
	}
	threads := intQuery(r, "threads", s.cfg.Threads)
	translate := boolQuery(r, "translate", s.cfg.Translate)

	if ok := s.bridge.Transcribe(s.handle, samples, lang, threads, translate); !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "transcription failed"})
		return
	}

	n := s.bridge.SegmentCount(s.handle)
	segs := make([]segmentJSON, 0, n)
	for i := 0; i < n; i++ {
		segs = append(segs, segmentJSON{
			Index:   i,
			StartMs: s.bridge.SegmentStart(s.handle, i) * 10,
			EndMs:   s.bridge.SegmentEnd(s.handle, i) * 10,
			Text:    s.bridge.SegmentText(s.handle, i),
		})
	}

	if target := r.URL.Query().Get("translate_to"); target != "" && s.translator != nil {
		for i := range segs {
			out, terr := s.translator.Translate(r.Context(), segs[i].Text, lang, target)
			if terr != nil {
				log.Warn().Err(terr).Int("segment", i).Msg("segment translation failed")
				continue
			}
			segs[i].Translation = out
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"segments": segs, "count": n})
}

// decodeBody accepts a RIFF/WAVE container or raw little-endian PCM16 at
// the engine rate.
func decodeBody(r *http.Request, body []byte) ([]float32, error) {
	if len(body) >= 4 && bytes.Equal(body[:4], []byte("RIFF")) {
		samples, rate, err := audio.DecodeWAV(body)
		if err != nil {
			return nil, err
		}
		return audio.Resample(samples, rate, audio.EngineRate), nil
	}
	samples, rate, err := audio.DecodePCM16(body, intQuery(r, "sample_rate", audio.EngineRate))
	if err != nil {
		return nil, err
	}
	return audio.Resample(samples, rate, audio.EngineRate), nil
}

func intQuery(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func boolQuery(r *http.Request, key string, def bool) bool {
	switch r.URL.Query().Get(key) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}
