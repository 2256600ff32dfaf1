package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/obiente/whisperbridge/internal/assets"
	"github.com/obiente/whisperbridge/internal/bridge"
	"github.com/obiente/whisperbridge/internal/config"
	"github.com/obiente/whisperbridge/internal/hostrt"
	"github.com/obiente/whisperbridge/internal/httpapi"
	"github.com/obiente/whisperbridge/internal/modelsrc"
	"github.com/obiente/whisperbridge/internal/translation"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	lvl := zerolog.InfoLevel
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			lvl = l
		}
	}
	log.Logger = log.Level(lvl)

	cfg := config.Load()

	rt := hostrt.New()
	defer rt.Shutdown()
	b := bridge.New(rt)

	handle := loadModel(cfg, b)
	if handle == 0 {
		log.Warn().Msg("no model loaded, /transcribe will return 503")
	} else {
		defer b.Free(handle)
	}

	var translator *translation.Client
	if cfg.TranslationEnabled && cfg.TranslationBaseURL != "" {
		translator = translation.New(cfg.TranslationBaseURL, cfg.TranslationTimeoutSec)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      httpapi.NewServer(cfg, b, handle, translator).Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	log.Info().Str("addr", cfg.Addr).Bool("model_loaded", handle != 0).Msg("whisper bridge server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// loadModel builds a context from the first configured source, in order:
// filesystem path, asset name, remote stream.
func loadModel(cfg config.Config, b *bridge.Bridge) bridge.Handle {
	switch {
	case cfg.ModelPath != "":
		log.Info().Str("path", cfg.ModelPath).Msg("loading model from file")
		return b.CreateFromPath(cfg.ModelPath)
	case cfg.ModelAsset != "":
		log.Info().Str("dir", cfg.AssetDir).Str("asset", cfg.ModelAsset).Msg("loading model from asset")
		store := assets.NewStore(os.DirFS(cfg.AssetDir))
		return b.CreateFromAsset(store, cfg.ModelAsset)
	case cfg.ModelStreamURL != "":
		log.Info().Str("url", cfg.ModelStreamURL).Msg("loading model from stream")
		src, err := modelsrc.Open(cfg.ModelStreamURL)
		if err != nil {
			log.Error().Err(err).Msg("open model stream")
			return 0
		}
		defer src.Close()
		return b.CreateFromStream(src)
	}
	return 0
}
