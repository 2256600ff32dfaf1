// Package config loads server configuration from environment variables.
package config

import (
	"os"
	"strconv"
)

// Config captures everything the server needs at startup. Exactly one of
// ModelPath, ModelAsset (with AssetDir), or ModelStreamURL selects the
// construction path; ModelPath wins when several are set.
type Config struct {
	Addr string

	ModelPath      string
	AssetDir       string
	ModelAsset     string
	ModelStreamURL string

	Language  string
	Threads   int
	Translate bool

	TranslationBaseURL    string
	TranslationEnabled    bool
	TranslationTimeoutSec int
}

// Lookup resolves one environment variable. Tests inject deterministic
// maps.
type Lookup func(string) (string, bool)

// Load reads configuration from the process environment.
func Load() Config {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration through lookup.
func LoadFrom(lookup Lookup) Config {
	return Config{
		Addr:                  getenv(lookup, "WHISPER_BRIDGE_ADDR", ":8080"),
		ModelPath:             getenv(lookup, "WHISPER_MODEL_PATH", ""),
		AssetDir:              getenv(lookup, "WHISPER_ASSET_DIR", "./models"),
		ModelAsset:            getenv(lookup, "WHISPER_MODEL_ASSET", ""),
		ModelStreamURL:        getenv(lookup, "WHISPER_MODEL_STREAM_URL", ""),
		Language:              getenv(lookup, "WHISPER_LANGUAGE", "auto"),
		Threads:               getenvInt(lookup, "WHISPER_THREADS", 0),
		Translate:             getenvBool(lookup, "WHISPER_TRANSLATE", false),
		TranslationBaseURL:    getenv(lookup, "TRANSLATION_BASE_URL", ""),
		TranslationEnabled:    getenvBool(lookup, "TRANSLATION_ENABLED", false),
		TranslationTimeoutSec: getenvInt(lookup, "TRANSLATION_TIMEOUT", 8),
	}
}

func getenv(lookup Lookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getenvBool(lookup Lookup, key string, def bool) bool {
	v, ok := lookup(key)
	if !ok || v == "" {
		return def
	}
	switch v {
	case "0", "false", "no", "off", "False", "FALSE":
		return false
	default:
		return true
	}
}

func getenvInt(lookup Lookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
