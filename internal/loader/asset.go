package loader

import (
	"io"

	"github.com/rs/zerolog/log"

	"github.com/obiente/whisperbridge/internal/assets"
)

// AssetLoader adapts a packaged-store entry to the engine's pull
// interface. The underlying asset is synchronous and owned by this
// process, so no execution-context bookkeeping or explicit eof flag is
// needed: remaining length is queried directly.
type AssetLoader struct {
	asset   *assets.Asset
	faulted bool
}

// NewAsset wraps an asset opened in streaming mode.
func NewAsset(a *assets.Asset) *AssetLoader {
	return &AssetLoader{asset: a}
}

// Read forwards to the asset. A read error is logged as a fault, a clean
// EOF is not; both report 0 bytes to the engine.
func (l *AssetLoader) Read(p []byte) int {
	if l.asset == nil {
		return 0
	}
	n, err := l.asset.Read(p)
	if err != nil && err != io.EOF {
		log.Error().Err(err).Msg("loader: asset read failed")
		l.faulted = true
		return 0
	}
	if n <= 0 {
		return 0
	}
	return n
}

// EOF reports whether the entry has no bytes left or a read fault ended it.
func (l *AssetLoader) EOF() bool {
	if l.asset == nil {
		return true
	}
	return l.faulted || l.asset.Remaining() <= 0
}

// Close closes the asset handle. Idempotent via the asset's own nil check.
func (l *AssetLoader) Close() {
	if l.asset == nil {
		return
	}
	if err := l.asset.Close(); err != nil {
		log.Warn().Err(err).Msg("loader: asset close failed")
	}
}
