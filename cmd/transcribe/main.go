// Command transcribe runs one-shot transcription of a WAV file from the
// command line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/obiente/whisperbridge/internal/assets"
	"github.com/obiente/whisperbridge/internal/audio"
	"github.com/obiente/whisperbridge/internal/bridge"
	"github.com/obiente/whisperbridge/internal/hostrt"
	"github.com/obiente/whisperbridge/internal/modelsrc"
)

func main() {
	modelPath := flag.String("model", "", "model file path")
	assetDir := flag.String("assets", "./models", "asset directory")
	assetName := flag.String("asset", "", "model asset name inside -assets")
	streamURL := flag.String("url", "", "remote model stream url (ws:// or wss://)")
	lang := flag.String("lang", "auto", "language code, or auto to detect")
	threads := flag.Int("threads", 0, "decode threads, 0 for default")
	translate := flag.Bool("translate", false, "translate to English")
	info := flag.Bool("info", false, "print system info and exit")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Level(zerolog.WarnLevel)

	rt := hostrt.New()
	defer rt.Shutdown()
	b := bridge.New(rt)

	if *info {
		fmt.Println(b.SystemInfo())
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: transcribe [flags] <audio.wav>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	handle := loadModel(b, *modelPath, *assetDir, *assetName, *streamURL)
	if handle == 0 {
		fmt.Fprintln(os.Stderr, "failed to load model, pass -model, -asset or -url")
		os.Exit(1)
	}
	defer b.Free(handle)

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audio:", err)
		os.Exit(1)
	}
	samples, rate, err := audio.DecodeWAV(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, "decode audio:", err)
		os.Exit(1)
	}
	samples = audio.Resample(samples, rate, audio.EngineRate)

	if ok := b.Transcribe(handle, samples, *lang, *threads, *translate); !ok {
		fmt.Fprintln(os.Stderr, "transcription failed")
		os.Exit(1)
	}

	n := b.SegmentCount(handle)
	for i := 0; i < n; i++ {
		fmt.Printf("[%s --> %s] %s\n",
			formatTicks(b.SegmentStart(handle, i)),
			formatTicks(b.SegmentEnd(handle, i)),
			b.SegmentText(handle, i))
	}
}

func loadModel(b *bridge.Bridge, path, dir, asset, url string) bridge.Handle {
	switch {
	case path != "":
		return b.CreateFromPath(path)
	case asset != "":
		return b.CreateFromAsset(assets.NewStore(os.DirFS(dir)), asset)
	case url != "":
		src, err := modelsrc.Open(url)
		if err != nil {
			log.Error().Err(err).Msg("open model stream")
			return 0
		}
		defer src.Close()
		return b.CreateFromStream(src)
	}
	return 0
}

// formatTicks renders a 10ms tick count as hh:mm:ss.mmm.
func formatTicks(t int64) string {
	ms := t * 10
	return fmt.Sprintf("%02d:%02d:%02d.%03d",
		ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}
