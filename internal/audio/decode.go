// Package audio decodes caller-supplied audio into the 32-bit float
// [-1, 1] sample stream the engine consumes.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/go-audio/wav"
)

// EngineRate is the sample rate the engine expects.
const EngineRate = 16000

// DecodeWAV decodes a WAV blob into float32 samples and its sample rate.
func DecodeWAV(b []byte) ([]float32, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(b))
	if !dec.IsValidFile() {
		return nil, 0, errors.New("audio: not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && err != io.EOF {
		return nil, 0, err
	}
	if buf == nil {
		return nil, 0, errors.New("audio: empty wav buffer")
	}

	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = 16
	}
	scale := float32(int(1) << (depth - 1))

	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / scale
	}

	rate := int(dec.SampleRate)
	if rate == 0 && buf.Format != nil {
		rate = buf.Format.SampleRate
	}
	if rate == 0 {
		rate = EngineRate
	}
	return out, rate, nil
}

// DecodePCM16 converts little-endian 16-bit PCM into float32 samples.
func DecodePCM16(b []byte, rate int) ([]float32, int, error) {
	if len(b)%2 != 0 {
		return nil, 0, errors.New("audio: pcm16 payload length must be even")
	}
	if rate <= 0 {
		rate = EngineRate
	}
	out := make([]float32, len(b)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(b[2*i:]))
		out[i] = float32(v) / 32768.0
	}
	return out, rate, nil
}

// Resample converts samples from inRate to outRate with linear
// interpolation. Same-rate input is returned as a copy.
func Resample(samples []float32, inRate, outRate int) []float32 {
	if inRate == outRate || inRate <= 0 || outRate <= 0 || len(samples) == 0 {
		return append([]float32(nil), samples...)
	}
	ratio := float64(outRate) / float64(inRate)
	n := int(float64(len(samples)) * ratio)
	if n < 1 {
		n = 1
	}
	out := make([]float32, n)
	for i := range out {
		pos := float64(i) / ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j] + (samples[j+1]-samples[j])*frac
	}
	return out
}
