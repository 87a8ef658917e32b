package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// DefaultSampleRate is used when a waveform does not carry its own rate.
	DefaultSampleRate = 22050

	// HeaderSize is the size of the canonical PCM WAV header written by EncodeWAV.
	HeaderSize = 44

	bitsPerSample  = 16
	bytesPerSample = bitsPerSample / 8
	formatPCM      = 1
)

// Error definitions for the audio package.
var (
	ErrNotWAV         = errors.New("audio: not a RIFF/WAVE container")
	ErrUnsupportedWAV = errors.New("audio: unsupported WAV encoding")
	ErrTruncated      = errors.New("audio: truncated WAV data")
)

// Waveform is a mono sequence of floating point samples nominally in [-1, 1].
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// Rate returns the sample rate, falling back to DefaultSampleRate.
func (w *Waveform) Rate() int {
	if w.SampleRate <= 0 {
		return DefaultSampleRate
	}
	return w.SampleRate
}

// Duration returns the playback length of the waveform.
func (w *Waveform) Duration() time.Duration {
	return time.Duration(len(w.Samples)) * time.Second / time.Duration(w.Rate())
}

// WavPayload is an encoded PCM16 mono WAV file. Callers must not modify the
// slice returned by Bytes.
type WavPayload struct {
	data []byte
}

// NewWavPayload wraps already encoded WAV bytes.
func NewWavPayload(data []byte) WavPayload {
	return WavPayload{data: data}
}

// Bytes returns the encoded container.
func (p WavPayload) Bytes() []byte {
	return p.data
}

// Len returns the size of the container in bytes.
func (p WavPayload) Len() int {
	return len(p.data)
}

// EncodeWAV encodes a waveform as a canonical PCM16 mono WAV container.
// Samples are clamped to [-1, 1] before quantization so out of range model
// output saturates instead of wrapping around.
func EncodeWAV(w Waveform) WavPayload {
	rate := w.Rate()
	dataLen := len(w.Samples) * bytesPerSample

	buf := &bytes.Buffer{}
	buf.Grow(HeaderSize + dataLen)
	writeHeader(buf, rate, 1, dataLen)

	pcm := make([]byte, dataLen)
	for i, s := range w.Samples {
		binary.LittleEndian.PutUint16(pcm[i*bytesPerSample:], uint16(Quantize(s)))
	}
	buf.Write(pcm)

	return WavPayload{data: buf.Bytes()}
}

// Quantize converts a float sample to int16, clamping to the valid range.
// NaN maps to silence.
func Quantize(s float32) int16 {
	v := float64(s)
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		v = 1
	case v < -1:
		v = -1
	}
	return int16(math.Round(v * math.MaxInt16))
}

// writeHeader writes the RIFF, fmt and data chunk headers.
func writeHeader(buf *bytes.Buffer, sampleRate, channels, dataLen int) {
	blockAlign := channels * bytesPerSample
	byteRate := sampleRate * blockAlign

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(HeaderSize-8+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(formatPCM))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataLen))
}

// Info describes the fmt chunk of a decoded WAV container.
type Info struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	DataBytes     int
}

// Frames returns the number of sample frames in the data chunk.
func (i Info) Frames() int {
	frameSize := i.Channels * i.BitsPerSample / 8
	if frameSize == 0 {
		return 0
	}
	return i.DataBytes / frameSize
}

// DecodeWAV parses a PCM16 WAV container back into a mono waveform.
// Multi-channel input is downmixed by averaging. Unknown chunks are skipped.
func DecodeWAV(data []byte) (Waveform, Info, error) {
	info, pcm, err := parse(data)
	if err != nil {
		return Waveform{}, Info{}, err
	}

	frames := info.Frames()
	samples := make([]float32, frames)
	for f := 0; f < frames; f++ {
		var sum float32
		for c := 0; c < info.Channels; c++ {
			off := (f*info.Channels + c) * bytesPerSample
			sum += float32(int16(binary.LittleEndian.Uint16(pcm[off:]))) / math.MaxInt16
		}
		samples[f] = sum / float32(info.Channels)
	}

	return Waveform{Samples: samples, SampleRate: info.SampleRate}, info, nil
}

// Inspect parses only the container structure of a WAV file.
func Inspect(data []byte) (Info, error) {
	info, _, err := parse(data)
	return info, err
}

func parse(data []byte) (Info, []byte, error) {
	if !IsWAV(data) {
		return Info{}, nil, ErrNotWAV
	}

	var (
		info   Info
		hasFmt bool
		pos    = 12
	)
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return Info{}, nil, ErrTruncated
			}
			if format := binary.LittleEndian.Uint16(data[body:]); format != formatPCM {
				return Info{}, nil, fmt.Errorf("%w: format tag %d", ErrUnsupportedWAV, format)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14:]))
			if info.BitsPerSample != bitsPerSample || info.Channels < 1 {
				return Info{}, nil, fmt.Errorf("%w: %d channels, %d bits", ErrUnsupportedWAV, info.Channels, info.BitsPerSample)
			}
			hasFmt = true

		case "data":
			if !hasFmt {
				return Info{}, nil, fmt.Errorf("%w: data chunk before fmt chunk", ErrUnsupportedWAV)
			}
			end := body + size
			if end > len(data) {
				return Info{}, nil, ErrTruncated
			}
			info.DataBytes = size
			return info, data[body:end], nil
		}

		// Chunks are word aligned.
		pos = body + size + size%2
	}

	return Info{}, nil, ErrTruncated
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}
