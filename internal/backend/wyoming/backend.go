// Package wyoming implements a synthesizer that talks to a Piper server over
// the Wyoming TCP protocol.
package wyoming

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ekisa-team/voxgate/internal/audio"
	"github.com/ekisa-team/voxgate/internal/backend"
	"github.com/ekisa-team/voxgate/mapsafe"
)

const (
	dialTimeout    = 10 * time.Second
	defaultTimeout = 30 * time.Second
)

// Backend implements backend.Synthesizer against a Wyoming server.
type Backend struct {
	endpoint string
	voice    string
	speaker  string
	timeout  time.Duration
}

// New creates a Wyoming synthesizer. The endpoint is host:port, optionally
// prefixed with tcp://.
func New(spec backend.Spec) (*Backend, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(spec.Endpoint, "tcp://"), "http://")
	if endpoint == "" {
		return nil, errors.New("wyoming: endpoint is required")
	}

	timeout := mapsafe.Seconds(spec.Params, "timeout_seconds", defaultTimeout)

	return &Backend{
		endpoint: endpoint,
		voice:    mapsafe.Get(spec.Params, "voice", spec.Name),
		speaker:  mapsafe.Get(spec.Params, "speaker", ""),
		timeout:  timeout,
	}, nil
}

// Provider returns the backend identifier.
func (b *Backend) Provider() backend.Provider {
	return backend.ProviderWyoming
}

// Synthesize sends a synthesize event and collects the audio chunks of the
// reply into a mono waveform.
func (b *Backend) Synthesize(ctx context.Context, text string) (*audio.Waveform, error) {
	pcm, rate, channels, err := b.exchange(ctx, text)
	if err != nil {
		return nil, err
	}

	w := audio.DownmixPCM16(pcm, rate, channels)
	return &w, nil
}

// SynthesizeToFile writes the synthesized audio as a WAV file.
func (b *Backend) SynthesizeToFile(ctx context.Context, text, path string) error {
	w, err := b.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, audio.EncodeWAV(*w).Bytes(), 0o600); err != nil {
		return fmt.Errorf("wyoming: writing %s: %w", path, err)
	}
	return nil
}

// Close is a no-op. Connections are per request.
func (b *Backend) Close() error { return nil }

func (b *Backend) exchange(ctx context.Context, text string) (pcm []byte, rate, channels int, err error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", b.endpoint)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("wyoming: connecting to %s: %w", b.endpoint, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(b.timeout))
	}

	data := map[string]any{"text": text}
	if b.voice != "" || b.speaker != "" {
		voice := map[string]any{}
		if b.voice != "" {
			voice["name"] = b.voice
		}
		if b.speaker != "" {
			voice["speaker"] = b.speaker
		}
		data["voice"] = voice
	}
	if err := writeEvent(conn, event{Type: eventSynthesize, Data: data}, nil); err != nil {
		return nil, 0, 0, fmt.Errorf("wyoming: sending synthesize event: %w", err)
	}

	var (
		buf   bytes.Buffer
		width = 2
		r     = bufio.NewReader(conn)
	)
	rate, channels = audio.DefaultSampleRate, 1

	for {
		evt, payload, err := readEvent(r)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("wyoming: reading event: %w", err)
		}

		switch evt.Type {
		case eventAudioStart:
			rate = mapsafe.Get(evt.Data, "rate", rate)
			channels = mapsafe.Get(evt.Data, "channels", channels)
			width = mapsafe.Get(evt.Data, "width", width)
			if width != 2 {
				return nil, 0, 0, fmt.Errorf("wyoming: unsupported sample width %d", width)
			}

		case eventAudioChunk:
			buf.Write(payload)

		case eventAudioStop:
			if buf.Len() == 0 {
				return nil, 0, 0, errors.New("wyoming: no audio produced")
			}
			slog.Debug("Wyoming synthesis done", "endpoint", b.endpoint, "rate", rate, "size", humanize.Bytes(uint64(buf.Len())))
			return buf.Bytes(), rate, channels, nil

		case eventError:
			return nil, 0, 0, fmt.Errorf("wyoming: server error: %s", mapsafe.Get(evt.Data, "text", "unknown error"))

		default:
			slog.Debug("Wyoming event ignored", "type", evt.Type)
		}
	}
}
