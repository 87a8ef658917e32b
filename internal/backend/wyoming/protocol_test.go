package wyoming

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func TestEventRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEvent(&buf, event{Type: eventAudioChunk, Data: map[string]any{"rate": 22050}}, []byte{1, 2, 3}))

	header, _, _ := strings.Cut(buf.String(), "\n")
	assert.True(t, strings.HasSuffix(header, " 3"), header)

	evt, payload, err := readEvent(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, eventAudioChunk, evt.Type)
	assert.Equal(t, 22050.0, evt.Data["rate"])
	assert.Equal(t, []byte{1, 2, 3}, payload)
}
