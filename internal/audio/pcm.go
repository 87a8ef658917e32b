package audio

import (
	"encoding/binary"
	"math"
)

// PCM16ToWaveform converts raw little-endian signed 16-bit mono PCM into a
// waveform. A trailing odd byte is ignored.
func PCM16ToWaveform(pcm []byte, sampleRate int) Waveform {
	n := len(pcm) / bytesPerSample
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:]))) / math.MaxInt16
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}
}

// DownmixPCM16 converts interleaved little-endian PCM16 with the given channel
// count into a mono waveform by averaging each frame.
func DownmixPCM16(pcm []byte, sampleRate, channels int) Waveform {
	if channels <= 1 {
		return PCM16ToWaveform(pcm, sampleRate)
	}

	frameSize := channels * bytesPerSample
	frames := len(pcm) / frameSize
	samples := make([]float32, frames)
	for f := range samples {
		var sum float32
		for c := 0; c < channels; c++ {
			off := f*frameSize + c*bytesPerSample
			sum += float32(int16(binary.LittleEndian.Uint16(pcm[off:]))) / math.MaxInt16
		}
		samples[f] = sum / float32(channels)
	}
	return Waveform{Samples: samples, SampleRate: sampleRate}
}
