// Package audio converts between float waveforms and the PCM16 mono WAV
// container the gateway returns to clients.
//
// Encoding is pure and deterministic: the same waveform always produces the
// same bytes. Decoding is used when a backend hands back a WAV file or raw
// PCM that has to be inspected.
package audio
