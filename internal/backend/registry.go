package backend

import (
	"fmt"
	"sort"
	"sync"
)

// SynthesizerFactory builds a synthesizer from a spec.
type SynthesizerFactory func(spec Spec) (Synthesizer, error)

// RecognizerFactory builds a recognizer from a spec.
type RecognizerFactory func(spec Spec) (Recognizer, error)

// Registry maps providers to backend factories.
type Registry struct {
	synthesizers map[Provider]SynthesizerFactory
	recognizers  map[Provider]RecognizerFactory
	mu           sync.RWMutex
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{
		synthesizers: make(map[Provider]SynthesizerFactory),
		recognizers:  make(map[Provider]RecognizerFactory),
	}
}

// RegisterSynthesizer adds a synthesizer factory for p.
func (r *Registry) RegisterSynthesizer(p Provider, f SynthesizerFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.synthesizers[p]; exists {
		return fmt.Errorf("%w: synthesizer %q", ErrAlreadyRegistered, p)
	}
	r.synthesizers[p] = f
	return nil
}

// RegisterRecognizer adds a recognizer factory for p.
func (r *Registry) RegisterRecognizer(p Provider, f RecognizerFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.recognizers[p]; exists {
		return fmt.Errorf("%w: recognizer %q", ErrAlreadyRegistered, p)
	}
	r.recognizers[p] = f
	return nil
}

// NewSynthesizer builds a synthesizer with the factory registered for
// spec.Provider.
func (r *Registry) NewSynthesizer(spec Spec) (Synthesizer, error) {
	r.mu.RLock()
	f, ok := r.synthesizers[spec.Provider]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: synthesizer %q", ErrNotFound, spec.Provider)
	}
	return f(spec)
}

// NewRecognizer builds a recognizer with the factory registered for
// spec.Provider.
func (r *Registry) NewRecognizer(spec Spec) (Recognizer, error) {
	r.mu.RLock()
	f, ok := r.recognizers[spec.Provider]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: recognizer %q", ErrNotFound, spec.Provider)
	}
	return f(spec)
}

// Providers lists the registered synthesizer and recognizer providers, sorted.
func (r *Registry) Providers() (synthesizers, recognizers []Provider) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for p := range r.synthesizers {
		synthesizers = append(synthesizers, p)
	}
	for p := range r.recognizers {
		recognizers = append(recognizers, p)
	}
	sort.Slice(synthesizers, func(i, j int) bool { return synthesizers[i] < synthesizers[j] })
	sort.Slice(recognizers, func(i, j int) bool { return recognizers[i] < recognizers[j] })
	return synthesizers, recognizers
}
