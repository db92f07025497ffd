package provider

import (
	"fmt"
	"sort"

	"github.com/kbukum/licensing/logger"
)

// ModeSelector picks a provider by an exact mode name. Unknown or empty
// modes resolve to the default provider; selection never fails.
type ModeSelector[T Provider] struct {
	providers   map[string]T
	defaultMode string
	log         *logger.Logger
}

// NewModeSelector creates a selector over providers. defaultMode must name
// one of them.
func NewModeSelector[T Provider](defaultMode string, providers map[string]T, log *logger.Logger) (*ModeSelector[T], error) {
	if _, ok := providers[defaultMode]; !ok {
		return nil, fmt.Errorf("default mode %q has no provider", defaultMode)
	}
	if log == nil {
		log = logger.Nop()
	}
	cp := make(map[string]T, len(providers))
	for k, v := range providers {
		cp[k] = v
	}
	return &ModeSelector[T]{providers: cp, defaultMode: defaultMode, log: log}, nil
}

// Resolve returns the mode that Select would use for mode.
func (s *ModeSelector[T]) Resolve(mode string) string {
	if _, ok := s.providers[mode]; ok {
		return mode
	}
	return s.defaultMode
}

// Select returns the provider for mode, or the default provider.
func (s *ModeSelector[T]) Select(mode string) T {
	resolved := s.Resolve(mode)
	s.log.Debug("provider selected", map[string]interface{}{
		"mode":     mode,
		"provider": resolved,
		"default":  resolved != mode,
	})
	return s.providers[resolved]
}

// Default returns the default mode.
func (s *ModeSelector[T]) Default() string {
	return s.defaultMode
}

// Modes returns the known modes, sorted.
func (s *ModeSelector[T]) Modes() []string {
	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
