package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable means the provider has no credential configured.
	// Providers return it before attempting any network I/O.
	ErrUnavailable = errors.New("ai provider unavailable")
	// ErrShapeMismatch means a provider reply matched none of the known
	// response encodings.
	ErrShapeMismatch = errors.New("unrecognized response shape")
)

// Request is one generation call. ReasoningEffort and Verbosity are only
// honored by providers whose endpoint supports them.
type Request struct {
	Model           string
	Prompt          string
	ReasoningEffort string
	Verbosity       string
}

type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

type ProviderFactory func(args interface{}) (Provider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (Provider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
