package model

import (
	"fmt"
	"strings"

	appErr "github.com/stackmesh/chunkstore/internal/pkg/errors"
)

// Provider identifies an embedding space. Each provider has a fixed output
// dimensionality; a vector of any other length is never accepted.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderMiniLM Provider = "minilm"
	// ProviderBoth is a write-time selection only; a chunk tagged "both"
	// carries vectors in both spaces.
	ProviderBoth Provider = "both"
)

const (
	DimensionsOpenAI = 1536
	DimensionsMiniLM = 384
)

// ParseProvider parses a search-side provider selector. "both" is not a
// searchable space and is rejected here.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(s))) {
	case ProviderOpenAI:
		return ProviderOpenAI, nil
	case ProviderMiniLM:
		return ProviderMiniLM, nil
	default:
		return "", fmt.Errorf("%w: %q", appErr.ErrInvalidProvider, s)
	}
}

// ParseSelection parses a write-side provider selector, where "both" is
// allowed in addition to the two concrete providers.
func ParseSelection(s string) (Provider, error) {
	if Provider(strings.ToLower(strings.TrimSpace(s))) == ProviderBoth {
		return ProviderBoth, nil
	}
	return ParseProvider(s)
}

func (p Provider) TargetsOpenAI() bool {
	return p == ProviderOpenAI || p == ProviderBoth
}

func (p Provider) TargetsMiniLM() bool {
	return p == ProviderMiniLM || p == ProviderBoth
}

// Dimensions returns the vector length of a concrete provider, 0 for "both".
func (p Provider) Dimensions() int {
	switch p {
	case ProviderOpenAI:
		return DimensionsOpenAI
	case ProviderMiniLM:
		return DimensionsMiniLM
	}
	return 0
}
