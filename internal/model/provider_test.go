package model

import (
	"errors"
	"testing"

	appErr "github.com/stackmesh/chunkstore/internal/pkg/errors"
)

func TestParseProvider(t *testing.T) {
	cases := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{"openai", ProviderOpenAI, false},
		{"minilm", ProviderMiniLM, false},
		{" OpenAI ", ProviderOpenAI, false},
		{"MINILM", ProviderMiniLM, false},
		{"both", "", true},
		{"", "", true},
		{"ada", "", true},
	}
	for _, c := range cases {
		got, err := ParseProvider(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("ParseProvider(%q): expected error, got %q", c.in, got)
			}
			if !errors.Is(err, appErr.ErrInvalidProvider) {
				t.Fatalf("ParseProvider(%q): error %v is not ErrInvalidProvider", c.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseProvider(%q): unexpected error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseProvider(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseSelection(t *testing.T) {
	got, err := ParseSelection("both")
	if err != nil {
		t.Fatalf("ParseSelection(both): unexpected error: %v", err)
	}
	if got != ProviderBoth {
		t.Fatalf("ParseSelection(both) = %q", got)
	}
	if _, err := ParseSelection("nope"); !errors.Is(err, appErr.ErrInvalidProvider) {
		t.Fatalf("ParseSelection(nope): error %v is not ErrInvalidProvider", err)
	}
}

func TestProviderTargets(t *testing.T) {
	if !ProviderOpenAI.TargetsOpenAI() || ProviderOpenAI.TargetsMiniLM() {
		t.Fatalf("openai targets wrong columns")
	}
	if ProviderMiniLM.TargetsOpenAI() || !ProviderMiniLM.TargetsMiniLM() {
		t.Fatalf("minilm targets wrong columns")
	}
	if !ProviderBoth.TargetsOpenAI() || !ProviderBoth.TargetsMiniLM() {
		t.Fatalf("both must target both columns")
	}
}

func TestProviderDimensions(t *testing.T) {
	if got := ProviderOpenAI.Dimensions(); got != DimensionsOpenAI {
		t.Fatalf("openai dimensions = %d", got)
	}
	if got := ProviderMiniLM.Dimensions(); got != DimensionsMiniLM {
		t.Fatalf("minilm dimensions = %d", got)
	}
	if got := ProviderBoth.Dimensions(); got != 0 {
		t.Fatalf("both dimensions = %d, want 0", got)
	}
}

func TestEmbeddingPairTag(t *testing.T) {
	openai := make([]float32, DimensionsOpenAI)
	minilm := make([]float32, DimensionsMiniLM)

	cases := []struct {
		pair EmbeddingPair
		want Provider
	}{
		{EmbeddingPair{OpenAI: openai}, ProviderOpenAI},
		{EmbeddingPair{MiniLM: minilm}, ProviderMiniLM},
		{EmbeddingPair{OpenAI: openai, MiniLM: minilm}, ProviderBoth},
	}
	for _, c := range cases {
		if got := c.pair.Tag(); got != c.want {
			t.Fatalf("Tag() = %q, want %q", got, c.want)
		}
	}
	if !(EmbeddingPair{}).Empty() {
		t.Fatalf("zero pair must be empty")
	}
	if (EmbeddingPair{MiniLM: minilm}).Empty() {
		t.Fatalf("pair with a vector must not be empty")
	}
}
