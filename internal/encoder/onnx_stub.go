//go:build !cgo
// +build !cgo

package encoder

import (
	"context"
	"errors"

	"github.com/stackmesh/chunkstore/internal/model"
)

var errNoCGO = errors.New("minilm encoder requires CGO; build with CGO_ENABLED=1 and onnxruntime")

// MiniLMEncoder stub type when built without CGO (see onnx.go for the real
// implementation).
type MiniLMEncoder struct{}

func NewMiniLMEncoder(_ string, _ int) (*MiniLMEncoder, error) {
	return nil, errNoCGO
}

func (e *MiniLMEncoder) Embed(_ context.Context, _ string) ([]float32, error) {
	return nil, errNoCGO
}

func (e *MiniLMEncoder) Dimensions() int {
	return model.DimensionsMiniLM
}

func (e *MiniLMEncoder) Close() error {
	return nil
}
