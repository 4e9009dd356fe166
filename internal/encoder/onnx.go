//go:build cgo
// +build cgo

package encoder

import (
	"context"
	"fmt"
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/stackmesh/chunkstore/internal/model"
)

// MiniLMEncoder runs an all-MiniLM class sentence encoder through ONNX
// Runtime. Requires CGO and the onnxruntime shared library.
type MiniLMEncoder struct {
	session   *ort.AdvancedSession
	maxTokens int
	tokenizer Tokenizer
	// Tensors are allocated once; Embed rewrites input data and reads
	// output under the lock.
	inputIDsTensor      *ort.Tensor[int64]
	attentionMaskTensor *ort.Tensor[int64]
	tokenTypeIDsTensor  *ort.Tensor[int64]
	outputTensor        *ort.Tensor[float32]
	mu                  sync.Mutex
}

func NewMiniLMEncoder(modelPath string, maxTokens int) (*MiniLMEncoder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}
	if maxTokens <= 0 {
		maxTokens = 256
	}

	tokenizer := &SimpleTokenizer{}
	inputIDs, attentionMask, tokenTypeIDs := tokenizer.Tokenize("", maxTokens)

	inputIDsTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), inputIDs)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	attentionMaskTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), attentionMask)
	if err != nil {
		inputIDsTensor.Destroy()
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	tokenTypeIDsTensor, err := ort.NewTensor(ort.NewShape(1, int64(maxTokens)), tokenTypeIDs)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		return nil, fmt.Errorf("create token_type_ids tensor: %w", err)
	}
	outputData := make([]float32, model.DimensionsMiniLM)
	outputTensor, err := ort.NewTensor(ort.NewShape(1, int64(model.DimensionsMiniLM)), outputData)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	inputs := []ort.ArbitraryTensor{inputIDsTensor, attentionMaskTensor, tokenTypeIDsTensor}
	outputs := []ort.ArbitraryTensor{outputTensor}
	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		inputs,
		outputs,
		nil,
	)
	if err != nil {
		inputIDsTensor.Destroy()
		attentionMaskTensor.Destroy()
		tokenTypeIDsTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &MiniLMEncoder{
		session:             session,
		maxTokens:           maxTokens,
		tokenizer:           tokenizer,
		inputIDsTensor:      inputIDsTensor,
		attentionMaskTensor: attentionMaskTensor,
		tokenTypeIDsTensor:  tokenTypeIDsTensor,
		outputTensor:        outputTensor,
	}, nil
}

func (e *MiniLMEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inputIDs, attentionMask, tokenTypeIDs := e.tokenizer.Tokenize(text, e.maxTokens)

	copy(e.inputIDsTensor.GetData(), inputIDs)
	copy(e.attentionMaskTensor.GetData(), attentionMask)
	copy(e.tokenTypeIDsTensor.GetData(), tokenTypeIDs)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	outputData := e.outputTensor.GetData()
	embedding := make([]float32, model.DimensionsMiniLM)
	copy(embedding, outputData[:model.DimensionsMiniLM])

	normalizeL2(embedding)
	return embedding, nil
}

func (e *MiniLMEncoder) Dimensions() int {
	return model.DimensionsMiniLM
}

func (e *MiniLMEncoder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	if e.inputIDsTensor != nil {
		_ = e.inputIDsTensor.Destroy()
		e.inputIDsTensor = nil
	}
	if e.attentionMaskTensor != nil {
		_ = e.attentionMaskTensor.Destroy()
		e.attentionMaskTensor = nil
	}
	if e.tokenTypeIDsTensor != nil {
		_ = e.tokenTypeIDsTensor.Destroy()
		e.tokenTypeIDsTensor = nil
	}
	if e.outputTensor != nil {
		_ = e.outputTensor.Destroy()
		e.outputTensor = nil
	}
	return err
}

// normalizeL2 scales the vector in place to unit L2 norm, matching how the
// reference MiniLM pipeline post-processes its pooled output.
func normalizeL2(x []float32) {
	var sum float32
	for _, v := range x {
		sum += v * v
	}
	if sum == 0 {
		return
	}
	norm := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range x {
		x[i] *= norm
	}
}
