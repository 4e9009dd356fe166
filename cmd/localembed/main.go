package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackmesh/chunkstore/internal/encoder"
	"github.com/stackmesh/chunkstore/internal/model"
)

// localembed turns text into a 384-dim minilm vector suitable for the
// embedding_minilm field of the chunkstore write APIs. The model runs
// entirely in this process; the server never sees the text before the
// vector is attached.
func main() {
	var modelPath string
	var maxTokens int
	var quiet bool

	rootCmd := &cobra.Command{
		Use:   "localembed [text]",
		Short: "embed text with the local minilm encoder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := ""
			if len(args) > 0 {
				text = args[0]
			} else {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				text = string(data)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				return fmt.Errorf("no input text")
			}
			return run(modelPath, maxTokens, quiet, text)
		},
	}

	rootCmd.Flags().StringVar(&modelPath, "model", "minilm.onnx", "path to the minilm onnx model")
	rootCmd.Flags().IntVar(&maxTokens, "max-tokens", 256, "token window of the model")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress load progress on stderr")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(modelPath string, maxTokens int, quiet bool, text string) error {
	ctx := context.Background()

	loader := encoder.NewLoader(func(ctx context.Context, progress func(float64)) (encoder.Encoder, error) {
		return encoder.NewMiniLMEncoder(modelPath, maxTokens)
	})
	defer loader.Close()

	done := make(chan encoder.Event, 1)
	subID := loader.Subscribe(func(ev encoder.Event) {
		if !quiet && ev.State == encoder.StateLoading {
			fmt.Fprintf(os.Stderr, "loading model... %.0f%%\n", ev.Progress*100)
		}
		if ev.State == encoder.StateReady || ev.State == encoder.StateFailed {
			select {
			case done <- ev:
			default:
			}
		}
	})
	defer loader.Unsubscribe(subID)

	loader.Load(ctx)
	ev := <-done
	if ev.State == encoder.StateFailed {
		return ev.Err
	}

	enc, err := loader.Encoder()
	if err != nil {
		return err
	}
	values, err := enc.Embed(ctx, text)
	if err != nil {
		return err
	}
	return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
		"embedding":  values,
		"dimensions": len(values),
		"provider":   model.ProviderMiniLM,
	})
}
