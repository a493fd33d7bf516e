// Package model wraps the external model-serving framework behind the
// narrow capabilities the pipeline needs: encoding text, generating
// summaries and decoding them back to text.
package model

import "context"

// Sequence length limits used by the pegasus checkpoints.
const (
	MaxInputLength  = 1024
	MaxTargetLength = 128
)

// Name is the label used for the fine-tuned model in score tables.
const Name = "pegasus"

// EncodeOptions control truncation and padding of one encoded sequence.
type EncodeOptions struct {
	MaxLength      int
	Truncation     bool
	PadToMaxLength bool
}

// Encoding is one tokenized text.
type Encoding struct {
	InputIDs      []int
	AttentionMask []int
}

// Tokenizer converts between text and token ids.
type Tokenizer interface {
	Encode(text string, opts EncodeOptions) Encoding
	Decode(ids []int, skipSpecialTokens bool) string
}

// Batch is a set of encodings sent to the generator together.
type Batch struct {
	InputIDs      [][]int
	AttentionMask [][]int
}

// Len returns the number of sequences in the batch.
func (b Batch) Len() int { return len(b.InputIDs) }

// EncodeBatch encodes every text with the same options.
func EncodeBatch(tok Tokenizer, texts []string, opts EncodeOptions) Batch {
	batch := Batch{
		InputIDs:      make([][]int, len(texts)),
		AttentionMask: make([][]int, len(texts)),
	}
	for i, text := range texts {
		enc := tok.Encode(text, opts)
		batch.InputIDs[i] = enc.InputIDs
		batch.AttentionMask[i] = enc.AttentionMask
	}
	return batch
}

// GenerateParams are the decoding hyperparameters passed to the framework.
type GenerateParams struct {
	NumBeams      int     `json:"num_beams"`
	LengthPenalty float64 `json:"length_penalty"`
	MaxLength     int     `json:"max_length"`
	// Device overrides the device the model was loaded on when set.
	Device string `json:"device,omitempty"`
}

// DefaultGenerateParams returns the beam search settings shared by
// evaluation and prediction.
func DefaultGenerateParams() GenerateParams {
	return GenerateParams{
		NumBeams:      8,
		LengthPenalty: 0.8,
		MaxLength:     MaxTargetLength,
	}
}

// Generator runs beam search decoding over a batch and returns one token
// id sequence per input.
type Generator interface {
	Generate(ctx context.Context, batch Batch, params GenerateParams) ([][]int, error)
}

// PretrainedTokenizer is a Tokenizer whose state can be written to disk.
type PretrainedTokenizer interface {
	Tokenizer
	SavePretrained(dir string) error
}

// TokenizerLoader opens a tokenizer by local path or hub id.
type TokenizerLoader func(nameOrPath string) (PretrainedTokenizer, error)

// SentencePieceLoader returns a TokenizerLoader backed by LoadTokenizer.
func SentencePieceLoader(opts TokenizerOptions) TokenizerLoader {
	return func(nameOrPath string) (PretrainedTokenizer, error) {
		tok, err := LoadTokenizer(nameOrPath, opts)
		if err != nil {
			return nil, err
		}
		return tok, nil
	}
}

// ModelLoader loads a checkpoint as a Generator.
type ModelLoader func(ctx context.Context, path string) (Generator, error)

// Loader adapts the client to a ModelLoader.
func (c *Client) Loader() ModelLoader {
	return func(ctx context.Context, path string) (Generator, error) {
		m, err := c.LoadModel(ctx, path)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}
