package model

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/eliben/go-sentencepiece"
	"github.com/gomlx/go-huggingface/hub"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

// Tokenizer model file names, in lookup order.
var tokenizerFiles = []string{"spiece.model", "tokenizer.model"}

// TokenizerOptions configure hub downloads.
type TokenizerOptions struct {
	// HubToken authenticates against the Hugging Face hub; empty for public repos.
	HubToken string
	// CacheDir overrides the hub cache location.
	CacheDir string
}

// SentencePieceTokenizer implements Tokenizer over a SentencePiece model file.
type SentencePieceTokenizer struct {
	proc      *sentencepiece.Processor
	info      *sentencepiece.ModelInfo
	modelFile string
}

// LoadTokenizer opens the tokenizer at nameOrPath. A local directory must
// contain spiece.model or tokenizer.model; a path to a .model file is opened
// directly; anything else is treated as a hub repository id.
func LoadTokenizer(nameOrPath string, opts TokenizerOptions) (*SentencePieceTokenizer, error) {
	if info, err := os.Stat(nameOrPath); err == nil {
		if !info.IsDir() {
			return NewSentencePieceTokenizer(nameOrPath)
		}
		for _, name := range tokenizerFiles {
			path := filepath.Join(nameOrPath, name)
			if _, err := os.Stat(path); err == nil {
				return NewSentencePieceTokenizer(path)
			}
		}
		return nil, errortypes.IOError(errors.New("no sentencepiece model in directory"), "failed to load tokenizer").
			WithField("path", nameOrPath)
	}

	repo := hub.New(nameOrPath)
	if opts.HubToken != "" {
		repo = repo.WithAuth(opts.HubToken)
	}
	if opts.CacheDir != "" {
		repo = repo.WithCacheDir(opts.CacheDir)
	}

	var lastErr error
	for _, name := range tokenizerFiles {
		path, err := repo.DownloadFile(name)
		if err == nil {
			return NewSentencePieceTokenizer(path)
		}
		lastErr = err
	}
	return nil, errortypes.NetworkError(lastErr, "failed to download tokenizer").WithField("repo", nameOrPath)
}

// NewSentencePieceTokenizer opens a SentencePiece model proto.
func NewSentencePieceTokenizer(modelFile string) (*SentencePieceTokenizer, error) {
	proc, err := sentencepiece.NewProcessorFromPath(modelFile)
	if err != nil {
		return nil, errortypes.FrameworkError(err, "failed to open sentencepiece model").WithField("path", modelFile)
	}
	return &SentencePieceTokenizer{
		proc:      proc,
		info:      proc.ModelInfo(),
		modelFile: modelFile,
	}, nil
}

// Encode tokenizes text and appends the end-of-sentence id.
func (t *SentencePieceTokenizer) Encode(text string, opts EncodeOptions) Encoding {
	tokens := t.proc.Encode(text)
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = tok.ID
	}
	return finishEncoding(ids, opts, t.info.EndOfSentenceID, t.info.PadID)
}

// Decode converts ids back to text, optionally dropping special tokens.
func (t *SentencePieceTokenizer) Decode(ids []int, skipSpecialTokens bool) string {
	if skipSpecialTokens {
		ids = dropSpecial(ids, t.info.PadID, t.info.EndOfSentenceID, t.info.BeginningOfSentenceID, t.info.UnknownID)
	}
	return t.proc.Decode(ids)
}

// SavePretrained copies the tokenizer model into dir as spiece.model.
func (t *SentencePieceTokenizer) SavePretrained(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errortypes.IOError(err, "failed to create tokenizer directory").WithField("path", dir)
	}

	src, err := os.Open(t.modelFile)
	if err != nil {
		return errortypes.IOError(err, "failed to open tokenizer model").WithField("path", t.modelFile)
	}
	defer src.Close()

	target := filepath.Join(dir, tokenizerFiles[0])
	dst, err := os.Create(target)
	if err != nil {
		return errortypes.IOError(err, "failed to create tokenizer file").WithField("path", target)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errortypes.IOError(err, "failed to save tokenizer").WithField("path", target)
	}
	if err := dst.Close(); err != nil {
		return errortypes.IOError(err, "failed to save tokenizer").WithField("path", target)
	}
	return nil
}

// finishEncoding applies the end-of-sentence id, truncation and padding.
// Negative eos or pad ids mean the vocabulary does not define them.
func finishEncoding(ids []int, opts EncodeOptions, eos, pad int) Encoding {
	if eos >= 0 {
		ids = append(ids, eos)
	}

	if opts.Truncation && opts.MaxLength > 0 && len(ids) > opts.MaxLength {
		ids = ids[:opts.MaxLength]
		if eos >= 0 {
			ids[len(ids)-1] = eos
		}
	}

	mask := make([]int, len(ids), max(len(ids), opts.MaxLength))
	for i := range mask {
		mask[i] = 1
	}

	if opts.PadToMaxLength && len(ids) < opts.MaxLength {
		if pad < 0 {
			pad = 0
		}
		for len(ids) < opts.MaxLength {
			ids = append(ids, pad)
			mask = append(mask, 0)
		}
	}

	return Encoding{InputIDs: ids, AttentionMask: mask}
}

func dropSpecial(ids []int, special ...int) []int {
	out := make([]int, 0, len(ids))
outer:
	for _, id := range ids {
		for _, s := range special {
			if s >= 0 && id == s {
				continue outer
			}
		}
		out = append(out, id)
	}
	return out
}
