// Package modeltest provides in-memory tokenizers and generators for tests.
package modeltest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/localrivet/textsummarizer/internal/model"
)

// Special ids used by Tokenizer.
const (
	PadID = 0
	EOSID = 1
	// first id handed out to a word
	firstWordID = 2
)

// Tokenizer splits on whitespace and assigns ids to words as it sees them.
type Tokenizer struct {
	mu    sync.Mutex
	ids   map[string]int
	words []string
	Saved []string
}

// NewTokenizer creates an empty Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{ids: make(map[string]int), words: []string{"<pad>", "</s>"}}
}

// Encode implements model.Tokenizer.
func (t *Tokenizer) Encode(text string, opts model.EncodeOptions) model.Encoding {
	t.mu.Lock()
	var ids []int
	for _, w := range strings.Fields(text) {
		id, ok := t.ids[w]
		if !ok {
			id = len(t.words)
			t.ids[w] = id
			t.words = append(t.words, w)
		}
		ids = append(ids, id)
	}
	t.mu.Unlock()

	ids = append(ids, EOSID)
	if opts.Truncation && opts.MaxLength > 0 && len(ids) > opts.MaxLength {
		ids = ids[:opts.MaxLength]
		ids[len(ids)-1] = EOSID
	}
	mask := make([]int, len(ids))
	for i := range mask {
		mask[i] = 1
	}
	for opts.PadToMaxLength && len(ids) < opts.MaxLength {
		ids = append(ids, PadID)
		mask = append(mask, 0)
	}
	return model.Encoding{InputIDs: ids, AttentionMask: mask}
}

// Decode implements model.Tokenizer.
func (t *Tokenizer) Decode(ids []int, skipSpecialTokens bool) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var words []string
	for _, id := range ids {
		if id < firstWordID {
			if !skipSpecialTokens && id >= 0 && id < len(t.words) {
				words = append(words, t.words[id])
			}
			continue
		}
		if id < len(t.words) {
			words = append(words, t.words[id])
		}
	}
	return strings.Join(words, " ")
}

// SavePretrained writes the vocabulary to dir/vocab.txt.
func (t *Tokenizer) SavePretrained(dir string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	t.Saved = append(t.Saved, dir)
	return os.WriteFile(filepath.Join(dir, "vocab.txt"), []byte(strings.Join(t.words, "\n")), 0644)
}

// Loader returns a model.TokenizerLoader that always yields t and records
// the requested names.
func (t *Tokenizer) Loader(requested *[]string) model.TokenizerLoader {
	return func(nameOrPath string) (model.PretrainedTokenizer, error) {
		if requested != nil {
			*requested = append(*requested, nameOrPath)
		}
		return t, nil
	}
}

// Generator echoes a fixed number of leading non-special input ids,
// followed by EOS, and records every call.
type Generator struct {
	// Keep is the number of input ids echoed back; zero echoes all.
	Keep int
	// Err, when set, is returned from every call.
	Err error

	mu     sync.Mutex
	Calls  int
	Params []model.GenerateParams
	Sizes  []int
}

// Generate implements model.Generator.
func (g *Generator) Generate(ctx context.Context, batch model.Batch, params model.GenerateParams) ([][]int, error) {
	g.mu.Lock()
	g.Calls++
	g.Params = append(g.Params, params)
	g.Sizes = append(g.Sizes, batch.Len())
	g.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if g.Err != nil {
		return nil, g.Err
	}

	out := make([][]int, batch.Len())
	for i, ids := range batch.InputIDs {
		seq := []int{PadID}
		for _, id := range ids {
			if id < firstWordID {
				continue
			}
			if g.Keep > 0 && len(seq)-1 >= g.Keep {
				break
			}
			seq = append(seq, id)
		}
		out[i] = append(seq, EOSID)
	}
	return out, nil
}

// Loader returns a model.ModelLoader yielding g and counting loads.
func (g *Generator) Loader(loads *int) model.ModelLoader {
	return func(ctx context.Context, path string) (model.Generator, error) {
		if loads != nil {
			*loads++
		}
		return g, nil
	}
}
