package model

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

func TestFinishEncoding(t *testing.T) {
	const eos, pad = 1, 0

	tests := []struct {
		name     string
		ids      []int
		opts     EncodeOptions
		wantIDs  []int
		wantMask []int
	}{
		{
			name:     "appends eos",
			ids:      []int{5, 6},
			opts:     EncodeOptions{MaxLength: 10, Truncation: true},
			wantIDs:  []int{5, 6, 1},
			wantMask: []int{1, 1, 1},
		},
		{
			name:     "truncation keeps eos last",
			ids:      []int{5, 6, 7, 8},
			opts:     EncodeOptions{MaxLength: 3, Truncation: true},
			wantIDs:  []int{5, 6, 1},
			wantMask: []int{1, 1, 1},
		},
		{
			name:     "no truncation",
			ids:      []int{5, 6, 7, 8},
			opts:     EncodeOptions{MaxLength: 3},
			wantIDs:  []int{5, 6, 7, 8, 1},
			wantMask: []int{1, 1, 1, 1, 1},
		},
		{
			name:     "pads to max length",
			ids:      []int{5},
			opts:     EncodeOptions{MaxLength: 4, Truncation: true, PadToMaxLength: true},
			wantIDs:  []int{5, 1, 0, 0},
			wantMask: []int{1, 1, 0, 0},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := finishEncoding(append([]int(nil), test.ids...), test.opts, eos, pad)
			if !reflect.DeepEqual(got.InputIDs, test.wantIDs) {
				t.Errorf("ids = %v, want %v", got.InputIDs, test.wantIDs)
			}
			if !reflect.DeepEqual(got.AttentionMask, test.wantMask) {
				t.Errorf("mask = %v, want %v", got.AttentionMask, test.wantMask)
			}
		})
	}
}

func TestFinishEncodingWithoutSpecialTokens(t *testing.T) {
	got := finishEncoding([]int{5, 6, 7}, EncodeOptions{MaxLength: 2, Truncation: true}, -1, -1)
	if !reflect.DeepEqual(got.InputIDs, []int{5, 6}) {
		t.Errorf("Unexpected ids %v", got.InputIDs)
	}
}

func TestDropSpecial(t *testing.T) {
	got := dropSpecial([]int{0, 5, 2, 6, 1, 0}, 0, 1, 2, -1)
	if !reflect.DeepEqual(got, []int{5, 6}) {
		t.Errorf("Unexpected ids %v", got)
	}
}

type stubTokenizer struct{}

func (stubTokenizer) Encode(text string, opts EncodeOptions) Encoding {
	ids := make([]int, 0)
	for range strings.Fields(text) {
		ids = append(ids, 7)
	}
	return finishEncoding(ids, opts, 1, 0)
}

func (stubTokenizer) Decode(ids []int, _ bool) string { return "" }

func TestEncodeBatch(t *testing.T) {
	batch := EncodeBatch(stubTokenizer{}, []string{"a b", "c"}, EncodeOptions{MaxLength: 4, Truncation: true, PadToMaxLength: true})

	if batch.Len() != 2 {
		t.Fatalf("Expected 2 sequences, got %d", batch.Len())
	}
	want := [][]int{{7, 7, 1, 0}, {7, 1, 0, 0}}
	if !reflect.DeepEqual(batch.InputIDs, want) {
		t.Errorf("ids = %v, want %v", batch.InputIDs, want)
	}
	if !reflect.DeepEqual(batch.AttentionMask, [][]int{{1, 1, 1, 0}, {1, 1, 0, 0}}) {
		t.Errorf("Unexpected mask %v", batch.AttentionMask)
	}
}

func TestLoadTokenizerErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTokenizer(dir, TokenizerOptions{})
	if !errortypes.IsIOError(err) {
		t.Errorf("Expected IO error for directory without model, got %v", err)
	}

	bogus := filepath.Join(dir, "spiece.model")
	if err := os.WriteFile(bogus, []byte("not a proto"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadTokenizer(dir, TokenizerOptions{})
	if !errortypes.IsFrameworkError(err) {
		t.Errorf("Expected framework error for invalid model file, got %v", err)
	}
}

func TestDefaultGenerateParams(t *testing.T) {
	p := DefaultGenerateParams()
	if p.NumBeams != 8 || p.LengthPenalty != 0.8 || p.MaxLength != 128 {
		t.Errorf("Unexpected defaults %+v", p)
	}
}
