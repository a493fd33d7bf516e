// Package dataset reads the raw dialogue/summary splits and reads and writes
// the tokenized splits produced by the transformation stage.
package dataset

import (
	"fmt"
	"path/filepath"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

// Split names, in processing order.
const (
	SplitTrain      = "train"
	SplitTest       = "test"
	SplitValidation = "validation"
)

// Splits lists every split the pipeline handles.
var Splits = []string{SplitTrain, SplitTest, SplitValidation}

// Column names shared by the raw and encoded splits.
const (
	ColumnID       = "id"
	ColumnDialogue = "dialogue"
	ColumnSummary  = "summary"
)

// EncodedDirName is the directory, under the transformation root, holding the encoded splits.
const EncodedDirName = "samsum_dataset"

// Example is one raw dialogue/summary pair.
type Example struct {
	ID       string
	Dialogue string
	Summary  string
}

// EncodedExample is an Example plus its model inputs. Labels are the
// token ids of the summary.
type EncodedExample struct {
	ID            string  `parquet:"id"`
	Dialogue      string  `parquet:"dialogue"`
	Summary       string  `parquet:"summary"`
	InputIDs      []int32 `parquet:"input_ids,list"`
	AttentionMask []int32 `parquet:"attention_mask,list"`
	Labels        []int32 `parquet:"labels,list"`
}

// Example drops the encoded columns.
func (e EncodedExample) Example() Example {
	return Example{ID: e.ID, Dialogue: e.Dialogue, Summary: e.Summary}
}

// RawSplitPath returns <dir>/<split>.csv.
func RawSplitPath(dir, split string) string {
	return filepath.Join(dir, split+".csv")
}

// EncodedSplitPath returns <dir>/<split>.parquet.
func EncodedSplitPath(dir, split string) string {
	return filepath.Join(dir, split+".parquet")
}

// Examples converts encoded rows back to plain examples.
func Examples(rows []EncodedExample) []Example {
	out := make([]Example, len(rows))
	for i, row := range rows {
		out[i] = row.Example()
	}
	return out
}

// Column projects one named column out of examples.
func Column(examples []Example, name string) ([]string, error) {
	var pick func(Example) string
	switch name {
	case ColumnID:
		pick = func(e Example) string { return e.ID }
	case ColumnDialogue:
		pick = func(e Example) string { return e.Dialogue }
	case ColumnSummary:
		pick = func(e Example) string { return e.Summary }
	default:
		return nil, errortypes.ValidationError(fmt.Errorf("unknown column %q", name), "invalid column")
	}

	out := make([]string, len(examples))
	for i, e := range examples {
		out[i] = pick(e)
	}
	return out, nil
}
