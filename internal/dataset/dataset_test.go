package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

const rawSplit = `id,dialogue,summary
13818513,"Amanda: I baked cookies. Do you want some?
Jerry: Sure!","Amanda baked cookies and will bring Jerry some tomorrow."
13728867,"Olivia: Who are you voting for?
Oliver: Liberals as always.","Olivia and Olivier are voting for liberals."
`

func TestReadRawSplit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(rawSplit), 0644))

	examples, err := ReadRawSplit(path)
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, "13818513", examples[0].ID)
	assert.Equal(t, "Amanda: I baked cookies. Do you want some?\nJerry: Sure!", examples[0].Dialogue)
	assert.Equal(t, "Olivia and Olivier are voting for liberals.", examples[1].Summary)
}

func TestReadRawSplitColumnOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")
	content := "summary,extra,id,dialogue\ns1,x,1,d1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	examples, err := ReadRawSplit(path)
	require.NoError(t, err)
	assert.Equal(t, []Example{{ID: "1", Dialogue: "d1", Summary: "s1"}}, examples)
}

func TestReadRawSplitErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadRawSplit(filepath.Join(dir, "missing.csv"))
	assert.True(t, errortypes.IsIOError(err))

	noSummary := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(noSummary, []byte("id,dialogue\n1,d\n"), 0644))
	_, err = ReadRawSplit(noSummary)
	assert.True(t, errortypes.IsValidationError(err))

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = ReadRawSplit(empty)
	assert.True(t, errortypes.IsValidationError(err))

	ragged := filepath.Join(dir, "ragged.csv")
	require.NoError(t, os.WriteFile(ragged, []byte("id,dialogue,summary\n1,d\n"), 0644))
	_, err = ReadRawSplit(ragged)
	assert.True(t, errortypes.IsIOError(err))
}

func TestEncodedRoundTrip(t *testing.T) {
	path := EncodedSplitPath(filepath.Join(t.TempDir(), EncodedDirName), SplitTest)
	rows := []EncodedExample{
		{ID: "1", Dialogue: "a: hi", Summary: "greeting", InputIDs: []int32{10, 11, 1}, AttentionMask: []int32{1, 1, 1}, Labels: []int32{7, 1}},
		{ID: "2", Dialogue: "b: bye", Summary: "farewell", InputIDs: []int32{12, 1}, AttentionMask: []int32{1, 1}, Labels: []int32{8, 9, 1}},
	}

	require.NoError(t, WriteEncoded(path, rows))
	got, err := ReadEncoded(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
	assert.Equal(t, []Example{
		{ID: "1", Dialogue: "a: hi", Summary: "greeting"},
		{ID: "2", Dialogue: "b: bye", Summary: "farewell"},
	}, Examples(got))
}

func TestColumn(t *testing.T) {
	examples := []Example{{ID: "1", Dialogue: "d1", Summary: "s1"}, {ID: "2", Dialogue: "d2", Summary: "s2"}}

	dialogues, err := Column(examples, ColumnDialogue)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1", "d2"}, dialogues)

	summaries, err := Column(examples, ColumnSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, summaries)

	_, err = Column(examples, "highlights")
	assert.True(t, errortypes.IsValidationError(err))
}

func TestSplitPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "train.csv"), RawSplitPath("data", SplitTrain))
	assert.Equal(t, filepath.Join("out", "validation.parquet"), EncodedSplitPath("out", SplitValidation))
}
