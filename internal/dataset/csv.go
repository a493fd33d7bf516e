package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

// ReadRawSplit reads a CSV split. The header must name the id, dialogue and
// summary columns; their order and any extra columns are free.
func ReadRawSplit(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errortypes.IOError(err, "failed to open raw split").WithField("path", path)
	}
	defer f.Close()

	examples, err := decodeRawSplit(f)
	if err != nil {
		var appErr *errortypes.AppError
		if errors.As(err, &appErr) {
			return nil, appErr.WithField("path", path)
		}
		return nil, errortypes.IOError(err, "failed to read raw split").WithField("path", path)
	}
	return examples, nil
}

func decodeRawSplit(r io.Reader) ([]Example, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errortypes.ValidationError(errors.New("missing header"), "invalid raw split")
		}
		return nil, err
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, required := range []string{ColumnID, ColumnDialogue, ColumnSummary} {
		if _, ok := index[required]; !ok {
			return nil, errortypes.ValidationError(fmt.Errorf("missing column %q", required), "invalid raw split")
		}
	}

	var examples []Example
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		examples = append(examples, Example{
			ID:       record[index[ColumnID]],
			Dialogue: record[index[ColumnDialogue]],
			Summary:  record[index[ColumnSummary]],
		})
	}
	return examples, nil
}
