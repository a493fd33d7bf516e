package dataset

import (
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/localrivet/textsummarizer/internal/errortypes"
)

// WriteEncoded writes rows to a parquet file at path, creating parent directories.
func WriteEncoded(path string, rows []EncodedExample) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errortypes.IOError(err, "failed to create dataset directory").WithField("path", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errortypes.IOError(err, "failed to create encoded split").WithField("path", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errortypes.IOError(cerr, "failed to close encoded split").WithField("path", path)
		}
	}()

	writer := parquet.NewGenericWriter[EncodedExample](f)
	if _, err := writer.Write(rows); err != nil {
		return errortypes.IOError(err, "failed to write encoded split").WithField("path", path)
	}
	if err := writer.Close(); err != nil {
		return errortypes.IOError(err, "failed to flush encoded split").WithField("path", path)
	}
	return nil
}

// ReadEncoded reads every row of the parquet file at path.
func ReadEncoded(path string) ([]EncodedExample, error) {
	rows, err := parquet.ReadFile[EncodedExample](path)
	if err != nil {
		return nil, errortypes.IOError(err, "failed to read encoded split").WithField("path", path)
	}
	return rows, nil
}
