// Package validation checks that the ingested dataset holds every required file.
package validation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/localrivet/textsummarizer/internal/entity"
	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
)

// StatusLine formats the single line written to the status file.
func StatusLine(ok bool) string {
	if ok {
		return "Validation status: True"
	}
	return "Validation status: False"
}

// DataValidation compares a directory listing with the required file names.
type DataValidation struct {
	config entity.DataValidationConfig
	log    *logger.Logger
}

// New creates a DataValidation.
func New(config entity.DataValidationConfig, log *logger.Logger) *DataValidation {
	if log == nil {
		log = logger.Discard()
	}
	return &DataValidation{config: config, log: log.WithContext("validation")}
}

// ValidateAllFilesExist writes the status line and reports whether every
// required file is present in data_dir. Missing files are not an error;
// failing to list the directory or write the status is, and is logged
// before being returned.
func (v *DataValidation) ValidateAllFilesExist() (bool, error) {
	status, err := v.check()
	if err != nil {
		errortypes.LogError(v.log, err)
		return false, err
	}
	return status, nil
}

func (v *DataValidation) check() (bool, error) {
	entries, err := os.ReadDir(v.config.DataDir)
	if err != nil {
		return false, errortypes.IOError(err, "failed to list dataset directory").WithField("path", v.config.DataDir)
	}

	listing := make([]string, len(entries))
	for i, e := range entries {
		listing[i] = e.Name()
	}

	missing := Missing(v.config.AllRequiredFiles, listing)
	status := len(missing) == 0
	if !status {
		v.log.Warn("missing required files: %v", missing)
	}

	if err := writeStatus(v.config.StatusFile, status); err != nil {
		return false, err
	}
	v.log.Info("%s", StatusLine(status))
	return status, nil
}

// Missing returns the required names absent from listing, in required order.
func Missing(required, listing []string) []string {
	present := make(map[string]struct{}, len(listing))
	for _, name := range listing {
		present[name] = struct{}{}
	}

	var missing []string
	for _, name := range required {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

func writeStatus(path string, ok bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errortypes.IOError(err, "failed to create status directory").WithField("path", path)
	}
	if err := os.WriteFile(path, []byte(StatusLine(ok)), 0644); err != nil {
		return errortypes.IOError(err, fmt.Sprintf("failed to write status file %s", path))
	}
	return nil
}
