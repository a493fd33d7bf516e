// Package util holds small filesystem helpers shared by the pipeline stages.
package util

import (
	"fmt"
	"math"
	"os"

	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
)

// CreateDirectories creates every path (and its parents). Each created
// directory is logged at INFO when log is non-nil.
func CreateDirectories(log *logger.Logger, paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return errortypes.IOError(err, "failed to create directory").WithField("path", path)
		}
		if log != nil {
			log.Info("created directory at: %s", path)
		}
	}
	return nil
}

// GetSize returns the size of the file at path in kilobytes, formatted as "~ N KB".
func GetSize(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errortypes.IOError(err, "failed to stat file").WithField("path", path)
	}
	return fmt.Sprintf("~ %d KB", int64(math.Round(float64(info.Size())/1024))), nil
}
