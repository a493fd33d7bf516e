// Package ingestion downloads the source archive and extracts it.
package ingestion

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"

	"github.com/localrivet/textsummarizer/internal/entity"
	"github.com/localrivet/textsummarizer/internal/errortypes"
	"github.com/localrivet/textsummarizer/internal/logger"
	"github.com/localrivet/textsummarizer/internal/telemetry"
	"github.com/localrivet/textsummarizer/internal/util"
)

// DataIngestion fetches and unpacks the raw dataset.
type DataIngestion struct {
	config     entity.DataIngestionConfig
	log        *logger.Logger
	downloader Downloader
	metrics    *telemetry.MetricsCollector
}

// New creates a DataIngestion. A nil downloader selects HTTPDownloader.
func New(config entity.DataIngestionConfig, log *logger.Logger, downloader Downloader, metrics *telemetry.MetricsCollector) *DataIngestion {
	if log == nil {
		log = logger.Discard()
	}
	if downloader == nil {
		downloader = NewHTTPDownloader(0)
	}
	return &DataIngestion{
		config:     config,
		log:        log.WithContext("ingestion"),
		downloader: downloader,
		metrics:    metrics,
	}
}

// DownloadFile fetches source_URL into local_data_file unless the file
// already exists. The archive is not checksummed.
func (d *DataIngestion) DownloadFile(ctx context.Context) error {
	dest := d.config.LocalDataFile

	if _, err := os.Stat(dest); err == nil {
		size, err := util.GetSize(dest)
		if err != nil {
			return err
		}
		d.metrics.IncrementCounter(telemetry.MetricDownloadSkipped, 1)
		d.log.Info("File already exists of size: %s", size)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return errortypes.IOError(err, "failed to stat archive").WithField("path", dest)
	}

	n, err := d.downloader.Download(ctx, d.config.SourceURL, dest)
	if err != nil {
		return err
	}
	d.metrics.IncrementCounter(telemetry.MetricDownloadBytes, n)
	d.log.Info("%s downloaded (%s) from %s", dest, humanize.Bytes(uint64(n)), d.config.SourceURL)
	return nil
}

// ExtractZipFile extracts local_data_file into unzip_dir, creating it if
// needed. Entries that would land outside unzip_dir are rejected.
func (d *DataIngestion) ExtractZipFile() error {
	unzipDir := d.config.UnzipDir
	if err := os.MkdirAll(unzipDir, 0755); err != nil {
		return errortypes.IOError(err, "failed to create unzip directory").WithField("path", unzipDir)
	}

	archive, err := zip.OpenReader(d.config.LocalDataFile)
	if err != nil {
		return errortypes.IOError(err, "failed to open archive").WithField("path", d.config.LocalDataFile)
	}
	defer archive.Close()

	root, err := filepath.Abs(unzipDir)
	if err != nil {
		return errortypes.IOError(err, "failed to resolve unzip directory").WithField("path", unzipDir)
	}

	var total uint64
	for _, f := range archive.File {
		target := filepath.Join(root, f.Name)
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return errortypes.IOError(errors.New("illegal file path in archive"), "failed to extract archive").
				WithField("entry", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return errortypes.IOError(err, "failed to create directory").WithField("path", target)
			}
			continue
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
		total += f.UncompressedSize64
	}

	d.metrics.IncrementCounter(telemetry.MetricFilesExtracted, int64(len(archive.File)))
	d.log.Info("extracted %d entries (%s) into %s", len(archive.File), humanize.Bytes(total), unzipDir)
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errortypes.IOError(err, "failed to create directory").WithField("path", target)
	}

	src, err := f.Open()
	if err != nil {
		return errortypes.IOError(err, "failed to read archive entry").WithField("entry", f.Name)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errortypes.IOError(err, "failed to create file").WithField("path", target)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errortypes.IOError(err, "failed to extract archive entry").WithField("entry", f.Name)
	}
	if err := dst.Close(); err != nil {
		return errortypes.IOError(err, "failed to write file").WithField("path", target)
	}
	return nil
}
