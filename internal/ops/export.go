package ops

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/murmur/internal/db"
	"github.com/hpungsan/murmur/internal/errors"
)

// ExportSchemaVersion is written in the header line of every export.
const ExportSchemaVersion = "1.0"

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Dir  string // exports directory; the file must sit directly inside it
	Path string // optional, default: <Dir>/feedback-<timestamp>.jsonl
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the first line of a JSONL export file.
type ExportHeader struct {
	MurmurExport  bool   `json:"_murmur_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// Export writes every feedback record, newest first, to a JSONL file.
// The file is written to a temp name and renamed into place, so an existing
// export is never left half-written.
func Export(ctx context.Context, database *sql.DB, input ExportInput) (*ExportOutput, error) {
	now := time.Now()

	exportPath := input.Path
	if exportPath == "" {
		exportPath = DefaultExportPath(input.Dir, now)
	}
	if err := ValidateExportPath(exportPath, input.Dir); err != nil {
		return nil, err
	}

	records, err := db.ListFeedback(ctx, database)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	enc := json.NewEncoder(file)
	if err := enc.Encode(ExportHeader{
		MurmurExport:  true,
		SchemaVersion: ExportSchemaVersion,
		ExportedAt:    now.Unix(),
	}); err != nil {
		return nil, errors.NewInternal(err)
	}

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := enc.Encode(r); err != nil {
			return nil, errors.NewInternal(err)
		}
	}

	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Close before rename (required on Windows)
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink planted at the destination
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("export path must not be a symlink")
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      len(records),
		ExportedAt: now.Unix(),
	}, nil
}

// DefaultExportPath returns <dir>/feedback-<timestamp>.jsonl.
func DefaultExportPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("feedback-%s.jsonl", now.Format("2006-01-02T150405")))
}
