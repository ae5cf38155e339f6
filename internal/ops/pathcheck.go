package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/murmur/internal/errors"
)

// ValidateExportPath checks a destination for Export:
//  1. no ".." components
//  2. .jsonl extension
//  3. the file sits directly in exportsDir (no subdirectories)
//  4. neither the file nor its parent is a symlink
//
// Rule 3 leaves no intermediate directory to swap for a symlink between the
// check and the open; the final component is opened with O_NOFOLLOW.
func ValidateExportPath(path, exportsDir string) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if exportsDir == "" {
		return errors.NewInvalidRequest("exports directory is required")
	}

	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".jsonl" {
		return errors.NewInvalidRequest("path must have .jsonl extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	absDir, err := filepath.Abs(exportsDir)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid exports directory: %v", err))
	}

	parentDir := filepath.Dir(absPath)
	if parentDir != filepath.Clean(absDir) {
		return errors.NewInvalidRequest(
			fmt.Sprintf("file must be directly in %s (no subdirectories)", absDir))
	}

	if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("exports directory must not be a symlink")
	}
	if info, err := os.Lstat(absPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	return nil
}

// containsTraversal checks if path contains ".." directory traversal.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// Forward slashes are separators in user input on every platform
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
