package queue

import (
	"fmt"
	"os"
	"path/filepath"

	"pdfsuite/internal/models"
)

// FileInfo represents a discovered input file
type FileInfo struct {
	Path string
	Size int64
	Kind models.Kind
}

// Discover expands the given paths into convertible files. Directories are walked,
// descending into subdirectories only when recursive is set. Explicit file arguments
// are returned as-is so that unsupported ones are reported by AddPaths.
func Discover(paths []string, recursive bool) ([]FileInfo, error) {
	var files []FileInfo

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}
		if !info.IsDir() {
			kind, _ := models.KindForPath(root)
			files = append(files, FileInfo{Path: root, Size: info.Size(), Kind: kind})
			continue
		}

		walkFn := func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if info.IsDir() {
				if !recursive && path != root {
					return filepath.SkipDir
				}
				return nil
			}

			// Only supported inputs are picked up from directories
			if kind, err := models.KindForPath(path); err == nil {
				files = append(files, FileInfo{Path: path, Size: info.Size(), Kind: kind})
			}
			return nil
		}

		if err := filepath.Walk(root, walkFn); err != nil {
			return nil, fmt.Errorf("file discovery failed: %w", err)
		}
	}

	return files, nil
}

// TotalSize sums the sizes of files
func TotalSize(files []FileInfo) int64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total
}

// Paths returns the paths of files in order
func Paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
