package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/src-d/enry/v2"
)

var (
	// ErrDirectoryPath indicates a file operation was attempted on a directory.
	ErrDirectoryPath = errors.New("path points to a directory")
	// ErrEmptyPath indicates a path argument was empty.
	ErrEmptyPath = errors.New("path is empty")
	// ErrPathContainsNUL indicates the path contains a NUL byte.
	ErrPathContainsNUL = errors.New("path contains NUL byte")
	// ErrFileTooLarge indicates a file above input.max_file_size.
	ErrFileTooLarge = errors.New("file too large")
	// ErrBinaryFile indicates content that has no syntax to compare.
	ErrBinaryFile = errors.New("binary file")
)

// Source is one document to diff. Label names it in output and error
// messages and, for files, is also used to pick the grammar.
type Source struct {
	Label   string
	Content []byte
}

// ReadSource reads a user supplied path. maxSize of zero disables the size limit.
func ReadSource(path string, maxSize uint64) (Source, error) {
	resolved, info, err := resolveUserFilePath(path)
	if err != nil {
		return Source{}, fmt.Errorf("resolve path %q: %w", path, err)
	}

	size := uint64(max(info.Size(), 0)) //nolint:gosec // clamped to non-negative
	if maxSize > 0 && size > maxSize {
		return Source{}, fmt.Errorf("%w: %s is %s, limit is %s",
			ErrFileTooLarge, path, humanize.Bytes(size), humanize.Bytes(maxSize))
	}

	//nolint:gosec // resolved is normalized and existence/type checked in resolveUserFilePath.
	content, err := os.ReadFile(resolved)
	if err != nil {
		return Source{}, fmt.Errorf("read %s: %w", path, err)
	}

	if enry.IsBinary(content) {
		return Source{}, fmt.Errorf("%w: %s", ErrBinaryFile, path)
	}

	return Source{Label: path, Content: content}, nil
}

func resolveUserFilePath(path string) (string, os.FileInfo, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil, ErrEmptyPath
	}

	if strings.ContainsRune(path, '\x00') {
		return "", nil, fmt.Errorf("%w: %q", ErrPathContainsNUL, path)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", nil, fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", nil, fmt.Errorf("stat %s: %w", absPath, err)
	}

	if info.IsDir() {
		return "", nil, fmt.Errorf("%w: %s", ErrDirectoryPath, absPath)
	}

	return absPath, info, nil
}
