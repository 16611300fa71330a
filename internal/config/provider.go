package config

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/banshee-data/openfield.report/internal/fsutil"
)

// fsProvider is a koanf.Provider that reads a settings or project file
// through an fsutil.FileSystem.
type fsProvider struct {
	fsys fsutil.FileSystem
	path string
}

func (p fsProvider) ReadBytes() ([]byte, error) {
	f, err := p.fsys.Open(p.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxFileSize+1))
}

func (p fsProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("fs provider does not support this method")
}

// checkFile validates extension and size of a settings or project file.
func checkFile(fsys fsutil.FileSystem, path string, exts ...string) (string, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	ok := false
	for _, e := range exts {
		if ext == e {
			ok = true
			break
		}
	}
	if !ok {
		return "", fmt.Errorf("config file must have one of %v extensions, got %q", exts, ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.IsDir() {
		return "", fmt.Errorf("config file %s is a directory", cleanPath)
	}
	if fileInfo.Size() > maxFileSize {
		return "", fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}
	return cleanPath, nil
}
