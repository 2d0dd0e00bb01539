// Package loader reads ACMI recordings from disk. Recordings ship either as
// plain text (.txt.acmi) or as a zip container (.zip.acmi) holding a single
// text entry; both are detected by content, not extension.
package loader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
	utf8BOM  = []byte{0xEF, 0xBB, 0xBF}
)

// RecordingName derives a recording's index name from its file name,
// stripping the stacked extensions Tacview uses (.txt.acmi, .zip.acmi).
func RecordingName(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".acmi", ".txt", ".zip"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// Load returns the text content of the recording at path, unwrapping a zip
// container and stripping a UTF-8 byte order mark when present.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read recording: %w", err)
	}

	if bytes.HasPrefix(data, zipMagic) {
		data, err = unwrapZip(data)
		if err != nil {
			return "", fmt.Errorf("failed to unwrap container %s: %w", path, err)
		}
	}

	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}

// unwrapZip extracts the recording entry from a zip container. The first
// entry named *.acmi or *.txt wins; failing that, the first file entry.
func unwrapZip(data []byte) ([]byte, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	entry := pickEntry(r.File)
	if entry == nil {
		return nil, fmt.Errorf("container holds no file entries")
	}

	f, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func pickEntry(files []*zip.File) *zip.File {
	var fallback *zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		name := strings.ToLower(f.Name)
		if strings.HasSuffix(name, ".acmi") || strings.HasSuffix(name, ".txt") {
			return f
		}
		if fallback == nil {
			fallback = f
		}
	}
	return fallback
}
