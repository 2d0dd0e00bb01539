package loader

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleText = "FileType=text/acmi/tacview\nFileVersion=2.2\n#0\n"

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		e, err := w.Create(name)
		require.NoError(t, err)
		_, err = e.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestLoad_PlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.txt.acmi")
	require.NoError(t, os.WriteFile(path, []byte(sampleText), 0644))

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleText, text)
}

func TestLoad_StripsByteOrderMark(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.txt.acmi")
	require.NoError(t, os.WriteFile(path, append([]byte{0xEF, 0xBB, 0xBF}, sampleText...), 0644))

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleText, text)
}

func TestLoad_ZipContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.zip.acmi")
	writeZip(t, path, map[string]string{"flight.txt.acmi": sampleText})

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleText, text)
}

func TestLoad_ZipContainerPrefersAcmiEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.zip.acmi")
	writeZip(t, path, map[string]string{
		"readme.md":       "notes",
		"flight.txt.acmi": sampleText,
	})

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleText, text)
}

func TestLoad_ZipContainerWithBOMEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.zip.acmi")
	writeZip(t, path, map[string]string{"flight.txt.acmi": "\xEF\xBB\xBF" + sampleText})

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleText, text)
}

func TestLoad_EmptyContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.zip.acmi")
	writeZip(t, path, map[string]string{})

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no file entries")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.acmi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read recording")
}

func TestRecordingName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/data/sortie_12.txt.acmi", "sortie_12"},
		{"/data/sortie_12.zip.acmi", "sortie_12"},
		{"flight.acmi", "flight"},
		{"flight", "flight"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RecordingName(tt.path), tt.path)
	}
}
