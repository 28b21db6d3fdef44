package source

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func readAll(t *testing.T, r io.Reader) string {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(b)
}

func TestDecode(t *testing.T) {
	const text = "exec('hi')\n"

	utf16le, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(text)
	require.NoError(t, err)
	utf16be, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder().String(text)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   string
	}{
		{"plain", text},
		{"utf8 bom", "\xef\xbb\xbf" + text},
		{"utf16le bom", utf16le},
		{"utf16be bom", utf16be},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, text, readAll(t, Decode(strings.NewReader(tt.in))))
		})
	}
}

func TestDecode_InvalidUTF8Untouched(t *testing.T) {
	const in = "x = '\xc3\x28'\nexec(x)\n"
	got := readAll(t, Decode(strings.NewReader(in)))
	assert.Equal(t, in, got)
	assert.NotContains(t, got, "\uFFFD")
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.py")
	require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbfprint(1)"), 0644))

	in, err := Open(path, nil)
	require.NoError(t, err)
	defer in.Close()

	assert.Equal(t, path, in.Name)
	assert.Equal(t, "print(1)", readAll(t, in))
}

func TestOpen_Stdin(t *testing.T) {
	in, err := Open("-", bytes.NewBufferString("print(2)"))
	require.NoError(t, err)
	assert.Equal(t, "<stdin>", in.Name)
	assert.Equal(t, "print(2)", readAll(t, in))
	assert.NoError(t, in.Close())
}

func TestOpen_InvalidPath(t *testing.T) {
	dir := t.TempDir()
	for _, path := range []string{filepath.Join(dir, "missing.py"), dir} {
		_, err := Open(path, nil)
		require.ErrorIs(t, err, ErrInvalidPath, path)
		assert.EqualError(t, err, path+" is not a valid path.")
	}
}
