//go:build integration

package integration_test

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// setupTestEnv sandboxes the config home so a developer's own settings
// never leak into a run.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("VIPYR_DEOBF_HOME", home)
	t.Setenv("VIPYR_DEOBF_NO_UPDATE_CHECK", "1")
	return home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755), "creating dir for %s", path)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "writing %s", path)
}

// lzmaLayer wraps src the way lzmaspam does, once.
func lzmaLayer(t *testing.T, src string) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write([]byte(src))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return "import lzma, base64\nexec(lzma.decompress(base64.b64decode('" +
		base64.StdEncoding.EncodeToString(buf.Bytes()) + "')))\n"
}

// hyperionPack splits src into zlib chunks behind an aliased exec.
func hyperionPack(t *testing.T, chunks ...string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("import zlib\n_0x1 = exec\n")
	for _, c := range chunks {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		_, err := w.Write([]byte(c))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		b.WriteString("_0x1(zlib.decompress(b'")
		for _, by := range buf.Bytes() {
			fmt.Fprintf(&b, `\x%02x`, by)
		}
		b.WriteString("'))\n")
	}
	return b.String()
}

// voreLayer hides src behind hex and base64 transforms.
func voreLayer(src string) string {
	inner := fmt.Sprintf("exec(bytes.fromhex('%s').decode())", hex.EncodeToString([]byte(src)))
	return fmt.Sprintf("import base64\nexec(base64.b64decode('%s'))\n",
		base64.StdEncoding.EncodeToString([]byte(inner)))
}
