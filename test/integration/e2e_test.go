//go:build integration

package integration_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vipyr-labs/deobf/internal/scheme"
	"github.com/vipyr-labs/deobf/internal/schemes"
	"github.com/vipyr-labs/deobf/internal/source"
)

const payload = "import os\nprint(os.getenv('HOME'))"

func runFile(t *testing.T, path, requested string) (string, error) {
	t.Helper()
	in, err := source.Open(path, nil)
	require.NoError(t, err, "Open(%s)", path)
	defer in.Close()
	return scheme.NewDispatcher(schemes.Default()).Run(in, requested)
}

// TestAllSchemesFromDisk runs each built-in scheme over a sample written to
// disk and checks the payload is recovered.
func TestAllSchemesFromDisk(t *testing.T) {
	home := setupTestEnv(t)

	samples := map[string]string{
		"lzmaspam": lzmaLayer(t, lzmaLayer(t, payload)),
		"hyperion": hyperionPack(t, "import os", "print(os.getenv('HOME'))"),
		"vore":     voreLayer(voreLayer(payload)),
	}
	for name, content := range samples {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(home, "samples", name+".py")
			writeFile(t, path, content)

			out, err := runFile(t, path, name)
			require.NoError(t, err, "Run(%s)", name)
			assert.Regexp(t, `^# `+name+`:`, out)
			assert.Contains(t, out, "print(os.getenv('HOME'))")
		})
	}
}

// TestWrongSchemeFails feeds each sample to a scheme that cannot decode it.
func TestWrongSchemeFails(t *testing.T) {
	home := setupTestEnv(t)
	path := filepath.Join(home, "vore.py")
	writeFile(t, path, voreLayer(payload))

	_, err := runFile(t, path, "lzmaspam")
	var failed *scheme.DeobfuscationFailError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "lzmaspam", failed.Scheme)
	assert.Equal(t, scheme.StageDecode, failed.Stage)
	assert.Equal(t, scheme.KindDeobfuscationFail, scheme.Classify(err))
}

// TestCorruptInnerLayerFails checks that a layer which fails to decompress
// below good layers is reported rather than returned as the result.
func TestCorruptInnerLayerFails(t *testing.T) {
	home := setupTestEnv(t)
	path := filepath.Join(home, "corrupt.py")
	corrupt := "import lzma, base64\nexec(lzma.decompress(base64.b64decode('/Td6WFoAZ2FyYmFnZQ==')))\n"
	writeFile(t, path, lzmaLayer(t, corrupt))

	_, err := runFile(t, path, "lzmaspam")
	var failed *scheme.DeobfuscationFailError
	require.ErrorAs(t, err, &failed)
	assert.Contains(t, failed.Error(), "lzma.decompress")
}

func TestAliasesMatchCanonical(t *testing.T) {
	home := setupTestEnv(t)
	path := filepath.Join(home, "hyperion.py")
	writeFile(t, path, hyperionPack(t, payload))

	viaName, err := runFile(t, path, "hyperion")
	require.NoError(t, err)
	viaAlias, err := runFile(t, path, "hyperd")
	require.NoError(t, err)
	assert.Equal(t, viaName, viaAlias)
}
