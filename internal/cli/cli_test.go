package cli

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const voreSample = "exec(bytes.fromhex('7072696e74282229').decode())\n"

type result struct {
	stdout string
	stderr string
	err    error
}

// execute runs the command tree in-process against an isolated home dir.
func execute(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	if os.Getenv("VIPYR_DEOBF_HOME") == "" {
		t.Setenv("VIPYR_DEOBF_HOME", t.TempDir())
	}
	t.Setenv("VIPYR_DEOBF_NO_UPDATE_CHECK", "1")
	resetFlags(rootCmd)

	if args == nil {
		// A nil slice makes cobra fall back to os.Args.
		args = []string{}
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	err := run(rootCmd)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.py")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDeobfuscate(t *testing.T) {
	path := writeSample(t, voreSample)

	for _, typ := range []string{"vore", "vare"} {
		t.Run(typ, func(t *testing.T) {
			r := execute(t, nil, "-p", path, "-t", typ)
			require.NoError(t, r.err, "stderr: %s", r.stderr)
			want := "# vore: removed 1 layer(s)\n#   layer 1: bytes.fromhex\nprint(\"\")\n"
			assert.Equal(t, want, r.stdout)
		})
	}
}

func TestDeobfuscate_Stdin(t *testing.T) {
	r := execute(t, strings.NewReader(voreSample), "--path", "-", "--type", "vore")
	require.NoError(t, r.err)
	assert.True(t, strings.HasSuffix(r.stdout, "print(\"\")\n"), "stdout = %q", r.stdout)
}

func TestDeobfuscate_JSONToFile(t *testing.T) {
	path := writeSample(t, voreSample)
	outPath := filepath.Join(t.TempDir(), "out.json")

	r := execute(t, nil, "-p", path, "-t", "vare", "--json", "-o", outPath)
	require.NoError(t, r.err)
	assert.Empty(t, r.stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var got deobfResult
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "vore", got.Scheme)
	assert.Equal(t, "vare", got.Requested)
	assert.Contains(t, got.Output, "print")
}

func TestDeobfuscate_InvalidPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.py")
	r := execute(t, nil, "-p", missing, "-t", "vore")
	require.Error(t, r.err)
	assert.Equal(t, missing+" is not a valid path.\n", r.stderr)
}

func TestDeobfuscate_InvalidScheme(t *testing.T) {
	path := writeSample(t, voreSample)
	r := execute(t, nil, "-p", path, "-t", "unknown_scheme")
	require.Error(t, r.err)
	want := `invalid deobfuscation type "unknown_scheme", valid types are: hyperion, lzmaspam, vore`
	assert.Equal(t, want, strings.TrimSpace(r.stderr))
}

func TestDeobfuscate_FailureShowsTrace(t *testing.T) {
	path := writeSample(t, "exec(bytes.fromhex('zz'))\n")
	r := execute(t, nil, "-p", path, "-t", "vore", "--no-color")
	require.Error(t, r.err)
	assert.True(t, strings.HasPrefix(r.stderr, path+": deobfuscation failed for vore during decode: "),
		"stderr = %q", r.stderr)
	assert.Contains(t, r.stderr, "\n*scheme.DeobfuscationFailError: deobfuscation failed")
	assert.Empty(t, r.stdout)
}

func TestDeobfuscate_InvalidUTF8(t *testing.T) {
	path := writeSample(t, "x = '\xc3\x28'\n"+voreSample)
	r := execute(t, nil, "-p", path, "-t", "vore", "--no-color")
	require.Error(t, r.err)
	assert.True(t, strings.HasPrefix(r.stderr, path+": deobfuscation failed for vore during decode: "),
		"stderr = %q", r.stderr)
	assert.Contains(t, r.stderr, "not valid UTF-8")
	assert.Empty(t, r.stdout)
}

func TestDeobfuscate_DefaultTypeFromConfig(t *testing.T) {
	t.Setenv("VIPYR_DEOBF_DEFAULT_TYPE", "vore")
	path := writeSample(t, voreSample)
	r := execute(t, nil, "-p", path)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "# vore:")
}

func TestDeobfuscate_MissingType(t *testing.T) {
	path := writeSample(t, voreSample)
	r := execute(t, nil, "-p", path)
	require.Error(t, r.err)
	assert.Contains(t, r.err.Error(), "valid types are: hyperion, lzmaspam, vore")
}

func TestRoot_NoFlagsShowsHelp(t *testing.T) {
	r := execute(t, nil)
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "schemes", "help output missing subcommands")
}

func TestSchemes(t *testing.T) {
	r := execute(t, nil, "schemes")
	require.NoError(t, r.err)
	for _, want := range []string{"SCHEME", "hyperion", "hyperd", "lzmaspam", "vore", "vare"} {
		assert.Contains(t, r.stdout, want)
	}
}

func TestSchemes_JSONWithConfigAlias(t *testing.T) {
	home := t.TempDir()
	t.Setenv("VIPYR_DEOBF_HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte("aliases:\n  lz: lzmaspam\n"), 0644))

	r := execute(t, nil, "list", "--json")
	require.NoError(t, r.err)
	var entries []schemeEntry
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &entries), "stdout = %q", r.stdout)

	want := map[string][]string{
		"hyperion": {"hyperd"},
		"lzmaspam": {"lz"},
		"vore":     {"vare"},
	}
	require.Len(t, entries, len(want))
	for _, e := range entries {
		assert.Equal(t, want[e.Name], e.Aliases, e.Name)
	}
}

func TestConfig_SetGetValidate(t *testing.T) {
	t.Setenv("VIPYR_DEOBF_HOME", t.TempDir())

	r := execute(t, nil, "config", "set", "default_type", "hyperion")
	require.NoError(t, r.err)

	r = execute(t, nil, "config", "get", "default_type")
	require.NoError(t, r.err)
	assert.Equal(t, "hyperion", strings.TrimSpace(r.stdout))

	r = execute(t, nil, "config", "validate")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "is valid")

	r = execute(t, nil, "config", "get", "bogus")
	assert.Error(t, r.err, "expected unknown key error")
}

func TestConfig_ValidateReportsIssues(t *testing.T) {
	path := writeSample(t, "log:\n  level: loud\naliases:\n  lz: nothing\n")

	r := execute(t, nil, "config", "validate", path)
	require.Error(t, r.err)
	assert.Contains(t, r.stdout, "/log/level")

	path = writeSample(t, "aliases:\n  lz: nothing\n")
	r = execute(t, nil, "config", "validate", path)
	require.Error(t, r.err)
	assert.Contains(t, r.stdout, `unknown scheme "nothing"`)
}

func TestConfig_ValidateMissingFile(t *testing.T) {
	r := execute(t, nil, "config", "validate")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "defaults in use")
}

func TestVersion(t *testing.T) {
	buildVersion, buildCommit, buildDate = "1.2.3", "abc123", "2026-01-01"
	t.Cleanup(func() { buildVersion, buildCommit, buildDate = "", "", "" })

	r := execute(t, nil, "version", "--short")
	require.NoError(t, r.err)
	assert.Equal(t, "1.2.3\n", r.stdout)

	r = execute(t, nil, "version", "--json")
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &info))
	assert.Equal(t, "abc123", info["commit"])
}

func TestUpdate_DevBuild(t *testing.T) {
	buildVersion = "dev"
	t.Cleanup(func() { buildVersion = "" })

	r := execute(t, nil, "update", "--check")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "development build")
}

func TestPresentError_Unclassified(t *testing.T) {
	var buf bytes.Buffer
	presentError(&buf, hex.ErrLength, true)
	assert.Equal(t, "Error: "+hex.ErrLength.Error()+"\n", buf.String())
}
