package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "predict", "retrain", "metrics", "import", "export", "rules"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "wastewise", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)

	flag = serveCmd.Flags().Lookup("sample-data")
	require.NotNil(t, flag)
	assert.Equal(t, "true", flag.DefValue)
}

func TestImportCommand_RequiresFile(t *testing.T) {
	flag := importCmd.Flags().Lookup("file")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}

func TestExportCommand_Flags(t *testing.T) {
	days := exportCmd.Flags().Lookup("days")
	require.NotNil(t, days)
	assert.Equal(t, "7", days.DefValue)

	format := exportCmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "json", format.DefValue)
}

func TestOutputFlags(t *testing.T) {
	for _, name := range []string{"predict", "retrain", "metrics", "import", "rules"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, cmd.Flags().ShorthandLookup("o"), "%s should have -o", name)
	}
}

func TestRootCommand_PersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "log-level"} {
		flag := rootCmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, "root should have --%s", name)
		assert.Empty(t, flag.DefValue)
	}
	assert.NotEmpty(t, rootCmd.Version)
}

func TestRootCommand_ConfigAndLogLevelFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wastewise.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  database_url: flagged.db\nlog:\n  level: error\n"), 0o644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"--config", path, "--log-level", "debug", "rules", "-o", "json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		configFile, logLevel = "", ""
	})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "flagged.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level, "--log-level overrides the file")
	assert.Contains(t, buf.String(), `"rules"`)
}

func TestRootCommand_MissingConfigFile(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "rules"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		configFile = ""
	})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}
