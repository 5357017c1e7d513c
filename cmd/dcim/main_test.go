package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttani03/goth-dcim/internal/apperr"
)

func TestLoadConfig_FlagOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/dcim")
	t.Setenv("LOG_LEVEL", "warn")
	t.Cleanup(func() { configPath, logLevel, jsonOutput = "", "", false })

	logLevel, jsonOutput = "debug", true
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)

	logLevel = "loud"
	_, err = loadConfig()
	assert.True(t, apperr.Is(err, apperr.KindConfig), "%v", err)
}

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("json"))
}

func TestExecute_ConfigErrorPrintedOnce(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/dcim")
	t.Cleanup(func() {
		configPath, logLevel, jsonOutput = "", "", false
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
	})

	var cobraOut, stderr bytes.Buffer
	rootCmd.SetErr(&cobraOut)
	rootCmd.SetArgs([]string{"migrate", "--log-level", "loud"})

	code := report(rootCmd.Execute(), &stderr)
	assert.Equal(t, 2, code)
	assert.Empty(t, cobraOut.String())
	assert.Equal(t, 1, strings.Count(stderr.String(), "loud"), stderr.String())
	assert.True(t, strings.HasPrefix(stderr.String(), "configuration error:"))
}

func TestReport(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 0, report(nil, &stderr))
	assert.Empty(t, stderr.String())

	assert.Equal(t, 1, report(errors.New("connection refused"), &stderr))
	assert.Equal(t, "Error: connection refused\n", stderr.String())
}
