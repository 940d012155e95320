package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/custodia-labs/atlas-core/internal/config"
	"github.com/custodia-labs/atlas-core/internal/core/domain"
)

func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestClassifyCommand(t *testing.T) {
	out := execute(t, classifyCMD(), "", "show", "me", "hillforts", "in", "Wales")

	var result domain.ClassificationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, domain.IntentDatabase, result.Intent)
}

func TestParseCommand(t *testing.T) {
	out := execute(t, parseCMD(), "", "temples in Egypt")

	var intent domain.QueryIntent
	require.NoError(t, json.Unmarshal([]byte(out), &intent))
	assert.Equal(t, "temples in Egypt", intent.RawQuery)
	assert.Contains(t, intent.SiteTypes, "temple")
}

func TestHashCodeCommand(t *testing.T) {
	t.Run("argument", func(t *testing.T) {
		out := execute(t, hashCodeCMD(), "", "--cost", "4", "open-sesame")
		hash := strings.TrimSpace(out)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("open-sesame")))
	})

	t.Run("stdin", func(t *testing.T) {
		out := execute(t, hashCodeCMD(), "  from-stdin \n", "--cost", "4")
		hash := strings.TrimSpace(out)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("from-stdin")))
	})

	t.Run("empty", func(t *testing.T) {
		cmd := hashCodeCMD()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetIn(strings.NewReader("\n"))
		cmd.SetArgs([]string{})
		assert.Error(t, cmd.Execute())
	})
}

func TestVersionCommand(t *testing.T) {
	out := execute(t, versionCMD(), "")
	assert.Equal(t, version+"\n", out)
}

func TestNewLogger(t *testing.T) {
	logger := newLogger(config.LogConfig{Level: "debug", Format: "text"})
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	logger = newLogger(config.LogConfig{Level: "warn", Format: "json"})
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}
