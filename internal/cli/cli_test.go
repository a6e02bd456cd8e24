package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlab/emberc/internal/app"
)

func TestParseCompile(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{
		"compile", "-options", "opts.hcl", "-o", "model.h", "-log-level", "debug", "net.emb",
	}, out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, app.CommandCompile, cfg.Command)
	assert.Equal(t, "net.emb", cfg.ModelPath)
	assert.Equal(t, "opts.hcl", cfg.OptionsPath)
	assert.Equal(t, "model.h", cfg.OutputPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestParseDescribeNeedsNoOutput(t *testing.T) {
	cfg, exit, err := Parse([]string{"describe", "net.emb"}, &bytes.Buffer{})
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, app.CommandDescribe, cfg.Command)
}

func TestParseHelp(t *testing.T) {
	out := &bytes.Buffer{}
	_, exit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Contains(t, out.String(), "Usage:")

	out.Reset()
	_, exit, err = Parse([]string{"help"}, out)
	require.NoError(t, err)
	assert.True(t, exit)
}

func TestParseErrors(t *testing.T) {
	var exitErr *ExitError

	_, _, err := Parse([]string{"unknown"}, &bytes.Buffer{})
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)

	_, _, err = Parse([]string{"refine", "-o", "out.emb"}, &bytes.Buffer{})
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, err.Error(), "model path")

	_, _, err = Parse([]string{"refine", "net.emb"}, &bytes.Buffer{})
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, err.Error(), "output path")

	_, _, err = Parse([]string{"describe", "-log-format", "yaml", "net.emb"}, &bytes.Buffer{})
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, err.Error(), "log-format")

	_, _, err = Parse([]string{"describe", "-log-level", "loud", "net.emb"}, &bytes.Buffer{})
	require.ErrorAs(t, err, &exitErr)
	assert.Contains(t, err.Error(), "log-level")
}
