package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devports/hlaunch/pkg/models"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	valid := []string{"lighting", "FX v2", "look-dev_2024"}
	for _, n := range valid {
		assert.NoError(t, validateName("preset", n), n)
	}

	invalid := []string{"", "  ", " padded", "..", "a/b", `a\b`, "what?", "x|y"}
	for _, n := range invalid {
		assert.Error(t, validateName("preset", n), n)
	}
}

func TestFirstBlockedNameChar(t *testing.T) {
	t.Parallel()

	c, ok := firstBlockedNameChar("shots/010")
	assert.True(t, ok)
	assert.Equal(t, "/", c)

	c, ok = firstBlockedNameChar("shots_010")
	assert.False(t, ok)
	assert.Empty(t, c)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Parallel()

	pairs, err := parseEnvOverrides([]string{"JOB=/shows/abc", "OCIO=a=b", "EMPTY="})
	require.NoError(t, err)
	assert.Equal(t, []models.EnvPair{
		{Key: "JOB", Value: "/shows/abc"},
		{Key: "OCIO", Value: "a=b"},
		{Key: "EMPTY", Value: ""},
	}, pairs)

	for _, bad := range []string{"NOVALUE", "=x", "MY KEY=1"} {
		_, err := parseEnvOverrides([]string{bad})
		assert.Error(t, err, bad)
	}
}
