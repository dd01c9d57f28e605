package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Version:    "+Version)
}

func TestSubcommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "seed", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}

	down, _, err := rootCmd.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	assert.NotNil(t, down.Flags().Lookup("steps"))
}

func TestLoadConfigAppliesLogFlags(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")
	logLevel, logFormat = "debug", "text"
	t.Cleanup(func() { logLevel, logFormat = "", "" })

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, strings.EqualFold(cfg.Logging.Format, "text"))
}

func TestDemoDataIsConsistent(t *testing.T) {
	for _, a := range demoAccounts {
		assert.GreaterOrEqual(t, len(a.password), 8, "%s password below the sign-up minimum", a.email)
	}
	for _, e := range demoEvents {
		assert.Less(t, e.category, len(demoCategories), e.title)
		assert.Greater(t, e.capacity, 0, e.title)
		assert.True(t, e.length > 0, e.title)
	}
}
