package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"clip", "catalog", "inspect", "sample"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "terraclip", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestClipCommand_RequiredFlags(t *testing.T) {
	rasterFlag := clipCmd.Flags().Lookup("raster")
	require.NotNil(t, rasterFlag, "clip command should have --raster flag")

	aoiFlag := clipCmd.Flags().Lookup("aoi")
	require.NotNil(t, aoiFlag, "clip command should have --aoi flag")
}

func TestCatalogCommand_HasSubcommands(t *testing.T) {
	cmds := catalogCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"load", "list", "add"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestCatalogAddCommand_Flags(t *testing.T) {
	flag := catalogAddCmd.Flags().Lookup("proj4")
	require.NotNil(t, flag, "catalog add should have --proj4 flag")
	assert.Equal(t, "", flag.DefValue)
}
