package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codeberg.org/miketth/mimicd/pkg/config"
	"codeberg.org/miketth/mimicd/pkg/mimic"
)

func parseFlags(t *testing.T, args ...string) (fs *flag.FlagSet, window *uint, class *string, pid *uint, name *string, layoutIdx *int, all *bool, evdevXMLPath *string, debug *bool) {
	t.Helper()
	fs = flag.NewFlagSet("mimicd", flag.ContinueOnError)
	window = fs.Uint("window", 0, "")
	class = fs.String("class", "", "")
	pid = fs.Uint("pid", 0, "")
	name = fs.String("name", "", "")
	layoutIdx = fs.Int("layout", 1, "")
	all = fs.Bool("all", false, "")
	evdevXMLPath = fs.String("evdev-xml-path", "/usr/share/X11/xkb/rules/evdev.xml", "")
	debug = fs.Bool("debug", false, "")
	require.NoError(t, fs.Parse(args))
	return
}

func TestApplyConfigFlagsBeatFile(t *testing.T) {
	fs, window, class, pid, name, layoutIdx, all, evdevXMLPath, debug :=
		parseFlags(t, "-class", "emacs.Emacs", "-layout", "2")

	fileLayout := 1
	cfg := &config.Config{
		Class:        "discord.discord",
		Layout:       &fileLayout,
		All:          true,
		Debug:        true,
		EvdevXMLPath: "/tmp/evdev.xml",
	}

	applyConfig(cfg, fs, window, class, pid, name, layoutIdx, all, evdevXMLPath, debug)

	// explicitly set flags win over the file
	assert.Equal(t, "emacs.Emacs", *class)
	assert.Equal(t, 2, *layoutIdx)

	// flags left unset take the file values
	assert.True(t, *all)
	assert.True(t, *debug)
	assert.Equal(t, "/tmp/evdev.xml", *evdevXMLPath)

	// silent in both places: the flag default survives
	assert.Equal(t, uint(0), *window)
	assert.Equal(t, uint(0), *pid)
	assert.Equal(t, "", *name)
}

func TestApplyConfigEmptyFileKeepsDefaults(t *testing.T) {
	fs, window, class, pid, name, layoutIdx, all, evdevXMLPath, debug := parseFlags(t)

	applyConfig(&config.Config{}, fs, window, class, pid, name, layoutIdx, all, evdevXMLPath, debug)

	assert.Equal(t, uint(0), *window)
	assert.Equal(t, "", *class)
	assert.Equal(t, 1, *layoutIdx)
	assert.False(t, *all)
	assert.Equal(t, "/usr/share/X11/xkb/rules/evdev.xml", *evdevXMLPath)
	assert.False(t, *debug)
}

func TestApplyConfigExplicitFlagAtDefaultValueWins(t *testing.T) {
	// -layout 1 spelled out is the same as the default, but it was given, so
	// the file must not override it
	fs, window, class, pid, name, layoutIdx, all, evdevXMLPath, debug :=
		parseFlags(t, "-layout", "1", "-class", "x")

	fileLayout := 3
	cfg := &config.Config{Layout: &fileLayout}

	applyConfig(cfg, fs, window, class, pid, name, layoutIdx, all, evdevXMLPath, debug)

	assert.Equal(t, 1, *layoutIdx)
}

func TestBuildSelector(t *testing.T) {
	log := zap.NewNop().Sugar()

	sel, err := buildSelector(123456, "", 0, "", false, log)
	require.NoError(t, err)
	assert.Equal(t, mimic.ByID(123456), sel)

	sel, err = buildSelector(0, "discord.discord", 0, "", true, log)
	require.NoError(t, err)
	assert.Equal(t, mimic.ByClass("discord.discord", true), sel)

	_, err = buildSelector(0, "", 0, "", false, log)
	require.Error(t, err, "a selector is required")

	_, err = buildSelector(1, "discord.discord", 0, "", false, log)
	require.Error(t, err, "selectors are mutually exclusive")
}
