package main

import (
	"path/filepath"
	"testing"

	"github.com/mdraid5/raid5vol/internal/blockfile"
	"github.com/mdraid5/raid5vol/internal/raid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDevices(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, parseDevices("a, b ,c"))
	assert.Equal(t, []string{}, parseDevices(""))
	assert.Equal(t, []string{"only"}, parseDevices("only"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("not-a-level"))
}

func TestEnvOrDefault(t *testing.T) {
	t.Setenv("RAID5CTL_TEST_KEY", "  value  ")
	assert.Equal(t, "value", envOrDefault("RAID5CTL_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", envOrDefault("RAID5CTL_TEST_UNSET", "fallback"))
}

func TestEnvIntOrDefault(t *testing.T) {
	t.Setenv("RAID5CTL_TEST_INT", "4096")
	assert.Equal(t, 4096, envIntOrDefault("RAID5CTL_TEST_INT", 0))
	assert.Equal(t, 7, envIntOrDefault("RAID5CTL_TEST_INT_UNSET", 7))

	t.Setenv("RAID5CTL_TEST_INT_BAD", "not-a-number")
	assert.Equal(t, 7, envIntOrDefault("RAID5CTL_TEST_INT_BAD", 7))
}

func TestOpenExistingAssemblesCreatedArray(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "d0"),
		filepath.Join(dir, "d1"),
		filepath.Join(dir, "d2"),
	}

	set, err := blockfile.Create(paths, raid.MinSectors)
	require.NoError(t, err)
	desc := raid.Descriptor{Devices: len(paths), Sectors: raid.MinSectors, Dev: set}
	require.True(t, raid.Create(desc))
	require.NoError(t, set.Close())

	v, opened, status, err := openExisting(paths, raid.MinSectors)
	require.NoError(t, err)
	defer opened.Close()

	assert.Equal(t, raid.OK, status)
	assert.Equal(t, (len(paths)-1)*(raid.MinSectors-2), v.Size())
}

func TestOpenExistingFailsOnMissingDevice(t *testing.T) {
	dir := t.TempDir()
	_, _, _, err := openExisting([]string{filepath.Join(dir, "nope")}, raid.MinSectors)
	require.Error(t, err)
}

func TestReadOnStoppedVolumeReportsLastError(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "d0"),
		filepath.Join(dir, "d1"),
		filepath.Join(dir, "d2"),
	}

	set, err := blockfile.Create(paths, raid.MinSectors)
	require.NoError(t, err)
	desc := raid.Descriptor{Devices: len(paths), Sectors: raid.MinSectors, Dev: set}
	require.True(t, raid.Create(desc))
	require.NoError(t, set.Close())

	v, opened, _, err := openExisting(paths, raid.MinSectors)
	require.NoError(t, err)
	defer opened.Close()

	v.Stop()

	buf := make([]byte, raid.SectorSize)
	assert.False(t, v.Read(0, buf, 1))
	require.Error(t, v.LastError())
}

func TestDevicePathsRequiresAtLeastOne(t *testing.T) {
	devicesFlag = ""
	_, err := devicePaths()
	require.Error(t, err)

	devicesFlag = "a,b,c"
	defer func() { devicesFlag = "" }()
	got, err := devicePaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func init() {
	// openExisting and friends log through the package-level `log`
	// var, which is only populated by the root command's
	// PersistentPreRunE in a real invocation; tests call the helpers
	// directly, so seed it with a disabled logger.
	log = zerolog.Nop()
}
