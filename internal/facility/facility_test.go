package facility

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDirectory() *Directory {
	return NewDirectory([]Facility{
		{Name: "Newark DC", Zip: "07102"},
		{Name: "Columbus DC", Zip: "43004"},
		{Name: "Reno DC", Zip: "89502"},
	})
}

func TestNearestPicksClosestZip(t *testing.T) {
	loc := NewLocator(testDirectory(), nil)

	f, err := loc.Nearest("10001") // Manhattan: Newark wins over Columbus and Reno
	require.NoError(t, err)
	assert.Equal(t, "Newark DC", f.Name)

	f, err = loc.Nearest("90210")
	require.NoError(t, err)
	assert.Equal(t, "Reno DC", f.Name)
}

func TestNearestEmptyDirectory(t *testing.T) {
	loc := NewLocator(NewDirectory(nil), nil)
	_, err := loc.Nearest("10001")
	assert.ErrorIs(t, err, ErrNoFacilityConfigured)
}

func TestNearestTieGoesToEarlierEntry(t *testing.T) {
	dir := NewDirectory([]Facility{
		{Name: "East", Zip: "10000"},
		{Name: "West", Zip: "10010"},
	})
	// 10005 is equidistant from both entries.
	loc := NewLocator(dir, nil)
	f, err := loc.Nearest("10005")
	require.NoError(t, err)
	assert.Equal(t, "East", f.Name)
}

func TestNearestCustomDistanceFunc(t *testing.T) {
	// Inverting the heuristic flips the winner away from Newark.
	reversed := func(a, b string) float64 { return -ZipDistance(a, b) }
	loc := NewLocator(testDirectory(), reversed)
	f, err := loc.Nearest("07103")
	require.NoError(t, err)
	assert.NotEqual(t, "Newark DC", f.Name)
}

func TestZipDistanceCap(t *testing.T) {
	assert.Equal(t, float64(maxZipDistance), ZipDistance("00501", "99950"))
	assert.Equal(t, 1.0, ZipDistance("07102", "07103"))
	assert.Equal(t, ZipDistance("07102", "10001"), ZipDistance("10001", "07102"))
}

func TestReloadFromKeepsPreviousOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facilities.yaml")
	good := "facilities:\n  - name: Newark DC\n    zip: \"07102\"\n"
	require.NoError(t, os.WriteFile(path, []byte(good), 0o644))

	dir, err := LoadDirectory(path)
	require.NoError(t, err)
	require.Equal(t, 1, dir.Len())

	bad := "facilities:\n  - name: Broken\n    zip: \"0710\"\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0o644))
	assert.Error(t, dir.ReloadFrom(path))
	assert.Equal(t, 1, dir.Len())
	assert.Equal(t, "Newark DC", dir.Facilities()[0].Name)
}

func TestLoadDirectoryValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facilities.yaml")
	require.NoError(t, os.WriteFile(path, []byte("facilities:\n  - zip: \"07102\"\n"), 0o644))
	_, err := LoadDirectory(path)
	assert.ErrorContains(t, err, "has no name")
}
