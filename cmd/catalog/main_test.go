package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/movie-catalog/internal/store"
)

var catalogEnv = []string{
	"CATALOG_CONFIG", "MOVIES_FILE", "PORT", "AUTH_TOKEN", "LOG_LEVEL",
	"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT",
	"WATCH_FILE", "WATCH_DEBOUNCE_MS",
}

func testCatalog(t *testing.T) string {
	t.Helper()
	for _, key := range catalogEnv {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")
	return filepath.Join(t.TempDir(), "movies.csv")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func addAlien(t *testing.T, path string) {
	t.Helper()
	_, err := execute(t, "", "-f", path, "add",
		"--title", "Alien", "--year", "1979", "--director", "Ridley Scott",
		"--rating", "8.5", "--runtime", "117", "--votes", "250000")
	require.NoError(t, err)
}

func TestAddThenList(t *testing.T) {
	path := testCatalog(t)
	addAlien(t, path)

	out, err := execute(t, "", "--file", path, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Alien")
	assert.Contains(t, out, "Ridley Scott")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "title,year,director,rating,runtimeMinutes,votes,watched\nAlien,1979,Ridley Scott,8.5,117,250000,false\n", string(data))
}

func TestAddRequiresFields(t *testing.T) {
	path := testCatalog(t)
	_, err := execute(t, "", "-f", path, "add", "--title", "Alien")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestAddRejectsInvalidMovie(t *testing.T) {
	path := testCatalog(t)
	_, err := execute(t, "", "-f", path, "add",
		"--title", "Alien", "--year", "1700", "--director", "Ridley Scott",
		"--rating", "8.5", "--runtime", "117")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid movie")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing should be saved")
}

func TestEditKeepsUnsetFields(t *testing.T) {
	path := testCatalog(t)
	addAlien(t, path)

	out, err := execute(t, "", "-f", path, "edit", "1", "--rating", "9.1", "--watched")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated #1")

	movies := store.New(path, store.Options{}).All()
	require.Len(t, movies, 1)
	assert.Equal(t, "Alien", movies[0].Title)
	assert.Equal(t, 117, movies[0].RuntimeMinutes)
	assert.InDelta(t, 9.1, movies[0].Rating, 1e-9)
	assert.True(t, movies[0].Watched)
}

func TestDeleteAndNumberRange(t *testing.T) {
	path := testCatalog(t)
	addAlien(t, path)

	_, err := execute(t, "", "-f", path, "delete", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	_, err = execute(t, "", "-f", path, "delete", "one")
	require.Error(t, err)

	out, err := execute(t, "", "-f", path, "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted movie #1")
	assert.Zero(t, store.New(path, store.Options{}).Len())
}

func TestImportReportsErrors(t *testing.T) {
	path := testCatalog(t)
	src := filepath.Join(t.TempDir(), "import.csv")
	require.NoError(t, os.WriteFile(src, []byte(
		"title,year,director,rating,runtimeMinutes,votes,watched\n"+
			"Halloween,1978,John Carpenter,7.7,91,300000,true\n"+
			"broken line\n"), 0o644))

	out, err := execute(t, "", "-f", path, "import", src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 errors")
	assert.Contains(t, out, "Line 3:")
	assert.Equal(t, 1, store.New(path, store.Options{}).Len())
}

func TestScariness(t *testing.T) {
	path := testCatalog(t)
	addAlien(t, path)

	out, err := execute(t, "", "-f", path, "scariness", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Scariness Score: 9.0 / 10.0")
}

func TestRootRunsShell(t *testing.T) {
	path := testCatalog(t)
	out, err := execute(t, "7\n", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Goodbye!")
}

func TestBadConfigFile(t *testing.T) {
	path := testCatalog(t)
	_, err := execute(t, "", "-f", path, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}
