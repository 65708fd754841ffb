package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func redisConfig(t *testing.T, mr *miniredis.Miniredis) string {
	return writeConfig(t, fmt.Sprintf(`
upstream:
  api_keys: ["AIzaKeyNumberOne", "AIzaKeyNumberTwo", "AIzaKeyNumberThree"]
storage:
  backend: redis
  redis_addr: %s
  redis_prefix: "t:"
  index_key: idx
`, mr.Addr()))
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGetUnsetIndexIsZero(t *testing.T) {
	mr := miniredis.RunT(t)
	path := redisConfig(t, mr)

	out, err := execute(t, "get", "--json", "--config", path)
	require.NoError(t, err)

	var st indexState
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, "redis", st.Backend)
	assert.Equal(t, "idx", st.Key)
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, 3, st.PoolSize)
	assert.Equal(t, "AIza…rOne", st.Credential)
}

func TestSetReducesModuloPool(t *testing.T) {
	mr := miniredis.RunT(t)
	path := redisConfig(t, mr)

	out, err := execute(t, "set", "7", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "index:    1")

	got, err := mr.Get("t:idx")
	require.NoError(t, err)
	assert.Equal(t, "1", got)
}

func TestSetRawKeepsValue(t *testing.T) {
	mr := miniredis.RunT(t)
	path := redisConfig(t, mr)

	_, err := execute(t, "set", "7", "--raw", "--config", path)
	require.NoError(t, err)

	got, err := mr.Get("t:idx")
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	out, err := execute(t, "get", "--json", "--config", path)
	require.NoError(t, err)
	var st indexState
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 7, st.Index)
	assert.Equal(t, 1, st.Position)
}

func TestSetRejectsNegativeAndGarbage(t *testing.T) {
	mr := miniredis.RunT(t)
	path := redisConfig(t, mr)

	for _, arg := range []string{"-1", "abc"} {
		_, err := execute(t, "set", "--config", path, "--", arg)
		assert.Error(t, err, arg)
	}
	assert.False(t, mr.Exists("t:idx"))
}

func TestReset(t *testing.T) {
	mr := miniredis.RunT(t)
	path := redisConfig(t, mr)
	require.NoError(t, mr.Set("t:idx", "2"))

	_, err := execute(t, "reset", "--config", path)
	require.NoError(t, err)

	got, err := mr.Get("t:idx")
	require.NoError(t, err)
	assert.Equal(t, "0", got)
}

func TestNoneBackendIsRejected(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: none\n")
	_, err := execute(t, "get", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none")
}

func TestMissingParamsSurfaceError(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: redis\n  redis_addr: \"\"\n")
	t.Setenv("REDIS_ADDR", "")
	_, err := execute(t, "get", "--config", path)
	require.Error(t, err)
}

func TestMigrateRequiresDSN(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: memory\n")
	t.Setenv("POSTGRES_DSN", "")
	_, err := execute(t, "migrate", "version", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN")
}

func TestMigrateDownRejectsNonPositiveSteps(t *testing.T) {
	_, err := execute(t, "migrate", "down", "--steps", "0", "--dsn", "postgres://localhost/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps")
}
