package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClassic(t *testing.T) {
	out, err := Default().Build(Request{Topic: " 等待 ", WordCount: 800, Structure: StructureClassic})
	require.NoError(t, err)
	assert.Contains(t, out, "幫我創作一篇800字")
	assert.Contains(t, out, "題目為「等待」")
	assert.NotContains(t, out, "三線散敘")
	assert.NotContains(t, out, "[創作指引]")
	assert.Contains(t, out, "[作文範例參考]")
}

func TestBuildThreeLineWithGuidelines(t *testing.T) {
	out, err := Default().Build(Request{Topic: "根", WordCount: 1200, Structure: StructureThreeLine, Guidelines: "以河流作線索"})
	require.NoError(t, err)
	assert.Contains(t, out, "三線散敘")
	assert.Contains(t, out, "[創作指引]\n以河流作線索")
	assert.True(t, strings.Index(out, "[創作指引]") < strings.Index(out, "[作文範例參考]"))
}

func TestBuildRejectsUnknownStructure(t *testing.T) {
	_, err := Default().Build(Request{Topic: "x", WordCount: 1, Structure: "sonnet"})
	assert.Error(t, err)
}

func TestStructures(t *testing.T) {
	assert.True(t, StructureClassic.Valid())
	assert.True(t, Structure("threeline").Valid())
	assert.False(t, Structure("Classic").Valid())
	assert.Equal(t, []string{"classic", "threeline"}, StructureNames())
}

func TestExemplarsFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ex.txt")
	require.NoError(t, os.WriteFile(path, []byte("MY EXEMPLAR\n"), 0o600))

	b, err := NewBuilder(path)
	require.NoError(t, err)
	out, err := b.Build(Request{Topic: "t", WordCount: 500, Structure: StructureClassic})
	require.NoError(t, err)
	assert.Contains(t, out, "MY EXEMPLAR")
	assert.NotContains(t, out, "[作文範例參考]")

	_, err = NewBuilder(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestCacheReloadsOnPathChange(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("AAA"), 0o600))

	var c Cache
	b1, err := c.For(a)
	require.NoError(t, err)
	b2, err := c.For(a)
	require.NoError(t, err)
	assert.Same(t, b1, b2)

	b3, err := c.For("")
	require.NoError(t, err)
	assert.NotSame(t, b1, b3)

	fallback, err := c.For(filepath.Join(dir, "nope.txt"))
	assert.Error(t, err)
	require.NotNil(t, fallback)
	out, err := fallback.Build(Request{Topic: "t", WordCount: 1, Structure: StructureClassic})
	require.NoError(t, err)
	assert.Contains(t, out, "[作文範例參考]")
}
