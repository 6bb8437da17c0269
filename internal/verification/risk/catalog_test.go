package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	assert.True(t, c.IsMatrimonial("Shaadi"))
	assert.True(t, c.IsMatrimonial("BHARATMATRIMONY"))
	assert.True(t, c.IsDating(" quackquack "))
	assert.False(t, c.IsDating("Facebook"))
	assert.False(t, c.IsMatrimonial("Tinder"))
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	t.Run("file overrides listed categories only", func(t *testing.T) {
		path := filepath.Join(dir, "dating-only.yaml")
		require.NoError(t, os.WriteFile(path, []byte("dating:\n  - OkCupid\n  - Aisle\n"), 0o600))

		c, err := LoadCatalog(path)
		require.NoError(t, err)

		assert.True(t, c.IsDating("okcupid"))
		assert.False(t, c.IsDating("Tinder"), "dating list is replaced")
		assert.True(t, c.IsMatrimonial("Shaadi"), "matrimonial list falls back to defaults")
	})

	t.Run("new platforms score without code changes", func(t *testing.T) {
		path := filepath.Join(dir, "full.yaml")
		require.NoError(t, os.WriteFile(path, []byte("matrimonial: [Betterhalf]\ndating: [Aisle, Tinder, Bumble]\n"), 0o600))

		c, err := LoadCatalog(path)
		require.NoError(t, err)
		assert.True(t, c.IsMatrimonial("betterhalf"))
		assert.False(t, c.IsMatrimonial("Shaadi"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(dir, "nope.yaml"))
		assert.ErrorContains(t, err, "read platform catalog")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("dating: [unterminated"), 0o600))
		_, err := LoadCatalog(path)
		assert.ErrorContains(t, err, "parse platform catalog")
	})
}

func TestNewCatalogDedupes(t *testing.T) {
	c := NewCatalog([]string{"Shaadi", " shaadi "}, nil)
	assert.Len(t, c.matrimonial, 1)
	assert.Empty(t, c.dating)
}
