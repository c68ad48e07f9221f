package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spboyer/pwaudit/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID      string   `json:"id"`
	Passing bool     `json:"passing"`
	Notes   []string `json:"notes,omitempty"`
}

func TestKey(t *testing.T) {
	art := &manifest.Artifact{
		DocumentURL: "https://example.com/",
		ManifestURL: "https://example.com/manifest.json",
		Raw:         `{"name":"Example"}`,
	}

	key1 := Key(art)
	assert.NotEmpty(t, key1)
	assert.Len(t, key1, 64) // SHA256 hex is 64 chars

	// Same inputs should produce same key
	copied := *art
	assert.Equal(t, key1, Key(&copied))
}

func TestKey_DifferentInputsChangeKey(t *testing.T) {
	base := manifest.Artifact{
		DocumentURL: "https://example.com/",
		ManifestURL: "https://example.com/manifest.json",
		Raw:         `{"name":"Example"}`,
	}

	doc := base
	doc.DocumentURL = "https://example.com/other"
	man := base
	man.ManifestURL = "https://example.com/app.webmanifest"
	raw := base
	raw.Raw = `{"name":"Example 2"}`

	k := Key(&base)
	assert.NotEqual(t, k, Key(&doc), "document URL should change key")
	assert.NotEqual(t, k, Key(&man), "manifest URL should change key")
	assert.NotEqual(t, k, Key(&raw), "content should change key")
}

func TestKey_NoHashCollision(t *testing.T) {
	// Field delimiters keep shifted boundaries apart
	a := &manifest.Artifact{DocumentURL: "ab", ManifestURL: "cd"}
	b := &manifest.Artifact{DocumentURL: "abc", ManifestURL: "d"}
	assert.NotEqual(t, Key(a), Key(b), "field delimiters should prevent hash collisions")
}

func TestKey_NilArtifact(t *testing.T) {
	assert.Equal(t, missingKey, Key(nil))
	assert.NotEqual(t, Key(nil), Key(&manifest.Artifact{}))
}

func TestCache_GetPut(t *testing.T) {
	cacheDir := t.TempDir()
	c := New(cacheDir)
	assert.Equal(t, cacheDir, c.Dir())

	key := "test-key-123"
	stored := &entry{ID: "hasName", Passing: true, Notes: []string{"a", "b"}}

	// Cache miss
	var retrieved entry
	assert.False(t, c.Get(key, &retrieved))

	// Store in cache
	require.NoError(t, c.Put(key, stored))

	// Cache hit
	require.True(t, c.Get(key, &retrieved))
	assert.Equal(t, *stored, retrieved)
}

func TestCache_CorruptEntryIsMiss(t *testing.T) {
	cacheDir := t.TempDir()
	c := New(cacheDir)

	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "bad.json"), []byte("{not json"), 0644))

	var e entry
	assert.False(t, c.Get("bad", &e))
}

func TestCache_Clear(t *testing.T) {
	cacheDir := t.TempDir()
	c := New(cacheDir)

	require.NoError(t, c.Put("key1", &entry{ID: "a"}))
	require.NoError(t, c.Put("key2", &entry{ID: "b"}))

	var e entry
	assert.True(t, c.Get("key1", &e))
	assert.True(t, c.Get("key2", &e))

	require.NoError(t, c.Clear())

	assert.False(t, c.Get("key1", &e))
	assert.False(t, c.Get("key2", &e))

	// Directory should not exist
	_, err := os.Stat(cacheDir)
	assert.True(t, os.IsNotExist(err))
}

func TestCache_EmptyDir(t *testing.T) {
	c := New("")

	var e entry
	assert.False(t, c.Get("any-key", &e))

	// Put should be no-op
	assert.NoError(t, c.Put("key", &entry{ID: "a"}))

	// Clear should be no-op
	assert.NoError(t, c.Clear())
}

func TestCache_Clear_SafetyChecks(t *testing.T) {
	t.Run("refuses to clear directory with subdirectories", func(t *testing.T) {
		cacheDir := t.TempDir()
		c := New(cacheDir)

		require.NoError(t, c.Put("key1", &entry{ID: "a"}))
		require.NoError(t, os.Mkdir(filepath.Join(cacheDir, "subdir"), 0755))

		err := c.Clear()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "subdirectories")

		_, err = os.Stat(cacheDir)
		assert.NoError(t, err)
	})

	t.Run("refuses to clear directory with non-json files", func(t *testing.T) {
		cacheDir := t.TempDir()
		c := New(cacheDir)

		require.NoError(t, c.Put("key1", &entry{ID: "a"}))
		require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "README.txt"), []byte("test"), 0644))

		err := c.Clear()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "non-cache files")

		_, err = os.Stat(cacheDir)
		assert.NoError(t, err)
	})

	t.Run("successfully clears empty cache directory", func(t *testing.T) {
		cacheDir := t.TempDir()
		c := New(cacheDir)

		assert.NoError(t, c.Clear())

		_, err := os.Stat(cacheDir)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("missing directory is not an error", func(t *testing.T) {
		c := New(filepath.Join(t.TempDir(), "never-created"))
		assert.NoError(t, c.Clear())
	})
}

func TestCache_ConcurrentOperations(t *testing.T) {
	cacheDir := t.TempDir()
	c := New(cacheDir)

	numGoroutines := 10
	numOperations := 20

	t.Run("concurrent Put operations on different keys", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for j := 0; j < numOperations; j++ {
					err := c.Put(fmt.Sprintf("key-%d-%d", id, j), &entry{ID: fmt.Sprintf("e-%d-%d", id, j)})
					assert.NoError(t, err)
				}
			}(i)
		}
		wg.Wait()

		entries, err := os.ReadDir(cacheDir)
		require.NoError(t, err)
		assert.Equal(t, numGoroutines*numOperations, len(entries))
	})

	t.Run("concurrent Put on same key", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				assert.NoError(t, c.Put("same-key", &entry{ID: fmt.Sprintf("e-%d", id)}))
			}(i)
		}
		wg.Wait()

		var e entry
		assert.True(t, c.Get("same-key", &e), "cache entry should exist after concurrent writes")
		assert.NotEmpty(t, e.ID)
	})
}
