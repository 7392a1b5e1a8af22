package shared_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review_sentiment/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TZ_NAME", "UTC")
	c, err := shared.Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "fs", c.ArtifactSource)
	assert.Equal(t, "tfidf_vectorizer.json", c.VectorizerName)
	assert.Equal(t, 15*time.Minute, c.CacheTTL)
	assert.Equal(t, time.UTC, c.Location())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":9000"
artifact_dir: /models
timezone: UTC
cache_size: 8
redis_addr: cache:6379
`), 0o644))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("REDIS_ADDR", "override:6379")
	t.Setenv("CACHE_TTL_SECONDS", "30")

	c, err := shared.Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.HTTPAddr)
	assert.Equal(t, "/models", c.ArtifactDir)
	assert.Equal(t, 8, c.CacheSize)
	assert.Equal(t, "override:6379", c.RedisAddr)
	assert.Equal(t, 30*time.Second, c.CacheTTL)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("TZ_NAME", "UTC")
	t.Setenv("ARTIFACT_SOURCE", "s3")
	_, err := shared.Load()
	assert.Error(t, err)

	t.Setenv("ARTIFACT_SOURCE", "fs")
	t.Setenv("TZ_NAME", "Mars/Olympus")
	_, err = shared.Load()
	assert.Error(t, err)

	t.Setenv("TZ_NAME", "UTC")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yml"))
	_, err = shared.Load()
	assert.Error(t, err)
}
