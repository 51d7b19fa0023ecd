package config

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestApplyEnvironment(t *testing.T) {
	c := NewDefaultMainConfig()
	ApplyEnvironment(&c, lookupFrom(map[string]string{
		"SUPABASE_URL":      " http://kong:8000/ ",
		"SUPABASE_ANON_KEY": "anon",
		"SESSION_SECRET":    "one, two",
		"NODE_ENV":          "production",
	}))

	assert.Equal(t, "http://kong:8000", c.Backend.Url)
	assert.Equal(t, "http://kong:8000", c.PublicBackendUrl())
	assert.Equal(t, "anon", c.Backend.AnonKey)
	assert.Equal(t, []string{"one", "two"}, c.Session.Secrets)
	assert.True(t, c.IsProduction())
	assert.NoError(t, Validate(&c))
}

func TestApplyEnvironment_PublicUrl(t *testing.T) {
	c := NewDefaultMainConfig()
	ApplyEnvironment(&c, lookupFrom(map[string]string{
		"SUPABASE_URL":        "http://kong:8000",
		"SUPABASE_PUBLIC_URL": "http://jupiter.local:54321",
	}))
	assert.Equal(t, "http://kong:8000", c.Backend.Url)
	assert.Equal(t, "http://jupiter.local:54321", c.PublicBackendUrl())
}

func TestValidate_MissingVariables(t *testing.T) {
	c := NewDefaultMainConfig()
	ApplyEnvironment(&c, lookupFrom(map[string]string{"SUPABASE_URL": "   "}))
	err := Validate(&c)
	assert.EqualError(t, err, "Invalid environment variables: SUPABASE_URL: Required")

	c.Backend.Url = "http://kong:8000"
	assert.EqualError(t, Validate(&c), "Invalid environment variables: SUPABASE_ANON_KEY: Required")

	c.Backend.AnonKey = "anon"
	assert.EqualError(t, Validate(&c), "Invalid environment variables: SESSION_SECRET: Required")

	c.Session.Secrets = []string{"s"}
	assert.NoError(t, Validate(&c))

	c.Storage.Signer = "ftp"
	assert.Error(t, Validate(&c))
}

func TestReloadConfig_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	oldPath := Path
	defer func() { Path = oldPath }()
	Path = path.Join(dir, "phosio.yaml")

	t.Setenv("SUPABASE_URL", "http://kong:8000")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("SESSION_SECRET", "secret")

	c, err := reloadConfig()
	assert.NoError(t, err)
	assert.Equal(t, 120, c.Export.SignedUrlTtlSeconds)
	assert.Equal(t, "media", c.Storage.Bucket)

	_, err = os.Stat(Path)
	assert.NoError(t, err)
}

func TestReloadConfig_Directory(t *testing.T) {
	dir := t.TempDir()
	oldPath := Path
	defer func() { Path = oldPath }()
	Path = dir

	assert.NoError(t, os.WriteFile(path.Join(dir, "00-base.yaml"), []byte("backend:\n  url: http://a\n  anonKey: k\nsession:\n  secrets: [x]\n"), 0644))
	assert.NoError(t, os.WriteFile(path.Join(dir, "10-override.yaml"), []byte("export:\n  compressionLevel: 5\n"), 0644))

	c, err := reloadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "http://a", c.Backend.Url)
	assert.Equal(t, 5, c.Export.CompressionLevel)
	assert.Equal(t, 120, c.Export.SignedUrlTtlSeconds)
}
