package config

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

var Path = "phosio.yaml"

var instance *MainRepoConfig
var singletonLock = &sync.Once{}

// ErrMissingVariable is returned when a required setting is absent from both
// the environment and the configuration files.
type ErrMissingVariable struct {
	Name string
}

func (e ErrMissingVariable) Error() string {
	return fmt.Sprintf("Invalid environment variables: %s: Required", e.Name)
}

func reloadConfig() (*MainRepoConfig, error) {
	c := NewDefaultMainConfig()

	// Write a default config if the one given doesn't exist
	_, err := os.Stat(Path)
	exists := err == nil || !os.IsNotExist(err)
	if !exists {
		fmt.Println("Generating new configuration...")
		configBytes, err := yaml.Marshal(c)
		if err != nil {
			return nil, err
		}

		if err = os.WriteFile(Path, configBytes, 0644); err != nil {
			return nil, err
		}
	}

	// Get new info about the possible directory after creating
	info, err := os.Stat(Path)
	if err != nil {
		return nil, err
	}

	pathsOrdered := make([]string, 0)
	if info.IsDir() {
		logrus.Info("Config is a directory - loading all files over top of each other")

		files, err := os.ReadDir(Path)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			pathsOrdered = append(pathsOrdered, path.Join(Path, f.Name()))
		}

		sort.Strings(pathsOrdered)
	} else {
		pathsOrdered = append(pathsOrdered, Path)
	}

	for _, p := range pathsOrdered {
		logrus.Info("Loading config file: ", p)
		buffer, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		if err = yaml.Unmarshal(buffer, &c); err != nil {
			return nil, errors.Wrap(err, "parsing "+p)
		}
	}

	ApplyEnvironment(&c, os.LookupEnv)
	if err = Validate(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// ApplyEnvironment overlays the well-known environment variables onto c.
// Blank values are treated as unset.
func ApplyEnvironment(c *MainRepoConfig, lookup func(string) (string, bool)) {
	get := func(name string) (string, bool) {
		v, ok := lookup(name)
		if !ok {
			return "", false
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}

	if v, ok := get("SUPABASE_URL"); ok {
		c.Backend.Url = v
	}
	if v, ok := get("SUPABASE_PUBLIC_URL"); ok {
		c.Backend.PublicUrl = v
	}
	if v, ok := get("SUPABASE_ANON_KEY"); ok {
		c.Backend.AnonKey = v
	}
	if v, ok := get("SESSION_SECRET"); ok {
		c.Session.Secrets = strings.Split(v, ",")
	}
	if v, ok := get("APP_ORIGIN"); ok {
		c.General.Origin = v
	}
	if v, ok := get("NODE_ENV"); ok {
		c.General.Environment = v
	}
	if v, ok := get("PHOSIO_ENV"); ok {
		c.General.Environment = v
	}

	c.Backend.Url = strings.TrimRight(c.Backend.Url, "/")
	c.Backend.PublicUrl = strings.TrimRight(c.Backend.PublicUrl, "/")
	secrets := make([]string, 0, len(c.Session.Secrets))
	for _, s := range c.Session.Secrets {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	c.Session.Secrets = secrets
}

func Validate(c *MainRepoConfig) error {
	if c.Backend.Url == "" {
		return ErrMissingVariable{Name: "SUPABASE_URL"}
	}
	if c.Backend.AnonKey == "" {
		return ErrMissingVariable{Name: "SUPABASE_ANON_KEY"}
	}
	if len(c.Session.Secrets) == 0 {
		return ErrMissingVariable{Name: "SESSION_SECRET"}
	}
	if c.Storage.Signer != "baas" && c.Storage.Signer != "s3" {
		return fmt.Errorf("storage.signer must be 'baas' or 's3', got %q", c.Storage.Signer)
	}
	if c.Export.CompressionLevel < -2 || c.Export.CompressionLevel > 9 {
		return fmt.Errorf("export.compressionLevel out of range: %d", c.Export.CompressionLevel)
	}
	if c.Export.SignedUrlTtlSeconds <= 0 {
		return errors.New("export.signedUrlTtlSeconds must be positive")
	}
	return nil
}

func Get() *MainRepoConfig {
	if instance == nil {
		singletonLock.Do(func() {
			c, err := reloadConfig()
			if err != nil {
				logrus.Fatal(err)
			}
			instance = c
		})
	}
	return instance
}

// SetForTesting replaces the loaded configuration.
func SetForTesting(c *MainRepoConfig) {
	singletonLock.Do(func() {})
	instance = c
}

// NewTestConfig returns a valid configuration pointed at the given backend.
func NewTestConfig(backendUrl string) *MainRepoConfig {
	c := NewDefaultMainConfig()
	c.Backend.Url = backendUrl
	c.Backend.AnonKey = "anon-key"
	c.Session.Secrets = []string{"test-secret"}
	c.General.LogDirectory = "-"
	c.RateLimit.Enabled = false
	return &c
}
