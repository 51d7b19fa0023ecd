package config

type MainRepoConfig struct {
	General      GeneralConfig     `yaml:"repo"`
	Backend      BackendConfig     `yaml:"backend"`
	Session      SessionConfig     `yaml:"session"`
	Storage      StorageConfig     `yaml:"storage"`
	Export       ExportConfig      `yaml:"export"`
	Viewer       ViewerConfig      `yaml:"viewer"`
	Uploads      UploadsConfig     `yaml:"uploads"`
	Thumbnails   ThumbnailsConfig  `yaml:"thumbnails"`
	AccessTokens AccessTokenConfig `yaml:"accessTokens"`
	RateLimit    RateLimitConfig   `yaml:"rateLimit"`
	Metrics      MetricsConfig     `yaml:"metrics"`
	Sentry       SentryConfig      `yaml:"sentry"`
	Redis        RedisConfig       `yaml:"redis"`
}

func NewDefaultMainConfig() MainRepoConfig {
	return MainRepoConfig{
		General: GeneralConfig{
			BindAddress:     "127.0.0.1",
			Port:            3000,
			LogDirectory:    "logs",
			LogColors:       false,
			JsonLogs:        false,
			LogLevel:        "info",
			TrustAnyForward: false,
			Environment:     "development",
			Origin:          "",
		},
		Backend: BackendConfig{
			Url:            "",
			PublicUrl:      "",
			AnonKey:        "",
			TimeoutSeconds: 30,
			BackoffAt:      10,
		},
		Session: SessionConfig{
			CookieName: "__phosio_session",
			Secrets:    []string{},
			MaxAgeDays: 30,
		},
		Storage: StorageConfig{
			Bucket:          "media",
			ThumbnailBucket: "media",
			Signer:          "baas",
			S3: S3SignerConfig{
				Region:       "us-east-1",
				UseSSL:       true,
				BucketLookup: "auto",
			},
		},
		Export: ExportConfig{
			SignedUrlTtlSeconds: 120,
			CompressionLevel:    9,
		},
		Viewer: ViewerConfig{
			SignedUrlTtlSeconds: 120,
		},
		Uploads: UploadsConfig{
			MaxSizeBytes: 1073741824, // 1gb
			AllowedTypes: []string{
				"image/*",
				"video/*",
				"audio/*",
			},
		},
		Thumbnails: ThumbnailsConfig{
			Enabled:        true,
			Width:          320,
			MaxSourceBytes: 52428800, // 50mb
			Quality:        78,
		},
		AccessTokens: AccessTokenConfig{
			MaxCacheTimeSeconds: 30,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			BurstCount:        10,
		},
		Metrics: MetricsConfig{
			Enabled:     false,
			BindAddress: "127.0.0.1",
			Port:        9000,
		},
		Sentry: SentryConfig{
			Enabled:     false,
			Dsn:         "https://examplePublicKey@o0.ingest.sentry.io/0",
			Environment: "",
			Debug:       false,
		},
		Redis: RedisConfig{
			Enabled: false,
			Shards:  []RedisShard{},
			DbNum:   0,
		},
	}
}

func (c *MainRepoConfig) IsProduction() bool {
	return c.General.Environment == "production"
}

// PublicBackendUrl is the BaaS address browsers should use.
func (c *MainRepoConfig) PublicBackendUrl() string {
	if c.Backend.PublicUrl != "" {
		return c.Backend.PublicUrl
	}
	return c.Backend.Url
}
