package config

type GeneralConfig struct {
	BindAddress     string `yaml:"bindAddress"`
	Port            int    `yaml:"port"`
	LogDirectory    string `yaml:"logDirectory"`
	LogColors       bool   `yaml:"logColors"`
	JsonLogs        bool   `yaml:"jsonLogs"`
	LogLevel        string `yaml:"logLevel"`
	TrustAnyForward bool   `yaml:"trustAnyForwardedAddress"`
	Environment     string `yaml:"environment"`
	Origin          string `yaml:"origin"`
}

// BackendConfig describes the BaaS deployment. Url is the address the server
// itself reaches, PublicUrl the one handed to browsers.
type BackendConfig struct {
	Url            string `yaml:"url"`
	PublicUrl      string `yaml:"publicUrl"`
	AnonKey        string `yaml:"anonKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	BackoffAt      int    `yaml:"backoffAt"`
}

type SessionConfig struct {
	CookieName string   `yaml:"cookieName"`
	Secrets    []string `yaml:"secrets,flow"`
	MaxAgeDays int      `yaml:"maxAgeDays"`
}

type StorageConfig struct {
	Bucket          string         `yaml:"bucket"`
	ThumbnailBucket string         `yaml:"thumbnailBucket"`
	Signer          string         `yaml:"signer"`
	S3              S3SignerConfig `yaml:"s3"`
}

type S3SignerConfig struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKeyId  string `yaml:"accessKeyId"`
	AccessSecret string `yaml:"accessSecret"`
	Region       string `yaml:"region"`
	UseSSL       bool   `yaml:"ssl"`
	BucketLookup string `yaml:"bucketLookup"`
}

type ExportConfig struct {
	SignedUrlTtlSeconds int `yaml:"signedUrlTtlSeconds"`
	CompressionLevel    int `yaml:"compressionLevel"`
}

type ViewerConfig struct {
	SignedUrlTtlSeconds int `yaml:"signedUrlTtlSeconds"`
}

type UploadsConfig struct {
	MaxSizeBytes int64    `yaml:"maxBytes"`
	AllowedTypes []string `yaml:"allowedTypes,flow"`
}

type ThumbnailsConfig struct {
	Enabled        bool  `yaml:"enabled"`
	Width          int   `yaml:"width"`
	MaxSourceBytes int64 `yaml:"maxSourceBytes"`
	Quality        int   `yaml:"quality"`
}

type AccessTokenConfig struct {
	MaxCacheTimeSeconds int `yaml:"maxCacheTimeSeconds"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requestsPerSecond"`
	Enabled           bool    `yaml:"enabled"`
	BurstCount        int     `yaml:"burst"`
}

type MetricsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BindAddress string `yaml:"bindAddress"`
	Port        int    `yaml:"port"`
}

type SentryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dsn         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Debug       bool   `yaml:"debug"`
}

type RedisConfig struct {
	Enabled bool         `yaml:"enabled"`
	Shards  []RedisShard `yaml:"shards,flow"`
	DbNum   int          `yaml:"databaseNumber"`
}

type RedisShard struct {
	Name    string `yaml:"name"`
	Address string `yaml:"addr"`
}
