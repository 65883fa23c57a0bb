package config

import "time"

// Config is the resolved runtime configuration for every verid command.
type Config struct {
	Product           string            `mapstructure:"product"`
	ConfidenceLevel   int               `mapstructure:"confidence_level"`
	ExposingPages     []string          `mapstructure:"exposing_pages"`
	RedactionPatterns []string          `mapstructure:"redaction_patterns"`
	Fingerprint       FingerprintConfig `mapstructure:"fingerprint"`
	Scan              ScanPolicy        `mapstructure:"scan"`
	Log               LogConfig         `mapstructure:"log"`
	Database          DatabaseConfig    `mapstructure:"database"`
	Server            ServerConfig      `mapstructure:"server"`
}

// FingerprintConfig locates the reference database. Path may be a local
// file or an s3://bucket/key object.
type FingerprintConfig struct {
	Path string   `mapstructure:"path"`
	S3   S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// ScanPolicy bounds the network side of a live identification.
type ScanPolicy struct {
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	RequestBudget     int64         `mapstructure:"request_budget"` // 0 means unlimited
	Delay             time.Duration `mapstructure:"delay"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxFiles          int           `mapstructure:"max_files"` // 0 means every file in the collection
	ActiveCrossDomain bool          `mapstructure:"active_cross_domain"`
	FollowRedirects   bool          `mapstructure:"follow_redirects"`
	InsecureTLS       bool          `mapstructure:"insecure_tls"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
	Caller     bool   `mapstructure:"caller"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	Mode        string        `mapstructure:"mode"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// DefaultExposingPages are the WordPress pages known to leak the core version.
func DefaultExposingPages() []string {
	return []string{"/", "wp-login.php", "wp-links-opml.php", "feed/"}
}

func DefaultScanPolicy() ScanPolicy {
	return ScanPolicy{
		MaxConcurrency: 5,
		RequestBudget:  0,
		Timeout:        11 * time.Second,
	}
}
