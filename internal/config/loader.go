package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix scopes environment overrides, e.g. VERID_SCAN_MAX_CONCURRENCY.
	EnvPrefix = "VERID"
	fileName  = ".verid"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Loader resolves a Config from flags, environment, an optional .verid.yaml
// and built-in defaults, in that order of precedence.
type Loader struct {
	configPath string
	viper      *viper.Viper
}

// NewLoader creates a loader. An empty configPath searches "." and
// "./configs" for .verid.yaml and tolerates its absence.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		viper:      viper.New(),
	}
}

// BindFlags maps flag names to config keys. A bound flag only overrides the
// other sources when it was set on the command line.
func (l *Loader) BindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		f := flags.Lookup(name)
		if f == nil {
			return fmt.Errorf("bind flag %q: no such flag", name)
		}
		if err := l.viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}

// Load reads every source and returns a validated configuration.
func (l *Loader) Load() (*Config, error) {
	// .env is optional and never overrides variables already set
	_ = godotenv.Load()

	v := l.viper
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := l.readConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFileUsed reports the file Load read, or "" when defaults only.
func (l *Loader) ConfigFileUsed() string {
	return l.viper.ConfigFileUsed()
}

func (l *Loader) readConfigFile() error {
	if l.configPath != "" {
		l.viper.SetConfigFile(l.configPath)
		return l.viper.ReadInConfig()
	}

	l.viper.SetConfigName(fileName)
	l.viper.AddConfigPath(".")
	l.viper.AddConfigPath("./configs")
	err := l.viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("product", "WordPress")
	v.SetDefault("confidence_level", 100)
	v.SetDefault("exposing_pages", DefaultExposingPages())
	v.SetDefault("redaction_patterns", []string{})

	v.SetDefault("fingerprint.path", "")
	v.SetDefault("fingerprint.s3.endpoint", "")
	v.SetDefault("fingerprint.s3.access_key", "")
	v.SetDefault("fingerprint.s3.secret_key", "")
	v.SetDefault("fingerprint.s3.region", "")
	v.SetDefault("fingerprint.s3.use_ssl", true)

	scan := DefaultScanPolicy()
	v.SetDefault("scan.max_concurrency", scan.MaxConcurrency)
	v.SetDefault("scan.request_budget", scan.RequestBudget)
	v.SetDefault("scan.delay", scan.Delay)
	v.SetDefault("scan.timeout", scan.Timeout)
	v.SetDefault("scan.max_files", scan.MaxFiles)
	v.SetDefault("scan.active_cross_domain", scan.ActiveCrossDomain)
	v.SetDefault("scan.follow_redirects", scan.FollowRedirects)
	v.SetDefault("scan.insecure_tls", scan.InsecureTLS)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file_path", "logs/verid.log")
	v.SetDefault("log.max_size", 50)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.caller", false)

	v.SetDefault("database.url", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "30s")
}

// Validate rejects settings no command can run with.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Product) == "" {
		return fmt.Errorf("%w: product must not be empty", ErrInvalidConfig)
	}
	if cfg.ConfidenceLevel < 0 || cfg.ConfidenceLevel > 100 {
		return fmt.Errorf("%w: confidence_level %d outside [0,100]", ErrInvalidConfig, cfg.ConfidenceLevel)
	}
	if cfg.Scan.MaxConcurrency <= 0 {
		return fmt.Errorf("%w: scan.max_concurrency must be positive", ErrInvalidConfig)
	}
	if cfg.Scan.MaxFiles < 0 || cfg.Scan.RequestBudget < 0 {
		return fmt.Errorf("%w: scan limits must not be negative", ErrInvalidConfig)
	}
	if cfg.Scan.Timeout <= 0 {
		return fmt.Errorf("%w: scan.timeout must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: unsupported log format %q", ErrInvalidConfig, cfg.Log.Format)
	}
	switch strings.ToLower(cfg.Log.Output) {
	case "stdout", "stderr":
	case "file":
		if cfg.Log.FilePath == "" {
			return fmt.Errorf("%w: log.file_path is required when log.output is file", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported log output %q", ErrInvalidConfig, cfg.Log.Output)
	}

	if _, err := CompileRedactionPatterns(cfg.RedactionPatterns); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Default returns the configuration used when no file, env or flag is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}
