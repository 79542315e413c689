package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Ollama OllamaConfig `yaml:"ollama" mapstructure:"ollama"`
	Verify VerifyConfig `yaml:"verify" mapstructure:"verify"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// OllamaConfig holds the model endpoint settings.
type OllamaConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	// RequestsPerSecond paces generate calls. Zero disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// VerifyConfig configures a verification run.
type VerifyConfig struct {
	InputPath          string `yaml:"input_path" mapstructure:"input_path"`
	VerifiedOutputPath string `yaml:"verified_output_path" mapstructure:"verified_output_path"`
	FailedOutputPath   string `yaml:"failed_output_path" mapstructure:"failed_output_path"`
	Concurrency        int    `yaml:"concurrency" mapstructure:"concurrency"`
	SheetName          string `yaml:"sheet_name" mapstructure:"sheet_name"`
	InputEncoding      string `yaml:"input_encoding" mapstructure:"input_encoding"`
}

// StoreConfig configures the optional run history database. An empty
// DatabaseURL disables history.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BREEDCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names used by earlier deployments of the verifier script.
	// The prefixed variable wins when both are set.
	if err := v.BindEnv("ollama.base_url", "BREEDCHECK_OLLAMA_BASE_URL", "OLLAMA_API_URL"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}
	if err := v.BindEnv("ollama.model", "BREEDCHECK_OLLAMA_MODEL", "OLLAMA_MODEL"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}

	// Defaults
	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3")
	v.SetDefault("ollama.timeout_secs", 300)
	v.SetDefault("ollama.requests_per_second", 0)
	v.SetDefault("verify.input_path", "input_breeds.csv")
	v.SetDefault("verify.verified_output_path", "verified_breeds.csv")
	v.SetDefault("verify.failed_output_path", "failed_breeds.csv")
	v.SetDefault("verify.concurrency", 1)
	v.SetDefault("verify.sheet_name", "")
	v.SetDefault("verify.input_encoding", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a verification run depends on.
func (c *Config) Validate() error {
	var errs []string
	if c.Ollama.BaseURL == "" {
		errs = append(errs, "ollama.base_url is required")
	}
	if c.Ollama.Model == "" {
		errs = append(errs, "ollama.model is required")
	}
	if c.Ollama.TimeoutSecs < 0 {
		errs = append(errs, "ollama.timeout_secs must be >= 0")
	}
	if c.Ollama.RequestsPerSecond < 0 {
		errs = append(errs, "ollama.requests_per_second must be >= 0")
	}
	if c.Verify.Concurrency < 1 || c.Verify.Concurrency > 64 {
		errs = append(errs, fmt.Sprintf("verify.concurrency must be between 1 and 64, got %d", c.Verify.Concurrency))
	}
	if len(errs) > 0 {
		return eris.New("config: " + strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
