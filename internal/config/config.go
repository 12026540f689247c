package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	OCR        OCRConfig        `mapstructure:"ocr"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB  int64         `mapstructure:"max_upload_mb"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// OpenAIConfig holds the structured extractor's model configuration
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
}

// OCRConfig holds the primary recognizer configuration
type OCRConfig struct {
	Tesseract           string `mapstructure:"tesseract"` // binary name or absolute path
	Language            string `mapstructure:"language"`
	TessdataDir         string `mapstructure:"tessdata_dir"`
	PSM                 int    `mapstructure:"psm"`
	OEM                 int    `mapstructure:"oem"`
	PoolSize            int    `mapstructure:"pool_size"`
	EnableTSVConfidence bool   `mapstructure:"enable_tsv_confidence"`
}

// ExtractionConfig holds pipeline decision thresholds and cost controls
type ExtractionConfig struct {
	PrimaryProvider   string        `mapstructure:"primary_provider"`
	EnableCaching     bool          `mapstructure:"enable_caching"`
	CostThreshold     float64       `mapstructure:"cost_threshold"`
	AccuracyThreshold float64       `mapstructure:"accuracy_threshold"`
	ReviewThreshold   float64       `mapstructure:"review_threshold"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 3*time.Minute)
	viper.SetDefault("server.max_upload_mb", 20)

	// Database defaults
	viper.SetDefault("database.path", "data/receipts.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// OpenAI defaults
	viper.SetDefault("openai.model", "gpt-4o-mini")
	viper.SetDefault("openai.temperature", 0.1)
	viper.SetDefault("openai.max_tokens", 1000)

	// OCR defaults
	viper.SetDefault("ocr.tesseract", "tesseract")
	viper.SetDefault("ocr.language", "eng")
	viper.SetDefault("ocr.psm", 6)
	viper.SetDefault("ocr.pool_size", 2)
	viper.SetDefault("ocr.enable_tsv_confidence", true)

	// Extraction defaults
	viper.SetDefault("extraction.primary_provider", "tesseract")
	viper.SetDefault("extraction.enable_caching", false)
	viper.SetDefault("extraction.cost_threshold", 0.0)
	viper.SetDefault("extraction.accuracy_threshold", 80.0)
	viper.SetDefault("extraction.review_threshold", 60.0)
	viper.SetDefault("extraction.timeout", 2*time.Minute)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	viper.BindEnv("database.path", "DATABASE_PATH")
	viper.BindEnv("ocr.tesseract", "TESSERACT_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required")
	}
	if c.Extraction.AccuracyThreshold < 0 || c.Extraction.AccuracyThreshold > 100 {
		return fmt.Errorf("extraction.accuracy_threshold must be between 0 and 100")
	}
	if c.Extraction.ReviewThreshold < 0 || c.Extraction.ReviewThreshold > 100 {
		return fmt.Errorf("extraction.review_threshold must be between 0 and 100")
	}
	if c.OCR.PoolSize < 1 {
		return fmt.Errorf("ocr.pool_size must be at least 1")
	}
	return nil
}
