package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Settings are resolved once at the start of a run and passed explicitly to every
// component that needs a directory, a database or a policy.
type Settings struct {
	DataDir      string `mapstructure:"data_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	DBPath       string `mapstructure:"db_path"`
	CacheDir     string `mapstructure:"cache_dir"`
	LogLevel     string `mapstructure:"log_level"`
	MissingGroup string `mapstructure:"missing_group"`
	IncludeTotal bool   `mapstructure:"include_total"`
	S3Region     string `mapstructure:"s3_region"`
	S3Endpoint   string `mapstructure:"s3_endpoint"`
	Addr         string `mapstructure:"addr"`
}

var settingKeys = []string{
	"data_dir", "output_dir", "db_path", "cache_dir", "log_level",
	"missing_group", "include_total", "s3_region", "s3_endpoint", "addr",
}

// LoadSettings reads TLF_* environment variables and, when path is not empty, a
// settings file. Environment variables take precedence over the file.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("TLF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", ".")
	v.SetDefault("output_dir", "output")
	v.SetDefault("db_path", ":memory:")
	v.SetDefault("cache_dir", filepath.Join(".", ".tlf-cache"))
	v.SetDefault("log_level", "info")
	v.SetDefault("missing_group", "error")
	v.SetDefault("include_total", true)
	v.SetDefault("addr", ":8080")

	for _, key := range settingKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) Validate() error {
	switch s.MissingGroup {
	case "error", "ignore", "fill":
	default:
		return fmt.Errorf("%w: missing_group must be error, ignore or fill, got %q", ErrInvalidConfig, s.MissingGroup)
	}
	if s.OutputDir == "" {
		return fmt.Errorf("%w: output_dir is required", ErrInvalidConfig)
	}
	return nil
}

// ResolveDataPath resolves a dataset location against DataDir. Absolute paths and
// URLs such as s3://bucket/key are returned unchanged.
func (s *Settings) ResolveDataPath(p string) string {
	if strings.Contains(p, "://") || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.DataDir, p)
}
