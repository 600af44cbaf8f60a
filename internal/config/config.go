// Package config holds the service configuration.
//
// Values are layered: Defaults, then an optional YAML file, then
// environment variables. Command-line flags in cmd/ override the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"forecast-oversight/internal/insights"
)

// Config is the complete service configuration.
type Config struct {
	HTTPAddr   string     `yaml:"http_addr" validate:"required"`
	Storage    Storage    `yaml:"storage"`
	Kafka      Kafka      `yaml:"kafka"`
	Thresholds Thresholds `yaml:"thresholds"`
	OutputDir  string     `yaml:"output_dir" validate:"required"`
}

// Storage selects the dataset and snapshot backends.
type Storage struct {
	UseMemory     bool   `yaml:"use_memory"`
	PostgresDSN   string `yaml:"postgres_dsn" validate:"required_if=UseMemory false"`
	ClickHouseDSN string `yaml:"clickhouse_dsn" validate:"required_if=UseMemory false"`
}

// Kafka configures event publishing. Publishing is disabled when
// Brokers is empty.
type Kafka struct {
	Brokers       []string `yaml:"brokers" validate:"dive,hostname_port"`
	UploadsTopic  string   `yaml:"uploads_topic" validate:"required"`
	KPITopic      string   `yaml:"kpi_topic" validate:"required"`
	SchemaVersion string   `yaml:"schema_version"`
}

// Thresholds are the insight thresholds.
type Thresholds struct {
	HighGap    float64 `yaml:"high_gap" validate:"gte=0"`
	OnTrackPct float64 `yaml:"on_track_pct" validate:"gt=0,gtefield=WatchPct"`
	WatchPct   float64 `yaml:"watch_pct" validate:"gt=0"`
}

// Insights converts the thresholds for the evaluator.
func (t Thresholds) Insights() insights.Thresholds {
	return insights.Thresholds{
		HighGap:    t.HighGap,
		OnTrackPct: t.OnTrackPct,
		WatchPct:   t.WatchPct,
	}
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	th := insights.DefaultThresholds()
	return Config{
		HTTPAddr: ":8080",
		Storage: Storage{
			UseMemory: true,
		},
		Kafka: Kafka{
			UploadsTopic:  "dataset.uploaded",
			KPITopic:      "kpi.computed",
			SchemaVersion: "v1",
		},
		Thresholds: Thresholds{
			HighGap:    th.HighGap,
			OnTrackPct: th.OnTrackPct,
			WatchPct:   th.WatchPct,
		},
		OutputDir: "reports",
	}
}

// LoadFile overlays the YAML file at path onto cfg.
// Keys missing from the file keep their current values.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("FORECAST_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := getenv("FORECAST_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv("FORECAST_USE_MEMORY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FORECAST_USE_MEMORY: %w", err)
		}
		cfg.Storage.UseMemory = b
	}
	if v := getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickHouseDSN = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = SplitList(v)
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"FORECAST_HIGH_GAP_THRESHOLD", &cfg.Thresholds.HighGap},
		{"FORECAST_ON_TRACK_PCT", &cfg.Thresholds.OnTrackPct},
		{"FORECAST_WATCH_PCT", &cfg.Thresholds.WatchPct},
	}
	for _, f := range floats {
		v := getenv(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = n
	}
	return nil
}

// Load builds the configuration from defaults, the optional file at
// path and the process environment.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := LoadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := ApplyEnv(&cfg, os.Getenv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks the configuration and reports every invalid field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// SplitList splits a comma-separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
