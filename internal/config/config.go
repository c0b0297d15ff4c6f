package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Rule sources.
const (
	SourceFile     = "file"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
	SourceS3       = "s3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Rules   RulesConfig   `yaml:"rules"`
	Pricing PricingConfig `yaml:"pricing"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type RulesConfig struct {
	Source              string   `yaml:"source"`
	Path                string   `yaml:"path"`
	DSN                 string   `yaml:"dsn"`
	S3                  S3Config `yaml:"s3"`
	DiscountTriggerCode string   `yaml:"discount_trigger"`
}

type S3Config struct {
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Key       string `yaml:"key"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

type PricingConfig struct {
	FirstYear   int    `yaml:"first_year"`
	LastYear    int    `yaml:"last_year"`
	AgentSuffix string `yaml:"agent_suffix"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Rules: RulesConfig{
			Source:              SourceFile,
			Path:                "data/rules/v1_rules.yaml",
			DiscountTriggerCode: "discount_vip",
		},
		Pricing: PricingConfig{FirstYear: 2026, LastYear: 2030, AgentSuffix: "_Agent"},
	}
}

// Load reads path (if not empty) over the defaults, then applies RULES_* environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Rules.Source {
	case SourceFile, SourceSQLite:
		if c.Rules.Path == "" {
			return fmt.Errorf("rules.path required for source %q", c.Rules.Source)
		}
	case SourcePostgres:
		if c.Rules.DSN == "" {
			return fmt.Errorf("rules.dsn required for source %q", c.Rules.Source)
		}
	case SourceS3:
		if c.Rules.S3.Bucket == "" || c.Rules.S3.Key == "" {
			return fmt.Errorf("rules.s3.bucket and rules.s3.key required for source %q", c.Rules.Source)
		}
	default:
		return fmt.Errorf("unknown rules.source %q", c.Rules.Source)
	}
	if c.Pricing.FirstYear > c.Pricing.LastYear {
		return fmt.Errorf("pricing.first_year %d after last_year %d", c.Pricing.FirstYear, c.Pricing.LastYear)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"RULES_ADDR":             &cfg.Server.Addr,
		"RULES_LOG_LEVEL":        &cfg.Log.Level,
		"RULES_LOG_FORMAT":       &cfg.Log.Format,
		"RULES_SOURCE":           &cfg.Rules.Source,
		"RULES_PATH":             &cfg.Rules.Path,
		"RULES_DSN":              &cfg.Rules.DSN,
		"RULES_S3_REGION":        &cfg.Rules.S3.Region,
		"RULES_S3_BUCKET":        &cfg.Rules.S3.Bucket,
		"RULES_S3_KEY":           &cfg.Rules.S3.Key,
		"RULES_S3_ENDPOINT":      &cfg.Rules.S3.Endpoint,
		"RULES_DISCOUNT_TRIGGER": &cfg.Rules.DiscountTriggerCode,
		"RULES_AGENT_SUFFIX":     &cfg.Pricing.AgentSuffix,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	ints := map[string]*int{
		"RULES_PRICING_FIRST_YEAR": &cfg.Pricing.FirstYear,
		"RULES_PRICING_LAST_YEAR":  &cfg.Pricing.LastYear,
	}
	for name, dst := range ints {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}
	if v, ok := lookup("RULES_S3_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("RULES_S3_PATH_STYLE: %w", err)
		}
		cfg.Rules.S3.PathStyle = b
	}
	return nil
}
