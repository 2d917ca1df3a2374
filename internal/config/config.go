package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/contrib-search/internal/model"
)

// Source names.
const (
	SourceFEC       = "fec"
	SourceCalAccess = "calaccess"
)

var drivers = []string{"sqlite", "sqlite3", "postgres", "postgresql", "pgx"}

// SourceNames lists the supported sources in display order.
var SourceNames = []string{SourceFEC, SourceCalAccess}

// Config holds the full application configuration.
type Config struct {
	Sources    SourcesConfig    `yaml:"sources" mapstructure:"sources"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Percentile PercentileConfig `yaml:"percentile" mapstructure:"percentile"`
	Recipients RecipientsConfig `yaml:"recipients" mapstructure:"recipients"`
	Schedule   ScheduleConfig   `yaml:"schedule" mapstructure:"schedule"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SourcesConfig holds one database per contribution source.
type SourcesConfig struct {
	FEC       SourceConfig `yaml:"fec" mapstructure:"fec"`
	CalAccess SourceConfig `yaml:"calaccess" mapstructure:"calaccess"`
}

// SourceConfig configures the database backing one source.
type SourceConfig struct {
	Driver       string   `yaml:"driver" mapstructure:"driver"`
	DatabaseURL  string   `yaml:"database_url" mapstructure:"database_url"`
	MaxConns     int32    `yaml:"max_conns" mapstructure:"max_conns"`
	ConduitIDs   []string `yaml:"conduit_ids" mapstructure:"conduit_ids"`
	ConduitNames []string `yaml:"conduit_names" mapstructure:"conduit_names"`
}

// Conduits returns the passthrough committees excluded from search results.
func (s SourceConfig) Conduits() model.Conduits {
	return model.Conduits{IDs: s.ConduitIDs, Names: s.ConduitNames}
}

// SearchConfig configures contribution search paging.
type SearchConfig struct {
	PageSize        int `yaml:"page_size" mapstructure:"page_size"`
	ProfilePageSize int `yaml:"profile_page_size" mapstructure:"profile_page_size"`
}

// PercentileConfig configures the percentile builder.
type PercentileConfig struct {
	Buckets []int `yaml:"buckets" mapstructure:"buckets"`
}

// RecipientsConfig configures recipient lookup and fuzzy search.
type RecipientsConfig struct {
	RecentDays    int     `yaml:"recent_days" mapstructure:"recent_days"`
	MinScore      float64 `yaml:"min_score" mapstructure:"min_score"`
	MaxCandidates int     `yaml:"max_candidates" mapstructure:"max_candidates"`
}

// ScheduleConfig configures the refresh daemon.
type ScheduleConfig struct {
	Cron string `yaml:"cron" mapstructure:"cron"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Source returns the configuration for a named source.
func (c *Config) Source(name string) (SourceConfig, error) {
	switch strings.ToLower(name) {
	case SourceFEC:
		return c.Sources.FEC, nil
	case SourceCalAccess, "ca":
		return c.Sources.CalAccess, nil
	default:
		return SourceConfig{}, eris.Errorf("config: unknown source %q (valid: %s)", name, strings.Join(SourceNames, ", "))
	}
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CONTRIB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sources.fec.driver", "sqlite")
	v.SetDefault("sources.fec.database_url", "fec_contributions.db")
	v.SetDefault("sources.fec.max_conns", 10)
	// ActBlue, WinRed, NationBuilder, Republican Platform Fund, ActBlue (second committee).
	v.SetDefault("sources.fec.conduit_ids", []string{"C00401224", "C00694323", "C00708504", "C00580100", "C00904466"})
	v.SetDefault("sources.fec.conduit_names", []string{})
	v.SetDefault("sources.calaccess.driver", "sqlite")
	v.SetDefault("sources.calaccess.database_url", "ca_contributions.db")
	v.SetDefault("sources.calaccess.max_conns", 10)
	v.SetDefault("sources.calaccess.conduit_ids", []string{})
	v.SetDefault("sources.calaccess.conduit_names", []string{"ActBlue", "ActBlue California", "WinRed"})
	v.SetDefault("search.page_size", 50)
	v.SetDefault("search.profile_page_size", 10)
	v.SetDefault("percentile.buckets", model.DefaultBuckets)
	v.SetDefault("recipients.recent_days", 365)
	v.SetDefault("recipients.min_score", 0.82)
	v.SetDefault("recipients.max_candidates", 500)
	v.SetDefault("schedule.cron", "0 30 3 * * *")
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

// Validate checks the settings a command needs. Mode "search" only needs
// the named source; "refresh" and "schedule" also check job settings.
func (c *Config) Validate(mode string, sources ...string) error {
	var errs []string

	if len(sources) == 0 {
		sources = SourceNames
	}
	for _, name := range sources {
		src, err := c.Source(name)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if !slices.Contains(drivers, strings.ToLower(src.Driver)) {
			errs = append(errs, fmt.Sprintf("sources.%s.driver must be sqlite or postgres, got %q", name, src.Driver))
		}
		if src.DatabaseURL == "" {
			errs = append(errs, fmt.Sprintf("sources.%s.database_url is required", name))
		}
	}

	if c.Search.PageSize < 1 || c.Search.PageSize > 500 {
		errs = append(errs, fmt.Sprintf("search.page_size must be between 1 and 500, got %d", c.Search.PageSize))
	}
	if c.Recipients.MinScore < 0 || c.Recipients.MinScore > 1 {
		errs = append(errs, fmt.Sprintf("recipients.min_score must be between 0 and 1, got %g", c.Recipients.MinScore))
	}

	switch mode {
	case "search":
	case "refresh", "schedule":
		for _, b := range c.Percentile.Buckets {
			if b < 1 || b > 100 {
				errs = append(errs, fmt.Sprintf("percentile.buckets must be between 1 and 100, got %d", b))
				break
			}
		}
		if !slices.IsSorted(c.Percentile.Buckets) {
			errs = append(errs, "percentile.buckets must be ascending")
		}
		if mode == "schedule" && c.Schedule.Cron == "" {
			errs = append(errs, "schedule.cron is required")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
