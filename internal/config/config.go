package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

var Module = fx.Module("config",
	fx.Provide(NewLoader),
	fx.Provide(func(l *Loader) Config { return l.Current() }),
)

type Config struct {
	Mode          Mode                `mapstructure:"mode"`
	AppName       string              `mapstructure:"app_name"`
	NodeID        int64               `mapstructure:"node_id"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Limits        LimitsConfig        `mapstructure:"limits"`
	Alerts        AlertsConfig        `mapstructure:"alerts"`
	Retention     RetentionConfig     `mapstructure:"retention"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Report        ReportConfig        `mapstructure:"report"`
}

type HTTPConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	CacheTTLMs int64  `mapstructure:"cache_ttl_ms"`
}

// LimitsConfig holds the monthly consumption ceilings.
type LimitsConfig struct {
	PerMeter int64 `mapstructure:"per_meter"`
	Total    int64 `mapstructure:"total"`
}

// AlertsConfig holds usage percentage thresholds, checked highest first.
type AlertsConfig struct {
	Critical float64 `mapstructure:"critical"`
	Warning  float64 `mapstructure:"warning"`
	Info     float64 `mapstructure:"info"`
}

type RetentionConfig struct {
	KeepDays int `mapstructure:"keep_days"`
}

type ObservabilityConfig struct {
	LogLevel     string  `mapstructure:"log_level"`
	LogFormat    string  `mapstructure:"log_format"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPProtocol string  `mapstructure:"otlp_protocol"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []APIKey `mapstructure:"api_keys"`
}

// APIKey binds a bcrypt hash of a bearer key to a role.
type APIKey struct {
	Name string `mapstructure:"name"`
	Role string `mapstructure:"role"`
	Hash string `mapstructure:"hash"`
}

type ReportConfig struct {
	SiteName string `mapstructure:"site_name"`
}

func (c Config) IsProduction() bool {
	return c.Mode == ModeProduction
}

func (c Config) Validate() error {
	var errs []error
	if c.Limits.PerMeter < 0 || c.Limits.Total < 0 {
		errs = append(errs, errors.New("limits must not be negative"))
	}
	if c.Alerts.Critical < c.Alerts.Warning || c.Alerts.Warning < c.Alerts.Info {
		errs = append(errs, errors.New("alert thresholds must satisfy critical >= warning >= info"))
	}
	switch strings.ToLower(c.Database.Driver) {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Database.Driver == "postgres" && c.Database.DSN == "" && c.Database.Password == "" {
		errs = append(errs, errors.New("database password is required"))
	}
	if c.NodeID < 0 || c.NodeID > 1023 {
		errs = append(errs, fmt.Errorf("node_id %d out of range 0..1023", c.NodeID))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeDevelopment))
	v.SetDefault("app_name", "metertrack")
	v.SetDefault("node_id", 1)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8000)
	v.SetDefault("http.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("http.trusted_proxies", []string{})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "meter_tracker")
	v.SetDefault("database.user", "meter_user")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open", 10)
	v.SetDefault("database.max_idle", 5)

	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl_ms", 5*60*1000)

	v.SetDefault("limits.per_meter", 200)
	v.SetDefault("limits.total", 600)

	v.SetDefault("alerts.critical", 90.0)
	v.SetDefault("alerts.warning", 80.0)
	v.SetDefault("alerts.info", 70.0)

	v.SetDefault("retention.keep_days", 0)

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")
	v.SetDefault("observability.otlp_protocol", "http")
	v.SetDefault("observability.otlp_insecure", true)
	v.SetDefault("observability.sample_ratio", 1.0)

	v.SetDefault("auth.enabled", false)
	v.SetDefault("report.site_name", "Home")
}

// legacyEnv maps environment names used by earlier deployments onto config keys.
var legacyEnv = map[string]string{
	"database.host":           "DB_HOST",
	"database.port":           "DB_PORT",
	"database.name":           "DB_NAME",
	"database.user":           "DB_USER",
	"database.password":       "DB_PASSWORD",
	"limits.per_meter":        "MONTHLY_LIMIT_PER_METER",
	"limits.total":            "TOTAL_MONTHLY_LIMIT",
	"http.host":               "BACKEND_HOST",
	"http.port":               "BACKEND_PORT",
	"http.cors_origins":       "CORS_ORIGINS",
	"http.trusted_proxies":    "TRUSTED_HOSTS",
	"observability.log_level": "LOG_LEVEL",
}

func newViper(configFile string) (*viper.Viper, error) {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("METERTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		if err := v.BindEnv(key, "METERTRACK_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("metertrack")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/metertrack")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.HTTP.CORSOrigins = splitList(cfg.HTTP.CORSOrigins)
	cfg.HTTP.TrustedProxies = splitList(cfg.HTTP.TrustedProxies)
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitList flattens comma separated entries coming from env variables.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
