package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sources   []string      `yaml:"sources" mapstructure:"sources" validate:"required,min=1,unique,dive,oneof=infobel telo whitepages navagis hiya yelp"`
	Waterfall string        `yaml:"waterfall" mapstructure:"waterfall"`
	Vendors   VendorsConfig `yaml:"vendors" mapstructure:"vendors" validate:"-"`
	AWS       AWSConfig     `yaml:"aws" mapstructure:"aws"`
	KVStore   KVStoreConfig `yaml:"kvstore" mapstructure:"kvstore"`
	Store     StoreConfig   `yaml:"store" mapstructure:"store"`
	Engine    EngineConfig  `yaml:"engine" mapstructure:"engine"`
	Metrics   MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
	Log       LogConfig     `yaml:"log" mapstructure:"log"`
}

// VendorsConfig holds per-source endpoint and credential settings.
type VendorsConfig struct {
	Infobel    InfobelConfig  `yaml:"infobel" mapstructure:"infobel"`
	Telo       TeloConfig     `yaml:"telo" mapstructure:"telo"`
	Whitepages APIKeyConfig   `yaml:"whitepages" mapstructure:"whitepages"`
	Navagis    APIKeyConfig   `yaml:"navagis" mapstructure:"navagis"`
	Hiya       KVVendorConfig `yaml:"hiya" mapstructure:"hiya"`
	Yelp       KVVendorConfig `yaml:"yelp" mapstructure:"yelp"`
}

// CallConfig holds settings shared by every vendor.
type CallConfig struct {
	TrackLatency  bool    `yaml:"track_latency" mapstructure:"track_latency"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second" validate:"gte=0"`
	Burst         int     `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// HTTPVendorConfig holds settings shared by the networked vendors. URL is a
// template with {number} and credential placeholders.
type HTTPVendorConfig struct {
	CallConfig  `yaml:",inline" mapstructure:",squash"`
	URL         string `yaml:"url" mapstructure:"url" validate:"required,contains={number}"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs" validate:"gte=0"`
}

// InfobelConfig holds Infobel basic-auth credentials.
type InfobelConfig struct {
	HTTPVendorConfig `yaml:",inline" mapstructure:",squash"`
	Username         string `yaml:"username" mapstructure:"username" validate:"required"`
	Password         string `yaml:"password" mapstructure:"password" validate:"required"`
}

// TeloConfig holds Telo account credentials.
type TeloConfig struct {
	HTTPVendorConfig `yaml:",inline" mapstructure:",squash"`
	AccountSID       string `yaml:"account_sid" mapstructure:"account_sid" validate:"required"`
	AuthToken        string `yaml:"auth_token" mapstructure:"auth_token" validate:"required"`
}

// APIKeyConfig holds a single API key (whitepages, navagis).
type APIKeyConfig struct {
	HTTPVendorConfig `yaml:",inline" mapstructure:",squash"`
	APIKey           string `yaml:"api_key" mapstructure:"api_key" validate:"required"`
}

// KVVendorConfig points a cache vendor at its table.
type KVVendorConfig struct {
	CallConfig `yaml:",inline" mapstructure:",squash"`
	Table      string `yaml:"table" mapstructure:"table" validate:"required"`
	TypeKey    string `yaml:"type_key" mapstructure:"type_key"`
}

// AWSConfig holds the explicit session used by the DynamoDB store.
type AWSConfig struct {
	Profile         string `yaml:"profile" mapstructure:"profile"`
	Region          string `yaml:"region" mapstructure:"region"`
	AccessKeyID     string `yaml:"access_key_id" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" mapstructure:"secret_access_key"`
	SessionToken    string `yaml:"session_token" mapstructure:"session_token"`
	Endpoint        string `yaml:"endpoint" mapstructure:"endpoint"`
}

// KVStoreConfig selects the backend behind the cache vendors.
type KVStoreConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver" validate:"oneof=dynamodb redis"`
	RedisURL      string `yaml:"redis_url" mapstructure:"redis_url" validate:"required_if=Driver redis"`
	TypeAttribute string `yaml:"type_attribute" mapstructure:"type_attribute"`
}

// StoreConfig configures the summary sink.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=postgres sqlite none"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url" validate:"required_unless=Driver none"`
	Table       string `yaml:"table" mapstructure:"table" validate:"required"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// EngineConfig tunes the waterfall engine.
type EngineConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=1"`
}

// MetricsConfig configures the optional Pushgateway export.
type MetricsConfig struct {
	PushgatewayURL string `yaml:"pushgateway_url" mapstructure:"pushgateway_url"`
	Job            string `yaml:"job" mapstructure:"job"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envKeys are bound explicitly so credentials can come from the environment
// (or .env) without appearing in the YAML file.
var envKeys = []string{
	"vendors.infobel.url", "vendors.infobel.username", "vendors.infobel.password",
	"vendors.telo.url", "vendors.telo.account_sid", "vendors.telo.auth_token",
	"vendors.whitepages.url", "vendors.whitepages.api_key",
	"vendors.navagis.url", "vendors.navagis.api_key",
	"aws.profile", "aws.region", "aws.access_key_id", "aws.secret_access_key", "aws.session_token", "aws.endpoint",
	"kvstore.redis_url", "store.database_url", "metrics.pushgateway_url",
}

// Load reads configuration from path (or ./config.yaml when path is empty),
// a local .env file, and MATCHRATE_* environment variables.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("MATCHRATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", k)
		}
	}

	v.SetDefault("waterfall", "on")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("engine.concurrency", 1)
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.table", "id_coverage_stats")
	v.SetDefault("kvstore.driver", "dynamodb")
	v.SetDefault("kvstore.type_attribute", "type")
	v.SetDefault("metrics.job", "matchrate")
	v.SetDefault("vendors.hiya.table", "id_data.prod.identity_cache")
	v.SetDefault("vendors.yelp.table", "id_data.prod.yelp_cache")
	for _, name := range []string{"infobel", "telo", "whitepages", "navagis", "hiya", "yelp"} {
		v.SetDefault("vendors."+name+".track_latency", true)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the loaded configuration. Vendor sections are only checked
// for enabled sources.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return eris.Wrap(err, "config: validate")
	}

	for _, src := range c.Sources {
		var section any
		switch src {
		case "infobel":
			section = c.Vendors.Infobel
		case "telo":
			section = c.Vendors.Telo
		case "whitepages":
			section = c.Vendors.Whitepages
		case "navagis":
			section = c.Vendors.Navagis
		case "hiya":
			section = c.Vendors.Hiya
		case "yelp":
			section = c.Vendors.Yelp
		}
		if err := validate.Struct(section); err != nil {
			return eris.Wrapf(err, "config: validate vendors.%s", src)
		}
	}

	if c.NeedsKVStore() && c.KVStore.Driver == "dynamodb" && c.AWS.Region == "" {
		return eris.New("config: aws.region is required for key-value sources")
	}
	return nil
}

// kvSources are the sources backed by the key-value store.
var kvSources = map[string]bool{"hiya": true, "yelp": true}

// NeedsKVStore reports whether any enabled source reads the key-value store.
func (c *Config) NeedsKVStore() bool {
	for _, s := range c.Sources {
		if kvSources[s] {
			return true
		}
	}
	return false
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
