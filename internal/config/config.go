// Package config loads the receiver's settings from configs/config.yml, an
// optional .env file, SOIL_* environment variables and Cloud Foundry's
// VCAP_SERVICES.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"soil_monitor/internal/downlink"
	"soil_monitor/internal/protocol"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Readings backends.
const (
	BackendSQLite = "sqlite"
	BackendMongo  = "mongo"
)

const (
	envPrefix       = "SOIL"
	vcapEnv         = "VCAP_SERVICES"
	vcapMongoLabel  = "mongodb-2"
	defaultPort     = "3000"
	defaultDBPath   = "soil.db"
	defaultFirstAt  = "10:00"
	defaultTimezone = "Local"
)

type Config struct {
	Port     string         `mapstructure:"port"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"db"`
	Readings ReadingsConfig `mapstructure:"readings"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Devices  []string       `mapstructure:"devices"`
	Downlink DownlinkConfig `mapstructure:"downlink"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Auth     AuthConfig     `mapstructure:"auth"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Influx   InfluxConfig   `mapstructure:"influx"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Query    QueryConfig    `mapstructure:"query"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type ReadingsConfig struct {
	Backend string `mapstructure:"backend"`
}

type MongoConfig struct {
	URI        string        `mapstructure:"uri"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type DownlinkConfig struct {
	URL     string        `mapstructure:"url"`
	FPort   int           `mapstructure:"fport"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ScheduleConfig describes the daily watering plan sent to stations.
type ScheduleConfig struct {
	FirstAt        string        `mapstructure:"first_at"` // HH:MM
	Gap            time.Duration `mapstructure:"gap"`
	FirstDuration  int           `mapstructure:"first_duration"`
	SecondDuration int           `mapstructure:"second_duration"`
	Timezone       string        `mapstructure:"timezone"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
}

type InfluxConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Org     string `mapstructure:"org"`
	Bucket  string `mapstructure:"bucket"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type QueryConfig struct {
	DeleteTolerance time.Duration `mapstructure:"delete_tolerance"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", defaultDBPath)
	v.SetDefault("readings.backend", BackendSQLite)
	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "db")
	v.SetDefault("mongo.collection", "data_point")
	v.SetDefault("mongo.timeout", 10*time.Second)
	v.SetDefault("devices", protocol.DefaultDevices)
	v.SetDefault("downlink.url", downlink.DefaultURL)
	v.SetDefault("downlink.fport", downlink.DefaultFPort)
	v.SetDefault("downlink.timeout", downlink.DefaultTimeout)
	v.SetDefault("schedule.first_at", defaultFirstAt)
	v.SetDefault("schedule.gap", 5*time.Minute)
	v.SetDefault("schedule.first_duration", 10)
	v.SetDefault("schedule.second_duration", 20)
	v.SetDefault("schedule.timezone", defaultTimezone)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "soil-monitor")
	v.SetDefault("mqtt.topic_prefix", "soil")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("influx.enabled", false)
	v.SetDefault("influx.url", "http://localhost:8086")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.org", "")
	v.SetDefault("influx.bucket", "soil")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("query.delete_tolerance", 2*time.Second)
}

// Load reads configuration. An empty path looks for configs/config.yml and
// carries on with defaults when it is missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Cloud Foundry and the first deployment use a bare PORT.
	if err := v.BindEnv("port", envPrefix+"_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind port env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.AddConfigPath("configs")
		v.SetConfigName("config")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if raw := os.Getenv(vcapEnv); raw != "" {
		uri, err := mongoURIFromVCAP(raw)
		if err != nil {
			return nil, err
		}
		if uri != "" {
			cfg.Readings.Backend = BackendMongo
			cfg.Mongo.URI = uri
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type vcapService struct {
	Credentials struct {
		URI string `json:"uri"`
	} `json:"credentials"`
}

// mongoURIFromVCAP returns the uri of the first mongodb-2 binding, or "".
func mongoURIFromVCAP(raw string) (string, error) {
	var services map[string][]vcapService
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		return "", fmt.Errorf("parse %s: %w", vcapEnv, err)
	}
	for _, svc := range services[vcapMongoLabel] {
		if svc.Credentials.URI != "" {
			return svc.Credentials.URI, nil
		}
	}
	return "", nil
}

// Validate checks settings that would otherwise only fail at first use.
func (c *Config) Validate() error {
	var errs []error

	switch c.Readings.Backend {
	case BackendSQLite:
		if c.DB.Path == "" {
			errs = append(errs, errors.New("db.path is required"))
		}
	case BackendMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongo.uri is required for the mongo readings backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("readings.backend %q: want %s or %s", c.Readings.Backend, BackendSQLite, BackendMongo))
	}

	if c.Log.Format != "console" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q: want console or json", c.Log.Format))
	}
	if len(c.Devices) == 0 {
		errs = append(errs, errors.New("devices must list at least one EUI"))
	}
	if c.Downlink.URL == "" {
		errs = append(errs, errors.New("downlink.url is required"))
	}
	if c.Downlink.FPort < 1 || c.Downlink.FPort > 223 {
		errs = append(errs, fmt.Errorf("downlink.fport %d: want 1..223", c.Downlink.FPort))
	}
	if _, err := c.Schedule.Policy(); err != nil {
		errs = append(errs, err)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
	}
	if c.Influx.Enabled && (c.Influx.URL == "" || c.Influx.Org == "" || c.Influx.Bucket == "") {
		errs = append(errs, errors.New("influx.url, influx.org and influx.bucket are required when influx is enabled"))
	}

	return errors.Join(errs...)
}

// Policy builds the watering plan from the schedule settings.
func (s ScheduleConfig) Policy() (protocol.DailyPolicy, error) {
	hour, minute, err := protocol.ParseTimeOfDay(s.FirstAt)
	if err != nil {
		return protocol.DailyPolicy{}, fmt.Errorf("schedule.first_at: %w", err)
	}
	if s.Gap < 0 {
		return protocol.DailyPolicy{}, fmt.Errorf("schedule.gap %s: must not be negative", s.Gap)
	}
	if s.FirstDuration < 0 || s.SecondDuration < 0 {
		return protocol.DailyPolicy{}, errors.New("schedule durations must not be negative")
	}

	tz := s.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return protocol.DailyPolicy{}, fmt.Errorf("schedule.timezone: %w", err)
	}

	return protocol.DailyPolicy{
		Hour:           hour,
		Minute:         minute,
		Gap:            s.Gap,
		FirstDuration:  s.FirstDuration,
		SecondDuration: s.SecondDuration,
		Location:       loc,
	}, nil
}
