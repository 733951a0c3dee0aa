package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig        `yaml:"server"`
	Database   DatabaseConfig      `yaml:"database"`
	Weather    WeatherConfig       `yaml:"weather"`
	Voice      VoiceConfig         `yaml:"voice"`
	Decision   DecisionConfig      `yaml:"decision"`
	Push       PushConfig          `yaml:"push"`
	WorkerPool WorkerPoolConfig    `yaml:"worker_pool"`
	Regions    map[string]GridSpec `yaml:"regions"`
	Timezone   string              `yaml:"timezone"`
}

// GridSpec is a KMA forecast grid coordinate as configured in YAML.
type GridSpec struct {
	NX string `yaml:"nx"`
	NY string `yaml:"ny"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled              bool    `yaml:"enabled"`
	PublicKey            string  `yaml:"vapid_public_key"`
	PrivateKey           string  `yaml:"vapid_private_key"`
	Subject              string  `yaml:"subject"`
	TTL                  int     `yaml:"ttl"`
	LowCapacityThreshold float64 `yaml:"low_capacity_threshold"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// WeatherConfig configures the KMA nowcast client and its cache warmer.
type WeatherConfig struct {
	URL                     string        `yaml:"url"`
	ServiceKey              string        `yaml:"service_key"`
	TimeoutSeconds          int           `yaml:"timeout_seconds"`
	Timeout                 time.Duration `yaml:"-"`
	HTTPProxy               string        `yaml:"http_proxy"`
	CacheTTLSeconds         int           `yaml:"cache_ttl_seconds"`
	HumidityThreshold       float64       `yaml:"humidity_threshold"`
	PrefetchRegions         []string      `yaml:"prefetch_regions"`
	PrefetchIntervalSeconds int           `yaml:"prefetch_interval_seconds"`
	PrefetchInterval        time.Duration `yaml:"-"`
}

// VoiceConfig configures clip storage and the speech-to-text service.
type VoiceConfig struct {
	AudioDir           string `yaml:"audio_dir"`
	STTEndpoint        string `yaml:"stt_endpoint"`
	Language           string `yaml:"language"`
	SampleRate         int    `yaml:"sample_rate"`
	MaxPolls           int    `yaml:"max_polls"`
	PollIntervalMillis int    `yaml:"poll_interval_millis"`
	RequestTimeoutSecs int    `yaml:"request_timeout_seconds"`
}

// DecisionConfig holds the dispense policy constants.
type DecisionConfig struct {
	CooldownMinutes   float64 `yaml:"cooldown_minutes"`
	ConsumptionPerSec float64 `yaml:"consumption_per_sec"`
	MaxCapacity       float64 `yaml:"max_capacity"`
	BlockWhenEmpty    bool    `yaml:"block_when_empty"`
	RelayToMailbox    bool    `yaml:"relay_to_mailbox"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // postgres, sqlite or bolt
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Defaults for the tunables where zero is a meaningful setting.
const (
	DefaultCooldownMinutes   = 0.33
	DefaultHumidityThreshold = 50.0
)

// Load reads the configuration from the given path. cooldown_minutes and
// humidity_threshold default only when absent; an explicit 0 is kept.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Seeded so an explicit zero in the file survives ApplyDefaults.
	cfg := Config{
		Weather:  WeatherConfig{HumidityThreshold: DefaultHumidityThreshold},
		Decision: DecisionConfig{CooldownMinutes: DefaultCooldownMinutes},
	}
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset fields. Environment values win over an empty service key.
// Cooldown and humidity threshold are replaced only when negative.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "diffuser.db"
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Seoul"
	}

	if cfg.Weather.URL == "" {
		cfg.Weather.URL = "http://apis.data.go.kr/1360000/VilageFcstInfoService_2.0/getUltraSrtNcst"
	}
	if cfg.Weather.ServiceKey == "" {
		cfg.Weather.ServiceKey = os.Getenv("SERVICE_KEY")
	}
	if cfg.Weather.TimeoutSeconds <= 0 {
		cfg.Weather.TimeoutSeconds = 5
	}
	cfg.Weather.Timeout = time.Duration(cfg.Weather.TimeoutSeconds) * time.Second
	if cfg.Weather.CacheTTLSeconds <= 0 {
		cfg.Weather.CacheTTLSeconds = 600
	}
	if cfg.Weather.HumidityThreshold < 0 {
		cfg.Weather.HumidityThreshold = DefaultHumidityThreshold
	}
	if cfg.Weather.PrefetchIntervalSeconds <= 0 {
		cfg.Weather.PrefetchIntervalSeconds = 900
	}
	cfg.Weather.PrefetchInterval = time.Duration(cfg.Weather.PrefetchIntervalSeconds) * time.Second

	if cfg.Voice.AudioDir == "" {
		cfg.Voice.AudioDir = os.Getenv("AUDIO_BUCKET")
	}
	if cfg.Voice.Language == "" {
		cfg.Voice.Language = "ko-KR"
	}
	if cfg.Voice.SampleRate <= 0 {
		cfg.Voice.SampleRate = 16000
	}
	if cfg.Voice.MaxPolls <= 0 {
		cfg.Voice.MaxPolls = 25
	}
	if cfg.Voice.PollIntervalMillis <= 0 {
		cfg.Voice.PollIntervalMillis = 1000
	}
	if cfg.Voice.RequestTimeoutSecs <= 0 {
		cfg.Voice.RequestTimeoutSecs = 5
	}

	if cfg.Decision.CooldownMinutes < 0 {
		cfg.Decision.CooldownMinutes = DefaultCooldownMinutes
	}
	if cfg.Decision.ConsumptionPerSec <= 0 {
		cfg.Decision.ConsumptionPerSec = 0.5
	}
	if cfg.Decision.MaxCapacity <= 0 {
		cfg.Decision.MaxCapacity = 100.0
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.Push.LowCapacityThreshold <= 0 {
		cfg.Push.LowCapacityThreshold = 20.0
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
}

// Location resolves the configured timezone, falling back to a fixed KST offset.
func (cfg *Config) Location() *time.Location {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Printf("Warning: could not load timezone %q: %v. Using UTC+9.", cfg.Timezone, err)
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}
