package config

import (
	"time"

	"admission-gateway/middleware/admission"
	"admission-gateway/middleware/admission/domain"
)

type Config struct {
	Mode   string           `yaml:"mode"`
	Quotas map[string]int64 `yaml:"quotas"`

	Store    StoreConfig    `yaml:"store"`
	HTTP     HTTPConfig     `yaml:"http"`
	Inflight InflightConfig `yaml:"inflight"`
	Stats    StatsConfig    `yaml:"stats"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

type StoreConfig struct {
	URL         string        `yaml:"url"`
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	KeyPrefix   string        `yaml:"key_prefix"`
	OpTimeout   time.Duration `yaml:"op_timeout"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

type HTTPConfig struct {
	ListenAddr  string        `yaml:"listen_addr"`
	UpstreamURL string        `yaml:"upstream_url"`
	StripPrefix string        `yaml:"strip_prefix"`
	AddHeaders  bool          `yaml:"add_headers"`
	RequestIDs  bool          `yaml:"request_ids"`
	RetryAfter  time.Duration `yaml:"retry_after"`

	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type InflightConfig struct {
	Max     int           `yaml:"max"`
	Timeout time.Duration `yaml:"timeout"`
}

// StatsConfig liga o sink de estatísticas no Redis. Usa a mesma conexão do
// store.
type StatsConfig struct {
	Redis  bool          `yaml:"redis"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
	Bucket string        `yaml:"bucket"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// SampleEvery espaça os logs repetidos de recusa; 0 loga todos.
	SampleEvery time.Duration `yaml:"sample_every"`
}

// Admission converte a config validada na config de montagem da admissão.
func (c *Config) Admission() admission.Config {
	mode, _ := domain.ParseMode(c.Mode)
	return admission.Config{
		Mode:   mode,
		Quotas: c.Quotas,
		Store: admission.StoreConfig{
			URL:         c.Store.URL,
			Addr:        c.Store.Addr,
			Password:    c.Store.Password,
			DB:          c.Store.DB,
			KeyPrefix:   c.Store.KeyPrefix,
			OpTimeout:   c.Store.OpTimeout,
			DialTimeout: c.Store.DialTimeout,
		},
	}
}
