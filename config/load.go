package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load lê o YAML em path, aplica as variáveis de ambiente e os defaults e
// valida o resultado.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return finish(&cfg)
}

// FromEnv monta a configuração só a partir das variáveis ADMISSION_*.
func FromEnv() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("ADMISSION_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("ADMISSION_QUOTAS"); v != "" {
		q, err := ParseQuotas(v)
		if err != nil {
			return err
		}
		cfg.Quotas = q
	}

	setString(&cfg.Store.URL, "ADMISSION_STORE_URL")
	setString(&cfg.Store.Addr, "ADMISSION_STORE_ADDR")
	setString(&cfg.Store.Password, "ADMISSION_STORE_PASSWORD")
	setString(&cfg.Store.KeyPrefix, "ADMISSION_STORE_KEY_PREFIX")
	setString(&cfg.HTTP.ListenAddr, "ADMISSION_LISTEN_ADDR")
	setString(&cfg.HTTP.UpstreamURL, "ADMISSION_UPSTREAM_URL")
	setString(&cfg.HTTP.StripPrefix, "ADMISSION_STRIP_PREFIX")
	setString(&cfg.Stats.Prefix, "ADMISSION_STATS_PREFIX")
	setString(&cfg.Stats.Bucket, "ADMISSION_STATS_BUCKET")
	setString(&cfg.Metrics.Path, "ADMISSION_METRICS_PATH")
	setString(&cfg.Log.Level, "ADMISSION_LOG_LEVEL")
	setString(&cfg.Log.Format, "ADMISSION_LOG_FORMAT")

	// Valores malformados não são ignorados: todos os erros voltam juntos.
	return errors.Join(
		setInt(&cfg.Store.DB, "ADMISSION_STORE_DB"),
		setDuration(&cfg.Store.OpTimeout, "ADMISSION_STORE_OP_TIMEOUT"),
		setDuration(&cfg.Store.DialTimeout, "ADMISSION_STORE_DIAL_TIMEOUT"),
		setBool(&cfg.HTTP.AddHeaders, "ADMISSION_ADD_HEADERS"),
		setBool(&cfg.HTTP.RequestIDs, "ADMISSION_REQUEST_IDS"),
		setDuration(&cfg.HTTP.RetryAfter, "ADMISSION_RETRY_AFTER"),
		setInt(&cfg.Inflight.Max, "ADMISSION_INFLIGHT_MAX"),
		setDuration(&cfg.Inflight.Timeout, "ADMISSION_INFLIGHT_TIMEOUT"),
		setBool(&cfg.Stats.Redis, "ADMISSION_STATS_REDIS"),
		setDuration(&cfg.Stats.TTL, "ADMISSION_STATS_TTL"),
		setBool(&cfg.Metrics.Enabled, "ADMISSION_METRICS_ENABLED"),
		setDuration(&cfg.Log.SampleEvery, "ADMISSION_LOG_SAMPLE_EVERY"),
	)
}

// ParseQuotas converte "/a=2,/b=10" em um mapa de quotas. Rota repetida é
// erro, para que "/a=2,/a=5" não vire silenciosamente a última.
func ParseQuotas(s string) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		path, limit, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: quota %q is not path=limit", ErrInvalidConfig, part)
		}
		n, err := strconv.ParseInt(strings.TrimSpace(limit), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: quota %q: %w", ErrInvalidConfig, part, err)
		}
		path = strings.TrimSpace(path)
		if _, dup := out[path]; dup {
			return nil, fmt.Errorf("%w: duplicate quota for route %q", ErrInvalidConfig, path)
		}
		out[path] = n
	}
	return out, nil
}

// Os set* só alteram o campo quando a variável existe. Um valor que não
// converte devolve ErrInvalidConfig e o campo fica como estava.

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, key, v, err)
	}
	*dst = i
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, key, v, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, key, v, err)
	}
	*dst = d
	return nil
}
