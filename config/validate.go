package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"admission-gateway/middleware/admission/domain"
)

// ErrInvalidConfig embrulha toda falha de validação.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate devolve todos os problemas encontrados, juntos.
func Validate(c *Config) error {
	var errs []error

	mode, err := domain.ParseMode(c.Mode)
	if err != nil {
		errs = append(errs, err)
	}
	if _, err := domain.NewQuotaTable(c.Quotas); err != nil {
		errs = append(errs, err)
	}
	if mode == domain.ModeShared && strings.TrimSpace(c.Store.URL) == "" && strings.TrimSpace(c.Store.Addr) == "" {
		errs = append(errs, domain.ErrMissingStoreTarget)
	}
	if c.Stats.Redis && mode != domain.ModeShared {
		errs = append(errs, errors.New("stats.redis requires mode shared"))
	}
	if c.Stats.Bucket != "minute" && c.Stats.Bucket != "none" {
		errs = append(errs, fmt.Errorf("stats.bucket must be minute or none, got %q", c.Stats.Bucket))
	}
	if c.HTTP.UpstreamURL != "" {
		if u, err := url.Parse(c.HTTP.UpstreamURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("http.upstream_url %q is not an absolute URL", c.HTTP.UpstreamURL))
		}
	}
	if c.Inflight.Max < 0 {
		errs = append(errs, errors.New("inflight.max must be >= 0"))
	}
	if c.Store.OpTimeout < 0 {
		errs = append(errs, errors.New("store.op_timeout must be >= 0"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", c.Log.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
