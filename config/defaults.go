package config

import "time"

// ApplyDefaults preenche todo campo vazio. Quotas não têm default.
func ApplyDefaults(c *Config) {
	if c.Mode == "" {
		c.Mode = "local"
	}

	if c.Store.KeyPrefix == "" {
		c.Store.KeyPrefix = "routeCounts:"
	}
	if c.Store.OpTimeout == 0 {
		c.Store.OpTimeout = 500 * time.Millisecond
	}
	if c.Store.DialTimeout == 0 {
		c.Store.DialTimeout = 5 * time.Second
	}

	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.HTTP.RetryAfter == 0 {
		c.HTTP.RetryAfter = time.Second
	}
	if c.HTTP.ReadHeaderTimeout == 0 {
		c.HTTP.ReadHeaderTimeout = 10 * time.Second
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 30 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 30 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 90 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}

	if c.Stats.Prefix == "" {
		c.Stats.Prefix = "admission:stats"
	}
	if c.Stats.TTL == 0 {
		c.Stats.TTL = 24 * time.Hour
	}
	if c.Stats.Bucket == "" {
		c.Stats.Bucket = "minute"
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.SampleEvery == 0 {
		c.Log.SampleEvery = 10 * time.Second
	}
}
