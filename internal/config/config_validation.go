package config

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a descriptive error otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.RateLimit.WindowSize <= 0 || cfg.RateLimit.MaxRequests <= 0 {
		return ErrInvalidRateLimitConfigs
	}

	if cfg.Quota.DefaultUsageLimit <= 0 {
		return ErrInvalidQuotaConfigs
	}

	if cfg.App.SessionDuration <= 0 {
		return ErrInvalidAppConfigs
	}

	if cfg.Workers.VerifyPollInterval <= 0 || cfg.Workers.VerifyMaxAttempts <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

// IsProduction reports whether the configured environment is "production".
func (cfg *StructuredConfig) IsProduction() bool {
	return cfg.App.Environment == "production"
}

// UsesDevelopmentKey reports whether the effective encryption key is the
// built-in development fallback. Startup logs this loudly; in production it
// is a misconfiguration.
func (cfg *StructuredConfig) UsesDevelopmentKey() bool {
	return cfg.App.EncryptionKey == DefaultDevEncryptionKey
}
