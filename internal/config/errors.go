package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidRateLimitConfigs indicates invalid limiter settings
	// (for example, a non-positive window size or request ceiling).
	ErrInvalidRateLimitConfigs = errors.New("invalid rate limit configuration")
	// ErrInvalidQuotaConfigs indicates invalid quota settings
	// (for example, a non-positive default usage limit).
	ErrInvalidQuotaConfigs = errors.New("invalid quota configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, a non-positive session duration).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, a zero poll interval or attempt cap).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
