package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON-friendly field
// types (durations as strings like "24h") for the optional config file.
type StructuredJSONConfig struct {
	App struct {
		EncryptionKey       string   `json:"encryption_key"`
		ForceFallbackCipher bool     `json:"force_fallback_cipher"`
		SessionDuration     Duration `json:"session_duration"`
		Environment         string   `json:"environment"`
	} `json:"app,omitempty"`

	Identity struct {
		BaseURL           string   `json:"base_url"`
		APIKey            string   `json:"api_key"`
		RequestTimeout    Duration `json:"request_timeout"`
		VerifyRedirectURL string   `json:"verify_redirect_url"`
	} `json:"identity,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Local struct {
			Path string `json:"path"`
		} `json:"local,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	RateLimit struct {
		WindowSize  Duration `json:"window_size"`
		MaxRequests int      `json:"max_requests"`
	} `json:"rate_limit,omitempty"`

	Quota struct {
		DefaultUsageLimit int `json:"default_usage_limit"`
	} `json:"quota,omitempty"`

	Workers struct {
		VerifyPollInterval Duration `json:"verify_poll_interval"`
		VerifyMaxAttempts  int      `json:"verify_max_attempts"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			EncryptionKey:       jsonCfg.App.EncryptionKey,
			ForceFallbackCipher: jsonCfg.App.ForceFallbackCipher,
			SessionDuration:     time.Duration(jsonCfg.App.SessionDuration),
			Environment:         jsonCfg.App.Environment,
		},
		Identity: Identity{
			BaseURL:           jsonCfg.Identity.BaseURL,
			APIKey:            jsonCfg.Identity.APIKey,
			RequestTimeout:    time.Duration(jsonCfg.Identity.RequestTimeout),
			VerifyRedirectURL: jsonCfg.Identity.VerifyRedirectURL,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Local: Local{
				Path: jsonCfg.Storage.Local.Path,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		RateLimit: RateLimit{
			WindowSize:  time.Duration(jsonCfg.RateLimit.WindowSize),
			MaxRequests: jsonCfg.RateLimit.MaxRequests,
		},
		Quota: Quota{
			DefaultUsageLimit: jsonCfg.Quota.DefaultUsageLimit,
		},
		Workers: Workers{
			VerifyPollInterval: time.Duration(jsonCfg.Workers.VerifyPollInterval),
			VerifyMaxAttempts:  jsonCfg.Workers.VerifyMaxAttempts,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
