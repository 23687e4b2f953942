package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
	Notify   NotifyConfig   `yaml:"notify"`
	Streak   StreakConfig   `yaml:"streak"`
	Janitor  JanitorConfig  `yaml:"janitor"`

	Validation ValidationConfig `yaml:"validation"`
}

// ServerConfig holds http, storage and tls settings.
type ServerConfig struct {
	Address       string    `yaml:"address"`
	Port          int       `yaml:"port"`
	DBPath        string    `yaml:"db_path"`
	BlobDir       string    `yaml:"blob_dir"`
	MaxUploadSize SizeBytes `yaml:"max_upload_size"`
	TLS           TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// ClassLimit is one sliding-window threshold; read, write, react and unlock
// paths each get their own.
type ClassLimit struct {
	Max    int      `yaml:"max"`
	Window Duration `yaml:"window"`
}

// SecurityConfig holds session, unlock and rate-limit settings.
type SecurityConfig struct {
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
	// RateLimit is the gateway-wide RPS guard applied before any handler;
	// the per-class sliding windows below are enforced per operation.
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Limits struct {
		Read   ClassLimit `yaml:"read"`
		Write  ClassLimit `yaml:"write"`
		React  ClassLimit `yaml:"react"`
		Unlock ClassLimit `yaml:"unlock"`
	} `yaml:"limits"`
	Session struct {
		TTL         Duration `yaml:"ttl"`
		SignKeyHex  string   `yaml:"sign_key_hex"`
		SignKeyFile string   `yaml:"sign_key_file"`
	} `yaml:"session"`
	Unlock struct {
		Code     string `yaml:"code"`
		CodeHash string `yaml:"code_hash"`
	} `yaml:"unlock"`
	CookieDomain string `yaml:"cookie_domain"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// NotifyConfig configures the external notification sink.
type NotifyConfig struct {
	Enabled    bool     `yaml:"enabled"`
	WebhookURL string   `yaml:"webhook_url"`
	Token      string   `yaml:"token"`
	Numbers    []string `yaml:"numbers"`
	Debounce   Duration `yaml:"debounce"`
}

// StreakConfig configures the streak computation.
type StreakConfig struct {
	Timezone string `yaml:"timezone"`
	Lookback int    `yaml:"lookback"`
}

// ValidationConfig bounds inbound message shape. Zero fields keep the
// built-in limits.
type ValidationConfig struct {
	MaxTextLen   int `yaml:"max_text_len"`
	MaxAuthorLen int `yaml:"max_author_len"`
}

// JanitorConfig configures the background sweeper.
type JanitorConfig struct {
	Enabled bool     `yaml:"enabled"`
	Cron    string   `yaml:"cron"`
	MaxIdle Duration `yaml:"max_idle"`
}

// Duration accepts either a Go duration string ("90s", "5m") or a plain
// integer number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	if s == "" {
		*d = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dd)
	return nil
}

func (d Duration) D() time.Duration { return time.Duration(d) }

// SizeBytes accepts humanized sizes ("10MB", "512 KiB") or plain byte counts.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(value *yaml.Node) error {
	v := strings.TrimSpace(value.Value)
	if v == "" {
		*s = 0
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		*s = SizeBytes(n)
		return nil
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", v, err)
	}
	*s = SizeBytes(n)
	return nil
}

// Addr returns the listen address from address/port, defaulting to :8080.
func (c *Config) Addr() string {
	addr := c.Server.Address
	port := c.Server.Port
	if addr == "" && port == 0 {
		return ":8080"
	}
	if port == 0 {
		if strings.Contains(addr, ":") {
			return addr
		}
		return addr + ":8080"
	}
	return fmt.Sprintf("%s:%d", addr, port)
}
