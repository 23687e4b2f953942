package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EffectiveConfigResult is the merged view of file + env + flags that the
// rest of the server consumes.
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "config", or "env"
}

// ParseCommandFlags defines and parses command-line flags and returns their
// values plus the set of flags explicitly provided.
func ParseCommandFlags() (addr string, dbPath string, cfgPath string, setFlags map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	setFlags = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return *addrPtr, *dbPtr, *cfgPtr, setFlags
}

// ResolveConfigPath decides the config file path using the flag-provided
// value when set, otherwise the MSGDROP_CONFIG env var, otherwise the
// flag default.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("MSGDROP_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

// Load reads and parses the YAML config at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadEffective loads config from the given path (missing file is fine) and
// applies environment overrides on top. It returns the merged config and
// which source contributed last.
func LoadEffective(path string) (*EffectiveConfigResult, error) {
	cfg, err := Load(path)
	source := "config"
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		cfg = &Config{}
		source = "env"
	}
	if applyEnv(cfg) {
		source = "env"
	}
	applyDefaults(cfg)
	return &EffectiveConfigResult{Config: cfg, Addr: cfg.Addr(), DBPath: cfg.Server.DBPath, Source: source}, nil
}

func envStr(key string, dst *string, used *bool) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
		*used = true
	}
}

// applyEnv overlays MSGDROP_* environment variables and reports whether any
// were present.
func applyEnv(cfg *Config) bool {
	used := false
	envStr("MSGDROP_ADDR", &cfg.Server.Address, &used)
	envStr("MSGDROP_DB_PATH", &cfg.Server.DBPath, &used)
	envStr("MSGDROP_BLOB_DIR", &cfg.Server.BlobDir, &used)
	envStr("MSGDROP_LOG_LEVEL", &cfg.Logging.Level, &used)
	envStr("MSGDROP_SESSION_KEY", &cfg.Security.Session.SignKeyHex, &used)
	envStr("MSGDROP_SESSION_KEY_FILE", &cfg.Security.Session.SignKeyFile, &used)
	envStr("MSGDROP_UNLOCK_CODE", &cfg.Security.Unlock.Code, &used)
	envStr("MSGDROP_UNLOCK_CODE_HASH", &cfg.Security.Unlock.CodeHash, &used)
	envStr("MSGDROP_COOKIE_DOMAIN", &cfg.Security.CookieDomain, &used)
	envStr("MSGDROP_NOTIFY_WEBHOOK", &cfg.Notify.WebhookURL, &used)
	envStr("MSGDROP_NOTIFY_TOKEN", &cfg.Notify.Token, &used)
	envStr("MSGDROP_STREAK_TZ", &cfg.Streak.Timezone, &used)
	if v := strings.TrimSpace(os.Getenv("MSGDROP_SESSION_TTL_SECONDS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Security.Session.TTL = Duration(time.Duration(n) * time.Second)
			used = true
		}
	}
	if v := strings.TrimSpace(os.Getenv("MSGDROP_NOTIFY_NUMBERS")); v != "" {
		var nums []string
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				nums = append(nums, s)
			}
		}
		cfg.Notify.Numbers = nums
		used = true
	}
	return used
}

// applyDefaults fills the gaps a sparse config leaves.
func applyDefaults(cfg *Config) {
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = "./.database"
	}
	if cfg.Server.BlobDir == "" {
		cfg.Server.BlobDir = "./blob"
	}
	if cfg.Security.Session.TTL == 0 {
		cfg.Security.Session.TTL = Duration(5 * time.Minute)
	}
	if cfg.Security.Session.SignKeyFile == "" {
		cfg.Security.Session.SignKeyFile = "./.sesskey"
	}
	lim := &cfg.Security.Limits
	if lim.Read.Max == 0 {
		lim.Read = ClassLimit{Max: 120, Window: Duration(time.Minute)}
	}
	if lim.Write.Max == 0 {
		lim.Write = ClassLimit{Max: 60, Window: Duration(time.Minute)}
	}
	if lim.React.Max == 0 {
		lim.React = ClassLimit{Max: 90, Window: Duration(time.Minute)}
	}
	if lim.Unlock.Max == 0 {
		lim.Unlock = ClassLimit{Max: 5, Window: Duration(5 * time.Minute)}
	}
	if cfg.Notify.Debounce == 0 {
		cfg.Notify.Debounce = Duration(time.Minute)
	}
	if cfg.Streak.Timezone == "" {
		cfg.Streak.Timezone = "America/New_York"
	}
	if cfg.Streak.Lookback == 0 {
		cfg.Streak.Lookback = 5000
	}
	if cfg.Janitor.Cron == "" {
		cfg.Janitor.Cron = "0 * * * *"
	}
	if cfg.Janitor.MaxIdle == 0 {
		cfg.Janitor.MaxIdle = Duration(24 * time.Hour)
	}
}
