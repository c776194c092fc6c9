package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env string // "dev" | "prod"

	// AuthorizedID is the one tag id treated as granting access.
	AuthorizedID uint64

	// Timing
	PollInterval     time.Duration
	CaptureDelay     time.Duration
	CodeDelay        time.Duration // must exceed CaptureDelay
	NotificationHold time.Duration
	WarmupDelay      time.Duration
	CaptureCooldown  time.Duration
	CodeHold         time.Duration

	// Paths
	ImageDir    string // capture output directory, created at startup
	LogPath     string // file whose contents are encoded into the code
	QRDebugPath string // "" disables the debug PNG

	// Hardware
	SPIDev        string
	I2CBus        string
	ResetPin      string
	IRQPin        string
	DisplayW      int
	DisplayH      int
	CaptureWidth  int
	CaptureHeight int

	// Capture retention
	CaptureRetentionDays int // 0 = keep forever
	PruneIntervalHours   int // how often the pruner runs (default 6)

	EventLogCap int
}

func Defaults() Config {
	return Config{
		Env: "dev",

		AuthorizedID: 1047839255856,

		PollInterval:     100 * time.Millisecond,
		CaptureDelay:     5 * time.Second,
		CodeDelay:        6 * time.Second,
		NotificationHold: 2 * time.Second,
		WarmupDelay:      2 * time.Second,
		CaptureCooldown:  10 * time.Second,
		CodeHold:         5 * time.Second,

		ImageDir: "./data/captures",
		LogPath:  "./data/access.log",

		SPIDev:        "SPI0.0",
		I2CBus:        "1",
		ResetPin:      "GPIO25",
		IRQPin:        "GPIO24",
		DisplayW:      128,
		DisplayH:      64,
		CaptureWidth:  1024,
		CaptureHeight: 768,

		CaptureRetentionDays: 30,
		PruneIntervalHours:   6,

		EventLogCap: 1024,
	}
}

// Load builds the configuration in three layers: defaults, then the YAML
// file named by TAGWATCH_CONFIG (if any), then TAGWATCH_* env vars.
// Individually malformed env values fall back to the previous layer; a
// named config file that cannot be read or parsed is a hard error.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("TAGWATCH_CONFIG")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	if cfg.CodeDelay <= cfg.CaptureDelay {
		return Config{}, fmt.Errorf("code delay (%s) must exceed capture delay (%s)",
			cfg.CodeDelay, cfg.CaptureDelay)
	}
	return cfg, nil
}

// fileConfig mirrors Config in YAML-friendly form: durations as strings,
// numerics as pointers so "absent" and "zero" stay distinguishable.
type fileConfig struct {
	Env          string  `yaml:"env"`
	AuthorizedID *uint64 `yaml:"authorized_id"`

	PollInterval     string `yaml:"poll_interval"`
	CaptureDelay     string `yaml:"capture_delay"`
	CodeDelay        string `yaml:"code_delay"`
	NotificationHold string `yaml:"notification_hold"`
	WarmupDelay      string `yaml:"warmup_delay"`
	CaptureCooldown  string `yaml:"capture_cooldown"`
	CodeHold         string `yaml:"code_hold"`

	ImageDir    string `yaml:"image_dir"`
	LogPath     string `yaml:"log_path"`
	QRDebugPath string `yaml:"qr_debug_path"`

	SPIDev        string `yaml:"spi_dev"`
	I2CBus        string `yaml:"i2c_bus"`
	ResetPin      string `yaml:"reset_pin"`
	IRQPin        string `yaml:"irq_pin"`
	DisplayW      *int   `yaml:"display_w"`
	DisplayH      *int   `yaml:"display_h"`
	CaptureWidth  *int   `yaml:"capture_width"`
	CaptureHeight *int   `yaml:"capture_height"`

	CaptureRetentionDays *int `yaml:"capture_retention_days"`
	PruneIntervalHours   *int `yaml:"prune_interval_hours"`
	EventLogCap          *int `yaml:"event_log_cap"`
}

func applyFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.Env, fc.Env)
	if fc.AuthorizedID != nil {
		cfg.AuthorizedID = *fc.AuthorizedID
	}

	setDuration(&cfg.PollInterval, fc.PollInterval)
	setDuration(&cfg.CaptureDelay, fc.CaptureDelay)
	setDuration(&cfg.CodeDelay, fc.CodeDelay)
	setDuration(&cfg.NotificationHold, fc.NotificationHold)
	setDuration(&cfg.WarmupDelay, fc.WarmupDelay)
	setDuration(&cfg.CaptureCooldown, fc.CaptureCooldown)
	setDuration(&cfg.CodeHold, fc.CodeHold)

	setString(&cfg.ImageDir, fc.ImageDir)
	setString(&cfg.LogPath, fc.LogPath)
	setString(&cfg.QRDebugPath, fc.QRDebugPath)

	setString(&cfg.SPIDev, fc.SPIDev)
	setString(&cfg.I2CBus, fc.I2CBus)
	setString(&cfg.ResetPin, fc.ResetPin)
	setString(&cfg.IRQPin, fc.IRQPin)
	setInt(&cfg.DisplayW, fc.DisplayW)
	setInt(&cfg.DisplayH, fc.DisplayH)
	setInt(&cfg.CaptureWidth, fc.CaptureWidth)
	setInt(&cfg.CaptureHeight, fc.CaptureHeight)

	setInt(&cfg.CaptureRetentionDays, fc.CaptureRetentionDays)
	setInt(&cfg.PruneIntervalHours, fc.PruneIntervalHours)
	setInt(&cfg.EventLogCap, fc.EventLogCap)

	return nil
}

func applyEnv(cfg *Config) {
	cfg.Env = strings.ToLower(getenvDefault("TAGWATCH_ENV", cfg.Env))
	cfg.AuthorizedID = getenvUint64("TAGWATCH_AUTHORIZED_ID", cfg.AuthorizedID)

	cfg.PollInterval = getenvDuration("TAGWATCH_POLL_INTERVAL", cfg.PollInterval)
	cfg.CaptureDelay = getenvDuration("TAGWATCH_CAPTURE_DELAY", cfg.CaptureDelay)
	cfg.CodeDelay = getenvDuration("TAGWATCH_CODE_DELAY", cfg.CodeDelay)
	cfg.NotificationHold = getenvDuration("TAGWATCH_NOTIFICATION_HOLD", cfg.NotificationHold)
	cfg.WarmupDelay = getenvDuration("TAGWATCH_WARMUP_DELAY", cfg.WarmupDelay)
	cfg.CaptureCooldown = getenvDuration("TAGWATCH_CAPTURE_COOLDOWN", cfg.CaptureCooldown)
	cfg.CodeHold = getenvDuration("TAGWATCH_CODE_HOLD", cfg.CodeHold)

	cfg.ImageDir = getenvDefault("TAGWATCH_IMAGE_DIR", cfg.ImageDir)
	cfg.LogPath = getenvDefault("TAGWATCH_LOG_PATH", cfg.LogPath)
	cfg.QRDebugPath = getenvDefault("TAGWATCH_QR_DEBUG_PATH", cfg.QRDebugPath)

	cfg.SPIDev = getenvDefault("TAGWATCH_SPI_DEV", cfg.SPIDev)
	cfg.I2CBus = getenvDefault("TAGWATCH_I2C_BUS", cfg.I2CBus)
	cfg.ResetPin = getenvDefault("TAGWATCH_RESET_PIN", cfg.ResetPin)
	cfg.IRQPin = getenvDefault("TAGWATCH_IRQ_PIN", cfg.IRQPin)
	cfg.DisplayW = getenvInt("TAGWATCH_DISPLAY_W", cfg.DisplayW)
	cfg.DisplayH = getenvInt("TAGWATCH_DISPLAY_H", cfg.DisplayH)
	cfg.CaptureWidth = getenvInt("TAGWATCH_CAPTURE_WIDTH", cfg.CaptureWidth)
	cfg.CaptureHeight = getenvInt("TAGWATCH_CAPTURE_HEIGHT", cfg.CaptureHeight)

	cfg.CaptureRetentionDays = getenvInt("TAGWATCH_CAPTURE_RETENTION_DAYS", cfg.CaptureRetentionDays)
	cfg.PruneIntervalHours = getenvInt("TAGWATCH_PRUNE_INTERVAL_HOURS", cfg.PruneIntervalHours)
	cfg.EventLogCap = getenvInt("TAGWATCH_EVENT_LOG_CAP", cfg.EventLogCap)
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil && *v >= 0 {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		*dst = d
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvUint64(key string, def uint64) uint64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
