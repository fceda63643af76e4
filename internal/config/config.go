package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every setting of the widget backend.
type Config struct {
	Server   ServerConfig
	Dialogue DialogueConfig
	Widget   WidgetConfig
	Log      LogConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	dialogue, err := loadDialogueConfig()
	if err != nil {
		return nil, err
	}

	widget, err := loadWidgetConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:   server,
		Dialogue: dialogue,
		Widget:   widget,
		Log:      loadLogConfig(),
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are taken verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// DialogueConfig points at the remote dialogue webhook.
type DialogueConfig struct {
	BaseURL  string
	Path     string
	SenderID string
	// Timeout bounds one round trip. Zero waits forever.
	Timeout time.Duration
}

// Endpoint joins BaseURL and Path.
func (c DialogueConfig) Endpoint() string {
	base := strings.TrimRight(c.BaseURL, "/")
	path := c.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

func loadDialogueConfig() (DialogueConfig, error) {
	baseURL := getEnvOrDefault("DIALOGUE_BASE_URL", "http://localhost:5006")
	if u, err := url.Parse(baseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return DialogueConfig{}, fmt.Errorf("invalid DIALOGUE_BASE_URL value %q", baseURL)
	}

	timeout, err := parseDurationEnv("DIALOGUE_TIMEOUT", 30*time.Second)
	if err != nil {
		return DialogueConfig{}, err
	}
	if timeout < 0 {
		return DialogueConfig{}, fmt.Errorf("invalid DIALOGUE_TIMEOUT value %q: must not be negative", timeout)
	}

	return DialogueConfig{
		BaseURL:  baseURL,
		Path:     getEnvOrDefault("DIALOGUE_PATH", "/webhooks/rest/webhook"),
		SenderID: getEnvOrDefault("DIALOGUE_SENDER", "user"),
		Timeout:  timeout,
	}, nil
}

// WidgetConfig covers the rendering boundary.
type WidgetConfig struct {
	ProfileID      string
	RevealInterval time.Duration
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
}

func loadWidgetConfig() (WidgetConfig, error) {
	interval, err := parseDurationEnv("WIDGET_REVEAL_INTERVAL", 12*time.Millisecond)
	if err != nil {
		return WidgetConfig{}, err
	}
	if interval <= 0 {
		return WidgetConfig{}, fmt.Errorf("invalid WIDGET_REVEAL_INTERVAL value %q: must be positive", interval)
	}

	rateLimit := 5.0
	if override, err := parseOptionalFloatEnv("WIDGET_RATE_LIMIT"); err != nil {
		return WidgetConfig{}, err
	} else if override != nil {
		rateLimit = *override
	}

	rateBurst := 10
	if override, err := parseOptionalIntEnv("WIDGET_RATE_BURST"); err != nil {
		return WidgetConfig{}, err
	} else if override != nil {
		if *override < 1 {
			rateBurst = 1
		} else {
			rateBurst = *override
		}
	}

	return WidgetConfig{
		ProfileID:      getEnvOrDefault("WIDGET_PROFILE", "fsg"),
		RevealInterval: interval,
		RateLimit:      rateLimit,
		RateBurst:      rateBurst,
		AllowedOrigins: splitList(getEnvOrDefault("WIDGET_ALLOWED_ORIGINS", "*")),
	}, nil
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "console"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	if raw == "0" {
		return 0, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
