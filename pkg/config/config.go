// Package config provides configuration management for the bot.
// It loads environment variables and makes them available throughout the application.
package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the bot
type Config struct {
	// Discord
	BotToken   string
	DevGuildID string

	// Storage
	StoreDriver   string // mongo, sqlite or memory
	MongoDBURL    string
	DBName        string
	SQLitePath    string
	RedisURL      string
	LedgerBackend string // store or redis

	// MQTT
	MQTTHost          string
	MQTTPort          string
	MQTTUser          string
	MQTTPassword      string
	MQTTDecisionTopic string

	// Web Server
	Port         string
	AllowedHosts string // regexp, empty allows every host
	APIToken     string

	// Environment
	Environment string

	// Webhooks
	ErrorWebhook      string
	LogsWebhook       string
	LogsWebServerHook string

	// Moderation
	PlatformTimeout     time.Duration
	PersistTimeout      time.Duration
	LedgerAttempts      int
	ConfigCacheTTL      time.Duration
	ConfigCacheSize     int
	SpamWindow          time.Duration
	SpamRepeatThreshold int
	BlockedExtensions   []string
	MaxAttachmentBytes  int
}

var (
	Version   = "Dev-Local"
	BuildTime = "Hoy"
)

// cfg holds the global configuration instance
var (
	cfg     *Config
	cfgOnce sync.Once
)

// resetForTesting resets the configuration for testing purposes.
// This function should only be called from test code.
func resetForTesting() {
	cfg = nil
	cfgOnce = sync.Once{}
}

// loadConfig performs the actual configuration loading
func loadConfig() {
	// Load .env file if it exists (ignoring error if it doesn't)
	_ = godotenv.Load()

	cfg = &Config{
		// Discord
		BotToken:   getEnv("botToken", ""),
		DevGuildID: getEnv("devGuildId", ""),

		// Storage
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
		MongoDBURL:    getEnv("mongodbUrl", "mongodb://localhost:27017"),
		DBName:        getEnv("dbName", "PancyGuard"),
		SQLitePath:    getEnv("SQLITE_PATH", "./data/pancyguard.db"),
		RedisURL:      getEnv("REDIS_URL", ""),
		LedgerBackend: strings.ToLower(getEnv("LEDGER_BACKEND", "store")),

		// MQTT
		MQTTHost:          getEnv("MQTT_Host", "localhost"),
		MQTTPort:          getEnv("MQTT_Port", "1883"),
		MQTTUser:          getEnv("MQTT_User", ""),
		MQTTPassword:      getEnv("MQTT_Password", ""),
		MQTTDecisionTopic: getEnv("MQTT_DECISION_TOPIC", "pancy/moderation/decisions"),

		// Web Server
		Port:         getEnv("PORT", "3000"),
		AllowedHosts: getEnv("WEB_ALLOWED_HOSTS", `^(.+\.)?miau\.media`),
		APIToken:     getEnv("API_TOKEN", ""),

		// Environment
		Environment: getEnv("enviroment", "dev"),

		// Webhooks
		ErrorWebhook:      getEnv("errorWebhook", ""),
		LogsWebhook:       getEnv("logsWebhook", ""),
		LogsWebServerHook: getEnv("logsWebServerWebhook", ""),

		// Moderation
		PlatformTimeout:     getEnvDuration("PLATFORM_TIMEOUT", 5*time.Second),
		PersistTimeout:      getEnvDuration("PERSIST_TIMEOUT", 5*time.Second),
		LedgerAttempts:      getEnvInt("LEDGER_ATTEMPTS", 1),
		ConfigCacheTTL:      getEnvDuration("CONFIG_CACHE_TTL", time.Minute),
		ConfigCacheSize:     getEnvInt("CONFIG_CACHE_SIZE", 1000),
		SpamWindow:          getEnvDuration("SPAM_WINDOW", 30*time.Second),
		SpamRepeatThreshold: getEnvInt("SPAM_REPEAT_THRESHOLD", 3),
		BlockedExtensions:   getEnvList("BLOCKED_ATTACHMENT_EXTENSIONS", []string{".exe", ".scr", ".bat", ".cmd", ".msi", ".jar"}),
		MaxAttachmentBytes:  getEnvInt("MAX_ATTACHMENT_BYTES", 25*1024*1024),
	}
}

// Load initializes the configuration from environment variables
func Load() (*Config, error) {
	cfgOnce.Do(loadConfig)
	return cfg, nil
}

// Get returns the current configuration
func Get() *Config {
	// Use sync.Once to ensure thread-safe initialization if Load wasn't called
	cfgOnce.Do(loadConfig)
	return cfg
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt parses an integer variable, falling back to the default on error
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration parses a Go duration ("5s", "1m") variable
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

// IsProd returns true if the environment is production
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
