// Package config provides YAML-based configuration loading for Concierge.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level Concierge configuration, loaded from concierge.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Routing    RoutingConfig    `yaml:"routing"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Hotel      HotelConfig      `yaml:"hotel"`
	Telegraph  TelegraphConfig  `yaml:"telegraph"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port               int      `yaml:"port"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
}

// DatabaseConfig selects the relational store. Driver is "sqlite" (Path is
// the database file) or "mysql" (DSN, or Host/Port/Name/User).
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"-"` // CONCIERGE_DB_PASSWORD
}

// RoutingConfig holds the fuzzy-match thresholds (0-100) and the bound on
// the external classifier call.
type RoutingConfig struct {
	CatalogThreshold  int           `yaml:"catalog_threshold"`
	KeywordThreshold  int           `yaml:"keyword_threshold"`
	ClassifierTimeout time.Duration `yaml:"classifier_timeout"`
}

// ClassifierConfig controls the optional natural-language intent classifier.
type ClassifierConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"-"` // GEMINI_API_KEY
}

// SessionsConfig selects where dialogue state lives and when it expires.
type SessionsConfig struct {
	Backend       string        `yaml:"backend"` // memory or redis
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	Redis         RedisConfig   `yaml:"redis"`
}

// RedisConfig holds connection settings for the redis session backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
	Password  string `yaml:"-"` // REDIS_PASSWORD
}

// HotelConfig is the static property information used by the handlers.
type HotelConfig struct {
	Name                    string           `yaml:"name"`
	RoomMin                 int              `yaml:"room_min"`
	RoomMax                 int              `yaml:"room_max"`
	SeedRooms               []int            `yaml:"seed_rooms"`
	CheckIn                 string           `yaml:"check_in"`
	CheckOut                string           `yaml:"check_out"`
	Facilities              []FacilityConfig `yaml:"facilities"`
	HousekeepingDefaultRoom int              `yaml:"housekeeping_default_room"`
	Currency                string           `yaml:"currency"`
}

// FacilityConfig describes one named on-site facility.
type FacilityConfig struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label"`
	Info  string `yaml:"info"`
}

// TelegraphConfig holds chat-platform bridge settings.
type TelegraphConfig struct {
	Platform     string        `yaml:"platform"` // slack or discord
	Channel      string        `yaml:"channel"`
	StaffChannel string        `yaml:"staff_channel"`
	PollInterval time.Duration `yaml:"poll_interval"`
	DailyDigest  string        `yaml:"daily_digest"` // 5-field cron expression
	Slack        SlackConfig   `yaml:"-"`
	Discord      DiscordConfig `yaml:"-"`
}

// SlackConfig holds Slack tokens, read from the environment only.
type SlackConfig struct {
	AppToken string
	BotToken string
}

// DiscordConfig holds the Discord bot token, read from the environment only.
type DiscordConfig struct {
	BotToken string
}

// Load reads a YAML config file from path and returns a validated Config.
// A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Default returns the validated configuration used when no file exists.
func Default() (*Config, error) {
	_ = godotenv.Load()
	return Parse(nil)
}

// Parse unmarshals YAML bytes into a validated Config. Secrets and a few
// deployment overrides are taken from the environment.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv copies secrets and overrides from the environment.
func (c *Config) applyEnv(getenv func(string) string) error {
	c.Classifier.APIKey = getenv("GEMINI_API_KEY")
	c.Sessions.Redis.Password = getenv("REDIS_PASSWORD")
	c.Database.Password = getenv("CONCIERGE_DB_PASSWORD")
	c.Telegraph.Slack.AppToken = getenv("SLACK_APP_TOKEN")
	c.Telegraph.Slack.BotToken = getenv("SLACK_BOT_TOKEN")
	c.Telegraph.Discord.BotToken = getenv("DISCORD_BOT_TOKEN")

	if dsn := getenv("CONCIERGE_DATABASE_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if port := getenv("CONCIERGE_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("config: invalid CONCIERGE_PORT %q: %w", port, err)
		}
		c.Server.Port = p
	}
	return nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = 60
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 10
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "concierge.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.Name == "" {
			c.Database.Name = "concierge"
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	}

	if c.Routing.CatalogThreshold == 0 {
		c.Routing.CatalogThreshold = 65
	}
	if c.Routing.KeywordThreshold == 0 {
		c.Routing.KeywordThreshold = 75
	}
	if c.Routing.ClassifierTimeout == 0 {
		c.Routing.ClassifierTimeout = 5 * time.Second
	}

	if c.Classifier.Model == "" {
		c.Classifier.Model = "gemini-2.5-flash"
	}

	if c.Sessions.Backend == "" {
		c.Sessions.Backend = "memory"
	}
	if c.Sessions.IdleTimeout == 0 {
		c.Sessions.IdleTimeout = 30 * time.Minute
	}
	if c.Sessions.SweepInterval == 0 {
		c.Sessions.SweepInterval = time.Minute
	}
	if c.Sessions.Redis.Addr == "" {
		c.Sessions.Redis.Addr = "localhost:6379"
	}
	if c.Sessions.Redis.KeyPrefix == "" {
		c.Sessions.Redis.KeyPrefix = "concierge:dialogue:"
	}

	c.Hotel.applyDefaults()

	if c.Telegraph.PollInterval == 0 {
		c.Telegraph.PollInterval = 15 * time.Second
	}
	if c.Telegraph.DailyDigest == "" {
		c.Telegraph.DailyDigest = "0 22 * * *"
	}
	if c.Telegraph.StaffChannel == "" {
		c.Telegraph.StaffChannel = c.Telegraph.Channel
	}
}

func (h *HotelConfig) applyDefaults() {
	if h.Name == "" {
		h.Name = "the resort"
	}
	if h.RoomMin == 0 && h.RoomMax == 0 {
		h.RoomMin, h.RoomMax = 100, 109
	}
	if len(h.SeedRooms) == 0 {
		for n := 101; n <= 110; n++ {
			h.SeedRooms = append(h.SeedRooms, n)
		}
	}
	if h.CheckIn == "" {
		h.CheckIn = "2:00 PM"
	}
	if h.CheckOut == "" {
		h.CheckOut = "11:00 AM"
	}
	if len(h.Facilities) == 0 {
		h.Facilities = []FacilityConfig{
			{Name: "gym", Label: "Gym", Info: "🏋️ Our gym is open from 6:00 AM to 10:00 PM."},
			{Name: "spa", Label: "Spa", Info: "💆 Our spa operates from 9:00 AM to 8:00 PM."},
			{Name: "pool", Label: "Swimming Pool", Info: "🏊 The swimming pool is open from 7:00 AM to 9:00 PM."},
		}
	}
	for i := range h.Facilities {
		if h.Facilities[i].Label == "" && h.Facilities[i].Name != "" {
			h.Facilities[i].Label = strings.ToUpper(h.Facilities[i].Name[:1]) + h.Facilities[i].Name[1:]
		}
	}
	if h.HousekeepingDefaultRoom == 0 {
		h.HousekeepingDefaultRoom = 101
	}
	if h.Currency == "" {
		h.Currency = "₹"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.RateLimitPerMinute < 0 {
		errs = append(errs, "server.rate_limit_per_minute must not be negative")
	}

	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}

	if !validThreshold(c.Routing.CatalogThreshold) {
		errs = append(errs, "routing.catalog_threshold must be between 1 and 100")
	}
	if !validThreshold(c.Routing.KeywordThreshold) {
		errs = append(errs, "routing.keyword_threshold must be between 1 and 100")
	}
	if c.Routing.ClassifierTimeout < 0 {
		errs = append(errs, "routing.classifier_timeout must not be negative")
	}

	switch c.Sessions.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Sprintf("sessions.backend %q is not supported (memory, redis)", c.Sessions.Backend))
	}
	if c.Sessions.IdleTimeout < 0 {
		errs = append(errs, "sessions.idle_timeout must not be negative")
	}

	if c.Hotel.RoomMin < 100 || c.Hotel.RoomMax > 999 || c.Hotel.RoomMin > c.Hotel.RoomMax {
		errs = append(errs, fmt.Sprintf("hotel room range %d-%d must be three-digit and ordered", c.Hotel.RoomMin, c.Hotel.RoomMax))
	}
	for i, f := range c.Hotel.Facilities {
		if f.Name == "" {
			errs = append(errs, fmt.Sprintf("hotel.facilities[%d].name is required", i))
		}
	}

	switch c.Telegraph.Platform {
	case "", "slack", "discord":
	default:
		errs = append(errs, fmt.Sprintf("telegraph.platform %q is not supported (slack, discord)", c.Telegraph.Platform))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validThreshold(v int) bool {
	return v >= 1 && v <= 100
}
