package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "FILM_SCANNER_CONFIG"
	storePathEnv      = "FILM_SCANNER_STORE"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Store         StoreConfig        `yaml:"store"`
	Output        OutputConfig       `yaml:"output"`
	Filters       FilterConfig       `yaml:"filters"`
	Rating        LookupConfig       `yaml:"rating"`
	Torrent       LookupConfig       `yaml:"torrent"`
	HTTP          HTTPConfig         `yaml:"http"`
	Notifications NotificationConfig `yaml:"notifications"`
	Feeds         []FeedConfig       `yaml:"feeds"`
}

// LoggingConfig selects the log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SchedulerConfig defines when the scanner should run. An empty cron
// expression means a single pass per invocation.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// StoreConfig points at the processed-release database file.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// OutputConfig describes the published feed document.
type OutputConfig struct {
	Path        string `yaml:"path"`
	Title       string `yaml:"title"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
}

// FilterConfig carries the operator acceptance criteria.
type FilterConfig struct {
	Qualities    []string `yaml:"qualities"`
	MinYear      int      `yaml:"minYear"`
	BannedGenres []string `yaml:"bannedGenres"`
	MinCritics   int      `yaml:"minCriticsRating"`
	MinUsers     int      `yaml:"minUsersRating"`
}

// LookupConfig is a query URL template with a {query} placeholder.
type LookupConfig struct {
	QueryURL string `yaml:"queryUrl"`
}

// HTTPConfig bounds outbound requests. Durations are Go duration strings
// ("20s", "1m30s").
type HTTPConfig struct {
	Timeout      string `yaml:"timeout"`
	RequestEvery string `yaml:"requestEvery"`
	Burst        int    `yaml:"burst"`
}

// TimeoutDuration parses the per-request timeout.
func (h HTTPConfig) TimeoutDuration() time.Duration {
	return parseDuration(h.Timeout, 20*time.Second)
}

// RequestInterval parses the minimum spacing between outbound requests.
func (h HTTPConfig) RequestInterval() time.Duration {
	return parseDuration(h.RequestEvery, 2*time.Second)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config: invalid duration %q, using %s", raw, fallback)
		return fallback
	}
	return d
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// FeedConfig describes a single monitored feed with its extraction patterns.
// The title pattern must capture exactly four groups: title, year, quality,
// trailing tag.
type FeedConfig struct {
	URL             string `yaml:"url"`
	Scanner         string `yaml:"scanner"`
	TitlePattern    string `yaml:"titlePattern"`
	GenrePattern    string `yaml:"genrePattern"`
	LanguagePattern string `yaml:"languagePattern"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Feeds) == 0 {
		cfg.Feeds = defaultConfig().Feeds
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(storePathEnv); v != "" {
		c.Store.Path = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Store.Path != "" {
		base.Store = override.Store
	}

	if override.Output.Path != "" {
		base.Output.Path = override.Output.Path
	}
	if override.Output.Title != "" {
		base.Output.Title = override.Output.Title
	}
	if override.Output.Link != "" {
		base.Output.Link = override.Output.Link
	}
	if override.Output.Description != "" {
		base.Output.Description = override.Output.Description
	}

	if len(override.Filters.Qualities) > 0 {
		base.Filters.Qualities = override.Filters.Qualities
	}
	if override.Filters.MinYear != 0 {
		base.Filters.MinYear = override.Filters.MinYear
	}
	if len(override.Filters.BannedGenres) > 0 {
		base.Filters.BannedGenres = override.Filters.BannedGenres
	}
	if override.Filters.MinCritics != 0 {
		base.Filters.MinCritics = override.Filters.MinCritics
	}
	if override.Filters.MinUsers != 0 {
		base.Filters.MinUsers = override.Filters.MinUsers
	}

	if override.Rating.QueryURL != "" {
		base.Rating = override.Rating
	}
	if override.Torrent.QueryURL != "" {
		base.Torrent = override.Torrent
	}

	if override.HTTP.Timeout != "" {
		base.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.RequestEvery != "" {
		base.HTTP.RequestEvery = override.HTTP.RequestEvery
	}
	if override.HTTP.Burst != 0 {
		base.HTTP.Burst = override.HTTP.Burst
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging:   LoggingConfig{Level: "info"},
		Scheduler: SchedulerConfig{Timezone: defaultTimezone, location: tz},
		Store:     StoreConfig{Path: "filmscanner.db"},
		Output: OutputConfig{
			Path:        "releases.xml",
			Title:       "FilmScanner releases",
			Link:        "https://localhost/releases.xml",
			Description: "Accepted film releases",
		},
		Filters: FilterConfig{
			Qualities:  []string{"720P", "1080P"},
			MinYear:    2010,
			MinCritics: 70,
			MinUsers:   75,
		},
		Rating:  LookupConfig{QueryURL: "https://ratings.example.org/search?q={query}"},
		Torrent: LookupConfig{QueryURL: "https://torrents.example.org/rss?q={query}"},
		HTTP: HTTPConfig{
			Timeout:      "20s",
			RequestEvery: "2s",
			Burst:        1,
		},
		Feeds: []FeedConfig{
			{
				URL:             "https://feeds.example.org/films.xml",
				Scanner:         "rss",
				TitlePattern:    `(.+?) (\d{4}) (.+?)-(\S+)`,
				GenrePattern:    `Genres?:\s*([^<\n]+)`,
				LanguagePattern: `(?i)English`,
			},
		},
	}
}
