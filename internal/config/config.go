package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "America/Sao_Paulo"

	configPathEnv = "DJEN_SCANNER_CONFIG"
	databaseEnv   = "DATABASE_DSN"
	apiURLEnv     = "DJEN_API_URL"
	lawyerNameEnv = "LAWYER_NAME"
	webhookURLEnv = "WEBHOOK_URL"
	serverPortEnv = "SERVER_PORT"
	logLevelEnv   = "LOG_LEVEL"
	logFileEnv    = "LOG_FILE"
)

// Config holds high-level settings required across the application.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Database  DatabaseConfig  `yaml:"database"`
	Lawyer    LawyerConfig    `yaml:"lawyer"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Server    ServerConfig    `yaml:"server"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// APIConfig describes how to reach the DJEN communications API.
type APIConfig struct {
	URL            string `yaml:"url"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	PageSize       int    `yaml:"pageSize"`
	DaysBack       int    `yaml:"daysBack"`
}

// Timeout returns the request timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// DatabaseConfig describes Postgres connection details and table names.
type DatabaseConfig struct {
	DSN                string `yaml:"dsn"`
	NotificationsTable string `yaml:"notificationsTable"`
	CycleLogsTable     string `yaml:"cycleLogsTable"`
	TimeoutSeconds     int    `yaml:"timeoutSeconds"`
}

// Timeout bounds each store operation.
func (d DatabaseConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// OABRegistration is one professional-license registration queried each cycle.
type OABRegistration struct {
	Number string `yaml:"number"`
	UF     string `yaml:"uf"`
}

// LawyerConfig identifies the tracked lawyer and their registrations.
type LawyerConfig struct {
	Name          string            `yaml:"name"`
	Registrations []OABRegistration `yaml:"registrations"`
}

// SchedulerConfig defines when the daily extraction runs.
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

// ServerConfig describes the HTTP API surface.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

// WebhookConfig wires the optional automation webhook for cycle summaries.
type WebhookConfig struct {
	URL string `yaml:"url"`
}

// LoggingConfig controls level and the rotated log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
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

	if len(cfg.Lawyer.Registrations) == 0 {
		cfg.Lawyer.Registrations = defaultConfig().Lawyer.Registrations
	}

	return cfg
}

// Validate reports the settings without which the process cannot start.
func (c Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("config: database DSN is not configured (set %s)", databaseEnv)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(apiURLEnv); v != "" {
		c.API.URL = v
	}

	if v := os.Getenv(lawyerNameEnv); v != "" {
		c.Lawyer.Name = v
	}

	if v := os.Getenv(webhookURLEnv); v != "" {
		c.Webhook.URL = v
	}

	if v := os.Getenv(serverPortEnv); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 {
			c.Server.Port = port
		}
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(logFileEnv); v != "" {
		c.Logging.File = v
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
	if override.API.URL != "" {
		base.API.URL = override.API.URL
	}
	if override.API.TimeoutSeconds > 0 {
		base.API.TimeoutSeconds = override.API.TimeoutSeconds
	}
	if override.API.PageSize > 0 {
		base.API.PageSize = override.API.PageSize
	}
	if override.API.DaysBack > 0 {
		base.API.DaysBack = override.API.DaysBack
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.NotificationsTable != "" {
		base.Database.NotificationsTable = override.Database.NotificationsTable
	}
	if override.Database.CycleLogsTable != "" {
		base.Database.CycleLogsTable = override.Database.CycleLogsTable
	}
	if override.Database.TimeoutSeconds > 0 {
		base.Database.TimeoutSeconds = override.Database.TimeoutSeconds
	}

	if override.Lawyer.Name != "" {
		base.Lawyer.Name = override.Lawyer.Name
	}
	if len(override.Lawyer.Registrations) > 0 {
		base.Lawyer.Registrations = override.Lawyer.Registrations
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Server.Port > 0 {
		base.Server.Port = override.Server.Port
	}
	if len(override.Server.CORSOrigins) > 0 {
		base.Server.CORSOrigins = override.Server.CORSOrigins
	}

	if override.Webhook.URL != "" {
		base.Webhook.URL = override.Webhook.URL
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.File != "" {
		base.Logging.File = override.Logging.File
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		API: APIConfig{
			URL:            "https://comunicaapi.pje.jus.br/api/v1/comunicacao",
			TimeoutSeconds: 30,
			PageSize:       100,
			DaysBack:       1,
		},
		Database: DatabaseConfig{
			DSN:                "",
			NotificationsTable: "djen_notifications",
			CycleLogsTable:     "djen_cycle_logs",
			TimeoutSeconds:     15,
		},
		Lawyer: LawyerConfig{
			Name: "Eduardo Koetz",
			Registrations: []OABRegistration{
				{Number: "42934", UF: "SC"},
				{Number: "73409", UF: "RS"},
				{Number: "72951", UF: "PR"},
				{Number: "435266", UF: "SP"},
				{Number: "204531", UF: "MG"},
			},
		},
		Scheduler: SchedulerConfig{CronExpression: "0 6 * * *", Timezone: defaultTimezone, location: tz},
		Server: ServerConfig{
			Port:        8000,
			CORSOrigins: []string{"http://localhost:8000"},
		},
		Logging: LoggingConfig{Level: "info", File: "logs/djenscanner.log"},
	}
}
