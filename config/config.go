package config

import (
	"encoding/json"
	"log"
	"os"
)

type Configuration struct {
	ApiPort  string `json:"api_port"`
	LogLevel string `json:"log_level"`

	Database string `json:"database"` // "sqlite3" or "postgres"
	DbHost   string `json:"db_host"`
	DbPort   string `json:"db_port"`
	DbUser   string `json:"db_user"`
	DbName   string `json:"db_name"`
	DbPass   string `json:"db_pass"`

	Security struct {
		JwtSecret string `json:"jwt_secret"`
	} `json:"security"`

	Insights struct {
		StalenessHours int    `json:"staleness_hours"`
		LockTTLSeconds int    `json:"lock_ttl_seconds"`
		WindowDays     int    `json:"window_days"`
		Model          string `json:"model"`
	} `json:"insights"`
}

func Get(path string) Configuration {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	var c Configuration
	if err := json.Unmarshal(b, &c); err != nil {
		log.Fatal(err)
	}

	// defaults
	if c.ApiPort == "" {
		c.ApiPort = "8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Database == "" {
		c.Database = "sqlite3"
	}
	if c.Security.JwtSecret == "" {
		c.Security.JwtSecret = "CHANGE_ME"
	}
	if c.Insights.StalenessHours <= 0 {
		c.Insights.StalenessHours = 6
	}
	if c.Insights.LockTTLSeconds <= 0 {
		c.Insights.LockTTLSeconds = 90
	}
	if c.Insights.WindowDays <= 0 {
		c.Insights.WindowDays = 14
	}

	return c
}
