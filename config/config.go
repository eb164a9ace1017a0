// Package config loads server configuration from an optional YAML file.
//
// Everything has a sensible default so the server runs with no config file
// at all; flags in cmd/server override the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/attendance-engine/attendance"
)

// Config is the full application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Attendance AttendanceConfig `yaml:"attendance"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	// Path is the SQLite database file; ":memory:" for in-memory.
	Path string `yaml:"path"`
}

type AttendanceConfig struct {
	// WeeklyTargetMinutes is the fixed weekly work target used for the
	// completion percentage. One value for everyone, never per employee.
	WeeklyTargetMinutes int `yaml:"weekly_target_minutes"`

	// GateReopenHour is the local hour on the following Monday at which a
	// closed issuance gate reopens.
	GateReopenHour int `yaml:"gate_reopen_hour"`

	// Timezone is an IANA zone name for all calendar-date extraction.
	// Empty means the system local zone.
	Timezone string `yaml:"timezone"`

	// PerEmployeeTimeoutRaw bounds one employee's unit of work during a
	// company batch, e.g. "10s".
	PerEmployeeTimeoutRaw string        `yaml:"per_employee_timeout"`
	PerEmployeeTimeout    time.Duration `yaml:"-"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080},
		Database: DatabaseConfig{Path: "attendance.db"},
		Attendance: AttendanceConfig{
			WeeklyTargetMinutes: attendance.DefaultWeeklyTargetMinutes,
			GateReopenHour:      attendance.DefaultGateReopenHour,
			PerEmployeeTimeout:  attendance.DefaultPerEmployeeTimeout,
		},
	}
}

// Load reads and validates the file at path, filling defaults for anything
// unset.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must be set")
	}

	a := &c.Attendance
	if a.WeeklyTargetMinutes <= 0 {
		a.WeeklyTargetMinutes = attendance.DefaultWeeklyTargetMinutes
	}
	if a.GateReopenHour < 0 || a.GateReopenHour > 23 {
		return fmt.Errorf("config: attendance.gate_reopen_hour %d out of range", a.GateReopenHour)
	}
	if a.GateReopenHour == 0 {
		a.GateReopenHour = attendance.DefaultGateReopenHour
	}
	if a.Timezone != "" {
		if _, err := time.LoadLocation(a.Timezone); err != nil {
			return fmt.Errorf("config: attendance.timezone: %w", err)
		}
	}
	if a.PerEmployeeTimeoutRaw != "" {
		d, err := time.ParseDuration(a.PerEmployeeTimeoutRaw)
		if err != nil {
			return fmt.Errorf("config: attendance.per_employee_timeout: %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("config: attendance.per_employee_timeout must be positive")
		}
		a.PerEmployeeTimeout = d
	} else if a.PerEmployeeTimeout <= 0 {
		a.PerEmployeeTimeout = attendance.DefaultPerEmployeeTimeout
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() *time.Location {
	if c.Attendance.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Attendance.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
