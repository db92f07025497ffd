package database

import (
	"strings"
	"testing"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Driver != DriverSQLite {
		t.Errorf("Driver = %q, want %q", cfg.Driver, DriverSQLite)
	}
	if cfg.MaxOpenConns != 25 {
		t.Errorf("MaxOpenConns = %d, want 25", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns != 5 {
		t.Errorf("MaxIdleConns = %d, want 5", cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "1h" {
		t.Errorf("ConnMaxLifetime = %q, want 1h", cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime != "5m" {
		t.Errorf("ConnMaxIdleTime = %q, want 5m", cfg.ConnMaxIdleTime)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.SlowQueryThreshold != "200ms" {
		t.Errorf("SlowQueryThreshold = %q, want 200ms", cfg.SlowQueryThreshold)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestConfig_ApplyDefaults_PreservesExistingValues(t *testing.T) {
	cfg := Config{
		Driver:             "MySQL",
		MaxOpenConns:       50,
		MaxIdleConns:       10,
		ConnMaxLifetime:    "2h",
		MaxRetries:         3,
		SlowQueryThreshold: "1s",
		LogLevel:           "info",
	}
	cfg.ApplyDefaults()

	if cfg.Driver != DriverMySQL {
		t.Errorf("Driver = %q, want %q", cfg.Driver, DriverMySQL)
	}
	if cfg.MaxOpenConns != 50 || cfg.MaxIdleConns != 10 {
		t.Errorf("pool = %d/%d, want 50/10", cfg.MaxOpenConns, cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "2h" || cfg.SlowQueryThreshold != "1s" || cfg.LogLevel != "info" {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg := Config{Enabled: true, DSN: "file::memory:"}
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "disabled skips validation", mutate: func(c *Config) { *c = Config{} }},
		{name: "mysql driver", mutate: func(c *Config) { c.Driver = DriverMySQL }},
		{name: "unknown driver", mutate: func(c *Config) { c.Driver = "postgres" }, wantErr: "unsupported database driver"},
		{name: "missing dsn", mutate: func(c *Config) { c.DSN = "" }, wantErr: "DSN is required"},
		{name: "zero max open", mutate: func(c *Config) { c.MaxOpenConns = 0 }, wantErr: "max_open_conns"},
		{name: "zero max idle", mutate: func(c *Config) { c.MaxIdleConns = 0 }, wantErr: "max_idle_conns must be > 0"},
		{name: "idle above open", mutate: func(c *Config) { c.MaxIdleConns = 30 }, wantErr: "must be <= max_open_conns"},
		{name: "bad lifetime", mutate: func(c *Config) { c.ConnMaxLifetime = "forever" }, wantErr: "conn_max_lifetime"},
		{name: "bad idle time", mutate: func(c *Config) { c.ConnMaxIdleTime = "soon" }, wantErr: "conn_max_idle_time"},
		{name: "empty idle time", mutate: func(c *Config) { c.ConnMaxIdleTime = "" }},
		{name: "bad slow threshold", mutate: func(c *Config) { c.SlowQueryThreshold = "slow" }, wantErr: "slow_query_threshold"},
		{name: "zero retries", mutate: func(c *Config) { c.MaxRetries = 0 }, wantErr: "max_retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverMySQL} {
		d, err := Dialector(Config{Driver: driver, DSN: "x"})
		if err != nil {
			t.Fatalf("Dialector(%q) error: %v", driver, err)
		}
		if d.Name() != driver {
			t.Errorf("Dialector(%q).Name() = %q", driver, d.Name())
		}
	}
	if _, err := Dialector(Config{Driver: "oracle"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}
