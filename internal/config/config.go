package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"sheinstock/internal/integrations/shein"
)

func init() {
	// load .env if present (silent fail if not)
	_ = godotenv.Load()
}

// Config is the application config, persisted as config.json. Secrets and
// deployment-specific settings can be overridden from the environment via
// ApplyEnv, so the file itself never has to carry them.
type Config struct {
	AutoStart           bool                       `json:"auto_start"`
	SyncIntervalSeconds int                        `json:"sync_interval_seconds"` // 0 = manual sync only
	Server              ServerConfig               `json:"server"`
	Database            DatabaseConfig             `json:"database"`
	Integrations        map[string]json.RawMessage `json:"integrations"` // name -> raw integration JSON
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects the gorm backend. An empty DSN with the sqlite
// driver falls back to a file in the app data dir.
type DatabaseConfig struct {
	Driver string `json:"driver"` // sqlite (default) | mysql | postgres
	DSN    string `json:"dsn"`
}

// envOverrides are the environment knobs, mostly secrets. FIXIE_URL matches
// the proxy the hosted deployment uses for its static egress IP.
type envOverrides struct {
	ServerHost string `envconfig:"SERVER_HOST" default:""`
	ServerPort int    `envconfig:"SERVER_PORT" default:"0"`
	DBDriver   string `envconfig:"DB_DRIVER" default:""`
	DBDSN      string `envconfig:"DB_DSN" default:""`

	SheinBaseURL string `envconfig:"SHEIN_BASE_URL" default:""`
	SheinProfile string `envconfig:"SHEIN_PROFILE" default:""`
	ProxyURL     string `envconfig:"FIXIE_URL" default:""`
}

// LoadOrCreate reads config.json, writing a default one on first run.
func LoadOrCreate(path string) (*Config, bool, error) {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := defaultConfig()
			if err := Save(path, cfg); err != nil {
				return nil, false, fmt.Errorf("write default config: %w", err)
			}
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, false, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Integrations == nil {
		cfg.Integrations = map[string]json.RawMessage{}
	}
	return &cfg, false, nil
}

func defaultConfig() *Config {
	rawShein, _ := json.Marshal(shein.Config{
		Profile:         "openkey",
		TimeoutSeconds:  30,
		RateLimitRPS:    5,
		ProductPageSize: 100,
		OrderPageSize:   200,
		MaxPages:        20,
		OrderWindowDays: 30,
	})

	return &Config{
		AutoStart:           false,
		SyncIntervalSeconds: 0,
		Server:              ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database:            DatabaseConfig{Driver: "sqlite"},
		Integrations: map[string]json.RawMessage{
			"shein": rawShein,
		},
	}
}

func Save(path string, cfg *Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// ApplyEnv overlays environment variables onto the loaded config. Call once
// at startup; components receive the merged struct and never read the
// environment themselves.
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("process env: %w", err)
	}

	if env.ServerHost != "" {
		c.Server.Host = env.ServerHost
	}
	if env.ServerPort != 0 {
		c.Server.Port = env.ServerPort
	}
	if env.DBDriver != "" {
		c.Database.Driver = env.DBDriver
	}
	if env.DBDSN != "" {
		c.Database.DSN = env.DBDSN
	}

	patch := map[string]any{}
	if env.SheinBaseURL != "" {
		patch["base_url"] = env.SheinBaseURL
	}
	if env.SheinProfile != "" {
		patch["profile"] = env.SheinProfile
	}
	if env.ProxyURL != "" {
		patch["proxy_url"] = env.ProxyURL
	}
	if len(patch) > 0 {
		if err := c.patchIntegration("shein", patch); err != nil {
			return err
		}
	}
	return nil
}

// patchIntegration merges keys into an integration's raw JSON block.
func (c *Config) patchIntegration(name string, patch map[string]any) error {
	if c.Integrations == nil {
		c.Integrations = map[string]json.RawMessage{}
	}
	current := map[string]any{}
	if raw, ok := c.Integrations[name]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &current); err != nil {
			return fmt.Errorf("integration %q: %w", name, err)
		}
	}
	for k, v := range patch {
		current[k] = v
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return err
	}
	c.Integrations[name] = raw
	return nil
}

// UnmarshalIntegration reads one integration block into a target struct.
func (c *Config) UnmarshalIntegration(name string, v any) error {
	raw, ok := c.Integrations[name]
	if !ok {
		return fmt.Errorf("integration %q missing from config", name)
	}
	return json.Unmarshal(raw, v)
}
