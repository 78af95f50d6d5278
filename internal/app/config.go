package app

import (
	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the application configuration, loadable from environment
// variables (RACEDAY_ prefix), flags, or YAML config files.
type Config struct {
	DataDir  string `default:"data" usage:"Directory holding the collection files" flag:"data-dir"`
	Compress bool   `default:"true" usage:"Gzip-compress collection files on write"`
	Admin    AdminConfig
}

// AdminConfig describes an admin account created at startup when missing.
type AdminConfig struct {
	Username string `default:"" usage:"Bootstrap admin username (skipped when empty)"`
	Password string `default:"" usage:"Bootstrap admin password"`
	Name     string `default:"Administrator" usage:"Bootstrap admin display name"`
	Email    string `default:"" usage:"Bootstrap admin email"`
	Phone    string `default:"" usage:"Bootstrap admin phone"`
	Level    int    `default:"1" usage:"Bootstrap admin level"`
}

// LoadConfig loads configuration from environment variables and YAML files.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "RACEDAY",
		Files:     []string{"raceday.yaml", "/etc/raceday/raceday.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field combinations the loader cannot express.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data dir is required: set RACEDAY_DATA_DIR")
	}
	if c.Admin.Username != "" {
		if c.Admin.Password == "" {
			return errors.New("bootstrap admin requires a password")
		}
		if c.Admin.Level < 1 {
			return errors.New("bootstrap admin level must be at least 1")
		}
	}
	return nil
}
