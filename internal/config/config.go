package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const configDir = ".lingdang"
const configFile = "config.json"

type Config struct {
	Server   string `json:"server"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
	Mode     string `json:"mode,omitempty"` // assistant answer mode: FLEXIBLE or ARTICLE_ONLY
	Profile  string `json:"-"`
}

func configPath(profile string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home directory: %w", err)
	}
	filename := configFile
	if profile != "" {
		filename = fmt.Sprintf("config-%s.json", profile)
	}
	return filepath.Join(home, configDir, filename), nil
}

func Load(profile string) (*Config, error) {
	path, err := configPath(profile)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Profile: profile}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
		cfg.Profile = profile
	}

	// Environment wins over the config file.
	if server := os.Getenv("LINGDANG_SERVER"); server != "" {
		cfg.Server = server
	}
	if token := os.Getenv("LINGDANG_TOKEN"); token != "" {
		cfg.Token = token
	}

	return cfg, nil
}

func (c *Config) Save() error {
	path, err := configPath(c.Profile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) profileFlag() string {
	if c.Profile == "" {
		return ""
	}
	return " --profile " + c.Profile
}

// Validate checks that a server is configured. Reading the public blog and
// asking the assistant need no token; studio commands call ValidateAuth.
func (c *Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("server not set. Run: lingdang%s set server <url>", c.profileFlag())
	}
	return nil
}

func (c *Config) ValidateAuth() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Token == "" {
		return fmt.Errorf("not logged in. Run: lingdang%s login -u <username> -p <password>", c.profileFlag())
	}
	return nil
}

// QueryMode returns the configured assistant mode, defaulting to FLEXIBLE.
func (c *Config) QueryMode() string {
	if c.Mode == "" {
		return "FLEXIBLE"
	}
	return c.Mode
}

func ListProfiles() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot find home directory: %w", err)
	}
	dir := filepath.Join(home, configDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config directory: %w", err)
	}
	var profiles []string
	for _, e := range entries {
		name := e.Name()
		if name == configFile {
			profiles = append(profiles, "default")
			continue
		}
		if strings.HasPrefix(name, "config-") && strings.HasSuffix(name, ".json") {
			profiles = append(profiles, strings.TrimSuffix(strings.TrimPrefix(name, "config-"), ".json"))
		}
	}
	return profiles, nil
}

func ProfileName(profile string) string {
	if profile == "" {
		return "default"
	}
	return profile
}
