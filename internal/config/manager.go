// Package config loads and saves the user's persistent settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/citypal/citypal/internal/agent"
	"github.com/citypal/citypal/internal/tools"
)

// Config holds the user's persistent configuration preferences.
type Config struct {
	LLMProvider string `json:"llm_provider,omitempty"` // openai, anthropic, kimi, etc.
	APIKey      string `json:"api_key,omitempty"`      // The API key for the selected provider
	Model       string `json:"model,omitempty"`        // Default model name
	BaseURL     string `json:"base_url,omitempty"`     // Optional override for API base URL

	OpenWeatherAPIKey string `json:"openweather_api_key,omitempty"` // Empty key switches the weather tool to canned data
	DatabasePath      string `json:"database_path,omitempty"`       // SQLite conversation store location

	// DisabledTools lists tool names to leave out of the registry
	// (get_weather, get_local_time, get_city_facts, local_guide).
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// Classifier overrides the built-in error-indicator lists. Empty lists
	// keep the defaults. Hot-reloaded by the config watcher.
	Classifier agent.ClassifierConfig `json:"classifier,omitempty"`

	MaxRetries int `json:"max_retries,omitempty"` // Repair-loop cap override
}

// ToolSet derives the tool enablement switches from DisabledTools.
func (c *Config) ToolSet() tools.ToolSet {
	set := tools.DefaultToolSet()
	for _, name := range c.DisabledTools {
		switch name {
		case "get_weather":
			set.Weather = false
		case "get_local_time":
			set.LocalTime = false
		case "get_city_facts":
			set.CityFacts = false
		case "local_guide":
			set.LocalGuide = false
		}
	}
	return set
}

// Manager handles loading and saving the configuration.
type Manager struct {
	configDir string
}

// NewManager creates a configuration manager rooted in the user config dir.
func NewManager() (*Manager, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user config dir: %w", err)
	}
	return &Manager{configDir: filepath.Join(configDir, "citypal")}, nil
}

// NewManagerAt creates a manager rooted in an explicit directory.
func NewManagerAt(dir string) *Manager {
	return &Manager{configDir: dir}
}

// GetConfigPath returns the absolute path to the config.json file.
func (m *Manager) GetConfigPath() string {
	return filepath.Join(m.configDir, "config.json")
}

// Load reads the configuration from disk.
// If the file does not exist, it returns an empty Config and no error.
func (m *Manager) Load() (*Config, error) {
	path := m.GetConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config json: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to disk with restricted permissions (0600).
func (m *Manager) Save(cfg *Config) error {
	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := m.GetConfigPath()
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists checks if the configuration file has been created.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.GetConfigPath())
	return !os.IsNotExist(err)
}
