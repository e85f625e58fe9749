// Copyright 2025 ScentStack
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the HTTP listen port
	DefaultPort = "8080"
	// DefaultNotesAPIURL is the scent-metadata service endpoint
	DefaultNotesAPIURL = "https://api.scentnotes.io/v1"
)

// Config holds the catalog service configuration. Values come from an
// optional YAML file (CATALOG_CONFIG_FILE) with environment variables taking
// precedence, 12-factor style.
type Config struct {
	Port        string `yaml:"port"`
	MongoURI    string `yaml:"mongo_uri"`
	Database    string `yaml:"database"`
	NotesAPIURL string `yaml:"notes_api_url"`
	NotesAPIKey string `yaml:"notes_api_key"`
	RedisAddr   string `yaml:"redis_addr"`
}

// LoadConfig builds the service configuration from the optional config file
// and the environment.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:        DefaultPort,
		NotesAPIURL: DefaultNotesAPIURL,
	}

	if path := os.Getenv("CATALOG_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Environment overrides
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.MongoURI = getEnv("MONGODB_URI", cfg.MongoURI)
	cfg.Database = getEnv("MONGODB_DATABASE", cfg.Database)
	cfg.NotesAPIURL = getEnv("NOTES_API_URL", cfg.NotesAPIURL)
	cfg.NotesAPIKey = getEnv("NOTES_API_KEY", cfg.NotesAPIKey)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)

	return cfg, nil
}

// MissingRequired lists required settings that are absent. Requests are
// rejected with a 500 while any of these are missing; the process still
// starts so /health stays green for the load balancer.
func (c *Config) MissingRequired() []string {
	var missing []string
	if c.MongoURI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if c.NotesAPIKey == "" {
		missing = append(missing, "NOTES_API_KEY")
	}
	return missing
}

// getEnv returns the environment value for key, or fallback when unset.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
