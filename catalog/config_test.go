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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"CATALOG_CONFIG_FILE", "PORT", "MONGODB_URI", "MONGODB_DATABASE", "NOTES_API_URL", "NOTES_API_KEY", "REDIS_ADDR"} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultNotesAPIURL, cfg.NotesAPIURL)
	assert.Empty(t, cfg.MongoURI)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfig_FileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `
port: "9090"
mongo_uri: "mongodb://file-host:27017/catalog"
notes_api_key: "file-key"
redis_addr: "localhost:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CATALOG_CONFIG_FILE", path)
	t.Setenv("PORT", "")
	t.Setenv("MONGODB_URI", "mongodb://env-host:27017/catalog")
	t.Setenv("MONGODB_DATABASE", "")
	t.Setenv("NOTES_API_URL", "")
	t.Setenv("NOTES_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	// File values apply
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "file-key", cfg.NotesAPIKey)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	// Environment wins over the file
	assert.Equal(t, "mongodb://env-host:27017/catalog", cfg.MongoURI)
}

func TestLoadConfig_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a string"), 0o600))

	t.Setenv("CATALOG_CONFIG_FILE", path)

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Setenv("CATALOG_CONFIG_FILE", "/nonexistent/catalog.yaml")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "all present",
			cfg:  Config{MongoURI: "mongodb://localhost:27017", NotesAPIKey: "key"},
			want: nil,
		},
		{
			name: "missing mongo",
			cfg:  Config{NotesAPIKey: "key"},
			want: []string{"MONGODB_URI"},
		},
		{
			name: "missing credential",
			cfg:  Config{MongoURI: "mongodb://localhost:27017"},
			want: []string{"NOTES_API_KEY"},
		},
		{
			name: "missing both",
			cfg:  Config{},
			want: []string{"MONGODB_URI", "NOTES_API_KEY"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.MissingRequired())
		})
	}
}
