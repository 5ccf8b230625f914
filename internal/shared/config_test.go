package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 8000 {
			t.Errorf("expected default port 8000, got %d", config.Server.Port)
		}
		if config.Database.Path == "" {
			t.Error("expected default database path")
		}
		if config.Security.SessionTTLHours != 24 {
			t.Errorf("expected default session TTL of 24 hours, got %d", config.Security.SessionTTLHours)
		}
		if len(config.CORS.AllowedOrigins) == 0 {
			t.Error("expected default allowed origins")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		content := `
[server]
host = "127.0.0.1"
port = 9000
frontend_url = "https://front.example.com"

[database]
path = "test.db"

[credentials.spotify]
client_id = "cid"
client_secret = "csecret"
redirect_uri = "http://localhost:9000/callback"

[security]
token_passphrase = "pass"
session_ttl_hours = 12

[cors]
allowed_origins = ["https://front.example.com"]
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 9000 {
			t.Errorf("expected port 9000, got %d", config.Server.Port)
		}
		if config.Credentials.Spotify.ClientID != "cid" {
			t.Errorf("expected client id cid, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Security.SessionTTLHours != 12 {
			t.Errorf("expected session TTL 12, got %d", config.Security.SessionTTLHours)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")

		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := LoadConfig(path); err != nil {
			t.Errorf("created config should be loadable: %v", err)
		}

		if err := CreateConfigFile(path); err == nil {
			t.Error("expected error when config file already exists")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		valid := DefaultConfig()
		valid.Credentials.Spotify.ClientID = "cid"
		valid.Credentials.Spotify.ClientSecret = "csecret"

		if err := valid.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}

		t.Run("Missing Credentials", func(t *testing.T) {
			config := DefaultConfig()
			if err := config.Validate(); err == nil {
				t.Error("expected error for missing spotify credentials")
			}
		})

		t.Run("Missing Passphrase", func(t *testing.T) {
			config := DefaultConfig()
			config.Credentials.Spotify.ClientID = "cid"
			config.Credentials.Spotify.ClientSecret = "csecret"
			config.Security.TokenPassphrase = ""
			if err := config.Validate(); err == nil {
				t.Error("expected error for missing token passphrase")
			}
		})

		t.Run("Missing Database Path", func(t *testing.T) {
			config := DefaultConfig()
			config.Credentials.Spotify.ClientID = "cid"
			config.Credentials.Spotify.ClientSecret = "csecret"
			config.Database.Path = ""
			if err := config.Validate(); err == nil {
				t.Error("expected error for missing database path")
			}
		})
	})
}
