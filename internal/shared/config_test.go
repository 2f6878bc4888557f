package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Helper.Port != 17976 {
			t.Errorf("expected helper port 17976, got %d", config.Helper.Port)
		}

		if config.Helper.Host != "127.0.0.1" {
			t.Errorf("expected helper host 127.0.0.1, got %s", config.Helper.Host)
		}

		if !config.Helper.Enabled {
			t.Error("expected helper enabled by default")
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Database.Path != "spotkeys.db" {
			t.Errorf("expected database path spotkeys.db, got %s", config.Database.Path)
		}

		if len(config.Bindings) != 0 {
			t.Errorf("expected no default bindings, got %d", len(config.Bindings))
		}
	})

	t.Run("HelperURL", func(t *testing.T) {
		config := DefaultConfig()
		if got := config.Helper.URL(); got != "http://127.0.0.1:17976" {
			t.Errorf("expected http://127.0.0.1:17976, got %s", got)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "spotkeys.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "spotkeys.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[helper]
host = "127.0.0.1"
port = 18000
enabled = false

[server]
host = "0.0.0.0"
port = 9090

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:9090/callback"

[[bindings]]
combo = "Ctrl+Alt+1"
playlists = ["pl_one", "pl_two"]
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Helper.Port != 18000 {
			t.Errorf("expected helper port 18000, got %d", config.Helper.Port)
		}

		if config.Helper.Enabled {
			t.Error("expected helper disabled")
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if len(config.Bindings) != 1 {
			t.Fatalf("expected 1 binding, got %d", len(config.Bindings))
		}

		binding := config.Bindings[0]
		if binding.Combo != "Ctrl+Alt+1" {
			t.Errorf("expected combo Ctrl+Alt+1, got %s", binding.Combo)
		}
		if len(binding.Playlists) != 2 {
			t.Errorf("expected 2 playlists, got %d", len(binding.Playlists))
		}
	})

	t.Run("SaveConfig Round Trip", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "spotkeys.toml")

		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "saved_id"
		config.SetBinding(Binding{Combo: "Ctrl+Alt+2", Playlists: []string{"pl_a"}})

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		if loaded.Credentials.Spotify.ClientID != "saved_id" {
			t.Errorf("expected saved_id, got %s", loaded.Credentials.Spotify.ClientID)
		}

		if _, ok := loaded.Binding("Ctrl+Alt+2"); !ok {
			t.Error("expected binding to survive round trip")
		}
	})

	t.Run("Bindings", func(t *testing.T) {
		t.Run("SetBinding Replaces Existing", func(t *testing.T) {
			config := &Config{}
			config.SetBinding(Binding{Combo: "Ctrl+1", Playlists: []string{"a"}})
			config.SetBinding(Binding{Combo: "Ctrl+1", Playlists: []string{"b"}})

			if len(config.Bindings) != 1 {
				t.Fatalf("expected 1 binding, got %d", len(config.Bindings))
			}
			if config.Bindings[0].Playlists[0] != "b" {
				t.Errorf("expected replacement playlist b, got %s", config.Bindings[0].Playlists[0])
			}
		})

		t.Run("RemoveBinding", func(t *testing.T) {
			config := &Config{}
			config.SetBinding(Binding{Combo: "Ctrl+1"})

			if !config.RemoveBinding("Ctrl+1") {
				t.Error("expected removal to report true")
			}
			if config.RemoveBinding("Ctrl+1") {
				t.Error("expected second removal to report false")
			}
			if len(config.Bindings) != 0 {
				t.Errorf("expected no bindings, got %d", len(config.Bindings))
			}
		})
	})

	t.Run("Spotify Token", func(t *testing.T) {
		t.Run("Empty", func(t *testing.T) {
			var sc SpotifyConfig
			if sc.Token() != nil {
				t.Error("expected nil token for empty credentials")
			}
		})

		t.Run("Update And Rebuild", func(t *testing.T) {
			expiry := time.Now().Add(time.Hour).Truncate(time.Second)
			token := &oauth2.Token{
				AccessToken:  "access",
				RefreshToken: "refresh",
				Expiry:       expiry,
			}

			var sc SpotifyConfig
			if err := sc.Update(token); err != nil {
				t.Fatalf("failed to update: %v", err)
			}

			rebuilt := sc.Token()
			if rebuilt == nil {
				t.Fatal("expected rebuilt token")
			}
			if rebuilt.AccessToken != "access" {
				t.Errorf("expected access token, got %s", rebuilt.AccessToken)
			}
			if rebuilt.RefreshToken != "refresh" {
				t.Errorf("expected refresh token, got %s", rebuilt.RefreshToken)
			}
			if !rebuilt.Expiry.Equal(expiry) {
				t.Errorf("expected expiry %v, got %v", expiry, rebuilt.Expiry)
			}
		})

		t.Run("Update Rejects Empty Token", func(t *testing.T) {
			var sc SpotifyConfig
			if err := sc.Update(nil); err == nil {
				t.Error("expected error for nil token")
			}
			if err := sc.Update(&oauth2.Token{}); err == nil {
				t.Error("expected error for empty access token")
			}
		})
	})
}
