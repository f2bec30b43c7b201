package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
	}{
		{name: "default configuration", envVars: map[string]string{}},
		{
			name: "custom configuration",
			envVars: map[string]string{
				"PORT":             "9000",
				"HOST":             "127.0.0.1",
				"DB_DRIVER":        "postgres",
				"DATABASE_URL":     "postgres://u:p@localhost/db",
				"RATE_WINDOW":      "30s",
				"DAILY_DIGITS":     "5",
				"DAILY_DIFFICULTY": "crazy",
				"LOG_PRETTY":       "true",
			},
		},
		{name: "invalid port", envVars: map[string]string{"PORT": "invalid"}, wantErr: true},
		{name: "port out of range", envVars: map[string]string{"PORT": "99999"}, wantErr: true},
		{name: "unknown driver", envVars: map[string]string{"DB_DRIVER": "oracle"}, wantErr: true},
		{name: "postgres without url", envVars: map[string]string{"DB_DRIVER": "postgres", "DATABASE_URL": ""}, wantErr: true},
		{name: "daily digits out of range", envVars: map[string]string{"DAILY_DIGITS": "6"}, wantErr: true},
		{name: "bad daily difficulty", envVars: map[string]string{"DAILY_DIFFICULTY": "insane"}, wantErr: true},
		{name: "bad log level", envVars: map[string]string{"LOG_LEVEL": "loud"}, wantErr: true},
		{name: "production with dev secret", envVars: map[string]string{"APP_ENV": "production"}, wantErr: true},
		{name: "production with real secret", envVars: map[string]string{"APP_ENV": "production", "JWT_SECRET": "s3cret-for-prod"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for key, value := range tt.envVars {
				switch key {
				case "PORT":
					assert.Equal(t, value, cfg.Server.Port)
				case "RATE_WINDOW":
					assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
				case "DAILY_DIGITS":
					assert.Equal(t, 5, cfg.Daily.Digits)
				case "LOG_PRETTY":
					assert.True(t, cfg.Logging.Pretty)
				}
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5175", cfg.Addr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Daily.Digits)
	assert.False(t, cfg.Production())
}

func TestConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digitguess.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
port = "7000"
environment = "production"

[auth]
jwt_secret = "file-secret"

[rate_limit]
window = "2m"
chat_per_window = 5

[daily]
digits = 3
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7100")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7100", cfg.Server.Port, "env overrides the file")
	assert.True(t, cfg.Production())
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 2*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 5, cfg.RateLimit.ChatPerWindow)
	assert.Equal(t, 120, cfg.RateLimit.GuessPerWindow, "untouched keys keep defaults")
	assert.Equal(t, 3, cfg.Daily.Digits)
}

func TestMissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))
	_, err := Load()
	assert.Error(t, err)
}
