package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_HOST", "APP_PORT", "QBITTORRENT_HOST", "QBITTORRENT_PORT", "QBITTORRENT_TIMEOUT",
		"MOVIES_DIRECTORY", "SERIES_DIRECTORY", "ASSET_ROOT", "CORS_ALLOWED_ORIGINS",
		"METRICS_ENABLED", "LOG_LEVEL", "LOG_FORMAT", "LOG_PATH", "LOG_MAX_SIZE", "LOG_MAX_BACKUPS",
	} {
		// register the restore, then unset: an empty value is an override
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.QBittorrentHost)
	assert.Equal(t, uint16(8080), cfg.QBittorrentPort)
	assert.Zero(t, cfg.QBittorrentTimeout)
	assert.Equal(t, "/media/movies", cfg.MoviesDirectory)
	assert.Equal(t, "/media/series", cfg.SeriesDirectory)
	assert.Equal(t, "./wwwroot", cfg.AssetRoot)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 50, cfg.Log.MaxSize)
	assert.Equal(t, 3, cfg.Log.MaxBackups)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
	assert.Equal(t, "http://0.0.0.0:8080", cfg.QBittorrentURL())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9000")
	t.Setenv("QBITTORRENT_HOST", "qbittorrent")
	t.Setenv("QBITTORRENT_PORT", "8081")
	t.Setenv("QBITTORRENT_TIMEOUT", "15s")
	t.Setenv("MOVIES_DIRECTORY", "/tmp/m")
	t.Setenv("SERIES_DIRECTORY", "/tmp/s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.local, ,http://b.local")
	t.Setenv("METRICS_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()

	assert.Equal(t, uint16(9000), cfg.Port)
	assert.Equal(t, "qbittorrent", cfg.QBittorrentHost)
	assert.Equal(t, uint16(8081), cfg.QBittorrentPort)
	assert.Equal(t, 15*time.Second, cfg.QBittorrentTimeout)
	assert.Equal(t, "/tmp/m", cfg.MoviesDirectory)
	assert.Equal(t, "/tmp/s", cfg.SeriesDirectory)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "http://qbittorrent:8081", cfg.QBittorrentURL())
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "not a number", value: "abc"},
		{name: "negative", value: "-1"},
		{name: "out of range", value: "70000"},
		{name: "float", value: "3000.5"},
		{name: "padded", value: " 9000"},
		{name: "sign only", value: "+"},
		{name: "double sign", value: "++9000"},
		{name: "empty", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_PORT", tt.value)
			t.Setenv("QBITTORRENT_PORT", tt.value)
			t.Setenv("QBITTORRENT_TIMEOUT", tt.value)

			cfg := Load()

			assert.Equal(t, DefaultPort, cfg.Port)
			assert.Equal(t, DefaultQBittorrentPort, cfg.QBittorrentPort)
			assert.Zero(t, cfg.QBittorrentTimeout)
		})
	}
}

func TestLoad_PortWithPlusSign(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "+9000")
	t.Setenv("QBITTORRENT_PORT", "+8081")

	cfg := Load()

	assert.Equal(t, uint16(9000), cfg.Port)
	assert.Equal(t, uint16(8081), cfg.QBittorrentPort)
}

func TestLoad_EmptyValuesOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOVIES_DIRECTORY", "")
	t.Setenv("SERIES_DIRECTORY", "")
	t.Setenv("QBITTORRENT_HOST", "")
	t.Setenv("ASSET_ROOT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	cfg := Load()

	assert.Empty(t, cfg.MoviesDirectory)
	assert.Empty(t, cfg.SeriesDirectory)
	assert.Empty(t, cfg.QBittorrentHost)
	assert.Equal(t, "http://:8080", cfg.QBittorrentURL())

	// these have no meaningful empty value
	assert.Equal(t, DefaultAssetRoot, cfg.AssetRoot)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoad_InvalidLogSizesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_MAX_SIZE", "0")
	t.Setenv("LOG_MAX_BACKUPS", "many")

	cfg := Load()

	assert.Equal(t, 50, cfg.Log.MaxSize)
	assert.Equal(t, 3, cfg.Log.MaxBackups)
}

func TestConfig_QBittorrentURL_IPv6(t *testing.T) {
	cfg := &Config{QBittorrentHost: "::1", QBittorrentPort: 8080}
	assert.Equal(t, "http://[::1]:8080", cfg.QBittorrentURL())
}

func TestConfig_SavePath(t *testing.T) {
	cfg := &Config{MoviesDirectory: "/data/movies", SeriesDirectory: "/data/tv"}

	assert.Equal(t, "/data/movies", cfg.SavePath(DirectoryMovies))
	assert.Equal(t, "/data/tv", cfg.SavePath(DirectorySeries))
	assert.NotEqual(t, cfg.SavePath(DirectoryMovies), cfg.SavePath(DirectorySeries))

	assert.Panics(t, func() { cfg.SavePath(Directory("music")) })
}

func TestDirectory_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Directory
		wantErr bool
	}{
		{name: "movies", input: `"movies"`, want: DirectoryMovies},
		{name: "series", input: `"series"`, want: DirectorySeries},
		{name: "case sensitive", input: `"Movies"`, wantErr: true},
		{name: "unknown", input: `"music"`, wantErr: true},
		{name: "empty", input: `""`, wantErr: true},
		{name: "null", input: `null`, wantErr: true},
		{name: "number", input: `1`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Directory
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
		})
	}
}

func TestParseDirectory_WrapsSentinel(t *testing.T) {
	_, err := ParseDirectory("anime")
	require.ErrorIs(t, err, ErrUnknownDirectory)
	assert.Contains(t, err.Error(), `"anime"`)
}
