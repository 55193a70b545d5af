package config

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort            uint16 = 3000
	DefaultQBittorrentHost        = "0.0.0.0"
	DefaultQBittorrentPort uint16 = 8080
	DefaultMoviesDirectory        = "/media/movies"
	DefaultSeriesDirectory        = "/media/series"
	DefaultAssetRoot              = "./wwwroot"
)

// Config is built once at startup and only read afterwards.
type Config struct {
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`

	QBittorrentHost string `yaml:"qbittorrentHost"`
	QBittorrentPort uint16 `yaml:"qbittorrentPort"`
	// QBittorrentTimeout of zero leaves outbound requests without a deadline
	QBittorrentTimeout time.Duration `yaml:"qbittorrentTimeout"`

	MoviesDirectory string `yaml:"moviesDirectory"`
	SeriesDirectory string `yaml:"seriesDirectory"`

	AssetRoot          string   `yaml:"assetRoot"`
	CORSAllowedOrigins []string `yaml:"corsAllowedOrigins,omitempty"`
	MetricsEnabled     bool     `yaml:"metricsEnabled"`

	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Path       string `yaml:"path,omitempty"`
	MaxSize    int    `yaml:"maxSize"`
	MaxBackups int    `yaml:"maxBackups"`
}

// Load reads the configuration from the environment. It never fails: values that are
// missing or cannot be parsed are replaced by their defaults. A variable that is set
// but empty overrides its default, except where an empty value has no meaning.
func Load() *Config {
	v := viper.New()
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	setDefaults(v)

	return &Config{
		Host:               v.GetString("APP_HOST"),
		Port:               parsePort(v.GetString("APP_PORT"), DefaultPort),
		QBittorrentHost:    v.GetString("QBITTORRENT_HOST"),
		QBittorrentPort:    parsePort(v.GetString("QBITTORRENT_PORT"), DefaultQBittorrentPort),
		QBittorrentTimeout: parseDuration(v.GetString("QBITTORRENT_TIMEOUT")),
		MoviesDirectory:    v.GetString("MOVIES_DIRECTORY"),
		SeriesDirectory:    v.GetString("SERIES_DIRECTORY"),
		AssetRoot:          nonEmpty(v.GetString("ASSET_ROOT"), DefaultAssetRoot),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		MetricsEnabled:     parseBool(v.GetString("METRICS_ENABLED")),
		Log: LogConfig{
			Level:      nonEmpty(strings.ToLower(v.GetString("LOG_LEVEL")), "info"),
			Format:     nonEmpty(strings.ToLower(v.GetString("LOG_FORMAT")), "console"),
			Path:       v.GetString("LOG_PATH"),
			MaxSize:    parsePositiveInt(v.GetString("LOG_MAX_SIZE"), 50),
			MaxBackups: parsePositiveInt(v.GetString("LOG_MAX_BACKUPS"), 3),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_HOST", "0.0.0.0")
	v.SetDefault("QBITTORRENT_HOST", DefaultQBittorrentHost)
	v.SetDefault("MOVIES_DIRECTORY", DefaultMoviesDirectory)
	v.SetDefault("SERIES_DIRECTORY", DefaultSeriesDirectory)
	v.SetDefault("ASSET_ROOT", DefaultAssetRoot)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
}

// Addr is the address the HTTP server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// QBittorrentURL is the base URL of the qBittorrent Web UI, without a trailing slash.
func (c *Config) QBittorrentURL() string {
	return "http://" + net.JoinHostPort(c.QBittorrentHost, strconv.Itoa(int(c.QBittorrentPort)))
}

// SavePath resolves a directory to the save path configured for it.
func (c *Config) SavePath(d Directory) string {
	switch d {
	case DirectoryMovies:
		return c.MoviesDirectory
	case DirectorySeries:
		return c.SeriesDirectory
	}
	panic("config: unknown directory " + strconv.Quote(string(d)))
}

// parsePort accepts a single leading '+', as unsigned integer parsers commonly do.
func parsePort(raw string, fallback uint16) uint16 {
	port, err := strconv.ParseUint(strings.TrimPrefix(raw, "+"), 10, 16)
	if err != nil {
		return fallback
	}
	return uint16(port)
}

func nonEmpty(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func parsePositiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseDuration(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(raw)
	return err == nil && b
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
