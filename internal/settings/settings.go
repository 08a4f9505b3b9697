package settings

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Env names understood by the server. They match the container image the
// web UI ships in.
const (
	KeyConfigPath    = "CONFIG_PATH"
	KeyOpts          = "OPTS"
	KeyAutoremoveCmd = "AUTOREMOVE_CMD"
	KeyHost          = "WEBUI_HOST"
	KeyPort          = "WEBUI_PORT"
	KeyLogLevel      = "LOG_LEVEL"
	KeyHistoryPath   = "HISTORY_PATH"
	KeyWorkDir       = "WORK_DIR"
)

type Settings struct {
	ConfigPath    string
	Opts          []string
	AutoremoveCmd string
	Host          string
	Port          int
	LogLevel      string
	HistoryPath   string
	WorkDir       string
}

// New returns a viper instance with defaults and env lookup wired.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyConfigPath, "/app/config.yml")
	v.SetDefault(KeyOpts, "-c /app/config.yml")
	v.SetDefault(KeyAutoremoveCmd, "/app/.venv/bin/autoremove-torrents")
	v.SetDefault(KeyHost, "0.0.0.0")
	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyHistoryPath, "")
	v.SetDefault(KeyWorkDir, "/app")
	v.AutomaticEnv()
	return v
}

// Load resolves settings from v. The config path named by -c/--conf in OPTS
// wins over CONFIG_PATH.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Opts:          strings.Fields(v.GetString(KeyOpts)),
		AutoremoveCmd: strings.TrimSpace(v.GetString(KeyAutoremoveCmd)),
		Host:          strings.TrimSpace(v.GetString(KeyHost)),
		LogLevel:      v.GetString(KeyLogLevel),
		HistoryPath:   strings.TrimSpace(v.GetString(KeyHistoryPath)),
		WorkDir:       v.GetString(KeyWorkDir),
	}
	port, err := strconv.Atoi(strings.TrimSpace(v.GetString(KeyPort)))
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%s: invalid port %q", KeyPort, v.GetString(KeyPort))
	}
	s.Port = port
	s.ConfigPath = ConfigPathFromOpts(s.Opts, v.GetString(KeyConfigPath))
	if s.ConfigPath == "" {
		return nil, fmt.Errorf("%s is empty", KeyConfigPath)
	}
	if s.AutoremoveCmd == "" {
		return nil, fmt.Errorf("%s is empty", KeyAutoremoveCmd)
	}
	if s.HistoryPath == "" {
		s.HistoryPath = filepath.Join(filepath.Dir(s.ConfigPath), ".webui-history.db")
	}
	return s, nil
}

// Addr is the listen address for the HTTP server.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ConfigPathFromOpts returns the argument of -c/--conf in opts, or fallback.
func ConfigPathFromOpts(opts []string, fallback string) string {
	for i, p := range opts {
		if (p == "-c" || p == "--conf") && i+1 < len(opts) {
			return opts[i+1]
		}
	}
	return fallback
}
