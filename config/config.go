package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mailbear/mailbear/internal/logger"
)

// PathsConfig locates the per-user files. Defaults live under ~/.mailbear;
// every path accepts a leading ~ which is expanded at load time.
type PathsConfig struct {
	SettingsPath    string `env:"MAILBEAR_CONFIG" envDefault:"~/.mailbear/config.ini"`
	CredentialsPath string `env:"MAILBEAR_CREDENTIALS" envDefault:"~/.mailbear/credentials.json"`
	TokenPath       string `env:"MAILBEAR_TOKEN" envDefault:"~/.mailbear/token.json"`
	StatePath       string `env:"MAILBEAR_STATE" envDefault:"~/.mailbear/state.json"`
}

type Config struct {
	Paths  *PathsConfig
	Logger *logger.Config
}

// expandHome resolves a leading ~ against the current user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func (p *PathsConfig) expand() {
	p.SettingsPath = expandHome(p.SettingsPath)
	p.CredentialsPath = expandHome(p.CredentialsPath)
	p.TokenPath = expandHome(p.TokenPath)
	p.StatePath = expandHome(p.StatePath)
}
