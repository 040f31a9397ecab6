package launchagent

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/mailbear/mailbear/internal/logger"
)

// Label identifies the agent to launchd.
const Label = "com.mailbear"

const plistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{.Label}}</string>
	<key>ProgramArguments</key>
	<array>
		<string>{{.ExecPath}}</string>
		<string>service</string>
		<string>run</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>{{.LogPath}}</string>
	<key>StandardErrorPath</key>
	<string>{{.LogPath}}</string>
</dict>
</plist>
`

// IsSupported reports whether launchd agent management is available.
func IsSupported() bool {
	return runtime.GOOS == "darwin"
}

// Manager installs and controls the launchd agent that keeps the service
// running across logins. Platform support is checked by the caller; the
// manager itself only touches the agent directory and launchctl.
type Manager struct {
	log     logger.Logger
	homeDir string

	execPath  func() (string, error)
	launchctl func(args ...string) ([]byte, error)
}

func NewManager(log logger.Logger) (*Manager, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "unable to determine home directory")
	}
	return &Manager{
		log:      log,
		homeDir:  home,
		execPath: os.Executable,
		launchctl: func(args ...string) ([]byte, error) {
			return exec.Command("launchctl", args...).CombinedOutput()
		},
	}, nil
}

func (m *Manager) plistPath() string {
	return filepath.Join(m.homeDir, "Library", "LaunchAgents", Label+".plist")
}

func (m *Manager) logPath() string {
	return filepath.Join(m.homeDir, "Library", "Logs", "mailbear.log")
}

func renderPlist(execPath, logPath string) (string, error) {
	tmpl, err := template.New("plist").Parse(plistTemplate)
	if err != nil {
		return "", errors.Wrap(err, "invalid plist template")
	}
	var out strings.Builder
	err = tmpl.Execute(&out, map[string]string{
		"Label":    Label,
		"ExecPath": execPath,
		"LogPath":  logPath,
	})
	if err != nil {
		return "", errors.Wrap(err, "error rendering plist")
	}
	return out.String(), nil
}

// Install writes the agent plist and loads it into launchd.
func (m *Manager) Install() error {
	execPath, err := m.execPath()
	if err != nil {
		return errors.Wrap(err, "unable to determine executable path")
	}

	content, err := renderPlist(execPath, m.logPath())
	if err != nil {
		return err
	}

	path := m.plistPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "error creating LaunchAgents directory")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrap(err, "error writing agent plist")
	}
	m.log.Infof("wrote agent plist to %s", path)

	if out, err := m.launchctl("load", path); err != nil {
		return errors.Wrapf(err, "launchctl load failed: %s", strings.TrimSpace(string(out)))
	}
	m.log.Info("agent loaded")
	return nil
}

// Uninstall unloads the agent and removes its plist. A missing agent is not
// an error.
func (m *Manager) Uninstall() error {
	path := m.plistPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		m.log.Info("agent not installed")
		return nil
	}

	if out, err := m.launchctl("unload", path); err != nil {
		m.log.Warnf("launchctl unload failed: %v: %s", err, strings.TrimSpace(string(out)))
	}
	if err := os.Remove(path); err != nil {
		return errors.Wrap(err, "error removing agent plist")
	}
	m.log.Info("agent uninstalled")
	return nil
}

// Start asks launchd to start the agent now.
func (m *Manager) Start() error {
	if out, err := m.launchctl("start", Label); err != nil {
		return errors.Wrapf(err, "launchctl start failed: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// Stop asks launchd to stop the agent.
func (m *Manager) Stop() error {
	if out, err := m.launchctl("stop", Label); err != nil {
		return errors.Wrapf(err, "launchctl stop failed: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// Status reports whether the plist is installed and whether launchd
// currently knows the agent.
func (m *Manager) Status() (installed bool, loaded bool) {
	if _, err := os.Stat(m.plistPath()); err == nil {
		installed = true
	}
	if _, err := m.launchctl("list", Label); err == nil {
		loaded = true
	}
	return installed, loaded
}
