package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	EnvOAuthToken = "TWITCH_OAUTH_TOKEN"
	EnvNick       = "TWITCH_BOT_USERNAME"
	EnvChannels   = "TWITCH_CHANNELS"
)

type Manager struct {
	mu   sync.RWMutex
	cfg  *Config
	path string

	// env holds values taken from the environment; they are never written back to the file.
	env  envOverrides
	file IRC
}

type envOverrides struct {
	oauth    string
	nick     string
	channels []string
}

const DefaultDotEnv = ".env"

// LoadDotEnv reads KEY=VALUE pairs from files, or from ".env" in the working directory when
// none are given, into the process environment without overriding variables that are already
// set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultDotEnv}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func New(path string) (*Manager, error) {
	m := &Manager{path: path, env: readEnv()}

	var err error
	m.cfg, err = m.readParseValidate(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if errors.Is(err, os.ErrNotExist) {
		m.cfg = m.GetDefault()
		data, err := json.MarshalIndent(m.cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal config: %w", err)
		}

		if err := m.writeAtomic(path, data, 0644); err != nil {
			return nil, fmt.Errorf("write config: %w", err)
		}
	}

	m.file = m.cfg.IRC
	m.applyEnv(m.cfg)
	return m, nil
}

func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cfg
}

func (m *Manager) Update(modify func(cfg *Config)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg == nil {
		return errors.New("no config loaded")
	}

	// work on a copy so a rejected update leaves the live config untouched
	next, err := clone(m.cfg)
	if err != nil {
		return err
	}
	modify(next)

	if err := m.validate(next); err != nil {
		return fmt.Errorf("invalid config update: %w", err)
	}

	m.cfg = next
	return m.saveLocked()
}

func (m *Manager) readParseValidate(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("no config path provided")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open/read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	if err := m.validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return &cfg, nil
}

func (m *Manager) saveLocked() error {
	if m.path == "" {
		return errors.New("no config file loaded")
	}
	if m.cfg == nil {
		return errors.New("no config to save")
	}

	onDisk, err := clone(m.cfg)
	if err != nil {
		return err
	}
	m.restoreFileValues(onDisk)

	data, err := json.MarshalIndent(onDisk, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return m.writeAtomic(m.path, data, 0644)
}

func (m *Manager) writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, time.Now().UnixNano()))

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readEnv() envOverrides {
	var env envOverrides

	if v := strings.TrimSpace(os.Getenv(EnvOAuthToken)); v != "" {
		env.oauth = strings.TrimPrefix(v, "oauth:")
	}
	env.nick = strings.ToLower(strings.TrimSpace(os.Getenv(EnvNick)))

	for _, ch := range strings.Split(os.Getenv(EnvChannels), ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			env.channels = append(env.channels, ch)
		}
	}
	return env
}

func (m *Manager) applyEnv(cfg *Config) {
	if m.env.oauth != "" {
		cfg.IRC.OAuth = m.env.oauth
	}
	if m.env.nick != "" {
		cfg.IRC.Nick = m.env.nick
	}
	if len(m.env.channels) > 0 {
		cfg.IRC.Channels = append([]string(nil), m.env.channels...)
	}
}

func (m *Manager) restoreFileValues(cfg *Config) {
	if m.env.oauth != "" {
		cfg.IRC.OAuth = m.file.OAuth
	}
	if m.env.nick != "" {
		cfg.IRC.Nick = m.file.Nick
	}
	if len(m.env.channels) > 0 {
		cfg.IRC.Channels = m.file.Channels
	}
}

func clone(cfg *Config) (*Config, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("copy config: %w", err)
	}

	var out Config
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("copy config: %w", err)
	}
	return &out, nil
}
