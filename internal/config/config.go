package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/wardkeep/wardkeep/internal/service"
)

// Settings keys owned by the supervisor. The document may carry arbitrary
// additional tool paths/labels; those round-trip untouched.
const (
	KeyAutorestart = "autorestart_enabled"
	KeyHistoryDSN  = "history_dsn"
	KeyListen      = "listen"
	KeyLogDir      = "log_dir"

	DefaultListen = "127.0.0.1:8321"
	DefaultLogDir = "logs"
)

var pathKeys = map[service.Kind]string{
	service.Database:    "mysql_path",
	service.AuthServer:  "auth_path",
	service.WorldServer: "world_path",
	service.Client:      "client_path",
	service.WebServer:   "web_path",
}

// Config is the persisted flat settings document. Every mutation rewrites
// the whole document (all fields, every time) through a temp-file rename so
// a crash mid-write cannot corrupt previously valid fields.
type Config struct {
	mu   sync.Mutex
	path string
	v    *viper.Viper
}

// Load reads the settings document at path. A missing file yields an empty
// config bound to that path; the first Save creates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read settings %s: %w", path, err)
			}
		}
	}
	return &Config{path: path, v: v}, nil
}

// PathFor returns the configured executable path for the kind, or "".
func (c *Config) PathFor(k service.Kind) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetString(pathKeys[k])
}

// SetPath stores the executable path for the kind and persists.
func (c *Config) SetPath(k service.Kind, p string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(pathKeys[k], p)
	return c.saveLocked()
}

func (c *Config) Autorestart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetBool(KeyAutorestart)
}

func (c *Config) SetAutorestart(enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(KeyAutorestart, enabled)
	return c.saveLocked()
}

func (c *Config) HistoryDSN() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetString(KeyHistoryDSN)
}

func (c *Config) Listen() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.v.GetString(KeyListen); s != "" {
		return s
	}
	return DefaultListen
}

func (c *Config) LogDir() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s := c.v.GetString(KeyLogDir); s != "" {
		return s
	}
	return DefaultLogDir
}

// Extra returns a settings value the supervisor does not own (tool paths,
// labels). It is preserved verbatim across Save.
func (c *Config) Extra(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v.GetString(key)
}

// SetExtra stores a value the supervisor does not interpret and persists.
func (c *Config) SetExtra(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(key, value)
	return c.saveLocked()
}

// Save rewrites the whole document.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *Config) saveLocked() error {
	all := c.v.AllSettings()
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
