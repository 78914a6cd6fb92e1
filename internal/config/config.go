package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines workspace configuration.
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	DB        DBConfig        `yaml:"db"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Lock      LockConfig      `yaml:"lock"`
	Log       LogConfig       `yaml:"log"`
}

type WorkspaceConfig struct {
	ID string `yaml:"id"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type ArchiveConfig struct {
	Root        string   `yaml:"root"`
	LegacyRoots []string `yaml:"legacy_roots"`
	WorkflowLog string   `yaml:"workflow_log"`
}

type LockConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Workspace: WorkspaceConfig{ID: "default"},
		DB:        DBConfig{Path: "pdm.db"},
		Lock:      LockConfig{TTL: 20 * time.Minute},
		Log:       LogConfig{Level: "info"},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := getenv("PDM_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if id := getenv("PDM_WORKSPACE_ID"); id != "" {
		cfg.Workspace.ID = id
	}
	if dbPath := getenv("PDM_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if root := getenv("PDM_ARCHIVE_ROOT"); root != "" {
		cfg.Archive.Root = root
	}
	if roots := getenv("PDM_ARCHIVE_LEGACY_ROOTS"); roots != "" {
		cfg.Archive.LegacyRoots = filepath.SplitList(roots)
	}
	if wf := getenv("PDM_WORKFLOW_LOG"); wf != "" {
		cfg.Archive.WorkflowLog = wf
	}
	if ttl := getenv("PDM_LOCK_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PDM_LOCK_TTL: %w", err)
		}
		cfg.Lock.TTL = d
	}
	if level := getenv("PDM_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := getenv("PDM_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Archive.Root = strings.TrimSpace(cfg.Archive.Root)
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
