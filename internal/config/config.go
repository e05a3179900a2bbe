package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/keshon/cvc/internal/fs"
	"github.com/keshon/cvc/internal/util"
)

const (
	RepoDir      = ".cvc"
	IndexFile    = "bitmap.json"
	SnapshotsDir = "snapshots"
	ConfigFile   = "config.yaml"
	IgnoreFile   = ".cvcignore"
	EnvFile      = ".env"
)

const (
	DefaultLinkMarker        = "// cvc: generated link file"
	DefaultSnapshotCacheSize = 256
	DefaultLogLevel          = "warn"
)

var DefaultMainFileNames = []string{"index.js", "index.ts", "index.jsx", "index.tsx", "index.go", "main.go"}

// DefaultGeneratedFiles are written next to imported components and never tracked inside a rootDir.
var DefaultGeneratedFiles = []string{"package.json", "package-lock.json"}

// DefaultIgnoredFiles are skipped by every scan regardless of ignore files.
var DefaultIgnoredFiles = []string{RepoDir + "/", ".git/", "node_modules/", EnvFile}

// Config describes one workspace.
type Config struct {
	WorkingTreeDir string `yaml:"-"`

	MainFileNames     []string `yaml:"main_files"`
	GeneratedFiles    []string `yaml:"generated_files"`
	IgnorePatterns    []string `yaml:"ignore"`
	LinkMarker        string   `yaml:"link_marker"`
	// Workers caps concurrent scans; 0 means one per CPU of the running host.
	Workers           int      `yaml:"workers,omitempty"`
	SnapshotCacheSize int      `yaml:"snapshot_cache_size"`
	LogLevel          string   `yaml:"log_level"`
}

// Default returns the configuration used when no config file exists.
func Default(workingTreeDir string) *Config {
	return &Config{
		WorkingTreeDir:    workingTreeDir,
		MainFileNames:     append([]string(nil), DefaultMainFileNames...),
		GeneratedFiles:    append([]string(nil), DefaultGeneratedFiles...),
		LinkMarker:        DefaultLinkMarker,
		SnapshotCacheSize: DefaultSnapshotCacheSize,
		LogLevel:          DefaultLogLevel,
	}
}

// Load builds the workspace configuration: defaults, then .cvc/config.yaml,
// then CVC_* variables from .env, then the process environment.
func Load(fsys fs.FS, workingTreeDir string) (*Config, error) {
	cfg := Default(workingTreeDir)

	data, err := fsys.ReadFile(cfg.ConfigPath())
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", cfg.ConfigPath(), err)
		}
	case !fsys.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", cfg.ConfigPath(), err)
	}

	env, err := readEnv(fsys, filepath.Join(workingTreeDir, EnvFile))
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return nil, err
	}

	cfg.WorkingTreeDir = workingTreeDir
	if cfg.Workers < 1 {
		cfg.Workers = util.WorkerCount()
	}
	if cfg.SnapshotCacheSize < 1 {
		cfg.SnapshotCacheSize = DefaultSnapshotCacheSize
	}
	if len(cfg.MainFileNames) == 0 {
		cfg.MainFileNames = append([]string(nil), DefaultMainFileNames...)
	}
	return cfg, nil
}

func readEnv(fsys fs.FS, path string) (map[string]string, error) {
	env := map[string]string{}
	data, err := fsys.ReadFile(path)
	if err == nil {
		parsed, err := godotenv.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		env = parsed
	} else if !fsys.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// process environment wins over .env
	for _, key := range []string{"CVC_LOG_LEVEL", "CVC_WORKERS", "CVC_SNAPSHOT_CACHE"} {
		if v, ok := os.LookupEnv(key); ok {
			env[key] = v
		}
	}
	return env, nil
}

func (c *Config) applyEnv(env map[string]string) error {
	if v := strings.TrimSpace(env["CVC_LOG_LEVEL"]); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(env["CVC_WORKERS"]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CVC_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := strings.TrimSpace(env["CVC_SNAPSHOT_CACHE"]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CVC_SNAPSHOT_CACHE: %w", err)
		}
		c.SnapshotCacheSize = n
	}
	return nil
}

func (c *Config) RepoDir() string      { return filepath.Join(c.WorkingTreeDir, RepoDir) }
func (c *Config) IndexPath() string    { return filepath.Join(c.RepoDir(), IndexFile) }
func (c *Config) SnapshotsDir() string { return filepath.Join(c.RepoDir(), SnapshotsDir) }
func (c *Config) ConfigPath() string   { return filepath.Join(c.RepoDir(), ConfigFile) }
func (c *Config) IgnorePath() string   { return filepath.Join(c.WorkingTreeDir, IgnoreFile) }

// Save writes the configuration file, used by init.
func (c *Config) Save(fsys fs.FS) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := fsys.MkdirAll(c.RepoDir(), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", c.RepoDir(), err)
	}
	return fsys.WriteFileAtomic(c.ConfigPath(), data)
}

// ResolveWorkingTreeRoot determines the working tree root by walking up from start.
// It returns "" when no .cvc directory is found.
func ResolveWorkingTreeRoot(fsys fs.FS, start string) string {
	cwd := start
	for {
		if fsys.IsDir(filepath.Join(cwd, RepoDir)) {
			return cwd
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break // reached filesystem root
		}
		cwd = parent
	}
	return ""
}
