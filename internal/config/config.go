package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "certify.toml"

// Server contains HTTP listener configuration.
type Server struct {
	Bind      string `toml:"bind"`
	PublicDir string `toml:"public_dir"`
}

// Storage contains configuration for the submission store and file area.
type Storage struct {
	Driver     string `toml:"driver"`
	Path       string `toml:"path"`
	UploadsDir string `toml:"uploads_dir"`
}

// Intake contains submission rules.
type Intake struct {
	CodePrefix    string `toml:"code_prefix"`
	MinImages     int    `toml:"min_images"`
	MaxImages     int    `toml:"max_images"`
	MaxFileSizeMB int    `toml:"max_file_size_mb"`
}

// Mail contains SMTP configuration for operator notifications.
type Mail struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	From           string `toml:"from"`
	Operator       string `toml:"operator"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the top-level certify configuration.
type Config struct {
	Server  Server  `toml:"server"`
	Storage Storage `toml:"storage"`
	Intake  Intake  `toml:"intake"`
	Mail    Mail    `toml:"mail"`
	Logging Logging `toml:"logging"`
}

// Load reads the TOML file at path over the defaults, applies environment
// overrides and validates the result. A missing file is not an error; the
// returned bool reports whether one was read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	resolved, exists, err := resolvePath(path)
	if err != nil {
		return nil, false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return nil, false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, false, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}

	return &cfg, exists, nil
}

func resolvePath(path string) (string, bool, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = strings.TrimSpace(os.Getenv("CERTIFY_CONFIG"))
		explicit = path != ""
	}
	if !explicit {
		path = DefaultConfigFile
	}

	_, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if explicit {
				return "", false, fmt.Errorf("config file not found: %s", path)
			}
			return path, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return path, true, nil
}

// MaxFileSize returns the per-file upload limit in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.Intake.MaxFileSizeMB) * 1024 * 1024
}

// MailConfigured reports whether SMTP credentials are present.
func (c *Config) MailConfigured() bool {
	return c.Mail.Username != "" && c.Mail.Password != ""
}

// EnsureDirectories creates the uploads directory and the store's parent directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Storage.UploadsDir, filepath.Dir(c.Storage.Path)}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}
