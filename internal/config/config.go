package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root string `yaml:"root"`
	} `yaml:"project"`
	Hierarchy struct {
		SupertypeIndex string   `yaml:"supertype_index"` // "direct" or "transitive"
		Sealed         []string `yaml:"sealed"`          // type names never rewritten
	} `yaml:"hierarchy"`
	Scan struct {
		Ignored []string `yaml:"ignored"`
	} `yaml:"scan"`
	Storage struct {
		DB string `yaml:"db"`
	} `yaml:"storage"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // "text" or "json"
	} `yaml:"log"`
}

func Default() *Config {
	var cfg Config
	cfg.Project.Root = "."
	cfg.Hierarchy.SupertypeIndex = "direct"
	cfg.Scan.Ignored = []string{".git", "vendor", "node_modules", "testdata"}
	cfg.Storage.DB = "typelift.db"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return &cfg
}

// LoadConfig reads path on top of the defaults. A missing file is not an
// error; environment variables win over both.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, err
			}
		}
	}

	// 3. Override with Environment Variables if present
	if db := os.Getenv("TYPELIFT_DB"); db != "" {
		cfg.Storage.DB = db
	}
	if level := os.Getenv("TYPELIFT_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv("TYPELIFT_SUPERTYPE_INDEX"); mode != "" {
		cfg.Hierarchy.SupertypeIndex = mode
	}

	return cfg, nil
}
