package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	OAuthConfig
	HubConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetBaseURL() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	OAuth
	Hub
	Store
}

// New returns a configuration backed only by environment variables and defaults.
func New() Config {
	return newMainConfig(&File{})
}

// Load reads an optional YAML file and overlays it beneath the environment.
// Environment variables win over file values, file values win over defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[config Load] read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("[config Load] parse %s: %w", path, err)
	}
	return newMainConfig(&f), nil
}

func newMainConfig(f *File) mainConfig {
	return mainConfig{
		EnvVars: EnvVars{file: f},
		OAuth:   OAuth{file: f},
		Hub:     Hub{file: f},
		Store:   Store{file: f},
	}
}

// File is the on-disk shape of the optional configuration file.
type File struct {
	Server struct {
		Port       string `yaml:"port"`
		AppName    string `yaml:"app_name"`
		DataFolder string `yaml:"data_folder"`
		BaseURL    string `yaml:"base_url"`
		LogLevel   string `yaml:"log_level"`
		Env        string `yaml:"env"`
	} `yaml:"server"`
	OAuth struct {
		ClientID         string   `yaml:"client_id"`
		Issuer           string   `yaml:"issuer"`
		AuthEndpoint     string   `yaml:"auth_endpoint"`
		TokenEndpoint    string   `yaml:"token_endpoint"`
		UserInfoEndpoint string   `yaml:"userinfo_endpoint"`
		RedirectURI      string   `yaml:"redirect_uri"`
		Scopes           []string `yaml:"scopes"`
		RefreshMargin    Duration `yaml:"refresh_margin"`
		DefaultLifetime  Duration `yaml:"default_token_lifetime"`
		HTTPTimeout      Duration `yaml:"http_timeout"`
	} `yaml:"oauth"`
	Hub struct {
		APIBaseURL    string `yaml:"api_base_url"`
		AccountURL    string `yaml:"account_url"`
		ActivityLimit int    `yaml:"activity_limit"`
	} `yaml:"hub"`
	Store struct {
		Backend     string `yaml:"backend"`
		File        string `yaml:"file"`
		RedisAddr   string `yaml:"redis_addr"`
		RedisPrefix string `yaml:"redis_prefix"`
	} `yaml:"store"`
}
