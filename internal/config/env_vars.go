package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	baseURLVar     = "BASE_URL"
	logLevelEnvVar = "LOG_LEVEL"
	envEnvVar      = "ENV"
)

type EnvVars struct {
	file *File
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, e.file.Server.Port, "8080")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return GetEnv(appNameVar, e.file.Server.AppName, "SEKAI Hub")
}

func (e EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, e.file.Server.DataFolder, "./data")
}

// GetBaseURL returns the public URL the hub is reachable on (e.g., "https://hub.example.com").
// The default redirect URI is derived from it.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, e.file.Server.BaseURL, "http://localhost:8080"), "/")
}

func (e EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, e.file.Server.LogLevel, "info")
}

func (e EnvVars) GetEnv() string {
	return GetEnv(envEnvVar, e.file.Server.Env, "DEV")
}

// GetEnv returns the environment variable if set, then the file value, then the default.
func GetEnv(envVar, fileValue, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

func getEnvInt(envVar string, fileValue, defaultValue int) int {
	if value := os.Getenv(envVar); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	if fileValue != 0 {
		return fileValue
	}
	return defaultValue
}

func getEnvDuration(envVar string, fileValue Duration, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envVar); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fileValue.orDefault(defaultValue)
}
