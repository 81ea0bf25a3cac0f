package config

import "path/filepath"

const (
	StoreBackendMemory = "memory"
	StoreBackendFile   = "file"
	StoreBackendRedis  = "redis"
)

type StoreConfig interface {
	GetStoreBackend() string
	GetStoreFile() string
	GetRedisAddr() string
	GetRedisPrefix() string
}

type Store struct {
	file *File
}

var _ StoreConfig = Store{}

func (s Store) GetStoreBackend() string {
	return GetEnv("STORE_BACKEND", s.file.Store.Backend, StoreBackendFile)
}

func (s Store) GetStoreFile() string {
	def := filepath.Join(EnvVars{file: s.file}.GetDataFolder(), "credentials.json")
	return GetEnv("STORE_FILE", s.file.Store.File, def)
}

func (s Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", s.file.Store.RedisAddr, "localhost:6379")
}

func (s Store) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", s.file.Store.RedisPrefix, "sekai")
}
