package config

import "os"

type AppConfig struct {
	DebugMode      bool
	ServerCfg      *ServerCfg
	RenderCfg      *RenderCfg
	ScheduleSvcCfg *ScheduleSvcCfg
	PersistCfg     *PersistCfg
	RedisConfig    *RedisConfig
	PostgresConfig *PostgresConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      os.Getenv("DEBUG_MODE") == "true",
		ServerCfg:      NewServerCfg(),
		RenderCfg:      NewRenderCfg(),
		ScheduleSvcCfg: NewScheduleSvcCfg(),
		PersistCfg:     NewPersistCfg(),
		RedisConfig:    NewRedisConfig(),
		PostgresConfig: NewPostgresConfig(),
	}
}
