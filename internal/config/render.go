package config

import "time"

// RenderCfg holds render node defaults.
type RenderCfg struct {
	ZombieTime      time.Duration
	DefaultCapacity int
	DefaultMaxTasks int
	LogLinesMax     int
	LogsDir         string
	LogsRotate      int
	WOLWakeCmd      string
	WOLCmdTimeout   time.Duration
}

func NewRenderCfg() *RenderCfg {
	return &RenderCfg{
		ZombieTime:      getSecondsEnv("RENDER_ZOMBIE_TIME_SEC", 60*time.Second),
		DefaultCapacity: getIntEnv("RENDER_DEFAULT_CAPACITY", 1100),
		DefaultMaxTasks: getIntEnv("RENDER_DEFAULT_MAX_TASKS", 10),
		LogLinesMax:     getIntEnv("RENDER_LOG_LINES_MAX", 200),
		LogsDir:         getEnv("RENDER_LOGS_DIR", "logs/renders"),
		LogsRotate:      getIntEnv("RENDER_LOGS_ROTATE", 10),
		WOLWakeCmd:      getEnv("RENDER_WOL_WAKE_CMD", "wakeonlan"),
		WOLCmdTimeout:   getSecondsEnv("RENDER_WOL_TIMEOUT_SEC", 30*time.Second),
	}
}
