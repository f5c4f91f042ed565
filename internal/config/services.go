package config

import (
	"time"
)

type ScheduleSvcCfg struct {
	RefreshInterval time.Duration
	SolveInterval   time.Duration
	FlushInterval   time.Duration
	InboxSize       int
}

func NewScheduleSvcCfg() *ScheduleSvcCfg {
	return &ScheduleSvcCfg{
		RefreshInterval: getSecondsEnv("SCHEDULE_REFRESH_INTERVAL_SEC", time.Second),
		SolveInterval:   getMillisEnv("SCHEDULE_SOLVE_INTERVAL_MS", 500*time.Millisecond),
		FlushInterval:   getMillisEnv("SCHEDULE_FLUSH_INTERVAL_MS", 200*time.Millisecond),
		InboxSize:       getIntEnv("SCHEDULE_INBOX_SIZE", 1024),
	}
}
