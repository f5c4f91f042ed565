package config

import "time"

// PersistCfg sizes the asynchronous update queue.
type PersistCfg struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
	UseRedis     bool
	UsePostgres  bool
}

func NewPersistCfg() *PersistCfg {
	return &PersistCfg{
		QueueSize:    getIntEnv("PERSIST_QUEUE_SIZE", 4096),
		Workers:      getIntEnv("PERSIST_WORKERS", 2),
		WriteTimeout: getSecondsEnv("PERSIST_WRITE_TIMEOUT_SEC", 5*time.Second),
		UseRedis:     getEnv("PERSIST_REDIS", "true") == "true",
		UsePostgres:  getEnv("PERSIST_POSTGRES", "true") == "true",
	}
}
