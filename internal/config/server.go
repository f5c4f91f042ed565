package config

type ServerCfg struct {
	TCPAddress  string
	HTTPPort    int
	Magic       int32
	FarmFile    string
	OutboxSize  int
	ServiceName string
}

func NewServerCfg() *ServerCfg {
	return &ServerCfg{
		TCPAddress:  getEnv("SERVER_TCP_ADDR", ":51000"),
		HTTPPort:    getIntEnv("SERVER_HTTP_PORT", 51080),
		Magic:       int32(getIntEnv("SERVER_MAGIC_NUMBER", 1)),
		FarmFile:    getEnv("FARM_FILE", ""),
		OutboxSize:  getIntEnv("SERVER_OUTBOX_SIZE", 256),
		ServiceName: getEnv("SERVICE_NAME", "renderfarm"),
	}
}
