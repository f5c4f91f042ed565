package domain

import "time"

// MonitorInfo describes a registered monitor connection.
type MonitorInfo struct {
	ID           int32     `json:"id"`
	UserName     string    `json:"user_name"`
	HostName     string    `json:"host_name"`
	Version      string    `json:"version"`
	Address      Address   `json:"address"`
	TimeRegister time.Time `json:"time_register"`
	Events       []string  `json:"events"`
	JobIDs       []int32   `json:"job_ids,omitempty"`
}
