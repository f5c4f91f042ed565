package defs

// Protocol data structures
type (
	// MonitorRegisterData is sent with MsgMonitorRegister.
	MonitorRegisterData struct {
		UserName string `cbor:"user_name" json:"user_name"`
		HostName string `cbor:"host_name" json:"host_name"`
		Version  string `cbor:"version"`
	}

	// MonitorSubscribeData lists event types for MsgMonitorSubscribe and
	// MsgMonitorUnsubscribe.
	MonitorSubscribeData struct {
		MonitorID int32     `cbor:"monitor_id"`
		Events    []MsgType `cbor:"events"`
	}

	// MonitorJobIDsData is sent with MsgMonitorJobsIdsAdd, Set and Del.
	MonitorJobIDsData struct {
		MonitorID int32   `cbor:"monitor_id"`
		JobIDs    []int32 `cbor:"job_ids"`
	}

	// EventIDsData is the payload of every monitor event message.
	EventIDsData struct {
		IDs []int32 `cbor:"ids"`
	}

	MonitorSummary struct {
		ID       int32  `cbor:"id" json:"id"`
		UserName string `cbor:"user_name" json:"user_name"`
		HostName string `cbor:"host_name" json:"host_name"`
		Address  string `cbor:"address" json:"address"`
	}

	MonitorsListData struct {
		Monitors []MonitorSummary `cbor:"monitors"`
	}
)
