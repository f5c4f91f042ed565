package domain

import (
	"strings"
	"time"
)

// RenderState is the bit set of render lifecycle flags.
type RenderState uint32

const (
	StateOnline RenderState = 1 << iota
	StateBusy
	StateZombie
	StateNIMBY
	StateNimby
	StateWOLSleeping
	StateWOLFalling
	StateWOLWaking
	StateHidden
)

var stateNames = []struct {
	flag RenderState
	name string
}{
	{StateOnline, "online"},
	{StateBusy, "busy"},
	{StateZombie, "zombie"},
	{StateNIMBY, "NIMBY"},
	{StateNimby, "nimby"},
	{StateWOLSleeping, "wol_sleeping"},
	{StateWOLFalling, "wol_falling"},
	{StateWOLWaking, "wol_waking"},
	{StateHidden, "hidden"},
}

func (s RenderState) Has(flag RenderState) bool { return s&flag == flag }

func (s RenderState) String() string {
	var parts []string
	if !s.Has(StateOnline) {
		parts = append(parts, "offline")
	}
	for _, n := range stateNames {
		if s.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}

// HostRes is the live resource usage reported by a render.
type HostRes struct {
	CPUNum     int `json:"cpu_num" cbor:"cpu_num"`
	CPUMHz     int `json:"cpu_mhz" cbor:"cpu_mhz"`
	CPULoad    int `json:"cpu_load" cbor:"cpu_load"`
	MemTotalMB int `json:"mem_total_mb" cbor:"mem_total_mb"`
	MemFreeMB  int `json:"mem_free_mb" cbor:"mem_free_mb"`
	SwapUsedMB int `json:"swap_used_mb" cbor:"swap_used_mb"`
	HDDFreeGB  int `json:"hdd_free_gb" cbor:"hdd_free_gb"`
	NetRecvKBs int `json:"net_recv_kbs" cbor:"net_recv_kbs"`
	NetSendKBs int `json:"net_send_kbs" cbor:"net_send_kbs"`
}

// RenderSnapshot is what a render reports about itself when it registers.
type RenderSnapshot struct {
	Name       string
	UserName   string
	Version    string
	Address    Address
	Host       Host
	HostRes    HostRes
	NetIFs     []NetIF
	LaunchTime time.Time
}

// Attr names a persisted render attribute. An update without attributes
// writes the whole record.
type Attr string

const (
	AttrState            Attr = "state"
	AttrAnnotation       Attr = "annotation"
	AttrPriority         Attr = "priority"
	AttrCapacity         Attr = "capacity"
	AttrMaxTasks         Attr = "max_tasks"
	AttrServicesDisabled Attr = "services_disabled"
	AttrUserName         Attr = "user_name"
)

// RenderRecord is a point-in-time copy of a render handed to persistence.
type RenderRecord struct {
	ID               int32       `db:"id" json:"id"`
	Name             string      `db:"name" json:"name"`
	UserName         string      `db:"user_name" json:"user_name"`
	Version          string      `db:"version" json:"version"`
	Address          string      `db:"address" json:"address"`
	State            RenderState `db:"state" json:"state"`
	Priority         int         `db:"priority" json:"priority"`
	Annotation       string      `db:"annotation" json:"annotation"`
	Capacity         int         `db:"capacity" json:"capacity"`
	MaxTasks         int         `db:"max_tasks" json:"max_tasks"`
	ServicesDisabled string      `db:"services_disabled" json:"services_disabled"`
	NetIFs           []NetIF     `db:"-" json:"net_ifs"`
	TimeRegister     time.Time   `db:"time_register" json:"time_register"`
	TimeLaunch       time.Time   `db:"time_launch" json:"time_launch"`
	TimeUpdate       time.Time   `db:"time_update" json:"time_update"`
	TimeWOL          time.Time   `db:"time_wol" json:"time_wol"`
	TasksCount       int         `db:"-" json:"tasks_count"`
	CapacityUsed     int         `db:"-" json:"capacity_used"`
}

func (r RenderRecord) IsOnline() bool { return r.State.Has(StateOnline) }

type RenderTable struct {
	ID               string
	Name             string
	UserName         string
	Version          string
	Address          string
	State            string
	Priority         string
	Annotation       string
	Capacity         string
	MaxTasks         string
	ServicesDisabled string
	NetIFs           string
	TimeRegister     string
	TimeLaunch       string
	TimeUpdate       string
	TimeWOL          string
}

func GetRenderTable() RenderTable {
	return RenderTable{
		ID:               "id",
		Name:             "name",
		UserName:         "user_name",
		Version:          "version",
		Address:          "address",
		State:            "state",
		Priority:         "priority",
		Annotation:       "annotation",
		Capacity:         "capacity",
		MaxTasks:         "max_tasks",
		ServicesDisabled: "services_disabled",
		NetIFs:           "net_ifs",
		TimeRegister:     "time_register",
		TimeLaunch:       "time_launch",
		TimeUpdate:       "time_update",
		TimeWOL:          "time_wol",
	}
}

func (RenderTable) TableName() string {
	return "renders"
}
