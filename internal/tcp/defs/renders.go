package defs

import (
	"time"

	"gitlab.com/renderfarm.net/internal/domain"
)

// Protocol data structures
type (
	// RenderRegisterData is sent by a render with MsgRenderRegister.
	RenderRegisterData struct {
		Name       string         `cbor:"name"`
		UserName   string         `cbor:"user_name"`
		Version    string         `cbor:"version"`
		Host       domain.Host    `cbor:"host"`
		HostRes    domain.HostRes `cbor:"host_res"`
		NetIFs     []domain.NetIF `cbor:"net_ifs"`
		LaunchTime int64          `cbor:"launch_time"`
	}

	// RenderUpdateData is sent periodically with MsgRenderUpdate.
	RenderUpdateData struct {
		RenderID int32          `cbor:"render_id"`
		HostRes  domain.HostRes `cbor:"host_res"`
	}

	// RenderSummary is one row of MsgRendersList.
	RenderSummary struct {
		ID           int32  `cbor:"id" json:"id"`
		Name         string `cbor:"name" json:"name"`
		UserName     string `cbor:"user_name" json:"user_name"`
		State        string `cbor:"state" json:"state"`
		Priority     int    `cbor:"priority" json:"priority"`
		Annotation   string `cbor:"annotation" json:"annotation"`
		Address      string `cbor:"address" json:"address"`
		Capacity     int    `cbor:"capacity" json:"capacity"`
		CapacityUsed int    `cbor:"capacity_used" json:"capacity_used"`
		MaxTasks     int    `cbor:"max_tasks" json:"max_tasks"`
		Tasks        int    `cbor:"tasks" json:"tasks"`
		Services     string `cbor:"services" json:"services"`
		Version      string `cbor:"version" json:"version"`
		TimeUpdate   int64  `cbor:"time_update" json:"time_update"`
	}

	RendersListData struct {
		Renders []RenderSummary `cbor:"renders"`
	}
)

// Snapshot converts registration data received on addr.
func (d RenderRegisterData) Snapshot(addr domain.Address) domain.RenderSnapshot {
	snap := domain.RenderSnapshot{
		Name:     d.Name,
		UserName: d.UserName,
		Version:  d.Version,
		Address:  addr,
		Host:     d.Host.Clone(),
		HostRes:  d.HostRes,
		NetIFs:   append([]domain.NetIF(nil), d.NetIFs...),
	}
	if d.LaunchTime > 0 {
		snap.LaunchTime = time.Unix(d.LaunchTime, 0)
	}
	return snap
}
