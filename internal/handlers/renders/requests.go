package renders

import "gitlab.com/renderfarm.net/internal/tcp/defs"

// ActionRequest is the body of a render action. Type is the message name,
// e.g. RenderEjectTasks or RenderSetPriority.
type ActionRequest struct {
	Type     string `json:"type"`
	Number   int32  `json:"number"`
	String   string `json:"string"`
	UserName string `json:"user"`
	HostName string `json:"host"`
}

func (a ActionRequest) general(id int32, remote string) defs.GeneralData {
	host := a.HostName
	if host == "" {
		host = remote
	}
	return defs.GeneralData{
		IDs:      []int32{id},
		Number:   a.Number,
		String:   a.String,
		UserName: a.UserName,
		HostName: host,
	}
}
