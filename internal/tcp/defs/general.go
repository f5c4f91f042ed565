package defs

// Protocol data structures
type (
	// GeneralData carries an administrative action: the target ids, a
	// numeric and a string argument, and the author.
	GeneralData struct {
		IDs      []int32 `cbor:"ids" json:"ids"`
		Number   int32   `cbor:"number" json:"number"`
		String   string  `cbor:"string" json:"string"`
		UserName string  `cbor:"user_name" json:"user"`
		HostName string  `cbor:"host_name" json:"host"`
	}

	StringData struct {
		Text string `cbor:"text"`
	}

	StringListData struct {
		Lines []string `cbor:"lines"`
	}
)

// Author formats the action author as user@host.
func (g GeneralData) Author() string {
	return g.UserName + "@" + g.HostName
}
