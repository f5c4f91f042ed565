package domain

// EntityKind is the kind of object an event refers to.
type EntityKind int

const (
	EntityJob EntityKind = iota
	EntityUser
	EntityRender
	EntityMonitor
	EntityTalk
)

// ChangeKind tells what happened to the entity.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeChanged
	ChangeDeleted
)

// Event is an entity notification for monitors. It carries only the id,
// subscribers fetch the state themselves.
type Event struct {
	Entity EntityKind
	Change ChangeKind
	ID     int32
}

func RenderChanged(id int32) Event { return Event{Entity: EntityRender, Change: ChangeChanged, ID: id} }
func RenderAdded(id int32) Event   { return Event{Entity: EntityRender, Change: ChangeAdded, ID: id} }
func RenderDeleted(id int32) Event { return Event{Entity: EntityRender, Change: ChangeDeleted, ID: id} }
func JobChanged(id int32) Event    { return Event{Entity: EntityJob, Change: ChangeChanged, ID: id} }
