package render

import (
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-memdb"

	"gitlab.com/renderfarm.net/internal/domain"
	"gitlab.com/renderfarm.net/internal/static/errs"
	"gitlab.com/renderfarm.net/internal/tcp/defs"
)

const rendersTable = "renders"

type renderRow struct {
	ID     int32
	Name   string
	Render *Render
}

func rendersTableSchema() *memdb.TableSchema {
	return &memdb.TableSchema{
		Name: rendersTable,
		Indexes: map[string]*memdb.IndexSchema{
			"id": {
				Name:    "id",
				Unique:  true,
				Indexer: &memdb.IntFieldIndex{Field: "ID"},
			},
			"name": {
				Name:   "name",
				Unique: true,
				Indexer: &memdb.StringFieldIndex{
					Field:     "Name",
					Lowercase: true,
				},
			},
		},
	}
}

// Registry holds every known render indexed by id and name. It is owned by
// the scheduler engine goroutine.
type Registry struct {
	db     *memdb.MemDB
	env    *Env
	lastID int32
}

var _ IRenderRegistry = (*Registry)(nil)

// NewRegistry returns an empty registry.
func NewRegistry(env *Env) (*Registry, error) {
	db, err := memdb.NewMemDB(&memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			rendersTable: rendersTableSchema(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create render registry: %w", err)
	}
	return &Registry{db: db, env: env}, nil
}

func (g *Registry) insert(r *Render) error {
	tx := g.db.Txn(true)
	if err := tx.Insert(rendersTable, &renderRow{ID: r.id, Name: r.name, Render: r}); err != nil {
		tx.Abort()
		return fmt.Errorf("insert render %q: %w", r.name, err)
	}
	tx.Commit()
	if r.id > g.lastID {
		g.lastID = r.id
	}
	return nil
}

func (g *Registry) first(index string, arg interface{}) *Render {
	tx := g.db.Txn(false)
	defer tx.Abort()
	raw, err := tx.First(rendersTable, index, arg)
	if err != nil || raw == nil {
		return nil
	}
	return raw.(*renderRow).Render
}

// Register brings a render online. A known offline render with the same
// name is reused, otherwise a new render is created.
func (g *Registry) Register(snap domain.RenderSnapshot) (*Render, error) {
	if snap.Name == "" {
		return nil, errs.ErrRenderNameEmpty
	}
	if r := g.GetByName(snap.Name); r != nil {
		switch {
		case r.IsZombie():
			return nil, errs.ErrRenderZombie
		case r.IsOnline():
			g.env.logger().Warn("Render registration rejected", "render", snap.Name, "address", snap.Address.String(),
				"online_address", r.address.String())
			return nil, errs.ErrRenderAlreadyOnline
		}
		r.Online(&snap)
		return r, nil
	}

	r := newRender(g.lastID+1, snap.Name, g.env)
	r.userName = snap.UserName
	r.timeRegister = g.env.now()
	if err := g.insert(r); err != nil {
		return nil, err
	}
	g.env.event(domain.RenderAdded(r.id))
	r.Online(&snap)
	r.appendLog("Registered online.")
	g.env.serverLog(r.id, "Render registered: "+r.String())
	return r, nil
}

// Restore loads offline renders from storage.
func (g *Registry) Restore(records []domain.RenderRecord) int {
	n := 0
	for _, rec := range records {
		if rec.Name == "" || g.Get(rec.ID) != nil || g.GetByName(rec.Name) != nil {
			g.env.logger().Warn("Skipping stored render", "id", rec.ID, "render", rec.Name)
			continue
		}
		if err := g.insert(FromRecord(rec, g.env)); err != nil {
			g.env.logger().Error("Failed to restore render", "render", rec.Name, "error", err)
			continue
		}
		n++
	}
	return n
}

// Get returns the render with the given id or nil.
func (g *Registry) Get(id int32) *Render { return g.first("id", id) }

// GetByName looks a render up by its case insensitive name.
func (g *Registry) GetByName(name string) *Render { return g.first("name", name) }

// FindNode is the lookup used by the job store.
func (g *Registry) FindNode(id int32) (*Render, bool) {
	r := g.Get(id)
	return r, r != nil
}

// All returns the renders ordered by priority, highest first, then by id.
func (g *Registry) All() []*Render {
	tx := g.db.Txn(false)
	defer tx.Abort()
	it, err := tx.Get(rendersTable, "id")
	if err != nil {
		g.env.logger().Error("Failed to list renders", "error", err)
		return nil
	}
	var out []*Render
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*renderRow).Render)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority > out[j].priority
		}
		return out[i].id < out[j].id
	})
	return out
}

// Count returns the number of renders and how many of them are online.
func (g *Registry) Count() (total, online int) {
	for _, r := range g.All() {
		total++
		if r.IsOnline() {
			online++
		}
	}
	return total, online
}

// Delete marks an offline render as a zombie and removes it from storage.
// It leaves the registry on the next sweep. Deleting a zombie again fails.
func (g *Registry) Delete(id int32, author defs.GeneralData) error {
	r := g.Get(id)
	if r == nil {
		return errs.ErrRenderNotFound
	}
	if r.IsZombie() {
		return errs.ErrRenderZombie
	}
	if r.IsOnline() {
		return errs.ErrRenderOnline
	}
	r.Action(defs.MsgRenderDelete, author)
	return nil
}

// Action applies an administrative action to every listed render.
func (g *Registry) Action(t defs.MsgType, data defs.GeneralData) error {
	found := false
	for _, id := range data.IDs {
		r := g.Get(id)
		if r == nil {
			g.env.logger().Warn("Action for unknown render", "type", t, "id", id, "author", data.Author())
			continue
		}
		found = true
		if !r.Action(t, data) {
			return errs.ErrUnknownAction
		}
	}
	if !found {
		return errs.ErrRenderNotFound
	}
	return nil
}

// RefreshAll runs the zombie check on every render.
func (g *Registry) RefreshAll(now time.Time) int {
	zombieTime := g.env.cfg().ZombieTime
	n := 0
	for _, r := range g.All() {
		if r.Refresh(now, zombieTime) {
			n++
		}
	}
	return n
}

// SweepZombies removes renders waiting for deletion.
func (g *Registry) SweepZombies() int {
	var zombies []*Render
	for _, r := range g.All() {
		if r.IsZombie() {
			zombies = append(zombies, r)
		}
	}
	if len(zombies) == 0 {
		return 0
	}
	tx := g.db.Txn(true)
	for _, r := range zombies {
		if _, err := tx.DeleteAll(rendersTable, "id", r.id); err != nil {
			tx.Abort()
			g.env.logger().Error("Failed to remove zombie renders", "error", err)
			return 0
		}
	}
	tx.Commit()
	return len(zombies)
}

// ReconcileIdle clears the busy flag of renders left without tasks.
func (g *Registry) ReconcileIdle() {
	for _, r := range g.All() {
		r.ReconcileIdle()
	}
}

// CloseLostTask tells a render to drop a task it reported but no longer
// holds.
func (g *Registry) CloseLostTask(renderID int32, key domain.TaskKey) {
	r := g.Get(renderID)
	if r == nil {
		g.env.logger().Error("Close lost task: render does not exist", "id", renderID, "task", key.String())
		return
	}
	r.CloseLostTask(key)
}

// DeregisterAddress takes a render offline when the connection it
// registered on goes away. A render that re-registered on another
// connection is left alone.
func (g *Registry) DeregisterAddress(id int32, addr domain.Address) bool {
	r := g.Get(id)
	if r == nil || r.IsOffline() || r.address.ConnID != addr.ConnID {
		return false
	}
	r.Deregister()
	return true
}

// Summaries lists renders for monitors and the HTTP API. With ids empty
// every render is listed.
func (g *Registry) Summaries(ids []int32) []defs.RenderSummary {
	var rs []*Render
	if len(ids) == 0 {
		rs = g.All()
	} else {
		for _, id := range ids {
			if r := g.Get(id); r != nil {
				rs = append(rs, r)
			}
		}
	}
	out := make([]defs.RenderSummary, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Summary())
	}
	return out
}
