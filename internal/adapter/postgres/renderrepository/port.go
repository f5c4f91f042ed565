// package renderrepository stores render records in PostgreSQL
package renderrepository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"gitlab.com/renderfarm.net/internal/core/ports/primary"
	"gitlab.com/renderfarm.net/internal/core/ports/secondary"
	"gitlab.com/renderfarm.net/internal/domain"
	querybuilder "gitlab.com/renderfarm.net/internal/utils"
)

var (
	_ secondary.RenderWriter = (*RenderRepository)(nil)
	_ secondary.RenderLoader = (*RenderRepository)(nil)
)

// RenderRepository implements the render storage ports with PostgreSQL
type RenderRepository struct {
	db     *sqlx.DB
	logger primary.Logger
	schema string
}

// NewRenderRepository creates a new PostgreSQL render repository
func NewRenderRepository(db *sqlx.DB, logger primary.Logger, schema string) *RenderRepository {
	if schema == "" {
		schema = "public"
	}
	return &RenderRepository{
		db:     db,
		logger: logger,
		schema: schema,
	}
}

// EnsureSchema creates the renders table when it is missing
func (r *RenderRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.%s (
			id                INTEGER PRIMARY KEY,
			name              TEXT NOT NULL,
			user_name         TEXT NOT NULL DEFAULT '',
			version           TEXT NOT NULL DEFAULT '',
			address           TEXT NOT NULL DEFAULT '',
			state             BIGINT NOT NULL DEFAULT 0,
			priority          INTEGER NOT NULL DEFAULT 0,
			annotation        TEXT NOT NULL DEFAULT '',
			capacity          INTEGER NOT NULL DEFAULT -1,
			max_tasks         INTEGER NOT NULL DEFAULT -1,
			services_disabled TEXT NOT NULL DEFAULT '',
			net_ifs           JSONB NOT NULL DEFAULT '[]',
			time_register     TIMESTAMPTZ NOT NULL DEFAULT now(),
			time_launch       TIMESTAMPTZ NOT NULL DEFAULT now(),
			time_update       TIMESTAMPTZ NOT NULL DEFAULT now(),
			time_wol          TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, r.schema, domain.GetRenderTable().TableName())

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		r.logger.Error("Failed to create renders table", "error", err)
		return fmt.Errorf("failed to create renders table: %w", err)
	}
	return nil
}

// columns returns the columns and values written for a record. The id and
// name are always written so a partial update can create the row.
func columns(rec domain.RenderRecord, attrs []domain.Attr) ([]string, []interface{}, error) {
	tbl := domain.GetRenderTable()
	cols := []string{tbl.ID, tbl.Name}
	vals := []interface{}{rec.ID, rec.Name}

	if len(attrs) == 0 {
		netIFs, err := json.Marshal(rec.NetIFs)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal net interfaces: %w", err)
		}
		cols = append(cols,
			tbl.UserName, tbl.Version, tbl.Address, tbl.State, tbl.Priority, tbl.Annotation,
			tbl.Capacity, tbl.MaxTasks, tbl.ServicesDisabled, tbl.NetIFs,
			tbl.TimeRegister, tbl.TimeLaunch, tbl.TimeUpdate, tbl.TimeWOL,
		)
		vals = append(vals,
			rec.UserName, rec.Version, rec.Address, int64(rec.State), rec.Priority, rec.Annotation,
			rec.Capacity, rec.MaxTasks, rec.ServicesDisabled, string(netIFs),
			rec.TimeRegister, rec.TimeLaunch, rec.TimeUpdate, rec.TimeWOL,
		)
		return cols, vals, nil
	}

	seen := make(map[domain.Attr]bool, len(attrs))
	for _, a := range attrs {
		if seen[a] {
			continue
		}
		seen[a] = true
		switch a {
		case domain.AttrState:
			cols = append(cols, tbl.State, tbl.TimeWOL)
			vals = append(vals, int64(rec.State), rec.TimeWOL)
		case domain.AttrAnnotation:
			cols = append(cols, tbl.Annotation)
			vals = append(vals, rec.Annotation)
		case domain.AttrPriority:
			cols = append(cols, tbl.Priority)
			vals = append(vals, rec.Priority)
		case domain.AttrCapacity:
			cols = append(cols, tbl.Capacity)
			vals = append(vals, rec.Capacity)
		case domain.AttrMaxTasks:
			cols = append(cols, tbl.MaxTasks)
			vals = append(vals, rec.MaxTasks)
		case domain.AttrServicesDisabled:
			cols = append(cols, tbl.ServicesDisabled)
			vals = append(vals, rec.ServicesDisabled)
		case domain.AttrUserName:
			cols = append(cols, tbl.UserName)
			vals = append(vals, rec.UserName)
		default:
			return nil, nil, fmt.Errorf("unknown render attribute %q", a)
		}
	}
	return cols, vals, nil
}

// SaveRender upserts the listed attributes, or the whole record when attrs
// is empty
func (r *RenderRepository) SaveRender(ctx context.Context, rec domain.RenderRecord, attrs []domain.Attr) error {
	cols, vals, err := columns(rec, attrs)
	if err != nil {
		return err
	}

	query, args := querybuilder.NewQueryBuilder(r.schema).
		Insert(cols...).
		Into(domain.GetRenderTable().TableName()).
		Values(vals...).
		OnConflict(domain.GetRenderTable().ID).
		SetExclude(cols[1:]...).
		Build()
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to save render", "id", rec.ID, "render", rec.Name, "error", err)
		return fmt.Errorf("failed to save render: %w", err)
	}
	return nil
}

// DeleteRender removes a render row
func (r *RenderRepository) DeleteRender(ctx context.Context, id int32) error {
	query, args := querybuilder.NewQueryBuilder(r.schema).
		Delete(domain.GetRenderTable().TableName()).
		Where(domain.GetRenderTable().ID+" = ?", id).
		Build()
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to delete render", "id", id, "error", err)
		return fmt.Errorf("failed to delete render: %w", err)
	}
	return nil
}

type renderRow struct {
	domain.RenderRecord
	NetIFsJSON []byte `db:"net_ifs"`
}

// LoadRenders returns every stored render ordered by id
func (r *RenderRepository) LoadRenders(ctx context.Context) ([]domain.RenderRecord, error) {
	query, args := querybuilder.NewQueryBuilder(r.schema).
		From(domain.GetRenderTable().TableName()).
		OrderBy(domain.GetRenderTable().ID, true).
		Build()

	var rows []renderRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.Error("Failed to load renders", "error", err)
		return nil, fmt.Errorf("failed to load renders: %w", err)
	}

	records := make([]domain.RenderRecord, 0, len(rows))
	for _, row := range rows {
		rec := row.RenderRecord
		if len(row.NetIFsJSON) > 0 {
			if err := json.Unmarshal(row.NetIFsJSON, &rec.NetIFs); err != nil {
				r.logger.Warn("Invalid stored net interfaces", "id", rec.ID, "error", err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
