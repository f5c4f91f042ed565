package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpsert(t *testing.T) {
	query, args := NewQueryBuilder("public").
		Insert("id", "name", "state").
		Into("renders").
		Values(int32(1), "farm01", 3).
		OnConflict("id").
		SetExclude("name", "state").
		Build()

	assert.Equal(t, "INSERT INTO public.renders (id, name, state) VALUES (?, ?, ?) ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, state = EXCLUDED.state", query)
	assert.Equal(t, []interface{}{int32(1), "farm01", 3}, args)
}

func TestInsertRows(t *testing.T) {
	query, args := NewQueryBuilder("").
		Insert("id", "name").
		Into("renders").
		Values(1, "a").
		Values(2, "b").
		OnConflict("id").
		DoNothing().
		Build()

	assert.Equal(t, "INSERT INTO renders (id, name) VALUES (?, ?), (?, ?) ON CONFLICT (id) DO NOTHING", query)
	assert.Equal(t, []interface{}{1, "a", 2, "b"}, args)

	query, _ = NewQueryBuilder("").Insert("id", "name").Into("renders").Values(1).Build()
	assert.Empty(t, query, "row shorter than the column list")
}

func TestSelect(t *testing.T) {
	query, args := NewQueryBuilder("public").
		Select("id", "name").
		From("renders").
		Where("priority > ?", 10).
		Or("name = ?", "farm01").
		OrderBy("id", true).
		Build()

	assert.Equal(t, "SELECT id, name FROM public.renders WHERE priority > ? OR name = ? ORDER BY id ASC", query)
	assert.Equal(t, []interface{}{10, "farm01"}, args)

	query, args = NewQueryBuilder("public").From("renders").Build()
	assert.Equal(t, "SELECT * FROM public.renders", query)
	assert.Empty(t, args)
}

func TestDelete(t *testing.T) {
	query, args := NewQueryBuilder("public").Delete("renders").Where("id = ?", int32(4)).Build()
	assert.Equal(t, "DELETE FROM public.renders WHERE id = ?", query)
	assert.Equal(t, []interface{}{int32(4)}, args)

	query, _ = NewQueryBuilder("public").Delete("renders").Build()
	assert.Empty(t, query)
}
