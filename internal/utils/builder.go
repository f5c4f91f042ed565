package querybuilder

import (
	"fmt"
	"strings"
)

// QueryBuilder builds SQL with "?" placeholders. Callers rebind them for
// their driver, e.g. with sqlx.DB.Rebind.
type QueryBuilder interface {
	Select(cols ...string) QueryBuilder
	From(table string) QueryBuilder
	Into(table string) QueryBuilder
	Where(clause string, args ...interface{}) QueryBuilder

	Or(clause string, args ...interface{}) QueryBuilder
	And(clause string, args ...interface{}) QueryBuilder

	OrderBy(col string, asc bool) QueryBuilder

	Insert(cols ...string) QueryBuilder
	Values(values ...interface{}) QueryBuilder
	OnConflict(cols ...string) QueryBuilder
	DoNothing() QueryBuilder
	SetExclude(cols ...string) QueryBuilder

	Delete(table string) QueryBuilder
	Build() (string, []interface{})
}

type queryBuilder struct {
	schema      string
	table       string
	cols        []string
	conditions  []Condition
	values      InsertRows
	orderBy     []string
	onConflict  []string
	excludeCols []string
	isDelete    bool
}

func NewQueryBuilder(schema string) QueryBuilder {
	return &queryBuilder{
		schema: schema,
	}
}

func (q *queryBuilder) Select(cols ...string) QueryBuilder {
	q.cols = append(q.cols, cols...)
	return q
}

func (q *queryBuilder) From(table string) QueryBuilder {
	q.table = table
	return q
}

func (q *queryBuilder) Into(table string) QueryBuilder {
	q.table = table
	return q
}

func (q *queryBuilder) Insert(cols ...string) QueryBuilder {
	q.cols = cols
	return q
}

func (q *queryBuilder) Values(values ...interface{}) QueryBuilder {
	q.values = append(q.values, values)
	return q
}

func (q *queryBuilder) OnConflict(cols ...string) QueryBuilder {
	q.onConflict = cols
	return q
}

func (q *queryBuilder) DoNothing() QueryBuilder {
	q.excludeCols = nil
	return q
}

// SetExclude makes a conflicting insert overwrite cols with the new values
func (q *queryBuilder) SetExclude(cols ...string) QueryBuilder {
	q.excludeCols = cols
	return q
}

func (q *queryBuilder) Delete(table string) QueryBuilder {
	q.table = table
	q.isDelete = true
	return q
}

func (q *queryBuilder) Where(clause string, args ...interface{}) QueryBuilder {
	return q.And(clause, args...)
}

func (q *queryBuilder) Or(clause string, args ...interface{}) QueryBuilder {
	q.conditions = append(q.conditions, Condition{condType: CondTypeOr, clause: clause, args: args})
	return q
}

func (q *queryBuilder) And(clause string, args ...interface{}) QueryBuilder {
	q.conditions = append(q.conditions, Condition{condType: CondTypeAnd, clause: clause, args: args})
	return q
}

func (q *queryBuilder) OrderBy(col string, asc bool) QueryBuilder {
	orderVector := "ASC"
	if !asc {
		orderVector = "DESC"
	}
	q.orderBy = append(q.orderBy, fmt.Sprintf("%s %s", col, orderVector))
	return q
}

func (q *queryBuilder) qualified() string {
	if q.schema == "" {
		return q.table
	}
	return q.schema + "." + q.table
}

// Build returns the query and its arguments. An insert whose rows do not
// match the columns builds an empty query.
func (q *queryBuilder) Build() (string, []interface{}) {
	switch {
	case len(q.values) > 0:
		return q.buildInsert()
	case q.isDelete:
		return q.buildDelete()
	default:
		return q.buildSelect()
	}
}

func buildCondition(conditions []Condition) (string, []interface{}) {
	parts := make([]string, 0, len(conditions)*2)
	args := make([]interface{}, 0)
	for i, cond := range conditions {
		if i > 0 {
			parts = append(parts, cond.condType.ToString())
		}
		parts = append(parts, cond.clause)
		args = append(args, cond.args...)
	}
	return strings.Join(parts, " "), args
}

func (q *queryBuilder) where(query string, args []interface{}) (string, []interface{}) {
	if len(q.conditions) == 0 {
		return query, args
	}
	condition, condArgs := buildCondition(q.conditions)
	return query + " WHERE " + condition, append(args, condArgs...)
}

func (q *queryBuilder) buildSelect() (string, []interface{}) {
	cols := "*"
	if len(q.cols) > 0 {
		cols = strings.Join(q.cols, ", ")
	}
	query, args := q.where(fmt.Sprintf("SELECT %s FROM %s", cols, q.qualified()), nil)
	if len(q.orderBy) > 0 {
		query += " ORDER BY " + strings.Join(q.orderBy, ", ")
	}
	return query, args
}

func (q *queryBuilder) buildDelete() (string, []interface{}) {
	if len(q.conditions) == 0 {
		// refuse to delete a whole table
		return "", nil
	}
	return q.where("DELETE FROM "+q.qualified(), nil)
}

func (q *queryBuilder) buildInsert() (string, []interface{}) {
	numOfParam := len(q.cols)
	if numOfParam == 0 {
		return "", nil
	}

	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", numOfParam), ", ") + ")"
	valueTuples := make([]string, len(q.values))
	args := make([]interface{}, 0, len(q.values)*numOfParam)
	for i, row := range q.values {
		if len(row) != numOfParam {
			return "", nil
		}
		valueTuples[i] = tuple
		args = append(args, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", q.qualified(), strings.Join(q.cols, ", "), strings.Join(valueTuples, ", "))
	if len(q.onConflict) == 0 {
		return query, args
	}

	query += fmt.Sprintf(" ON CONFLICT (%s)", strings.Join(q.onConflict, ", "))
	if len(q.excludeCols) == 0 {
		return query + " DO NOTHING", args
	}
	sets := make([]string, len(q.excludeCols))
	for i, col := range q.excludeCols {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	return query + " DO UPDATE SET " + strings.Join(sets, ", "), args
}
