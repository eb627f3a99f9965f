package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/remod/internal/ir"
)

// EmissionQuery selects part of one instance's timeline.
// Empty fields do not filter.
type EmissionQuery struct {
	InstanceID string
	Channels   []string          // any of these channels
	Kinds      []ir.EmissionKind // any of these kinds
	Value      ir.Value          // canonical equality on the carried value
	AfterSeq   int64             // exclusive lower bound on seq
	Limit      int
}

// predicate is a WHERE fragment over the emissions table. Values are
// always returned as parameters, never interpolated.
type predicate interface {
	compile() (string, []any)
}

type equals struct {
	column string
	value  any
}

func (p equals) compile() (string, []any) {
	return p.column + " = ?", []any{p.value}
}

type oneOf struct {
	column string
	values []any
}

func (p oneOf) compile() (string, []any) {
	if len(p.values) == 1 {
		return equals{p.column, p.values[0]}.compile()
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(p.values)), ", ")
	return fmt.Sprintf("%s IN (%s)", p.column, marks), p.values
}

type greater struct {
	column string
	value  any
}

func (p greater) compile() (string, []any) {
	return p.column + " > ?", []any{p.value}
}

type and []predicate

func (p and) compile() (string, []any) {
	if len(p) == 0 {
		return "1 = 1", nil
	}
	parts := make([]string, 0, len(p))
	var params []any
	for _, pred := range p {
		sql, args := pred.compile()
		parts = append(parts, sql)
		params = append(params, args...)
	}
	return strings.Join(parts, " AND "), params
}

const emissionSelect = `SELECT e.id, e.instance_id, i.module, e.channel, e.kind, e.value, e.seq
FROM emissions e
JOIN instances i ON e.instance_id = i.id`

// emissionOrder is appended to every emission query so timelines come back
// in the same order on every SQLite build.
const emissionOrder = " ORDER BY e.seq ASC, e.id COLLATE BINARY ASC"

// compile builds parameterized SQL for q.
func (q EmissionQuery) compile() (string, []any, error) {
	if q.InstanceID == "" {
		return "", nil, errors.New("emission query needs an instance ID")
	}

	where := and{equals{"e.instance_id", q.InstanceID}}
	if len(q.Channels) > 0 {
		values := make([]any, len(q.Channels))
		for i, c := range q.Channels {
			values[i] = c
		}
		where = append(where, oneOf{"e.channel", values})
	}
	if len(q.Kinds) > 0 {
		values := make([]any, len(q.Kinds))
		for i, k := range q.Kinds {
			if !k.Valid() {
				return "", nil, fmt.Errorf("unknown emission kind %q", k)
			}
			values[i] = string(k)
		}
		where = append(where, oneOf{"e.kind", values})
	}
	if q.Value != nil {
		text, err := marshalValue(q.Value)
		if err != nil {
			return "", nil, err
		}
		where = append(where, equals{"e.value", text})
	}
	if q.AfterSeq > 0 {
		where = append(where, greater{"e.seq", q.AfterSeq})
	}

	clause, params := where.compile()
	sql := emissionSelect + "\nWHERE " + clause + emissionOrder
	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}
	return sql, params, nil
}

// QueryEmissions returns the emissions matching q in seq order.
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) QueryEmissions(ctx context.Context, q EmissionQuery) ([]ir.Emission, error) {
	sql, params, err := q.compile()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("query emissions: %w", err)
	}
	defer rows.Close()

	emissions := []ir.Emission{}
	for rows.Next() {
		var (
			e         ir.Emission
			kind      string
			valueJSON string
		)
		if err := rows.Scan(&e.ID, &e.InstanceID, &e.Module, &e.Channel, &kind, &valueJSON, &e.Seq); err != nil {
			return nil, fmt.Errorf("scan emission: %w", err)
		}
		e.Kind = ir.EmissionKind(kind)
		if e.Value, err = unmarshalValue(valueJSON); err != nil {
			return nil, fmt.Errorf("emission %s: %w", e.ID, err)
		}
		emissions = append(emissions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate emissions: %w", err)
	}
	return emissions, nil
}
