package document

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// DefaultBoxRadius is the half-width, on each axis independently, of the
// bounding box used by proximity queries.
const DefaultBoxRadius = 0.2

// Query is a normalized, storage-agnostic query descriptor: a field filter,
// an optional projection, an optional ordered sort, and a pagination window.
// The zero value matches every document and applies no window.
type Query struct {
	Filter     bson.M
	Projection bson.M
	Sort       bson.D
	Offset     int64
	Limit      int64
}

// NewQuery returns an empty descriptor.
func NewQuery() *Query {
	return &Query{Filter: bson.M{}}
}

// Match adds an exact-match predicate for field. An empty value leaves the
// field unconstrained.
func (q *Query) Match(field, value string) *Query {
	if value == "" {
		return q
	}
	q.Filter[field] = value
	return q
}

// MatchValue adds an exact-match predicate for a non-string value. A nil
// value leaves the field unconstrained.
func (q *Query) MatchValue(field string, value interface{}) *Query {
	if value == nil {
		return q
	}
	q.Filter[field] = value
	return q
}

// Substring adds a case-insensitive substring predicate for field. An empty
// value leaves the field unconstrained.
func (q *Query) Substring(field, value string) *Query {
	if value == "" {
		return q
	}
	q.Filter[field] = bson.M{"$regex": value, "$options": "i"}
	return q
}

// Box constrains latField and lonField to a square window of half-width
// radius centered on (lat, lon). Each axis is bounded independently; this is
// not a geographic great-circle radius.
func (q *Query) Box(latField, lonField string, lat, lon, radius float64) *Query {
	q.Filter[latField] = bson.M{"$gte": lat - radius, "$lte": lat + radius}
	q.Filter[lonField] = bson.M{"$gte": lon - radius, "$lte": lon + radius}
	return q
}

// WithProjection parses a comma-separated field list into the projection.
// Empty input means every field is returned. The identifier field is included
// by the store unless explicitly excluded.
func (q *Query) WithProjection(fields string) *Query {
	q.Projection = BuildProjection(fields)
	return q
}

// WithSort parses a comma-separated field list into the sort specification.
// Every named field sorts ascending, in the order listed.
func (q *Query) WithSort(spec string) *Query {
	q.Sort = BuildSort(spec)
	return q
}

// WithPage sets the pagination window. Negative values are rejected; a limit
// of zero means no limit is applied.
func (q *Query) WithPage(offset, limit int64) (*Query, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: offset %d is negative", ErrValidation, offset)
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit %d is negative", ErrValidation, limit)
	}
	q.Offset = offset
	q.Limit = limit
	return q, nil
}

// BuildProjection converts a comma-separated field list into a store
// projection. Nil means "all fields".
func BuildProjection(fields string) bson.M {
	fields = strings.TrimSpace(fields)
	if fields == "" {
		return nil
	}
	projection := bson.M{}
	for _, field := range strings.Split(fields, ",") {
		if field = strings.TrimSpace(field); field != "" {
			projection[field] = 1
		}
	}
	if len(projection) == 0 {
		return nil
	}
	return projection
}

// BuildSort converts a comma-separated field list into an ordered ascending
// sort specification. Nil means "store order".
func BuildSort(spec string) bson.D {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}
	var sort bson.D
	for _, field := range strings.Split(spec, ",") {
		if field = strings.TrimSpace(field); field != "" {
			sort = append(sort, bson.E{Key: field, Value: 1})
		}
	}
	return sort
}
