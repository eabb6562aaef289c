package document

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Timestamp wire formats. Clients submit timestamps as DD/MM/YYYY HH:MM;
// documents are stored with a native temporal value and rendered back as
// YYYY-MM-DD HH:MM:SS.
const (
	TimestampField        = "timestamp"
	TimestampInputLayout  = "02/01/2006 15:04"
	TimestampOutputLayout = "2006-01-02 15:04:05"
)

// Executor is the minimal document execution contract the repository needs
// from a store. The production implementation is storage/mongo.Adapter; tests
// substitute an in-memory fake.
//
// FindOne and FindOneAndUpdate return (nil, nil) when no document matches.
type Executor interface {
	InsertOne(ctx context.Context, collection string, doc bson.M) (interface{}, error)
	FindOne(ctx context.Context, collection string, filter, projection bson.M) (bson.M, error)
	Find(ctx context.Context, collection string, filter, projection bson.M, sort bson.D, offset, limit int64) ([]bson.M, error)
	Count(ctx context.Context, collection string, filter bson.M) (int64, error)
	FindOneAndUpdate(ctx context.Context, collection string, filter, update bson.M) (bson.M, error)
	UpdateOne(ctx context.Context, collection string, filter, update bson.M) (int64, error)
	DeleteOne(ctx context.Context, collection string, filter bson.M) (int64, error)
}

// Repository executes CRUD operations against one collection and applies the
// uniform transport shape (hex identifiers, rendered timestamps) to every
// document it returns. It holds no per-request state; one instance serves
// concurrent requests.
type Repository struct {
	exec       Executor
	collection string
	timestamps bool
}

// Option configures a Repository.
type Option func(*Repository)

// WithTimestamps opts the collection into date handling: the "timestamp"
// field is parsed from the client layout on writes and rendered in the
// display layout on reads.
func WithTimestamps() Option {
	return func(r *Repository) { r.timestamps = true }
}

// NewRepository creates a repository bound to a collection name.
func NewRepository(exec Executor, collection string, opts ...Option) (*Repository, error) {
	if exec == nil {
		return nil, fmt.Errorf("document executor is required")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	r := &Repository{exec: exec, collection: collection}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Collection returns the collection name this repository is bound to.
func (r *Repository) Collection() string {
	return r.collection
}

// Create inserts doc and returns it in transport shape with the
// store-assigned identifier under "_id".
func (r *Repository) Create(ctx context.Context, doc map[string]interface{}) (map[string]interface{}, error) {
	stored, err := r.toStored(doc)
	if err != nil {
		return nil, err
	}

	inserted, err := r.exec.InsertOne(ctx, r.collection, stored)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", r.collection, err)
	}

	oid, ok := inserted.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert into %s: unexpected inserted id %T", r.collection, inserted)
	}
	stored["_id"] = oid
	return r.shape(stored), nil
}

// GetByID fetches one document by identifier. The identifier is validated
// before any store call; a missing document is ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id string, projection bson.M) (map[string]interface{}, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}

	doc, err := r.exec.FindOne(ctx, r.collection, bson.M{"_id": oid}, projection)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", r.collection, id, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%s/%s: %w", r.collection, id, ErrNotFound)
	}
	return r.shape(doc), nil
}

// FindOne returns the first document matching the query filter, or
// ErrNotFound. Projection applies; sort and pagination do not.
func (r *Repository) FindOne(ctx context.Context, q *Query) (map[string]interface{}, error) {
	doc, err := r.exec.FindOne(ctx, r.collection, q.Filter, q.Projection)
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", r.collection, err)
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return r.shape(doc), nil
}

// Find returns the page of documents selected by q plus the total number of
// documents matching its filter. The total is counted independently of the
// page window so callers can surface it alongside paginated results.
func (r *Repository) Find(ctx context.Context, q *Query) ([]map[string]interface{}, int64, error) {
	docs, err := r.exec.Find(ctx, r.collection, q.Filter, q.Projection, q.Sort, q.Offset, q.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("find in %s: %w", r.collection, err)
	}

	total, err := r.exec.Count(ctx, r.collection, q.Filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count in %s: %w", r.collection, err)
	}

	shaped := make([]map[string]interface{}, 0, len(docs))
	for _, doc := range docs {
		shaped = append(shaped, r.shape(doc))
	}
	return shaped, total, nil
}

// Count returns the number of documents matching the query filter.
func (r *Repository) Count(ctx context.Context, q *Query) (int64, error) {
	total, err := r.exec.Count(ctx, r.collection, q.Filter)
	if err != nil {
		return 0, fmt.Errorf("count in %s: %w", r.collection, err)
	}
	return total, nil
}

// UpdateByID merges the provided fields into the document with a shallow
// field-level $set: untouched fields are preserved, nested values are
// replaced wholesale. Returns the post-update document.
func (r *Repository) UpdateByID(ctx context.Context, id string, fields map[string]interface{}) (map[string]interface{}, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", ErrValidation)
	}

	stored, err := r.toStored(fields)
	if err != nil {
		return nil, err
	}

	doc, err := r.exec.FindOneAndUpdate(ctx, r.collection, bson.M{"_id": oid}, bson.M{"$set": stored})
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", r.collection, id, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%s/%s: %w", r.collection, id, ErrNotFound)
	}
	return r.shape(doc), nil
}

// DeleteByID removes one document. Deleting an id that does not exist
// returns count 0, never an error.
func (r *Repository) DeleteByID(ctx context.Context, id string) (int64, error) {
	oid, err := ParseID(id)
	if err != nil {
		return 0, err
	}

	count, err := r.exec.DeleteOne(ctx, r.collection, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("delete %s/%s: %w", r.collection, id, err)
	}
	return count, nil
}

// PushOrReplace upserts element into an embedded array: when an element whose
// matchKey equals matchValue already exists it is replaced in place,
// otherwise the element is appended. Both paths are single server-side update
// expressions, so concurrent submissions for the same key cannot lose each
// other's writes.
//
// The operations key on the store's matched count: a missing document is
// ErrNotFound, while an update that changes nothing on an existing document
// succeeds.
func (r *Repository) PushOrReplace(ctx context.Context, id, arrayField, matchKey string, matchValue interface{}, element map[string]interface{}) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	keyPath := arrayField + "." + matchKey

	// Two rounds cover the window where a concurrent writer appends the
	// element between the replace and the guarded push.
	for attempt := 0; attempt < 2; attempt++ {
		matched, err := r.exec.UpdateOne(ctx, r.collection,
			bson.M{"_id": oid, keyPath: matchValue},
			bson.M{"$set": bson.M{arrayField + ".$": element}})
		if err != nil {
			return fmt.Errorf("replace in %s/%s: %w", r.collection, id, err)
		}
		if matched > 0 {
			return nil
		}

		matched, err = r.exec.UpdateOne(ctx, r.collection,
			bson.M{"_id": oid, keyPath: bson.M{"$ne": matchValue}},
			bson.M{"$push": bson.M{arrayField: element}})
		if err != nil {
			return fmt.Errorf("push into %s/%s: %w", r.collection, id, err)
		}
		if matched > 0 {
			return nil
		}
	}

	total, err := r.exec.Count(ctx, r.collection, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("push into %s/%s: %w", r.collection, id, err)
	}
	if total == 0 {
		return fmt.Errorf("%s/%s: %w", r.collection, id, ErrNotFound)
	}
	return nil
}

// Pull removes every element whose matchKey equals matchValue from an
// embedded array. A document without such an element is left untouched and
// the call succeeds; a missing document is ErrNotFound.
func (r *Repository) Pull(ctx context.Context, id, arrayField, matchKey string, matchValue interface{}) error {
	oid, err := ParseID(id)
	if err != nil {
		return err
	}

	matched, err := r.exec.UpdateOne(ctx, r.collection,
		bson.M{"_id": oid},
		bson.M{"$pull": bson.M{arrayField: bson.M{matchKey: matchValue}}})
	if err != nil {
		return fmt.Errorf("pull from %s/%s: %w", r.collection, id, err)
	}
	if matched == 0 {
		return fmt.Errorf("%s/%s: %w", r.collection, id, ErrNotFound)
	}
	return nil
}

// toStored copies fields into a store document, converting the timestamp
// field to its native temporal form when the collection handles dates.
func (r *Repository) toStored(fields map[string]interface{}) (bson.M, error) {
	stored := bson.M{}
	for k, v := range fields {
		stored[k] = v
	}

	if !r.timestamps {
		return stored, nil
	}

	switch ts := stored[TimestampField].(type) {
	case nil:
	case time.Time:
	case string:
		parsed, err := time.Parse(TimestampInputLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("%w: timestamp %q does not match %s", ErrValidation, ts, TimestampInputLayout)
		}
		stored[TimestampField] = parsed
	default:
		return nil, fmt.Errorf("%w: timestamp must be a string", ErrValidation)
	}
	return stored, nil
}

// shape converts a stored document into its transport form: the identifier
// becomes its hex string and, for collections with date handling, the
// timestamp is rendered in the display layout.
func (r *Repository) shape(doc bson.M) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = v
	}

	if oid, ok := out["_id"].(primitive.ObjectID); ok {
		out["_id"] = FormatID(oid)
	}

	if r.timestamps {
		switch ts := out[TimestampField].(type) {
		case time.Time:
			out[TimestampField] = ts.Format(TimestampOutputLayout)
		case primitive.DateTime:
			out[TimestampField] = ts.Time().Format(TimestampOutputLayout)
		}
	}
	return out
}
