package testutil

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FakeStore is an in-memory document.Executor used by unit tests. It covers
// the query and update operators the repository relies on: equality filters,
// $regex, $gte, $lte, $ne, dotted array-element paths, $set (including the
// positional form), $push and $pull.
type FakeStore struct {
	mu          sync.Mutex
	collections map[string][]bson.M
}

// NewFakeStore creates an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{collections: make(map[string][]bson.M)}
}

// Seed inserts documents directly, assigning object ids where missing, and
// returns the hex ids of the seeded documents.
func (s *FakeStore) Seed(collection string, docs ...bson.M) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		stored := copyDoc(doc)
		oid, ok := stored["_id"].(primitive.ObjectID)
		if !ok {
			oid = primitive.NewObjectID()
			stored["_id"] = oid
		}
		s.collections[collection] = append(s.collections[collection], stored)
		ids = append(ids, oid.Hex())
	}
	return ids
}

// Docs returns copies of every document in a collection.
func (s *FakeStore) Docs(collection string) []bson.M {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]bson.M, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		out = append(out, copyDoc(doc))
	}
	return out
}

func (s *FakeStore) InsertOne(_ context.Context, collection string, doc bson.M) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyDoc(doc)
	oid, ok := stored["_id"].(primitive.ObjectID)
	if !ok {
		oid = primitive.NewObjectID()
		stored["_id"] = oid
	}
	s.collections[collection] = append(s.collections[collection], stored)
	return oid, nil
}

func (s *FakeStore) FindOne(_ context.Context, collection string, filter, projection bson.M) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			return project(copyDoc(doc), projection), nil
		}
	}
	return nil, nil
}

func (s *FakeStore) Find(_ context.Context, collection string, filter, projection bson.M, sortSpec bson.D, offset, limit int64) ([]bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []bson.M
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			matched = append(matched, copyDoc(doc))
		}
	}

	if len(sortSpec) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, field := range sortSpec {
				dir, _ := field.Value.(int)
				if dir == 0 {
					dir = 1
				}
				cmp := compareValues(matched[i][field.Key], matched[j][field.Key])
				if cmp != 0 {
					return cmp*dir < 0
				}
			}
			return false
		})
	}

	if offset > 0 {
		if offset >= int64(len(matched)) {
			matched = nil
		} else {
			matched = matched[offset:]
		}
	}
	if limit > 0 && int64(len(matched)) > limit {
		matched = matched[:limit]
	}

	out := make([]bson.M, 0, len(matched))
	for _, doc := range matched {
		out = append(out, project(doc, projection))
	}
	return out, nil
}

func (s *FakeStore) Count(_ context.Context, collection string, filter bson.M) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			total++
		}
	}
	return total, nil
}

func (s *FakeStore) FindOneAndUpdate(_ context.Context, collection string, filter, update bson.M) (bson.M, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			applyUpdate(doc, update, filter)
			return copyDoc(doc), nil
		}
	}
	return nil, nil
}

func (s *FakeStore) UpdateOne(_ context.Context, collection string, filter, update bson.M) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range s.collections[collection] {
		if matches(doc, filter) {
			applyUpdate(doc, update, filter)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *FakeStore) DeleteOne(_ context.Context, collection string, filter bson.M) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collections[collection]
	for i, doc := range docs {
		if matches(doc, filter) {
			s.collections[collection] = append(docs[:i:i], docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func matches(doc bson.M, filter bson.M) bool {
	for key, cond := range filter {
		if !matchField(doc, key, cond) {
			return false
		}
	}
	return true
}

func matchField(doc bson.M, path string, cond interface{}) bool {
	values := resolve(doc, path)

	if opMap, ok := cond.(bson.M); ok && hasOperator(opMap) {
		return matchOperators(values, opMap)
	}

	for _, v := range values {
		if equalValues(v, cond) {
			return true
		}
	}
	return false
}

func matchOperators(values []interface{}, ops bson.M) bool {
	for op, arg := range ops {
		switch op {
		case "$options":
			// consumed by the $regex case below
		case "$ne":
			for _, v := range values {
				if equalValues(v, arg) {
					return false
				}
			}
		case "$regex":
			pattern, _ := arg.(string)
			if opts, _ := ops["$options"].(string); strings.Contains(opts, "i") {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return false
			}
			found := false
			for _, v := range values {
				if str, ok := v.(string); ok && re.MatchString(str) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case "$gte":
			found := false
			for _, v := range values {
				if compareValues(v, arg) >= 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case "$lte":
			found := false
			for _, v := range values {
				if compareValues(v, arg) <= 0 {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func hasOperator(m bson.M) bool {
	for key := range m {
		if strings.HasPrefix(key, "$") {
			return true
		}
	}
	return false
}

// resolve walks a dotted path, fanning out over array elements the way the
// document store matches embedded arrays.
func resolve(value interface{}, path string) []interface{} {
	if path == "" {
		return []interface{}{value}
	}

	key := path
	rest := ""
	if idx := strings.Index(path, "."); idx >= 0 {
		key, rest = path[:idx], path[idx+1:]
	}

	switch v := value.(type) {
	case bson.M:
		child, ok := v[key]
		if !ok {
			return nil
		}
		return resolve(child, rest)
	case map[string]interface{}:
		child, ok := v[key]
		if !ok {
			return nil
		}
		return resolve(child, rest)
	case []interface{}:
		var out []interface{}
		for _, elem := range v {
			out = append(out, resolve(elem, path)...)
		}
		return out
	case primitive.A:
		var out []interface{}
		for _, elem := range v {
			out = append(out, resolve(elem, path)...)
		}
		return out
	default:
		return nil
	}
}

func applyUpdate(doc bson.M, update, filter bson.M) {
	if set, ok := update["$set"].(bson.M); ok {
		for key, value := range set {
			if strings.HasSuffix(key, ".$") {
				applyPositionalSet(doc, strings.TrimSuffix(key, ".$"), value, filter)
				continue
			}
			doc[key] = value
		}
	}
	if push, ok := update["$push"].(bson.M); ok {
		for field, element := range push {
			arr, _ := doc[field].([]interface{})
			doc[field] = append(arr, element)
		}
	}
	if pull, ok := update["$pull"].(bson.M); ok {
		for field, condRaw := range pull {
			cond, _ := condRaw.(bson.M)
			arr, _ := doc[field].([]interface{})
			kept := arr[:0:0]
			for _, elem := range arr {
				if cond != nil && elementMatches(elem, cond) {
					continue
				}
				kept = append(kept, elem)
			}
			doc[field] = kept
		}
	}
}

// applyPositionalSet replaces the first array element matched by the filter's
// condition on that array, mirroring the positional $ operator.
func applyPositionalSet(doc bson.M, field string, value interface{}, filter bson.M) {
	arr, _ := doc[field].([]interface{})
	for key, cond := range filter {
		if !strings.HasPrefix(key, field+".") {
			continue
		}
		elemKey := strings.TrimPrefix(key, field+".")
		for i, elem := range arr {
			if elementMatches(elem, bson.M{elemKey: cond}) {
				arr[i] = value
				return
			}
		}
	}
}

func elementMatches(elem interface{}, cond bson.M) bool {
	var m bson.M
	switch e := elem.(type) {
	case bson.M:
		m = e
	case map[string]interface{}:
		m = bson.M(e)
	default:
		return false
	}
	for key, want := range cond {
		if !equalValues(m[key], want) {
			return false
		}
	}
	return true
}

func project(doc bson.M, projection bson.M) bson.M {
	if len(projection) == 0 {
		return doc
	}

	inclusion := false
	for _, v := range projection {
		if asInt(v) == 1 {
			inclusion = true
			break
		}
	}

	if inclusion {
		out := bson.M{"_id": doc["_id"]}
		for field, v := range projection {
			if asInt(v) != 1 {
				continue
			}
			if value, ok := doc[field]; ok {
				out[field] = value
			}
		}
		return out
	}

	out := copyDoc(doc)
	for field, v := range projection {
		if asInt(v) == 0 {
			delete(out, field)
		}
	}
	return out
}

func copyDoc(doc bson.M) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		if arr, ok := v.([]interface{}); ok {
			copied := make([]interface{}, len(arr))
			copy(copied, arr)
			out[k] = copied
			continue
		}
		out[k] = v
	}
	return out
}

func equalValues(a, b interface{}) bool {
	if oa, ok := a.(primitive.ObjectID); ok {
		ob, ok := b.(primitive.ObjectID)
		return ok && oa == ob
	}
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		return ok && fa == fb
	}
	return a == b
}

func compareValues(a, b interface{}) int {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		if ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if ok {
			return strings.Compare(sa, sb)
		}
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			default:
				return 0
			}
		}
	}
	return 0
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func asInt(v interface{}) int {
	f, ok := asFloat(v)
	if !ok {
		return -1
	}
	return int(f)
}
