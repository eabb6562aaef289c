package document_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eventual-app/eventual/pkg/document"
	"github.com/eventual-app/eventual/pkg/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newEventsRepo(t *testing.T) (*document.Repository, *testutil.FakeStore) {
	t.Helper()
	store := testutil.NewFakeStore()
	repo, err := document.NewRepository(store, "events", document.WithTimestamps())
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo, store
}

func newUsersRepo(t *testing.T) (*document.Repository, *testutil.FakeStore) {
	t.Helper()
	store := testutil.NewFakeStore()
	repo, err := document.NewRepository(store, "users")
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	return repo, store
}

func TestCreateParsesTimestampAndReturnsHexID(t *testing.T) {
	repo, _ := newEventsRepo(t)

	doc, err := repo.Create(context.Background(), map[string]interface{}{
		"nombre":    "concert",
		"timestamp": "25/12/2026 21:30",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	id, ok := doc["_id"].(string)
	if !ok || !document.ValidID(id) {
		t.Fatalf("created doc carries invalid id: %v", doc["_id"])
	}
	if doc["timestamp"] != "2026-12-25 21:30:00" {
		t.Fatalf("timestamp = %v, want display format", doc["timestamp"])
	}
}

func TestCreateRejectsMalformedTimestamp(t *testing.T) {
	repo, _ := newEventsRepo(t)

	_, err := repo.Create(context.Background(), map[string]interface{}{
		"nombre":    "concert",
		"timestamp": "2026-12-25 21:30",
	})
	if !errors.Is(err, document.ErrValidation) {
		t.Fatalf("Create with wrong layout: got %v, want ErrValidation", err)
	}
}

func TestGetByIDValidatesBeforeStoreAccess(t *testing.T) {
	repo, _ := newEventsRepo(t)

	_, err := repo.GetByID(context.Background(), "nonsense", nil)
	if !errors.Is(err, document.ErrInvalidID) {
		t.Fatalf("GetByID with bad id: got %v, want ErrInvalidID", err)
	}

	_, err = repo.GetByID(context.Background(), primitive.NewObjectID().Hex(), nil)
	if !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("GetByID with absent id: got %v, want ErrNotFound", err)
	}
}

func TestFindReturnsPageAndTotal(t *testing.T) {
	repo, store := newEventsRepo(t)
	for i := 0; i < 5; i++ {
		store.Seed("events", bson.M{"nombre": "fiesta", "timestamp": time.Now()})
	}
	store.Seed("events", bson.M{"nombre": "otra", "timestamp": time.Now()})

	q := document.NewQuery().Match("nombre", "fiesta")
	q, err := q.WithPage(0, 2)
	if err != nil {
		t.Fatalf("WithPage: %v", err)
	}

	docs, total, err := repo.Find(context.Background(), q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("page has %d docs, want 2", len(docs))
	}
	if total != 5 {
		t.Fatalf("total = %d, want 5 (count ignores the page window)", total)
	}
}

func TestFindSubstringIsCaseInsensitive(t *testing.T) {
	repo, store := newEventsRepo(t)
	store.Seed("events", bson.M{"organizador": "Club Nocturno"})
	store.Seed("events", bson.M{"organizador": "ayuntamiento"})

	q := document.NewQuery().Substring("organizador", "club")
	docs, total, err := repo.Find(context.Background(), q)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if total != 1 || len(docs) != 1 {
		t.Fatalf("substring match: got %d docs (total %d), want 1", len(docs), total)
	}
}

func TestUpdateByIDMergesFields(t *testing.T) {
	repo, store := newEventsRepo(t)
	ids := store.Seed("events", bson.M{"nombre": "feria", "lugar": "Sevilla", "timestamp": time.Now()})

	doc, err := repo.UpdateByID(context.Background(), ids[0], map[string]interface{}{"lugar": "Granada"})
	if err != nil {
		t.Fatalf("UpdateByID: %v", err)
	}
	if doc["lugar"] != "Granada" {
		t.Fatalf("lugar = %v, want Granada", doc["lugar"])
	}
	if doc["nombre"] != "feria" {
		t.Fatalf("untouched field was lost: nombre = %v", doc["nombre"])
	}
}

func TestUpdateByIDRejectsEmptyFields(t *testing.T) {
	repo, store := newEventsRepo(t)
	ids := store.Seed("events", bson.M{"nombre": "feria"})

	_, err := repo.UpdateByID(context.Background(), ids[0], map[string]interface{}{})
	if !errors.Is(err, document.ErrValidation) {
		t.Fatalf("empty update: got %v, want ErrValidation", err)
	}
}

func TestDeleteByIDIsIdempotent(t *testing.T) {
	repo, store := newEventsRepo(t)
	ids := store.Seed("events", bson.M{"nombre": "feria"})

	count, err := repo.DeleteByID(context.Background(), ids[0])
	if err != nil || count != 1 {
		t.Fatalf("first delete: count=%d err=%v, want 1, nil", count, err)
	}

	count, err = repo.DeleteByID(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("second delete errored: %v", err)
	}
	if count != 0 {
		t.Fatalf("second delete count = %d, want 0", count)
	}
}

func TestPushOrReplaceAppendsThenReplaces(t *testing.T) {
	repo, store := newUsersRepo(t)
	ids := store.Seed("users", bson.M{"userName": "ana", "reviews": []interface{}{}})
	reviewer := primitive.NewObjectID().Hex()

	err := repo.PushOrReplace(context.Background(), ids[0], "reviews", "user", reviewer,
		map[string]interface{}{"user": reviewer, "rating": 3})
	if err != nil {
		t.Fatalf("first PushOrReplace: %v", err)
	}

	err = repo.PushOrReplace(context.Background(), ids[0], "reviews", "user", reviewer,
		map[string]interface{}{"user": reviewer, "rating": 5})
	if err != nil {
		t.Fatalf("second PushOrReplace: %v", err)
	}

	docs := store.Docs("users")
	reviews, _ := docs[0]["reviews"].([]interface{})
	if len(reviews) != 1 {
		t.Fatalf("reviewer holds %d reviews, want exactly 1", len(reviews))
	}
	review, _ := reviews[0].(map[string]interface{})
	if review["rating"] != 5 {
		t.Fatalf("replaced rating = %v, want 5", review["rating"])
	}
}

func TestPushOrReplaceMissingDocument(t *testing.T) {
	repo, _ := newUsersRepo(t)

	err := repo.PushOrReplace(context.Background(), primitive.NewObjectID().Hex(), "reviews", "user", "x",
		map[string]interface{}{"user": "x", "rating": 1})
	if !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("PushOrReplace on absent doc: got %v, want ErrNotFound", err)
	}
}

func TestPullRemovesMatchingElements(t *testing.T) {
	repo, store := newUsersRepo(t)
	reviewer := primitive.NewObjectID().Hex()
	ids := store.Seed("users", bson.M{"userName": "ana", "reviews": []interface{}{
		map[string]interface{}{"user": reviewer, "rating": 4},
		map[string]interface{}{"user": "other", "rating": 2},
	}})

	if err := repo.Pull(context.Background(), ids[0], "reviews", "user", reviewer); err != nil {
		t.Fatalf("Pull: %v", err)
	}

	docs := store.Docs("users")
	reviews, _ := docs[0]["reviews"].([]interface{})
	if len(reviews) != 1 {
		t.Fatalf("reviews after pull = %d, want 1", len(reviews))
	}

	// Pulling an element that is not there succeeds on an existing doc.
	if err := repo.Pull(context.Background(), ids[0], "reviews", "user", reviewer); err != nil {
		t.Fatalf("Pull of absent element: %v", err)
	}

	err := repo.Pull(context.Background(), primitive.NewObjectID().Hex(), "reviews", "user", reviewer)
	if !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("Pull on absent doc: got %v, want ErrNotFound", err)
	}
}
