package testutil

import (
	"context"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestFindRegexWithCaseInsensitiveOption(t *testing.T) {
	store := NewFakeStore()
	store.Seed("events", bson.M{"nombre": "Gran Verbena"})
	store.Seed("events", bson.M{"nombre": "feria"})

	docs, err := store.Find(context.Background(), "events",
		bson.M{"nombre": bson.M{"$regex": "verbena", "$options": "i"}}, nil, nil, 0, 0)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d docs, want 1", len(docs))
	}
	if docs[0]["nombre"] != "Gran Verbena" {
		t.Errorf("matched %v", docs[0]["nombre"])
	}
}

func TestFindRegexWithoutOptionsIsCaseSensitive(t *testing.T) {
	store := NewFakeStore()
	store.Seed("events", bson.M{"nombre": "Gran Verbena"})

	docs, err := store.Find(context.Background(), "events",
		bson.M{"nombre": bson.M{"$regex": "verbena"}}, nil, nil, 0, 0)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("got %d docs, want 0", len(docs))
	}
}

func TestCountHonorsRegexOptions(t *testing.T) {
	store := NewFakeStore()
	store.Seed("users", bson.M{"description": "Likes LOUD music"})

	count, err := store.Count(context.Background(), "users",
		bson.M{"description": bson.M{"$regex": "loud", "$options": "i"}})
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}
