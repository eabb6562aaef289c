package document_test

import (
	"errors"
	"testing"

	"github.com/eventual-app/eventual/pkg/document"
	"go.mongodb.org/mongo-driver/bson"
)

func TestQueryMatchSkipsEmptyValues(t *testing.T) {
	q := document.NewQuery().
		Match("name", "party").
		Match("place", "")

	if len(q.Filter) != 1 {
		t.Fatalf("filter has %d entries, want 1: %v", len(q.Filter), q.Filter)
	}
	if q.Filter["name"] != "party" {
		t.Fatalf("filter[name] = %v, want party", q.Filter["name"])
	}
}

func TestQuerySubstring(t *testing.T) {
	q := document.NewQuery().Substring("organizador", "club")

	cond, ok := q.Filter["organizador"].(bson.M)
	if !ok {
		t.Fatalf("filter[organizador] is %T, want bson.M", q.Filter["organizador"])
	}
	if cond["$regex"] != "club" || cond["$options"] != "i" {
		t.Fatalf("unexpected substring condition: %v", cond)
	}
}

func TestQueryBoxBoundsEachAxis(t *testing.T) {
	q := document.NewQuery().Box("lat", "lon", 40.0, -3.5, document.DefaultBoxRadius)

	lat, ok := q.Filter["lat"].(bson.M)
	if !ok {
		t.Fatalf("filter[lat] is %T, want bson.M", q.Filter["lat"])
	}
	if lat["$gte"] != 39.8 || lat["$lte"] != 40.2 {
		t.Fatalf("unexpected lat bounds: %v", lat)
	}

	lon, ok := q.Filter["lon"].(bson.M)
	if !ok {
		t.Fatalf("filter[lon] is %T, want bson.M", q.Filter["lon"])
	}
	if lon["$gte"] != -3.7 || lon["$lte"] != -3.3 {
		t.Fatalf("unexpected lon bounds: %v", lon)
	}
}

func TestQueryWithPageRejectsNegatives(t *testing.T) {
	if _, err := document.NewQuery().WithPage(-1, 10); !errors.Is(err, document.ErrValidation) {
		t.Fatalf("negative offset: got %v, want ErrValidation", err)
	}
	if _, err := document.NewQuery().WithPage(0, -5); !errors.Is(err, document.ErrValidation) {
		t.Fatalf("negative limit: got %v, want ErrValidation", err)
	}

	q, err := document.NewQuery().WithPage(20, 10)
	if err != nil {
		t.Fatalf("valid page rejected: %v", err)
	}
	if q.Offset != 20 || q.Limit != 10 {
		t.Fatalf("page window not applied: offset=%d limit=%d", q.Offset, q.Limit)
	}
}

func TestBuildProjection(t *testing.T) {
	if p := document.BuildProjection(""); p != nil {
		t.Fatalf("empty fields should produce nil projection, got %v", p)
	}
	if p := document.BuildProjection(" , ,"); p != nil {
		t.Fatalf("blank fields should produce nil projection, got %v", p)
	}

	p := document.BuildProjection("name, place ,url")
	want := bson.M{"name": 1, "place": 1, "url": 1}
	if len(p) != len(want) {
		t.Fatalf("projection = %v, want %v", p, want)
	}
	for field := range want {
		if p[field] != 1 {
			t.Fatalf("projection missing field %q: %v", field, p)
		}
	}
}

func TestBuildSort(t *testing.T) {
	if s := document.BuildSort("  "); s != nil {
		t.Fatalf("empty spec should produce nil sort, got %v", s)
	}

	s := document.BuildSort("timestamp, name")
	if len(s) != 2 {
		t.Fatalf("sort has %d entries, want 2: %v", len(s), s)
	}
	if s[0].Key != "timestamp" || s[0].Value != 1 {
		t.Fatalf("first sort field = %+v, want timestamp ascending", s[0])
	}
	if s[1].Key != "name" || s[1].Value != 1 {
		t.Fatalf("second sort field = %+v, want name ascending", s[1])
	}
}
