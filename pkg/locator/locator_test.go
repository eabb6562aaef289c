package locator_test

import (
	"reflect"
	"testing"

	"github.com/eventual-app/eventual/pkg/locator"
)

func newTestLocator() *locator.Locator {
	return locator.New(map[string]locator.Endpoint{
		"Events ":   {Host: "events.internal", Port: 8000},
		"countries": {Host: "countries.internal", Port: 8001},
	})
}

func TestServicesSortedAndNormalized(t *testing.T) {
	got := newTestLocator().Services()
	want := []string{"countries", "events"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Services() = %v, want %v", got, want)
	}
}

func TestBaseURL(t *testing.T) {
	l := newTestLocator()

	base, err := l.BaseURL("EVENTS")
	if err != nil {
		t.Fatalf("BaseURL: %v", err)
	}
	if base != "http://events.internal:8000" {
		t.Errorf("BaseURL = %q", base)
	}

	if _, err := l.BaseURL("media"); err == nil {
		t.Error("expected an error for an unknown service")
	}
}

func TestURLJoining(t *testing.T) {
	l := newTestLocator()

	cases := []struct {
		path string
		want string
	}{
		{"", "http://events.internal:8000/api/v1/events"},
		{"/", "http://events.internal:8000/api/v1/events"},
		{"abc123", "http://events.internal:8000/api/v1/events/abc123"},
		{"/abc123/", "http://events.internal:8000/api/v1/events/abc123"},
	}
	for _, tc := range cases {
		got, err := l.URL("v1", "events", tc.path)
		if err != nil {
			t.Fatalf("URL(%q): %v", tc.path, err)
		}
		if got != tc.want {
			t.Errorf("URL(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
