package testutil

import (
	"os"
	"testing"
)

// RequireMongo skips the test unless a reachable MongoDB is advertised via
// EVENTUAL_TEST_MONGODB_URL. Returns the URL when present.
func RequireMongo(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("EVENTUAL_TEST_MONGODB_URL")
	if url == "" {
		t.Skip("skipping integration test (set EVENTUAL_TEST_MONGODB_URL to run)")
	}
	return url
}

// SkipIfShort skips the test in short mode.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}
