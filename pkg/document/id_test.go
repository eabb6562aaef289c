package document_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/eventual-app/eventual/pkg/document"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseIDValid(t *testing.T) {
	oid := primitive.NewObjectID()

	parsed, err := document.ParseID(oid.Hex())
	if err != nil {
		t.Fatalf("ParseID(%q) returned error: %v", oid.Hex(), err)
	}
	if parsed != oid {
		t.Fatalf("ParseID round trip mismatch: got %v, want %v", parsed, oid)
	}
}

func TestParseIDInvalid(t *testing.T) {
	cases := []string{
		"",
		"not-an-id",
		"123",
		strings.Repeat("z", 24),
		strings.Repeat("a", 23),
		strings.Repeat("a", 25),
	}
	for _, raw := range cases {
		if _, err := document.ParseID(raw); !errors.Is(err, document.ErrInvalidID) {
			t.Fatalf("ParseID(%q) = %v, want ErrInvalidID", raw, err)
		}
		if document.ValidID(raw) {
			t.Fatalf("ValidID(%q) = true, want false", raw)
		}
	}
}

func TestProperty_IDRoundTrip(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	props := gopter.NewProperties(params)

	hexDigit := gen.OneConstOf(
		"0", "1", "2", "3", "4", "5", "6", "7",
		"8", "9", "a", "b", "c", "d", "e", "f",
	)
	genHex24 := gen.SliceOfN(24, hexDigit).Map(func(digits []string) string {
		return strings.Join(digits, "")
	})

	props.Property("every 24-hex string parses and formats back to itself", prop.ForAll(
		func(raw string) bool {
			oid, err := document.ParseID(raw)
			if err != nil {
				return false
			}
			return document.FormatID(oid) == raw && document.ValidID(raw)
		},
		genHex24,
	))

	props.Property("ValidID agrees with ParseID", prop.ForAll(
		func(raw string) bool {
			_, err := document.ParseID(raw)
			return document.ValidID(raw) == (err == nil)
		},
		gen.AlphaString(),
	))

	props.TestingRun(t)
}
