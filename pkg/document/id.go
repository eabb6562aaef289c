package document

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ValidID reports whether raw is a well-formed document identifier
// (24 hexadecimal characters). It never panics.
func ValidID(raw string) bool {
	return primitive.IsValidObjectID(raw)
}

// ParseID decodes raw into the store's native identifier. A malformed
// identifier yields ErrInvalidID, distinguishable from storage errors
// with errors.Is.
func ParseID(raw string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, raw)
	}
	return oid, nil
}

// FormatID renders the canonical string form of an identifier.
// FormatID(must(ParseID(s))) == s for every valid s.
func FormatID(id primitive.ObjectID) string {
	return id.Hex()
}
