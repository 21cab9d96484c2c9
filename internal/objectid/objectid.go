// Package objectid decides whether a client-supplied value is a well-formed
// entity identifier before any store lookup is attempted.
//
// Identifiers follow the document store syntax: exactly 24 hexadecimal characters.
package objectid

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const hexLength = 24

// IsValid reports whether candidate is exactly 24 hexadecimal characters.
func IsValid(candidate string) bool {
	if len(candidate) != hexLength {
		return false
	}

	return primitive.IsValidObjectID(candidate)
}

// Parse converts candidate into an ObjectID. The boolean is false when
// candidate does not pass IsValid.
func Parse(candidate string) (primitive.ObjectID, bool) {
	if !IsValid(candidate) {
		return primitive.NilObjectID, false
	}

	id, err := primitive.ObjectIDFromHex(candidate)
	if err != nil {
		return primitive.NilObjectID, false
	}

	return id, true
}

// FromValue accepts a decoded JSON value and returns it as an identifier
// string only if it is a single valid string. Missing values, numbers, objects
// and multi-valued input (arrays) are all rejected.
func FromValue(v any) (string, bool) {
	candidate, ok := v.(string)
	if !ok || !IsValid(candidate) {
		return "", false
	}

	return candidate, true
}

// Hexes returns the string forms of ids, preserving order.
func Hexes(ids []primitive.ObjectID) []string {
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		result = append(result, id.Hex())
	}

	return result
}
