// README: Identifier type shared by rides and accounts (Mongo ObjectID hex form).
package types

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrInvalidID = errors.New("invalid id format")

// ID is a 24-character hexadecimal identifier.
type ID string

func NewID() ID {
	return ID(primitive.NewObjectID().Hex())
}

// ParseID trims and lower-cases v and checks it is 24 hex characters.
func ParseID(v string) (ID, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if !IsValidID(v) {
		return "", ErrInvalidID
	}
	return ID(v), nil
}

func IsValidID(v string) bool {
	if len(v) != 24 {
		return false
	}
	for _, c := range v {
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') {
			continue
		}
		return false
	}
	return true
}

func (id ID) String() string {
	return string(id)
}

// ObjectID converts the identifier for use as a Mongo _id.
func (id ID) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(string(id))
}
