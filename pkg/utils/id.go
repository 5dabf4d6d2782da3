package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a random uuid, optionally prefixed ("bid" -> "bid_<uuid>").
func GenerateID(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
