package utils

import "github.com/google/uuid"

// GenerateID returns a random identifier carrying a readable prefix.
func GenerateID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
