package utils

import (
	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID v7
func GenerateUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
