package model

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateReferenceNumber returns a reference for listings created without one.
func GenerateReferenceNumber() string {
	return "PR-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}
