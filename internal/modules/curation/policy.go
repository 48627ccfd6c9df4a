package curation

import (
	"fmt"
	"strings"
)

// DuplicatePolicy decides whether two categories may share a name
// (compared case-insensitively, ignoring surrounding space).
type DuplicatePolicy string

const (
	DuplicateReject DuplicatePolicy = "reject"
	DuplicateAllow  DuplicatePolicy = "allow"
)

func ParseDuplicatePolicy(raw string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(DuplicateReject):
		return DuplicateReject, nil
	case string(DuplicateAllow):
		return DuplicateAllow, nil
	default:
		return "", fmt.Errorf("unknown duplicate category policy %q", raw)
	}
}

func sameCategoryName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
