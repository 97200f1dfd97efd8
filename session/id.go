package session

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Id prefixes
const (
	PrefixNormal   = "img_"
	PrefixCombined = "combined_"
)

const maxIDLength = 128

var validID = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// NewID returns a fresh session id with the given prefix
func NewID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ValidateID checks an id against the allow-list before it is used in any path or key
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || len(id) > maxIDLength || !validID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// FilterValidIDs drops invalid and duplicate ids, keeping the input order
func FilterValidIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if seen[id] || ValidateID(id) != nil {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
