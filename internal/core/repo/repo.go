// Package repo holds the repository identity shared by every stage
package repo

import (
	"strings"

	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
)

// Ref identifies a repository on the code host
type Ref struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// Parse reads "owner/name"; surrounding whitespace and a trailing ".git" are
// ignored
func Parse(s string) (Ref, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".git")
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Ref{}, perr.InvalidArgf("repository must look like owner/name, got %q", s)
	}
	return Ref{Owner: owner, Name: name}, nil
}

// String is "owner/name" as given
func (r Ref) String() string { return r.Owner + "/" + r.Name }

// Key is the case-insensitive identity used for dedup and storage
func (r Ref) Key() string { return strings.ToLower(r.String()) }

// IsZero reports an unset ref
func (r Ref) IsZero() bool { return r.Owner == "" && r.Name == "" }
