package registry

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
)

var (
	ownerRe = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)
	nameRe  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)

	// first path segments that are GitHub pages, not owners
	reservedOwners = map[string]bool{
		"orgs": true, "sponsors": true, "topics": true, "features": true,
		"marketplace": true, "apps": true, "settings": true, "collections": true,
	}
)

// ParseRepoURL extracts owner/name from the repository URL forms registries
// carry: https and www links with or without .git, git+https, git://,
// ssh://git@, scp-like git@github.com:o/n, github:o/n, deep links into the
// tree, and bare o/n shorthand. Anything else is ErrorCodeUnresolvable
func ParseRepoURL(raw string) (repo.Ref, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")

	var (
		path  string
		exact bool // shorthand forms must be exactly owner/name
	)
	lower := strings.ToLower(s)
	switch {
	case s == "":
		return repo.Ref{}, perr.Unresolvablef("empty repository url")
	case strings.HasPrefix(lower, "github:"):
		path, exact = s[len("github:"):], true
	case strings.HasPrefix(lower, "git@github.com:"):
		path = s[len("git@github.com:"):]
	case strings.Contains(s, "://"):
		u, err := url.Parse(s)
		if err != nil {
			return repo.Ref{}, perr.Unresolvablef("bad repository url %q", raw)
		}
		host := strings.ToLower(u.Hostname())
		if host != "github.com" && host != "www.github.com" {
			return repo.Ref{}, perr.Unresolvablef("not a GitHub url: %q", raw)
		}
		path = u.Path
	case strings.HasPrefix(lower, "github.com/"), strings.HasPrefix(lower, "www.github.com/"):
		_, path, _ = strings.Cut(s, "/")
	case !strings.ContainsAny(s, ":@ "):
		path, exact = s, true
	default:
		return repo.Ref{}, perr.Unresolvablef("unrecognized repository url %q", raw)
	}

	segs := strings.Split(strings.Trim(path, "/"), "/")
	if len(segs) < 2 || (exact && len(segs) != 2) {
		return repo.Ref{}, perr.Unresolvablef("no owner/name in %q", raw)
	}
	owner := segs[0]
	name := strings.TrimSuffix(segs[1], ".git")
	if !ownerRe.MatchString(owner) || reservedOwners[strings.ToLower(owner)] ||
		!nameRe.MatchString(name) || name == "." || name == ".." {
		return repo.Ref{}, perr.Unresolvablef("invalid owner/name in %q", raw)
	}
	return repo.Ref{Owner: owner, Name: name}, nil
}
