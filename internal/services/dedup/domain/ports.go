// Package domain defines the idempotency cache ports
package domain

import (
	"context"
	"time"
)

// Namespace partitions claim keys
type Namespace string

// Namespaces
const (
	NamespaceRepo    Namespace = "repo"
	NamespacePackage Namespace = "package"
)

// DefaultTTL is how long a claim stays live
const DefaultTTL = 30 * 24 * time.Hour

// Valid reports whether ns is one of the known namespaces
func (ns Namespace) Valid() bool { return ns == NamespaceRepo || ns == NamespacePackage }

// ClaimerPort is the atomic check-and-set used to skip recently seen work.
// It returns true exactly once per live key. Backend failures are coded
// perr.ErrorCodeCacheUnavailable; callers decide whether to proceed
type ClaimerPort interface {
	TryClaim(ctx context.Context, ns Namespace, identifier string, ttl time.Duration) (bool, error)
}

// Key joins a namespace and a normalized identifier
func Key(ns Namespace, identifier string) string { return string(ns) + ":" + identifier }
