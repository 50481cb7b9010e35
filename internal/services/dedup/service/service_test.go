package service

import (
	"context"
	"errors"
	"testing"
	"time"

	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	"github.com/masteryoda101/fake-star-check/internal/services/dedup/domain"
	"github.com/masteryoda101/fake-star-check/internal/services/dedup/repo"
)

type failing struct{}

func (failing) Claim(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("disk full")
}

type recording struct {
	keys []string
	ttls []time.Duration
}

func (r *recording) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	r.keys = append(r.keys, key)
	r.ttls = append(r.ttls, ttl)
	return true, nil
}

func TestNormalizationSharesKey(t *testing.T) {
	s := New(repo.NewMemory(nil), "memory")
	ctx := context.Background()

	ok, err := s.TryClaim(ctx, domain.NamespaceRepo, "Acme/Widgets", 0)
	if err != nil || !ok {
		t.Fatalf("first claim = %v, %v", ok, err)
	}
	ok, err = s.TryClaim(ctx, domain.NamespaceRepo, "  acme/WIDGETS ", 0)
	if err != nil || ok {
		t.Fatalf("case variant should be a duplicate, got %v, %v", ok, err)
	}
	ok, _ = s.TryClaim(ctx, domain.NamespacePackage, "acme/widgets", 0)
	if !ok {
		t.Fatalf("namespaces must not collide")
	}
}

func TestKeyAndDefaultTTL(t *testing.T) {
	r := &recording{}
	s := New(r, "test")
	_, _ = s.TryClaim(context.Background(), domain.NamespacePackage, "PyPI-Requests", 0)
	if r.keys[0] != "package:pypi-requests" {
		t.Fatalf("key = %q", r.keys[0])
	}
	if r.ttls[0] != domain.DefaultTTL {
		t.Fatalf("ttl = %v", r.ttls[0])
	}
}

func TestInvalidInput(t *testing.T) {
	s := New(repo.NewMemory(nil), "memory")
	ctx := context.Background()
	if _, err := s.TryClaim(ctx, "bogus", "x", 0); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("bad namespace err = %v", err)
	}
	if _, err := s.TryClaim(ctx, domain.NamespaceRepo, "   ", 0); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("empty identifier err = %v", err)
	}
}

func TestBackendFailureIsCacheUnavailable(t *testing.T) {
	s := New(failing{}, "test")
	ok, err := s.TryClaim(context.Background(), domain.NamespaceRepo, "a/b", time.Hour)
	if ok {
		t.Fatalf("failed claim must not report success")
	}
	if !perr.IsCode(err, perr.ErrorCodeCacheUnavailable) {
		t.Fatalf("code = %v", perr.CodeOf(err))
	}
}
