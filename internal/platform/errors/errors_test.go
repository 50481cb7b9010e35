package errors

import (
	stderrs "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{ErrorCodeNotFound, http.StatusNotFound},
		{ErrorCodeInvalidArgument, http.StatusUnprocessableEntity},
		{ErrorCodeUnresolvable, http.StatusUnprocessableEntity},
		{ErrorCodeConflict, http.StatusConflict},
		{ErrorCodeValidation, http.StatusBadRequest},
		{ErrorCodeJSON, http.StatusBadRequest},
		{ErrorCodeTooManyRequests, http.StatusTooManyRequests},
		{ErrorCodeUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeCacheUnavailable, http.StatusServiceUnavailable},
		{ErrorCodeMalformedUpstream, http.StatusBadGateway},
		{ErrorCodeDB, http.StatusInternalServerError},
		{ErrorCodePanic, http.StatusInternalServerError},
		{ErrorCodeUnknown, http.StatusInternalServerError},
		{9999, http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusCode(c.code); got != c.want {
			t.Fatalf("HTTPStatusCode(%v) = %d, want %d", c.code, got, c.want)
		}
	}
}

func TestErrorCodeString(t *testing.T) {
	if got := ErrorCodeCacheUnavailable.String(); got != "cache_unavailable" {
		t.Fatalf("String = %q", got)
	}
	if got := ErrorCode(999).String(); got != "code_999" {
		t.Fatalf("String(unknown) = %q", got)
	}
}

func TestErrorTypeAndMethods(t *testing.T) {
	var e *Error
	if e.Error() != "<nil>" {
		t.Fatalf("nil *Error render = %q, want <nil>", e.Error())
	}

	src := stderrs.New("root")
	wrapped := Wrapf(src, ErrorCodeUnavailable, "fetch %s", "stargazers")
	if want := "fetch stargazers: root"; wrapped.Error() != want {
		t.Fatalf("Wrapf().Error = %q, want %q", wrapped.Error(), want)
	}
	if stderrs.Unwrap(wrapped) != src {
		t.Fatalf("Wrap did not keep orig")
	}
	if got, ok := As(wrapped); !ok || got.Code() != ErrorCodeUnavailable {
		t.Fatalf("As() failed for our error")
	}
	if _, ok := As(src); ok {
		t.Fatalf("As() true for foreign error")
	}

	tagged := WithOp(WithField(wrapped, "login"), "profile")
	te, _ := As(tagged)
	if te.Field() != "login" || te.Op() != "profile" {
		t.Fatalf("field/op not set: %+v", te)
	}
	if orig, _ := As(wrapped); orig.Field() != "" || orig.Op() != "" {
		t.Fatalf("copy-on-write mutated original")
	}

	if wf := WireFrom(nil); wf != (Wire{}) {
		t.Fatalf("WireFrom(nil) expected zero, got %+v", wf)
	}
	if wf := WireFrom(src); wf.Code != ErrorCodeUnknown || wf.Message != "root" {
		t.Fatalf("WireFrom(foreign) mismatch: %+v", wf)
	}
	if wf := WireFrom(wrapped); wf.Message != "fetch stargazers" {
		t.Fatalf("WireFrom(ours) mismatch: %+v", wf)
	}
	if st, _ := HTTP(nil); st != http.StatusOK {
		t.Fatalf("HTTP(nil) status = %d", st)
	}

	deep := fmt.Errorf("level2: %w", fmt.Errorf("level1: %w", src))
	if got := Root(deep); got != src {
		t.Fatalf("Root() failed, got %v", got)
	}
	if WrapIf(nil, ErrorCodeDB, "ignored") != nil {
		t.Fatalf("WrapIf(nil) should return nil")
	}
}

func TestSugarCodes(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCode
	}{
		{NotFoundf("x"), ErrorCodeNotFound},
		{InvalidArgf("x"), ErrorCodeInvalidArgument},
		{Unavailablef("x"), ErrorCodeUnavailable},
		{Unresolvablef("x"), ErrorCodeUnresolvable},
		{Malformedf("x"), ErrorCodeMalformedUpstream},
		{JSONErrf("x"), ErrorCodeJSON},
		{PanicErrf("x"), ErrorCodePanic},
		{ErrNotFound, ErrorCodeNotFound},
	}
	for _, c := range cases {
		if !IsCode(c.err, c.want) {
			t.Fatalf("%v: code %v, want %v", c.err, CodeOf(c.err), c.want)
		}
	}
	if IsCode(nil, ErrorCodeUnknown) {
		t.Fatalf("nil must not match any code")
	}
}

func TestTransient(t *testing.T) {
	if !Transient(Unavailablef("x")) || !Transient(New(ErrorCodeTooManyRequests, "rl")) {
		t.Fatalf("expected transient")
	}
	if Transient(NotFoundf("x")) || Transient(stderrs.New("plain")) {
		t.Fatalf("expected not transient")
	}
}
