package http

import (
	"net/http"

	"github.com/masteryoda101/fake-star-check/internal/platform/net/http/bind"
)

// GetJSON mounts h for GET; the result lands in a 200 envelope
func GetJSON(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Handle(func(req *http.Request) Response {
		return result(h(req))
	}))
}

// PostJSON decodes and validates the body as T before calling h
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, Handle(func(req *http.Request) Response {
		in, err := bind.ParseJSON[T](req)
		if err != nil {
			return Error(err)
		}
		return result(h(req, in))
	}))
}

func result(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	return OK(out)
}
