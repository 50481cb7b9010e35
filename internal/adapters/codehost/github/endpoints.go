package github

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/masteryoda101/fake-star-check/internal/core/repo"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"

	json "github.com/goccy/go-json"
)

const maxBody = 8 << 20

// Repository fetches GET /repos/{owner}/{name}
func (c *Client) Repository(ctx context.Context, ref repo.Ref) (Repository, error) {
	var out Repository
	path := fmt.Sprintf("/repos/%s/%s", url.PathEscape(ref.Owner), url.PathEscape(ref.Name))
	_, err := c.getJSON(ctx, "repository", path, acceptJSON, &out)
	return out, err
}

// UserProfile fetches GET /users/{login}
func (c *Client) UserProfile(ctx context.Context, login string) (User, error) {
	var out User
	_, err := c.getJSON(ctx, "user", "/users/"+url.PathEscape(login), acceptJSON, &out)
	return out, err
}

// Stargazers lists every stargazer with its starred_at timestamp, following
// rel="next" links. Entries without a login or timestamp are skipped
func (c *Client) Stargazers(ctx context.Context, ref repo.Ref) ([]Star, error) {
	path := fmt.Sprintf("/repos/%s/%s/stargazers?per_page=100", url.PathEscape(ref.Owner), url.PathEscape(ref.Name))
	var (
		out     []Star
		skipped int
	)
	err := c.paginate(ctx, "stargazers", path, acceptStar, c.opts.MaxPages, func(body []byte) error {
		var page []starEntry
		if err := json.Unmarshal(body, &page); err != nil {
			return perr.Wrapf(err, perr.ErrorCodeMalformedUpstream, "stargazers page for %s", ref)
		}
		for _, e := range page {
			if e.StarredAt == nil || e.User == nil || e.User.Login == "" {
				skipped++
				continue
			}
			out = append(out, Star{Login: e.User.Login, StarredAt: e.StarredAt.UTC()})
		}
		return nil
	})
	if skipped > 0 {
		c.log.Warn().Str("repo", ref.String()).Int("skipped", skipped).Msg("malformed stargazer entries skipped")
	}
	return out, err
}

// StarredRepos lists full names of repositories login has starred, capped at
// MaxStarredPages pages
func (c *Client) StarredRepos(ctx context.Context, login string) ([]string, error) {
	var out []string
	err := c.paginate(ctx, "starred", "/users/"+url.PathEscape(login)+"/starred?per_page=100", acceptJSON, c.opts.MaxStarredPages,
		func(body []byte) error {
			var page []struct {
				FullName string `json:"full_name"`
			}
			if err := json.Unmarshal(body, &page); err != nil {
				return perr.Wrapf(err, perr.ErrorCodeMalformedUpstream, "starred page for %s", login)
			}
			for _, r := range page {
				if r.FullName != "" {
					out = append(out, r.FullName)
				}
			}
			return nil
		})
	return out, err
}

// ReposOf lists the public repositories owned by login
func (c *Client) ReposOf(ctx context.Context, login string) ([]Repository, error) {
	var out []Repository
	err := c.paginate(ctx, "user_repos", "/users/"+url.PathEscape(login)+"/repos?per_page=100&type=owner", acceptJSON, c.opts.MaxPages,
		func(body []byte) error {
			var page []Repository
			if err := json.Unmarshal(body, &page); err != nil {
				return perr.Wrapf(err, perr.ErrorCodeMalformedUpstream, "repos page for %s", login)
			}
			out = append(out, page...)
			return nil
		})
	return out, err
}

func (c *Client) getJSON(ctx context.Context, endpoint, path, accept string, dst any) (http.Header, error) {
	resp, err := c.Do(ctx, endpoint, path, accept)
	if err != nil {
		return nil, err
	}
	body, err := c.readBody(resp, path)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeMalformedUpstream, "github %s: undecodable body", endpoint)
	}
	return resp.Header, nil
}

// paginate calls each with every page body until there is no next link or
// maxPages pages were read
func (c *Client) paginate(ctx context.Context, endpoint, path, accept string, maxPages int, each func([]byte) error) error {
	next := path
	for page := 0; next != "" && page < maxPages; page++ {
		resp, err := c.Do(ctx, endpoint, next, accept)
		if err != nil {
			return err
		}
		body, err := c.readBody(resp, next)
		if err != nil {
			return err
		}
		if err := each(body); err != nil {
			return err
		}
		next = nextLink(resp.Header)
	}
	if next != "" {
		c.log.Info().Str("endpoint", endpoint).Int("max_pages", maxPages).Msg("pagination capped")
	}
	return nil
}

func (c *Client) readBody(resp *http.Response, path string) ([]byte, error) {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("github close body failed")
		}
	}()
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github read body")
	}
	return b, nil
}
