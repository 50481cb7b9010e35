package github

import (
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/cohort"
)

// Repository is the part of a repository document analysis reads
type Repository struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Owner       Owner     `json:"owner"`
	Fork        bool      `json:"fork"`
	Archived    bool      `json:"archived"`
	Stargazers  int       `json:"stargazers_count"`
	HTMLURL     string    `json:"html_url"`
	CreatedAt   time.Time `json:"created_at"`
	PushedAt    time.Time `json:"pushed_at"`
	Description string    `json:"description"`
}

// Owner is the embedded owner stub
type Owner struct {
	Login string `json:"login"`
	Type  string `json:"type"`
}

// Star is one stargazer event
type Star struct {
	Login     string    `json:"login"`
	StarredAt time.Time `json:"starred_at"`
}

// starEntry is the star+json page element; fields are pointers so missing
// values are told apart from zero values
type starEntry struct {
	StarredAt *time.Time `json:"starred_at"`
	User      *struct {
		Login string `json:"login"`
	} `json:"user"`
}

// User is a public profile. Nullable fields decode to nil when GitHub sends
// null, which it does for unset email, bio, hireable and twitter handle
type User struct {
	Login       string     `json:"login"`
	Type        string     `json:"type"`
	Email       *string    `json:"email"`
	Hireable    *bool      `json:"hireable"`
	Bio         *string    `json:"bio"`
	Blog        string     `json:"blog"`
	Twitter     *string    `json:"twitter_username"`
	Followers   int        `json:"followers"`
	Following   int        `json:"following"`
	PublicRepos int        `json:"public_repos"`
	PublicGists int        `json:"public_gists"`
	CreatedAt   *time.Time `json:"created_at"`
}

// Fields maps the profile onto the cohort signal inputs
func (u User) Fields() cohort.UserFields {
	f := cohort.UserFields{
		Login:       u.Login,
		PublicRepos: u.PublicRepos,
		Followers:   u.Followers,
		Following:   u.Following,
		PublicGists: u.PublicGists,
		Email:       deref(u.Email),
		Bio:         deref(u.Bio),
		Blog:        u.Blog,
		Twitter:     deref(u.Twitter),
		Hireable:    u.Hireable != nil && *u.Hireable,
	}
	if u.CreatedAt != nil {
		f.CreatedAt = *u.CreatedAt
	}
	return f
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
