// Package repo defines the external repository-resolver contract. The
// actual clone/tag/commit resolution lives outside this module; the
// inventory only needs the resolved version tag and repository name to
// substitute into ${version}/${repoName} templates.
package repo

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
)

// Placeholder names bound from a Resolution.
const (
	PlaceholderVersion  = "version"
	PlaceholderRepoName = "repoName"
)

// Descriptor identifies a source repository, optionally pinned to an
// explicit version or commit.
type Descriptor struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version,omitempty"`
	Commit     string `yaml:"commit,omitempty"`
	DefaultURL string `yaml:"url,omitempty"`
}

// Resolution is what the external package manager reports back.
type Resolution struct {
	VersionTag string
	RepoName   string
}

// Table returns the placeholder bindings this resolution contributes.
func (r Resolution) Table() map[string]string {
	return map[string]string{
		PlaceholderVersion:  r.VersionTag,
		PlaceholderRepoName: r.RepoName,
	}
}

// Resolver is the external contract. Resolve is the registry's only
// suspension point; it must complete before an entry's resolved form is
// considered final.
type Resolver interface {
	Resolve(ctx context.Context, d Descriptor) (Resolution, error)
}

// Static is a table-backed resolver keyed by repository name, for tests
// and offline runs.
type Static map[string]Resolution

func (s Static) Resolve(_ context.Context, d Descriptor) (Resolution, error) {
	if r, ok := s[d.Name]; ok {
		return r, nil
	}
	return Resolution{}, fmt.Errorf("repository %q has no static resolution", d.Name)
}

// Caching memoizes a Resolver for the lifetime of one registry
// construction. The cache is an explicit object so no resolution state
// leaks across runs.
type Caching struct {
	next  Resolver
	cache *gocache.Cache
}

// NewCaching wraps next with an in-process memo.
func NewCaching(next Resolver) *Caching {
	return &Caching{next: next, cache: gocache.New(gocache.NoExpiration, 0)}
}

func (c *Caching) Resolve(ctx context.Context, d Descriptor) (Resolution, error) {
	key := d.Name + "@" + d.Version + "@" + d.Commit
	if v, ok := c.cache.Get(key); ok {
		return v.(Resolution), nil
	}
	r, err := c.next.Resolve(ctx, d)
	if err != nil {
		return Resolution{}, err
	}
	c.cache.Set(key, r, gocache.NoExpiration)
	return r, nil
}
