package splunkd

import (
	"context"

	"github.com/pkg/errors"
)

// PagingArgs window and filter collection listings.
type PagingArgs struct {
	Count   *int     `args:"count,pos=1,default=30"`
	Offset  *int     `args:"offset,pos=2,default=0"`
	Search  *string  `args:"search,pos=3"`
	SortDir *SortDir `args:"sort_dir,pos=4,default=asc"`
	SortKey *string  `args:"sort_key,pos=5"`
}

// NewPagingArgs gets PagingArgs with the server defaults filled in.
func NewPagingArgs() *PagingArgs {
	pa := &PagingArgs{}
	if err := ApplyDefaults(pa); err != nil {
		panic(err)
	}
	return pa
}

// List fetches a configuration collection endpoint as a feed. The path is
// relative to the service's namespace, e.g. "data/indexes".
func (s *Service) List(ctx context.Context, path string, pa *PagingArgs) (*Feed, error) {
	var args []Argument
	if pa != nil {
		var err error
		args, err = Enumerate(pa)
		if err != nil {
			return nil, errors.Wrap(err, "serializing paging args")
		}
	}
	resp, err := s.Get(ctx, path, args)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %v", path)
	}
	defer resp.Body.Close()
	f, err := ReadFeed(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %v feed", path)
	}
	return f, nil
}

// Indexes lists the server's indexes.
func (s *Service) Indexes(ctx context.Context, pa *PagingArgs) (*Feed, error) {
	return s.List(ctx, "data/indexes", pa)
}

// SavedSearches lists saved searches visible in the service's namespace.
func (s *Service) SavedSearches(ctx context.Context, pa *PagingArgs) (*Feed, error) {
	return s.List(ctx, "saved/searches", pa)
}

// Apps lists installed apps.
func (s *Service) Apps(ctx context.Context, pa *PagingArgs) (*Feed, error) {
	return s.List(ctx, "apps/local", pa)
}

// Jobs lists the current search jobs.
func (s *Service) Jobs(ctx context.Context, pa *PagingArgs) (*Feed, error) {
	return s.List(ctx, "search/jobs", pa)
}
