package services

import (
	"strings"

	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/domain/mixin"
	"github.com/yungbote/analytics-database/internal/domain/search"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

type SearchEvent struct {
	Actor    `yaml:",inline"`
	Root     RootRef  `json:"root" yaml:"root"`
	Term     string   `json:"term" yaml:"term"`
	Types    []string `json:"types,omitempty" yaml:"types"`
	HitCount *int     `json:"hit_count,omitempty" yaml:"hit_count"`
	Elapsed  *float64 `json:"elapsed,omitempty" yaml:"elapsed"`
}

// SearchService records search queries. Queries have no natural key, so
// every call inserts a row.
type SearchService interface {
	CreateSearchQuery(dbc dbctx.Context, ev SearchEvent) (*search.SearchQuery, error)
	SearchQueries(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[search.SearchQuery], error)
}

type searchService struct {
	*core
	log *logger.Logger

	queries events.Repo[search.SearchQuery]
}

func newSearchService(c *core) SearchService {
	return &searchService{
		core:    c,
		log:     c.log.With("service", "SearchService"),
		queries: events.New[search.SearchQuery](c.db, c.log, "SearchQueryRepo"),
	}
}

// EncodeSearchTypes joins search types with "/"; no types is stored as NULL.
func EncodeSearchTypes(types []string) *string {
	if len(types) == 0 {
		return nil
	}
	joined := strings.Join(types, "/")
	return &joined
}

func (s *searchService) CreateSearchQuery(dbc dbctx.Context, ev SearchEvent) (*search.SearchQuery, error) {
	var out *search.SearchQuery
	err := s.write(dbc, "search.create_search_query", func(dbc dbctx.Context) error {
		uid, err := s.requireUserID(dbc, ev.User)
		if err != nil {
			return err
		}
		courseID, entityID, err := s.rootIDs(dbc, ev.Root)
		if err != nil {
			return err
		}
		out = &search.SearchQuery{
			QueryElapsedTime: ev.Elapsed,
			HitCount:         ev.HitCount,
			SearchTypes:      EncodeSearchTypes(ev.Types),
			Term:             strPtr(ev.Term),
			Event:            mixin.Event{UserID: &uid, SessionID: ev.SessionID, Timestamp: utcPtr(ev.Timestamp)},
			RootContext:      mixin.RootContext{CourseID: courseID, EntityRootContextID: entityID},
		}
		return s.queries.Create(dbc, out)
	})
	return out, err
}

func (s *searchService) SearchQueries(dbc dbctx.Context, user UserRef, f Filter) ([]*Resolved[search.SearchQuery], error) {
	scopes, _, err := s.userScopes(dbc, user, f)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.Find(dbc, append(scopes, events.OrderByTimestamp())...)
	if err != nil {
		return nil, err
	}
	return resolveOwned(s.resolution(dbc), rows, func(row *search.SearchQuery) (*int64, mixin.RootContext) {
		return row.UserID, row.RootContext
	})
}
