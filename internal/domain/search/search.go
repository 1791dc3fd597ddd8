package search

import (
	"strings"

	"github.com/yungbote/analytics-database/internal/domain/mixin"
)

type SearchQuery struct {
	SearchQueryID    int64    `gorm:"column:search_query_id;primaryKey;autoIncrement" json:"search_query_id"`
	QueryElapsedTime *float64 `gorm:"column:query_elapsed_time" json:"query_elapsed_time"`
	HitCount         *int     `gorm:"column:hit_count;index" json:"hit_count"`
	SearchTypes      *string  `gorm:"column:search_types;size:1024" json:"search_types"`
	Term             *string  `gorm:"column:term;size:256;index" json:"term"`
	mixin.Event
	mixin.RootContext
}

func (SearchQuery) TableName() string { return "SearchQueries" }

// Types decodes the stored search type list.
func (q SearchQuery) Types() []string {
	if q.SearchTypes == nil || *q.SearchTypes == "" {
		return nil
	}
	return strings.Split(*q.SearchTypes, "/")
}
