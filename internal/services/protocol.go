package services

import (
	"sort"
	"time"

	"github.com/yungbote/analytics-database/internal/data/repos/events"
	"github.com/yungbote/analytics-database/internal/platform/dbctx"
	"github.com/yungbote/analytics-database/internal/platform/logger"
)

// ShouldUpdate reports whether a heartbeat duration supersedes the stored
// one: an unset duration is always superseded, otherwise only by a larger
// value.
func ShouldUpdate(old, new *int) bool {
	return old == nil || (new != nil && *new > *old)
}

// timed is satisfied by every row embedding mixin.TimeLength.
type timed interface {
	Seconds() *int
}

// recordFact inserts the row built by build unless a row matching key
// already exists. A replay returns nil with no error and build is not run,
// so parents are only created for new facts.
func recordFact[T any](dbc dbctx.Context, repo events.Repo[T], log *logger.Logger, kind string, key events.Where, build func() (*T, error)) (*T, error) {
	exists, err := repo.Exists(dbc, key)
	if err != nil {
		return nil, err
	}
	if exists {
		log.Warn(kind+" already exists", keyFields(key)...)
		return nil, nil
	}
	row, err := build()
	if err != nil || row == nil {
		return nil, err
	}
	if err := repo.Create(dbc, row); err != nil {
		return nil, err
	}
	return row, nil
}

// recordHeartbeat inserts the row built by build, or, when a row with the
// same key exists, raises its time_length to timeLength if ShouldUpdate
// allows it. extra columns are written together with the time length.
func recordHeartbeat[T any, P interface {
	*T
	timed
}](dbc dbctx.Context, repo events.Repo[T], log *logger.Logger, kind string, key events.Where, timeLength *int, extra map[string]any, build func() (*T, error)) (*T, error) {
	existing, err := repo.First(dbc, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		row, err := build()
		if err != nil || row == nil {
			return nil, err
		}
		if err := repo.Create(dbc, row); err != nil {
			return nil, err
		}
		return row, nil
	}
	if !ShouldUpdate(P(existing).Seconds(), timeLength) {
		log.Warn(kind+" already exists", keyFields(key)...)
		return nil, nil
	}
	updates := map[string]any{"time_length": nullable(timeLength)}
	for k, v := range extra {
		updates[k] = v
	}
	if _, err := repo.UpdateFields(dbc, key, updates); err != nil {
		return nil, err
	}
	return repo.First(dbc, key)
}

// applyRating moves the (user, target) rating row between its two states.
// Only delta > 0 without a row and delta < 0 with a row change anything.
func applyRating[T any](dbc dbctx.Context, repo events.Repo[T], key events.Where, delta int, row *T) (bool, error) {
	exists, err := repo.Exists(dbc, key)
	if err != nil {
		return false, err
	}
	switch {
	case delta > 0 && !exists:
		if err := repo.Create(dbc, row); err != nil {
			return false, err
		}
		return true, nil
	case delta < 0 && exists:
		if _, err := repo.Delete(dbc, key); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// softDelete stamps deleted on every live row matching key and, when
// externalCol is set, clears that column to release the external id.
// Rows already deleted keep their first stamp.
func softDelete[T any](dbc dbctx.Context, repo events.Repo[T], key events.Where, externalCol string, at time.Time) (int64, error) {
	live := events.Where{"deleted": nil}
	for k, v := range key {
		live[k] = v
	}
	updates := map[string]any{"deleted": at.UTC()}
	if externalCol != "" {
		updates[externalCol] = nil
	}
	return repo.UpdateFields(dbc, live, updates)
}

func keyFields(key events.Where) []any {
	names := make([]string, 0, len(key))
	for k := range key {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]any, 0, 2*len(names))
	for _, k := range names {
		v := key[k]
		if p, ok := v.(*int64); ok && p != nil {
			v = *p
		}
		out = append(out, k, v)
	}
	return out
}

// nullable turns an optional key value into a map condition value; nil
// matches NULL.
func nullable[V any](p *V) any {
	if p == nil {
		return nil
	}
	return *p
}
