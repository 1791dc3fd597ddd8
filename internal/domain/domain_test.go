package domain

import (
	"sync"
	"testing"

	"gorm.io/gorm/schema"
)

type tabler interface{ TableName() string }

func TestAllModelsHaveDistinctTables(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range AllModels() {
		tb, ok := m.(tabler)
		if !ok {
			t.Fatalf("%T has no TableName", m)
		}
		name := tb.TableName()
		if seen[name] {
			t.Fatalf("duplicate table %s", name)
		}
		seen[name] = true
	}
	if len(seen) < 60 {
		t.Fatalf("expected the full schema, got %d tables", len(seen))
	}
}

func TestMixinColumnsFlatten(t *testing.T) {
	s, err := schema.Parse(&Topic{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("schema.Parse: %v", err)
	}
	for _, col := range []string{"topic_id", "topic_ds_id", "forum_id", "user_id", "session_id", "timestamp", "course_id", "entity_root_context_id", "deleted", "like_count", "favorite_count", "is_flagged"} {
		if s.LookUpField(col) == nil {
			t.Fatalf("TopicsCreated missing column %s", col)
		}
	}

	s, err = schema.Parse(&TopicLike{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("schema.Parse: %v", err)
	}
	if len(s.PrimaryFields) != 2 {
		t.Fatalf("TopicLikes: want composite (topic_id, user_id) key, got %d fields", len(s.PrimaryFields))
	}
}

func TestContextPathHelpers(t *testing.T) {
	enc := EncodeContextPath([]string{"a", "a", "a", "b"})
	if enc != "a/b" {
		t.Fatalf("EncodeContextPath: got %q", enc)
	}
	if got := DecodeContextPath(enc); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("DecodeContextPath: got %v", got)
	}
}
