package logger

import (
	"strings"
	"testing"
)

func TestScrubberFields(t *testing.T) {
	s := &scrubber{}
	in := []interface{}{
		"username", "jdoe",
		"DSN", "postgres://u:p@h/db",
		"user_id", 42,
		"dangling",
	}
	out := s.fields(in)
	if len(out) != len(in) {
		t.Fatalf("fields: expected %d items, got %d (%v)", len(in), len(out), out)
	}
	if v, _ := out[1].(string); !strings.HasPrefix(v, "hash:") {
		t.Fatalf("username: expected hashed value, got %v", out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("dsn: expected redaction, got %v", out[3])
	}
	if out[5] != 42 {
		t.Fatalf("user_id: expected passthrough, got %v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key: got %v", out[6])
	}
	if in[1] != "jdoe" {
		t.Fatalf("fields must not modify its input, got %v", in[1])
	}
}

func TestScrubberHash(t *testing.T) {
	plain := &scrubber{}
	salted := &scrubber{salt: "pepper"}

	a, b := plain.hash("10.0.0.1"), plain.hash("10.0.0.1")
	if a != b || a == "" {
		t.Fatalf("hash: expected stable non-empty hash, got %q / %q", a, b)
	}
	if salted.hash("10.0.0.1") == a {
		t.Fatalf("hash: salt must change the digest")
	}
	var missing *string
	if plain.hash("") != "" || plain.hash(nil) != "" || plain.hash(missing) != "" {
		t.Fatalf("hash: expected empty for empty input")
	}
	ip := "10.0.0.1"
	if plain.hash(&ip) != a {
		t.Fatalf("hash: pointer and value must agree")
	}
}

func TestNilScrubberPassesThrough(t *testing.T) {
	var s *scrubber
	in := []interface{}{"username", "jdoe"}
	if out := s.fields(in); out[1] != "jdoe" {
		t.Fatalf("nil scrubber: expected passthrough, got %v", out[1])
	}
}

func TestNewWithOptions(t *testing.T) {
	l, err := NewWithOptions(Options{Mode: "test"})
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	if l.scrub != nil {
		t.Fatalf("redaction off must not install a scrubber")
	}
	r, err := NewWithOptions(Options{Mode: "test", Redact: true, HashSalt: " s "})
	if err != nil {
		t.Fatalf("NewWithOptions redact: %v", err)
	}
	child := r.With("repo", "X")
	if child.scrub == nil || child.scrub.salt != "s" {
		t.Fatalf("With must keep the scrubber, got %+v", child.scrub)
	}
	child.Info("ignored", "ip_addr", "10.0.0.1")
	child.Sync()
}

func TestNop(t *testing.T) {
	l := Nop().With("repo", "X")
	l.Info("ignored", "k", "v")
	l.Sync()
}
