package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	SugaredLogger *zap.SugaredLogger
	scrub         *scrubber
}

// Options configures a Logger. Mode "prod" selects JSON output at info
// level, "test" a quiet development logger, anything else a debug
// development logger. With Redact set, research-subject fields are logged
// as salted hashes and credentials are dropped.
type Options struct {
	Mode     string
	Redact   bool
	HashSalt string
}

// New builds a redacting logger with no salt.
func New(mode string) (*Logger, error) {
	return NewWithOptions(Options{Mode: mode, Redact: true})
}

func NewWithOptions(opts Options) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "test":
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	l := &Logger{SugaredLogger: zapLogger.Sugar()}
	if opts.Redact {
		l.scrub = &scrubber{salt: strings.TrimSpace(opts.HashSalt)}
	}
	return l, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Debugw(msg, l.scrub.fields(keysAndValues)...)
}
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Infow(msg, l.scrub.fields(keysAndValues)...)
}
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Warnw(msg, l.scrub.fields(keysAndValues)...)
}
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Errorw(msg, l.scrub.fields(keysAndValues)...)
}
func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.SugaredLogger.Fatalw(msg, l.scrub.fields(keysAndValues)...)
}
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(l.scrub.fields(keysAndValues)...),
		scrub:         l.scrub,
	}
}

// Keys naming a research subject, logged as a salted hash so rows can
// still be correlated across lines.
var subjectKeys = map[string]bool{
	"username":     true,
	"username2":    true,
	"alias":        true,
	"ip":           true,
	"ip_addr":      true,
	"user_agent":   true,
	"latitude":     true,
	"longitude":    true,
	"city":         true,
	"search_terms": true,
}

// Keys that are never logged.
var secretKeys = map[string]bool{
	"dsn":         true,
	"password":    true,
	"headers":     true,
	"api_key":     true,
	"hash_salt":   true,
	"otlp_header": true,
}

// scrubber rewrites structured fields; a nil scrubber passes them through.
type scrubber struct {
	salt string
}

func (s *scrubber) fields(kv []interface{}) []interface{} {
	if s == nil || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key, ok := out[i].(string)
		if !ok {
			continue
		}
		switch k := strings.ToLower(strings.TrimSpace(key)); {
		case secretKeys[k]:
			out[i+1] = "[REDACTED]"
		case subjectKeys[k]:
			out[i+1] = s.hash(out[i+1])
		}
	}
	return out
}

func (s *scrubber) hash(v interface{}) string {
	var raw string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		raw = t
	case *string:
		if t == nil {
			return ""
		}
		raw = *t
	default:
		raw = fmt.Sprint(t)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(s.salt + "\x00" + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}
