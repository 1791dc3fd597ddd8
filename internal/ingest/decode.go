// Package ingest replays recorded analytics events through the write
// protocol. An event file is a YAML stream with one document per event, or
// JSON lines when the file ends in .jsonl.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Record is one event as it appears in a file. Event stays undecoded until
// its kind is known.
type Record struct {
	Kind  string    `yaml:"kind"`
	Event yaml.Node `yaml:"event"`

	Source string `yaml:"-"`
	Line   int    `yaml:"-"`
}

func (r Record) where() string {
	return fmt.Sprintf("%s:%d", r.Source, r.Line)
}

// Decode reads every record from r. JSON lines are decoded one line at a
// time so a broken line reports its own line number.
func Decode(r io.Reader, source string) ([]Record, error) {
	if strings.EqualFold(filepath.Ext(source), ".jsonl") {
		return decodeLines(r, source)
	}
	return decodeStream(r, source)
}

func decodeStream(r io.Reader, source string) ([]Record, error) {
	dec := yaml.NewDecoder(r)
	var out []Record
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		rec, err := nodeRecord(&doc, source, doc.Line)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func decodeLines(r io.Reader, source string) ([]Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	var out []Record
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, line, err)
		}
		rec, err := nodeRecord(&doc, source, line)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return out, nil
}

func nodeRecord(doc *yaml.Node, source string, line int) (Record, error) {
	rec := Record{Source: source, Line: line}
	if err := doc.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("%s:%d: %w", source, line, err)
	}
	rec.Source, rec.Line = source, line
	return rec, nil
}

// DecodeFiles reads the given files concurrently and returns their records
// in argument order.
func DecodeFiles(ctx context.Context, paths []string, concurrency int) ([][]Record, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	out := make([][]Record, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			recs, err := Decode(f, path)
			if err != nil {
				return err
			}
			out[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
