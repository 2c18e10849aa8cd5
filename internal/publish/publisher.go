package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"go.uber.org/multierr"
)

const contentTypeCSV = "text/csv"

// Sink stores a copy of a produced file under a key. Keys are relative to
// the sink's own configured prefix.
type Sink interface {
	Name() string
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// File is a local file and the key it is published under.
type File struct {
	Path string
	Key  string
}

// Publisher copies produced files to every configured sink. A Publisher
// without sinks is a no-op.
type Publisher struct {
	logg  *logger.Logger
	sinks []Sink
}

// New builds a Publisher over the non-nil sinks.
func New(logg *logger.Logger, sinks ...Sink) *Publisher {
	if logg == nil {
		logg = logger.Nop()
	}
	p := &Publisher{logg: logg}
	for _, s := range sinks {
		if s != nil {
			p.sinks = append(p.sinks, s)
		}
	}
	return p
}

// Enabled reports whether any sink is configured.
func (p *Publisher) Enabled() bool {
	return p != nil && len(p.sinks) > 0
}

// Publish uploads every file to every sink, stopping at the first failure.
func (p *Publisher) Publish(ctx context.Context, files []File) error {
	if !p.Enabled() {
		return nil
	}
	for _, sink := range p.sinks {
		sinkCtx := p.logg.WithField(ctx, "sink", sink.Name())
		for _, f := range files {
			if err := upload(sinkCtx, sink, f); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("publish %s to %s", f.Key, sink.Name()))
			}
		}
		p.logg.Info(p.logg.WithField(sinkCtx, "files", len(files)), "files published")
	}
	return nil
}

// Replace makes keyPrefix on every sink hold exactly files: they are uploaded
// first, then any other object under keyPrefix is deleted. Readers may see
// both generations briefly but never an empty prefix.
func (p *Publisher) Replace(ctx context.Context, keyPrefix string, files []File) error {
	if !p.Enabled() {
		return nil
	}
	keep := make(map[string]struct{}, len(files))
	for _, f := range files {
		keep[f.Key] = struct{}{}
	}
	dir := strings.TrimSuffix(keyPrefix, "/") + "/"

	for _, sink := range p.sinks {
		sinkCtx := p.logg.WithField(ctx, "sink", sink.Name())
		for _, f := range files {
			if err := upload(sinkCtx, sink, f); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("publish %s to %s", f.Key, sink.Name()))
			}
		}
		existing, err := sink.List(sinkCtx, dir)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("list %s on %s", dir, sink.Name()))
		}
		removed := 0
		for _, key := range existing {
			if _, ok := keep[key]; ok {
				continue
			}
			if err := sink.Delete(sinkCtx, key); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("delete stale %s on %s", key, sink.Name()))
			}
			removed++
		}
		p.logg.Info(p.logg.WithFields(sinkCtx, map[string]any{
			"files":   len(files),
			"removed": removed,
			"prefix":  dir,
		}), "files replaced")
	}
	return nil
}

// Close releases every sink.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var err error
	for _, s := range p.sinks {
		err = multierr.Append(err, s.Close())
	}
	return err
}

// DirFiles lists the regular files directly under dir, keyed by keyPrefix
// joined with the file name.
func DirFiles(dir, keyPrefix string) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]File, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		files = append(files, File{
			Path: filepath.Join(dir, e.Name()),
			Key:  filepath.ToSlash(filepath.Join(keyPrefix, e.Name())),
		})
	}
	return files, nil
}

func upload(ctx context.Context, sink Sink, f File) error {
	fh, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer fh.Close()
	return sink.Upload(ctx, f.Key, fh, contentTypeCSV)
}
