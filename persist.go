package ngtgo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hupe1980/ngtgo/blobstore"
	"github.com/hupe1980/ngtgo/internal/engine"
	"github.com/hupe1980/ngtgo/internal/objectspace"
	"github.com/hupe1980/ngtgo/internal/resource"
	"github.com/hupe1980/ngtgo/persistence"
)

// Blob names of a persisted index. The property file is written last and
// marks a complete index.
const (
	PropertyFile = "property.yaml"
	ObjectsFile  = "objects.ngt"
	GraphFile    = "graph.ngt"
	TreeFile     = "tree.ngt"
)

type section struct {
	name string
	kind persistence.SectionKind
	data *[]byte
}

func sections(s *engine.Sections) []section {
	return []section{
		{ObjectsFile, persistence.SectionObjects, &s.Objects},
		{GraphFile, persistence.SectionGraph, &s.Graph},
		{TreeFile, persistence.SectionTree, &s.Tree},
	}
}

// CreateGraphAndTree creates an empty index at path, persists it and
// returns it opened. path must not exist or be an empty directory.
func CreateGraphAndTree(ctx context.Context, path string, prop *Property, opts ...Option) (*Index, error) {
	o := applyOptions(opts)
	if err := checkVacant(o, path); err != nil {
		return nil, err
	}
	idx, err := CreateGraphAndTreeInMemory(prop, opts...)
	if err != nil {
		return nil, err
	}
	if err := idx.Save(ctx, path); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return idx, nil
}

// CheckVacant reports whether path can take a new index, consulting the
// file system configured by opts. It fails with ErrAlreadyExists unless
// path is missing or an empty directory.
func CheckVacant(path string, opts ...Option) error {
	return checkVacant(applyOptions(opts), path)
}

// checkVacant fails with ErrAlreadyExists unless path is missing or an
// empty directory.
func checkVacant(o options, path string) error {
	info, err := o.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, path)
	}
	entries, err := o.fs.ReadDir(path)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return fmt.Errorf("%w: %s is not empty", ErrAlreadyExists, path)
	}
	return nil
}

// Open loads the index stored in the directory path.
func Open(ctx context.Context, path string, opts ...Option) (*Index, error) {
	o := applyOptions(opts)
	info, err := o.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidArgument, path)
	}
	return OpenFrom(ctx, blobstore.NewLocalStore(path, blobstore.WithFileSystem(o.fs)), opts...)
}

// OpenFrom loads an index from store. It fails with ErrNotFound when the
// store holds no index and with ErrCorruptData when any part of it cannot
// be read; no partially loaded index is ever returned.
func OpenFrom(ctx context.Context, store blobstore.Store, opts ...Option) (idx *Index, err error) {
	start := time.Now()
	o := applyOptions(opts)
	defer func() {
		n := 0
		if idx != nil {
			n = idx.engine.Len()
		}
		o.logger.LogOpen(ctx, n, time.Since(start), err)
	}()

	limiter := resource.NewController(resource.Config{IOLimitBytesPerSec: o.ioLimit})
	raw, err := store.Get(ctx, PropertyFile)
	if errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: no %s in store", ErrNotFound, PropertyFile)
	}
	if err != nil {
		return nil, err
	}
	prop, meta, err := unmarshalProperty(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptData, PropertyFile, err)
	}

	var secs engine.Sections
	for _, s := range sections(&secs) {
		data, err := store.Get(ctx, s.name)
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: missing %s", ErrCorruptData, s.name)
		}
		if err != nil {
			return nil, err
		}
		if err := limiter.AcquireIO(ctx, len(data)); err != nil {
			return nil, err
		}
		payload, err := persistence.DecodeSection(s.kind, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrCorruptData, s.name, err)
		}
		*s.data = payload
	}

	idx, err = newIndex(prop, meta, o, func(cfg engine.Config) (*engine.Engine, error) {
		return engine.Decode(cfg, secs)
	})
	if err != nil {
		return nil, openError(err)
	}
	return idx, nil
}

// openError classifies a decode failure. Apart from exhausted memory every
// failure means the stored sections do not describe a valid index.
func openError(err error) error {
	if errors.Is(err, objectspace.ErrAllocation) || errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrAllocationFailure, err)
	}
	if errors.Is(err, persistence.ErrCorrupt) {
		return translateError(err)
	}
	return fmt.Errorf("%w: %w", ErrCorruptData, err)
}

// Save writes the index into the directory path, creating it if needed.
// The directory is locked against concurrent savers for the duration.
func (idx *Index) Save(ctx context.Context, path string) error {
	if idx.isClosed() {
		return ErrClosed
	}
	store := blobstore.NewLocalStore(path, blobstore.WithFileSystem(idx.opts.fs))
	unlock, err := store.Lock(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()
	return idx.SaveTo(ctx, store)
}

// SaveTo writes the index into store. Sections are written first and the
// property file last, so an interrupted first save leaves a store that
// OpenFrom reports as ErrNotFound.
func (idx *Index) SaveTo(ctx context.Context, store blobstore.Store) error {
	start := time.Now()
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return ErrClosed
	}

	written, err := idx.save(ctx, store)
	idx.opts.logger.LogSave(ctx, written, time.Since(start), err)
	return err
}

func (idx *Index) save(ctx context.Context, store blobstore.Store) (int, error) {
	secs, err := idx.engine.Encode()
	if err != nil {
		return 0, err
	}
	prop, err := marshalProperty(idx.prop, idx.meta)
	if err != nil {
		return 0, err
	}

	written := 0
	put := func(name string, data []byte) error {
		if err := idx.res.AcquireIO(ctx, len(data)); err != nil {
			return err
		}
		if err := store.Put(ctx, name, data); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		written += len(data)
		return nil
	}

	for _, s := range sections(&secs) {
		data, err := persistence.EncodeSection(s.kind, idx.opts.compression, *s.data)
		if err != nil {
			return written, err
		}
		if err := put(s.name, data); err != nil {
			return written, err
		}
	}
	return written, put(PropertyFile, prop)
}
