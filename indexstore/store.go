// Copyright © 2024 The wlscope authors

// Package indexstore persists workspace scan results so that unchanged
// files are not parsed again.  Summaries are keyed by the SHA-256 of the
// file content and stored msgpack-encoded in a badger database.
package indexstore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/tliron/commonlog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/halirutan/wlscope/analysis"
	"github.com/halirutan/wlscope/parser/token"
)

// SchemaVersion is stored with every record.  Records written with another
// schema are treated as missing.
const SchemaVersion uint16 = 1

// Key prefixes.
const (
	keyPrefixSummary = "sum:"
	keyPrefixPath    = "path:"
)

// ErrNotFound is returned when the store holds no usable record for a key.
var ErrNotFound = errors.New("index record not found")

var log = commonlog.GetLogger("wlscope.indexstore")

// Store is a content-addressed cache of file summaries.  It is safe for
// concurrent use.
type Store struct {
	db *badger.DB
}

// Options configures Open.
type Options struct {
	// Dir is the database directory.  It is ignored when InMemory is set.
	Dir      string
	InMemory bool
}

// Open opens or creates the store described by opts.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}
	log.Debugf("opened index store (dir=%q, in-memory=%t)", opts.Dir, opts.InMemory)
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Digest returns the content key of src.
func Digest(src []byte) string {
	sum := sha256.Sum256(src)
	return hex.EncodeToString(sum[:])
}

// record is the stored form of a summary.  Paths are not part of it: the
// same content found at two paths shares one record.
type record struct {
	Schema       uint16
	SyntaxErrors int
	Symbols      []symbolRecord
}

type symbolRecord struct {
	Name    string
	Context string
	Line    int
	Col     int
	EndLine int
	EndCol  int
}

func toRecord(sum analysis.FileSummary) record {
	r := record{Schema: SchemaVersion, SyntaxErrors: sum.SyntaxErrors}
	for _, sym := range sum.Symbols {
		sr := symbolRecord{Name: sym.Name, Context: sym.Context}
		if sym.Source != nil {
			sr.Line, sr.Col = sym.Source.Line, sym.Source.Col
			sr.EndLine, sr.EndCol = sym.Source.EndLine, sym.Source.EndCol
		}
		r.Symbols = append(r.Symbols, sr)
	}
	return r
}

func (r record) summary(path string) analysis.FileSummary {
	sum := analysis.FileSummary{Path: path, SyntaxErrors: r.SyntaxErrors}
	for _, sr := range r.Symbols {
		sum.Symbols = append(sum.Symbols, analysis.ExternalSymbol{
			Name:    sr.Name,
			Context: sr.Context,
			File:    path,
			Source: &token.Location{
				File:    path,
				Path:    path,
				Line:    sr.Line,
				Col:     sr.Col,
				EndLine: sr.EndLine,
				EndCol:  sr.EndCol,
			},
		})
	}
	return sum
}

// Put stores sum under the digest of its content and records digest as the
// latest content seen at sum.Path.
func (s *Store) Put(digest string, sum analysis.FileSummary) error {
	b, err := msgpack.Marshal(toRecord(sum))
	if err != nil {
		return fmt.Errorf("encoding summary of %s: %w", sum.Path, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyPrefixSummary+digest), b); err != nil {
			return err
		}
		if sum.Path == "" {
			return nil
		}
		return txn.Set([]byte(keyPrefixPath+sum.Path), []byte(digest))
	})
	if err != nil {
		return fmt.Errorf("storing summary of %s: %w", sum.Path, err)
	}
	return nil
}

// Get returns the summary stored for digest, attributed to path.  It
// returns ErrNotFound when there is none.
func (s *Store) Get(digest, path string) (analysis.FileSummary, error) {
	var r record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefixSummary + digest))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return msgpack.Unmarshal(val, &r)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return analysis.FileSummary{}, ErrNotFound
	}
	if err != nil {
		return analysis.FileSummary{}, fmt.Errorf("reading summary %s: %w", digest, err)
	}
	if r.Schema != SchemaVersion {
		log.Debugf("discarding summary %s with schema %d", digest, r.Schema)
		return analysis.FileSummary{}, ErrNotFound
	}
	return r.summary(path), nil
}

// LastDigest returns the digest last stored for path.
func (s *Store) LastDigest(path string) (string, error) {
	var digest string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefixPath + path))
		if err != nil {
			return err
		}
		v, err := item.ValueCopy(nil)
		digest = string(v)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading digest of %s: %w", path, err)
	}
	return digest, nil
}

// Paths returns every path with a recorded digest, in key order.
func (s *Store) Paths() ([]string, error) {
	var paths []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefixPath)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			paths = append(paths, string(it.Item().Key()[len(keyPrefixPath):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing indexed paths: %w", err)
	}
	return paths, nil
}

// Forget removes the path record of path.  Content records are kept since
// other paths may share them.
func (s *Store) Forget(path string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefixPath + path))
	})
	if err != nil {
		return fmt.Errorf("forgetting %s: %w", path, err)
	}
	return nil
}

// Summarize returns the summary of src at path, from the store when the
// content was seen before and by parsing otherwise.  The second result
// reports whether the store was hit.
func (s *Store) Summarize(path string, src []byte) (analysis.FileSummary, bool, error) {
	digest := Digest(src)
	sum, err := s.Get(digest, path)
	if err == nil {
		if err := s.Put(digest, sum); err != nil {
			return sum, true, err
		}
		return sum, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return analysis.FileSummary{}, false, err
	}
	sum = analysis.SummarizeFile(path, src)
	return sum, false, s.Put(digest, sum)
}
