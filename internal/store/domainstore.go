// Package store implements the persistent, wildcard-aware domain key-value
// layer and the three-store ruleset bundle built on top of it.
package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var domainsBucket = []byte("domains")

// DomainStore is a persistent map of normalized domain keys to either the
// literal string "true" (blocklist/allowlist membership) or an alias
// (rewrite target), backed by its own bbolt file under a process-local
// workspace directory.
type DomainStore struct {
	db   *bbolt.DB
	path string
}

// NewDomainStore opens a fresh store under baseDir, named with a random
// suffix to avoid collision with prior runs or concurrently-live stores.
func NewDomainStore(baseDir string) (*DomainStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create workspace dir %s", baseDir)
	}
	path := filepath.Join(baseDir, "db-"+uuid.NewString()+".bbolt")

	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open domain store at %s", path)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(domainsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create domains bucket")
	}
	return &DomainStore{db: db, path: path}, nil
}

// normalize appends a trailing dot if one is not already present.
func normalize(name string) string {
	if strings.HasSuffix(name, ".") {
		return name
	}
	return name + "."
}

// Put writes normalize(domain) -> "true".
func (s *DomainStore) Put(domain string) error {
	return s.PutBatch([]string{domain})
}

// PutBatch writes many domains in a single transaction, the bulk-insert
// step a multi-hundred-thousand-line blocklist needs to avoid one fsync per
// entry.
func (s *DomainStore) PutBatch(domains []string) error {
	if s.db == nil {
		return errors.New("domain store has been destroyed")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(domainsBucket)
		for _, d := range domains {
			if err := b.Put([]byte(normalize(d)), []byte("true")); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutAlias writes normalize(domain) -> normalize(alias).
func (s *DomainStore) PutAlias(domain, alias string) error {
	return s.PutAliasBatch(map[string]string{domain: alias})
}

// PutAliasBatch is PutAlias for many (domain, alias) pairs at once.
func (s *DomainStore) PutAliasBatch(aliases map[string]string) error {
	if s.db == nil {
		return errors.New("domain store has been destroyed")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(domainsBucket)
		for domain, alias := range aliases {
			if err := b.Put([]byte(normalize(domain)), []byte(normalize(alias))); err != nil {
				return err
			}
		}
		return nil
	})
}

// Get performs the wildcard-aware lookup: the exact normalized key first,
// then "*.<suffix>." candidates narrowing from the longest suffix to the
// shortest. It returns ok=false if no candidate key is present.
func (s *DomainStore) Get(query string) (string, bool, error) {
	if s.db == nil {
		return "", false, errors.New("domain store has been destroyed")
	}

	q := normalize(query)
	keys := candidateKeys(q)

	var value string
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(domainsBucket)
		for _, key := range keys {
			if v := b.Get([]byte(key)); v != nil {
				value = string(v)
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", false, errors.Wrap(err, "domain store lookup")
	}
	return value, found, nil
}

// candidateKeys builds the probe-key list for a normalized query, in the
// order the wildcard matcher must try them: the exact key, then
// broadening "*.<suffix>." forms from most-specific to least.
func candidateKeys(q string) []string {
	parts := splitLabels(q)
	keys := make([]string, 0, len(parts))
	keys = append(keys, q)
	for i := 1; i < len(parts); i++ {
		keys = append(keys, "*."+strings.Join(parts[i:], ".")+".")
	}
	return keys
}

func splitLabels(q string) []string {
	trimmed := strings.TrimSuffix(q, ".")
	var labels []string
	for _, p := range strings.Split(trimmed, ".") {
		if p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}

// Contains reports whether query matches any key in the store.
func (s *DomainStore) Contains(query string) (bool, error) {
	_, found, err := s.Get(query)
	return found, err
}

// Destroy closes the underlying file and removes it from disk. It is
// idempotent: a second call is a no-op.
func (s *DomainStore) Destroy() error {
	if s.db == nil {
		return nil
	}
	path := s.path
	if err := s.db.Close(); err != nil {
		return errors.Wrapf(err, "close domain store %s", path)
	}
	s.db = nil
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "remove domain store %s", path)
	}
	return nil
}
