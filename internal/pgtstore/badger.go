// Casgate - CAS Single Sign-On Authentication Filter
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/casgate

package pgtstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const backendBadger = "badger"

// pgtKeyPrefix namespaces mappings so the DB can be shared.
const pgtKeyPrefix = "pgtiou:"

// BadgerStore keeps mappings in BadgerDB. Entries carry a badger TTL so the
// database evicts them on compaction even if Cleanup never runs.
type BadgerStore struct {
	db     *badger.DB
	ttl    time.Duration
	ownsDB bool
	closed atomic.Bool

	// now is replaced in tests.
	now func() time.Time
}

// OpenBadgerStore opens (or creates) a BadgerDB at path. Close closes the DB.
func OpenBadgerStore(path string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	return openBadger(opts, ttl)
}

// OpenInMemoryBadgerStore opens a non-persistent BadgerDB, for tests and
// single-process deployments that still want badger semantics.
func OpenInMemoryBadgerStore(ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openBadger(opts, ttl)
}

func openBadger(opts badger.Options, ttl time.Duration) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for proxy granting tickets: %w", err)
	}
	s := NewBadgerStore(db, ttl)
	s.ownsDB = true
	return s, nil
}

// NewBadgerStore wraps an already open DB. Close leaves the DB open.
func NewBadgerStore(db *badger.DB, ttl time.Duration) *BadgerStore {
	return &BadgerStore{db: db, ttl: normalizeTTL(ttl), now: time.Now}
}

func pgtKey(pgtIou string) []byte {
	return []byte(pgtKeyPrefix + pgtIou)
}

// Save stores the mapping with a badger TTL.
func (s *BadgerStore) Save(_ context.Context, pgtIou, pgtID string) error {
	err := s.save(strings.TrimSpace(pgtIou), strings.TrimSpace(pgtID))
	recordOp(backendBadger, opSave, err)
	return err
}

func (s *BadgerStore) save(pgtIou, pgtID string) error {
	if pgtIou == "" || pgtID == "" {
		return ErrInvalidTicket
	}
	if s.closed.Load() {
		return ErrClosed
	}

	now := s.now()
	data, err := json.Marshal(ticketRecord{PGT: pgtID, StoredAt: now, ExpiresAt: now.Add(s.ttl)})
	if err != nil {
		return fmt.Errorf("marshal proxy granting ticket: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(pgtKey(pgtIou), data).WithTTL(s.ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set proxy granting ticket: %w", err)
		}
		return nil
	})
}

// Retrieve reads and deletes the mapping in one transaction, so a PGT is
// handed out at most once.
func (s *BadgerStore) Retrieve(_ context.Context, pgtIou string) (string, error) {
	pgt, err := s.retrieve(pgtIou)
	recordOp(backendBadger, opRetrieve, err)
	return pgt, err
}

func (s *BadgerStore) retrieve(pgtIou string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}

	var record ticketRecord
	err := s.db.Update(func(txn *badger.Txn) error {
		key := pgtKey(pgtIou)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrTicketNotFound
		}
		if err != nil {
			return fmt.Errorf("get proxy granting ticket: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return fmt.Errorf("decode proxy granting ticket: %w", err)
		}
		return txn.Delete(key)
	})
	if err != nil {
		return "", err
	}

	if record.expired(s.now()) {
		return "", ErrTicketNotFound
	}
	return record.PGT, nil
}

// Cleanup deletes mappings whose recorded expiry has passed but which badger
// has not yet dropped (badger TTLs have one-second resolution).
func (s *BadgerStore) Cleanup(_ context.Context) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}

	now := s.now()
	var expired [][]byte
	live := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(pgtKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var record ticketRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				// Undecodable values are treated as expired.
				expired = append(expired, item.KeyCopy(nil))
				continue
			}
			if record.expired(now) {
				expired = append(expired, item.KeyCopy(nil))
				continue
			}
			live++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan proxy granting tickets: %w", err)
	}

	if len(expired) > 0 {
		err = s.db.Update(func(txn *badger.Txn) error {
			for _, key := range expired {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("delete expired proxy granting tickets: %w", err)
		}
	}

	StoredTickets.WithLabelValues(backendBadger).Set(float64(live))
	EvictedTickets.WithLabelValues(backendBadger).Add(float64(len(expired)))
	return len(expired), nil
}

// Close closes the DB if this store opened it.
func (s *BadgerStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
