// Package memstore is an in-process implementation of the storage writers.
//
// It mirrors the transactional behaviour the Postgres backend relies on:
// writes are staged and applied atomically on Commit, FindByIDForUpdate holds
// a per-row lock until the transaction ends, and balance changes are applied
// as increments against the committed value. Money is rounded to the
// numeric(18,2) column scale the way Postgres stores it.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/finance-server/internal/storage"
	"github.com/carson-networks/finance-server/internal/storage/account"
	"github.com/carson-networks/finance-server/internal/storage/transaction"
)

type Store struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]account.Account
	transactions map[uuid.UUID]transaction.Transaction
	rowLocks     map[uuid.UUID]*sync.Mutex
	failures     map[string]error
	clock        func() time.Time
}

func New() *Store {
	return &Store{
		accounts:     map[uuid.UUID]account.Account{},
		transactions: map[uuid.UUID]transaction.Transaction{},
		rowLocks:     map[uuid.UUID]*sync.Mutex{},
		failures:     map[string]error{},
		clock:        time.Now,
	}
}

// FailOn makes every call of the named writer method return err, e.g.
// FailOn("IncrementBalance", errBoom). A nil err clears the failure.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// PutAccount stores a committed account, generating an ID when missing.
func (s *Store) PutAccount(a account.Account) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.Must(uuid.NewV4())
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.clock()
	}
	s.accounts[a.ID] = a
	return a.ID
}

// PutTransaction stores a committed transaction, generating an ID when missing.
func (s *Store) PutTransaction(t transaction.Transaction) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.Must(uuid.NewV4())
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.clock()
	}
	if t.Status == "" {
		t.Status = transaction.StatusCompleted
	}
	s.transactions[t.ID] = t
	return t.ID
}

func (s *Store) Account(id uuid.UUID) (account.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

func (s *Store) Transaction(id uuid.UUID) (transaction.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[id]
	return t, ok
}

// AllTransactions returns the committed transactions ordered by creation time.
func (s *Store) AllTransactions() []transaction.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]transaction.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Accounts is a reader over committed accounts.
func (s *Store) Accounts() account.IAccountReader {
	return &accountWriter{view: &view{store: s}}
}

// Transactions is a reader over committed transactions.
func (s *Store) Transactions() transaction.ITransactionReader {
	return &transactionWriter{view: &view{store: s}}
}

// Write opens a storage transaction against the store.
func (s *Store) Write(ctx context.Context) (*storage.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tx := &memTx{store: s}
	v := &view{store: s, tx: tx}
	return storage.NewWriterWith(tx, &accountWriter{view: v}, &transactionWriter{view: v}), nil
}

func (s *Store) failure(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[method]
}

func (s *Store) rowLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	return l
}

// memTx stages mutations and applies them together on Commit.
type memTx struct {
	store *Store
	ops   []func()
	locks []*sync.Mutex
	done  bool
}

func (t *memTx) stage(op func()) {
	t.ops = append(t.ops, op)
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return fmt.Errorf("memstore: transaction already finished")
	}
	t.store.mu.Lock()
	for _, op := range t.ops {
		op()
	}
	t.store.mu.Unlock()
	t.finish()
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.finish()
	return nil
}

func (t *memTx) finish() {
	t.done = true
	t.ops = nil
	for _, l := range t.locks {
		l.Unlock()
	}
	t.locks = nil
}

// view reads committed state; tx is nil for read-only views.
type view struct {
	store *Store
	tx    *memTx
}

func (v *view) check(method string) error {
	if v.tx != nil && v.tx.done {
		return fmt.Errorf("memstore: %s on finished transaction", method)
	}
	return v.store.failure(method)
}
