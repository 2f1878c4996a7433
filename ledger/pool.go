package ledger

import (
	"encoding/hex"
	"errors"
	"sync"
)

var (
	// ErrorDuplicateTransaction is raised on an attempt to add a
	// transaction whose ID is already pending or confirmed.
	ErrorDuplicateTransaction = errors.New("Transaction with the given ID already exists")
)

// TransactionPool holds the currently unconfirmed transactions keyed
// by transaction ID, in insertion order. Transactions leave the pool
// when a block on the best chain confirms them and come back when a
// reorg abandons the block that held them.
type TransactionPool struct {
	mutex   sync.Mutex
	entries map[string]*Transaction
	order   []string
}

// CreateTransactionPool creates an empty pool.
func CreateTransactionPool() *TransactionPool {
	return &TransactionPool{entries: make(map[string]*Transaction)}
}

// Add inserts a transaction. It fails with ErrorDuplicateTransaction
// when an entry with the same ID is already pending. The transaction
// is assumed to be verified by the caller.
func (pool *TransactionPool) Add(tx *Transaction) error {
	pool.mutex.Lock()
	defer pool.mutex.Unlock()
	key := hex.EncodeToString(tx.ID)
	if _, present := pool.entries[key]; present {
		return ErrorDuplicateTransaction
	}
	pool.entries[key] = tx
	pool.order = append(pool.order, key)
	return nil
}

// Contains reports whether a transaction with the given ID is pending.
func (pool *TransactionPool) Contains(id []byte) bool {
	pool.mutex.Lock()
	defer pool.mutex.Unlock()
	_, present := pool.entries[hex.EncodeToString(id)]
	return present
}

// Remove drops the transaction with the given ID if it is pending.
func (pool *TransactionPool) Remove(id []byte) {
	pool.mutex.Lock()
	defer pool.mutex.Unlock()
	pool.remove(hex.EncodeToString(id))
}

// Pending returns the pending transactions in insertion order.
func (pool *TransactionPool) Pending() []*Transaction {
	pool.mutex.Lock()
	defer pool.mutex.Unlock()
	pending := make([]*Transaction, 0, len(pool.order))
	for _, key := range pool.order {
		pending = append(pending, pool.entries[key])
	}
	return pending
}

// Take returns up to n pending transactions in insertion order without
// removing them; block building uses it and ProcessBlock prunes once
// the block is accepted.
func (pool *TransactionPool) Take(n int) []*Transaction {
	pending := pool.Pending()
	if len(pending) > n {
		pending = pending[:n]
	}
	return pending
}

// Len returns the number of pending transactions.
func (pool *TransactionPool) Len() int {
	pool.mutex.Lock()
	defer pool.mutex.Unlock()
	return len(pool.entries)
}

// ProcessBlock prunes every transaction confirmed by the given block
// contents.
func (pool *TransactionPool) ProcessBlock(transactions []*Transaction) {
	pool.mutex.Lock()
	defer pool.mutex.Unlock()
	for _, tx := range transactions {
		pool.remove(hex.EncodeToString(tx.ID))
	}
}

// Restore re-inserts transactions abandoned by a reorg, skipping any
// that are already pending again.
func (pool *TransactionPool) Restore(transactions []*Transaction) {
	pool.mutex.Lock()
	defer pool.mutex.Unlock()
	for _, tx := range transactions {
		key := hex.EncodeToString(tx.ID)
		if _, present := pool.entries[key]; present {
			continue
		}
		pool.entries[key] = tx
		pool.order = append(pool.order, key)
	}
}

// remove assumes the mutex is held.
func (pool *TransactionPool) remove(key string) {
	if _, present := pool.entries[key]; !present {
		return
	}
	delete(pool.entries, key)
	for i, orderedKey := range pool.order {
		if orderedKey == key {
			pool.order = append(pool.order[:i], pool.order[i+1:]...)
			break
		}
	}
}
