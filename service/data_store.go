package service

import (
	"errors"
	"sync"
	"time"

	"github.com/manelneto/ledger/network"
)

var (
	// ErrorKeyNotFound is raised when the value for a key is not
	// present in the local store.
	ErrorKeyNotFound = errors.New("Key not present")
)

// ValueRecord is one stored key-value pair together with the metadata
// driving republish and expiry: who published it, when it was last
// stored and whether this node originated it.
type ValueRecord struct {
	Key       network.NodeID
	Value     []byte
	Signature []byte
	Publisher network.NodeID
	StoredAt  time.Time
	Origin    bool
}

// DataStore stores the key-value pairs currently held by this node in
// a thread-safe manner. Keys are content hashes of the values, so
// corruption is detectable by rehashing.
type DataStore struct {
	dataStoreLock sync.RWMutex
	records       map[network.NodeID]*ValueRecord
}

// CreateDataStore creates a new instance of a data store.
func CreateDataStore() *DataStore {
	return &DataStore{records: make(map[network.NodeID]*ValueRecord)}
}

// AddOrReplace inserts a record or refreshes an existing one, resetting
// its stored-at timestamp. A refresh keeps the origin flag once set so
// that records this node published keep being republished.
func (ds *DataStore) AddOrReplace(key network.NodeID, value []byte, signature []byte, publisher network.NodeID, origin bool) {
	ds.dataStoreLock.Lock()
	defer ds.dataStoreLock.Unlock()
	if existing, present := ds.records[key]; present {
		existing.Value = value
		if signature != nil {
			existing.Signature = signature
		}
		existing.Publisher = publisher
		existing.StoredAt = time.Now()
		existing.Origin = existing.Origin || origin
		return
	}
	ds.records[key] = &ValueRecord{
		Key:       key,
		Value:     value,
		Signature: signature,
		Publisher: publisher,
		StoredAt:  time.Now(),
		Origin:    origin,
	}
}

// Get gets a value from the store if it exists. Otherwise it complains
// that the mapping for the key doesn't exist.
func (ds *DataStore) Get(key network.NodeID) ([]byte, error) {
	ds.dataStoreLock.RLock()
	defer ds.dataStoreLock.RUnlock()
	record, present := ds.records[key]
	if !present {
		return nil, ErrorKeyNotFound
	}
	return record.Value, nil
}

// Remove removes a key-value pair from the store if it exists.
func (ds *DataStore) Remove(key network.NodeID) error {
	ds.dataStoreLock.Lock()
	defer ds.dataStoreLock.Unlock()
	if _, present := ds.records[key]; !present {
		return ErrorKeyNotFound
	}
	delete(ds.records, key)
	return nil
}

// OriginRecordsOlderThan returns the records originated by this node
// whose last store is before the cutoff; they are due for republish.
func (ds *DataStore) OriginRecordsOlderThan(cutoff time.Time) []*ValueRecord {
	ds.dataStoreLock.RLock()
	defer ds.dataStoreLock.RUnlock()
	due := make([]*ValueRecord, 0)
	for _, record := range ds.records {
		if record.Origin && record.StoredAt.Before(cutoff) {
			copied := *record
			due = append(due, &copied)
		}
	}
	return due
}

// ExpireOlderThan purges records not refreshed since the cutoff and
// returns how many were removed. Records this node originated are kept;
// the republish loop refreshes them.
func (ds *DataStore) ExpireOlderThan(cutoff time.Time) int {
	ds.dataStoreLock.Lock()
	defer ds.dataStoreLock.Unlock()
	expired := 0
	for key, record := range ds.records {
		if !record.Origin && record.StoredAt.Before(cutoff) {
			delete(ds.records, key)
			expired++
		}
	}
	return expired
}

// Len returns the number of stored records.
func (ds *DataStore) Len() int {
	ds.dataStoreLock.RLock()
	defer ds.dataStoreLock.RUnlock()
	return len(ds.records)
}
