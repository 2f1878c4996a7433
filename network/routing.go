package network

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// RoutingTable defines the nodes known to this node in the overlay.
// This node can contact/route requests only to contacts present in
// this table.
type RoutingTable interface {
	// Touch records an observed contact. If the contact's bucket is
	// full and the contact is not yet present, a *TableIsFullError is
	// returned carrying the least recently seen contact of that bucket
	// so the caller can probe it and decide on eviction.
	Touch(contact Contact) error

	// Remove removes the contact with the given ID, promoting a pending
	// replacement into the freed slot if one is queued. It fails with
	// ErrorUnknownNode when no such contact is present.
	Remove(nodeID NodeID) error

	// GetClosestNodes returns up to k contacts ordered by ascending XOR
	// distance to the target, drawn across buckets as needed.
	GetClosestNodes(target NodeID, k int) ([]Contact, error)

	// AddPendingReplacement queues a contact as a replacement candidate
	// for its bucket, to be promoted when a slot frees up.
	AddPendingReplacement(contact Contact)
}

var (
	// ErrorSelfContact is raised on an attempt to add the local node's
	// own ID to the table. The local node is never a contact.
	ErrorSelfContact = errors.New("Own node ID cannot be added to the routing table")

	// ErrorUnknownNode is raised when a node is requested to be removed
	// from the routing table, but no node with such ID exists.
	ErrorUnknownNode = errors.New("Unknown node error")
)

// TableIsFullError is returned when the target bucket has no slots
// left. It carries the least recently seen contact of the bucket, the
// candidate for a liveness probe and possible eviction.
type TableIsFullError struct {
	BucketIndex           int
	NewContact            Contact
	LeastRecentlySeenNode Contact
}

func (terr *TableIsFullError) Error() string {
	return fmt.Sprintf("Bucket %d is full. Insertion of %s failed. Candidate for removal = %s",
		terr.BucketIndex, terr.NewContact.ID, terr.LeastRecentlySeenNode.ID)
}

// BucketRoutingTable is the fixed-layout routing table: one bucket per
// possible position of the highest differing bit, 160 in total. Touch
// calls are serialized per bucket but proceed in parallel across
// buckets.
type BucketRoutingTable struct {
	pivot      NodeID
	bucketSize int
	buckets    [NumBuckets]*tableBucket
}

type tableBucket struct {
	mutex       sync.Mutex
	bucket      *KBucket
	lastQueried time.Time
}

// CreateBucketRoutingTable creates a routing table for the node with
// the given ID. bucketSize is the replication factor k: both the bucket
// capacity and the width of closest-node queries.
func CreateBucketRoutingTable(pivot NodeID, bucketSize int) *BucketRoutingTable {
	table := &BucketRoutingTable{pivot: pivot, bucketSize: bucketSize}
	for i := range table.buckets {
		table.buckets[i] = &tableBucket{bucket: CreateKBucket(bucketSize)}
	}
	return table
}

// Touch of BucketRoutingTable records the contact in its bucket,
// refreshing its recency when already present. The local node's own ID
// is rejected with ErrorSelfContact.
func (rtbl *BucketRoutingTable) Touch(contact Contact) error {
	index, ok := rtbl.pivot.BucketIndex(contact.ID)
	if !ok {
		return ErrorSelfContact
	}
	entry := rtbl.buckets[index]
	entry.mutex.Lock()
	defer entry.mutex.Unlock()
	if entry.bucket.Touch(contact) {
		return nil
	}
	head, _ := entry.bucket.Head()
	return &TableIsFullError{
		BucketIndex:           index,
		NewContact:            contact,
		LeastRecentlySeenNode: head,
	}
}

// Remove of BucketRoutingTable removes the given contact from the
// table. If the node does not exist then ErrorUnknownNode is returned.
func (rtbl *BucketRoutingTable) Remove(nodeID NodeID) error {
	index, ok := rtbl.pivot.BucketIndex(nodeID)
	if !ok {
		return ErrorUnknownNode
	}
	entry := rtbl.buckets[index]
	entry.mutex.Lock()
	defer entry.mutex.Unlock()
	if !entry.bucket.Remove(nodeID) {
		return ErrorUnknownNode
	}
	return nil
}

// GetClosestNodes of BucketRoutingTable gathers contacts across all
// buckets and returns the k closest to the target in ascending
// distance order.
func (rtbl *BucketRoutingTable) GetClosestNodes(target NodeID, k int) ([]Contact, error) {
	if k <= 0 {
		return []Contact{}, nil
	}
	gathered := make([]Contact, 0, k)
	for _, entry := range rtbl.buckets {
		entry.mutex.Lock()
		gathered = append(gathered, entry.bucket.Contacts()...)
		entry.mutex.Unlock()
	}
	SortContactsByDistance(gathered, target)
	if len(gathered) > k {
		gathered = gathered[:k]
	}
	return gathered, nil
}

// AddPendingReplacement of BucketRoutingTable queues the contact in its
// bucket's replacement queue.
func (rtbl *BucketRoutingTable) AddPendingReplacement(contact Contact) {
	index, ok := rtbl.pivot.BucketIndex(contact.ID)
	if !ok {
		return
	}
	entry := rtbl.buckets[index]
	entry.mutex.Lock()
	defer entry.mutex.Unlock()
	entry.bucket.PushPending(contact)
}

// RecordLookup marks the bucket covering the target as queried now.
// Lookup code calls this so that only genuinely idle buckets are
// refreshed.
func (rtbl *BucketRoutingTable) RecordLookup(target NodeID) {
	index, ok := rtbl.pivot.BucketIndex(target)
	if !ok {
		return
	}
	entry := rtbl.buckets[index]
	entry.mutex.Lock()
	defer entry.mutex.Unlock()
	entry.lastQueried = time.Now()
}

// StaleBuckets returns the indices of buckets, empty or not, that have
// not been the target of a lookup since the given cutoff.
func (rtbl *BucketRoutingTable) StaleBuckets(cutoff time.Time) []int {
	stale := make([]int, 0)
	for i, entry := range rtbl.buckets {
		entry.mutex.Lock()
		if entry.lastQueried.Before(cutoff) {
			stale = append(stale, i)
		}
		entry.mutex.Unlock()
	}
	return stale
}

// RefreshTarget returns a random identifier falling within the range
// covered by the bucket at the given index.
func (rtbl *BucketRoutingTable) RefreshTarget(bucketIndex int) NodeID {
	return rtbl.pivot.RandomIDInBucket(bucketIndex)
}
