package network

// KBucket is a bounded list of contacts covering one distance range.
// The head of the list is the least recently seen contact and the tail
// the most recently seen. When the bucket is full, candidates that
// could not be inserted wait in a bounded FIFO replacement queue until
// a slot frees up.
type KBucket struct {
	contacts []Contact
	pending  []Contact
	capacity int
}

// CreateKBucket creates an empty bucket holding at most capacity
// contacts. The replacement queue is bounded by the same capacity.
func CreateKBucket(capacity int) *KBucket {
	return &KBucket{
		contacts: make([]Contact, 0, capacity),
		pending:  nil,
		capacity: capacity,
	}
}

// Len returns the number of contacts currently in the bucket.
func (b *KBucket) Len() int {
	return len(b.contacts)
}

// IsFull reports whether the bucket has no free slots left.
func (b *KBucket) IsFull() bool {
	return len(b.contacts) >= b.capacity
}

// Contains reports whether a contact with the given ID is in the bucket.
func (b *KBucket) Contains(id NodeID) bool {
	return b.indexOf(id) >= 0
}

// Touch records that the contact has just been observed. If it is
// already present it moves to the tail; if there is a free slot it is
// appended at the tail. Returns false when the bucket is full and the
// contact is not present, leaving the decision about the head to the
// caller.
func (b *KBucket) Touch(contact Contact) bool {
	if position := b.indexOf(contact.ID); position >= 0 {
		b.contacts = append(append(b.contacts[:position:position], b.contacts[position+1:]...), contact)
		return true
	}
	if !b.IsFull() {
		b.contacts = append(b.contacts, contact)
		return true
	}
	return false
}

// Head returns the least recently seen contact, the eviction candidate
// when the bucket is full.
func (b *KBucket) Head() (Contact, bool) {
	if len(b.contacts) == 0 {
		return Contact{}, false
	}
	return b.contacts[0], true
}

// Remove removes the contact with the given ID. When a slot frees up
// the oldest pending replacement, if any, is promoted into it.
func (b *KBucket) Remove(id NodeID) bool {
	position := b.indexOf(id)
	if position < 0 {
		return false
	}
	b.contacts = append(b.contacts[:position], b.contacts[position+1:]...)
	if replacement, ok := b.popPending(); ok {
		b.contacts = append(b.contacts, replacement)
	}
	return true
}

// PushPending queues a replacement candidate observed while the bucket
// was full. The queue is FIFO, bounded by the bucket capacity, and does
// not hold duplicates; when full, the oldest candidate is dropped.
func (b *KBucket) PushPending(contact Contact) {
	for i := range b.pending {
		if b.pending[i].ID.Equals(contact.ID) {
			return
		}
	}
	if len(b.pending) >= b.capacity {
		b.pending = b.pending[1:]
	}
	b.pending = append(b.pending, contact)
}

// Contacts returns a copy of the bucket contents in least-recently-seen
// first order.
func (b *KBucket) Contacts() []Contact {
	snapshot := make([]Contact, len(b.contacts))
	copy(snapshot, b.contacts)
	return snapshot
}

func (b *KBucket) indexOf(id NodeID) int {
	for i := range b.contacts {
		if b.contacts[i].ID.Equals(id) {
			return i
		}
	}
	return -1
}

func (b *KBucket) popPending() (Contact, bool) {
	if len(b.pending) == 0 {
		return Contact{}, false
	}
	oldest := b.pending[0]
	b.pending = b.pending[1:]
	return oldest, true
}
