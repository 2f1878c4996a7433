package network

import (
	"fmt"
	"sort"
)

// Contact is the information required to reach a peer and to verify
// messages it signs: its identifier, address and identity public key.
// Two contacts are the same peer when their identifiers are equal.
type Contact struct {
	ID        NodeID
	IPAddress string
	Port      uint32
	PublicKey []byte
}

// Address returns the host:port form used to dial the peer.
func (c Contact) Address() string {
	return fmt.Sprintf("%s:%d", c.IPAddress, c.Port)
}

// Equals reports whether both contacts refer to the same peer.
func (c Contact) Equals(other Contact) bool {
	return c.ID.Equals(other.ID)
}

// SortContactsByDistance orders contacts in place by ascending XOR
// distance to the target, breaking the (theoretical) ties by
// lexicographic identifier order.
func SortContactsByDistance(contacts []Contact, target NodeID) {
	sort.Slice(contacts, func(i, j int) bool {
		distanceOfI := contacts[i].ID.XOR(target)
		distanceOfJ := contacts[j].ID.XOR(target)
		if distanceOfI == distanceOfJ {
			return contacts[i].ID.Less(contacts[j].ID)
		}
		return distanceOfI.Less(distanceOfJ)
	})
}
