package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/manelneto/ledger/network"
)

var errSimUnreachable = errors.New("sim: node unreachable")

// simNode is one emulated peer: the contacts it would answer
// FIND_NODE with and the values it holds.
type simNode struct {
	contact network.Contact
	known   []network.Contact
	values  map[network.NodeID][]byte
	down    bool
}

// simNetwork is an in-memory Communicator emulating a cluster, in the
// spirit of a deterministic simulation harness: no sockets, no clocks,
// just routing knowledge.
type simNetwork struct {
	mutex sync.Mutex
	width int
	nodes map[network.NodeID]*simNode
}

func newSimNetwork(width int) *simNetwork {
	return &simNetwork{width: width, nodes: make(map[network.NodeID]*simNode)}
}

func (sim *simNetwork) addNode(contact network.Contact) *simNode {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()
	node := &simNode{contact: contact, values: make(map[network.NodeID][]byte)}
	sim.nodes[contact.ID] = node
	return node
}

// connectAll gives every node full knowledge of every other node.
func (sim *simNetwork) connectAll() {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()
	for id, node := range sim.nodes {
		node.known = node.known[:0]
		for otherID, other := range sim.nodes {
			if otherID != id {
				node.known = append(node.known, other.contact)
			}
		}
	}
}

func (sim *simNetwork) reach(target network.Contact) (*simNode, error) {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()
	node, present := sim.nodes[target.ID]
	if !present || node.down {
		return nil, errSimUnreachable
	}
	return node, nil
}

func (sim *simNetwork) closestKnown(node *simNode, target network.NodeID) []network.Contact {
	sim.mutex.Lock()
	defer sim.mutex.Unlock()
	closest := make([]network.Contact, len(node.known))
	copy(closest, node.known)
	network.SortContactsByDistance(closest, target)
	if len(closest) > sim.width {
		closest = closest[:sim.width]
	}
	return closest
}

func (sim *simNetwork) Ping(ctx context.Context, target network.Contact) (bool, error) {
	if _, err := sim.reach(target); err != nil {
		return false, err
	}
	return true, nil
}

func (sim *simNetwork) Store(ctx context.Context, target network.Contact, key network.NodeID, value []byte, signature []byte) (bool, error) {
	node, err := sim.reach(target)
	if err != nil {
		return false, err
	}
	sim.mutex.Lock()
	defer sim.mutex.Unlock()
	node.values[key] = value
	return true, nil
}

func (sim *simNetwork) FindNode(ctx context.Context, target network.Contact, targetID network.NodeID) ([]network.Contact, error) {
	node, err := sim.reach(target)
	if err != nil {
		return nil, err
	}
	return sim.closestKnown(node, targetID), nil
}

func (sim *simNetwork) FindValue(ctx context.Context, target network.Contact, key network.NodeID) ([]byte, []network.Contact, error) {
	node, err := sim.reach(target)
	if err != nil {
		return nil, nil, err
	}
	sim.mutex.Lock()
	value, present := node.values[key]
	sim.mutex.Unlock()
	if present {
		return value, nil, nil
	}
	return nil, sim.closestKnown(node, key), nil
}

func (sim *simNetwork) Join(ctx context.Context, target network.Contact, nonce []byte, powHash []byte) (bool, []network.Contact, error) {
	node, err := sim.reach(target)
	if err != nil {
		return false, nil, err
	}
	return true, sim.closestKnown(node, target.ID), nil
}

func (sim *simNetwork) Shutdown(ctx context.Context, target network.Contact) error {
	_, err := sim.reach(target)
	return err
}
