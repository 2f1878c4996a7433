package service

import (
	"context"

	"github.com/manelneto/ledger/network"
	"go.uber.org/zap"
)

// ClosestNodeLocator runs the iterative lookup procedure: it locates
// the nodes closest to a given ID, or the value stored under a key,
// by querying progressively closer contacts. Why not simply read the
// routing table? Because the local table may be incomplete or stale;
// only the network has the authoritative answer.
type ClosestNodeLocator struct {
	// NodeCtx provides access to the services needed by the locator:
	// the communication handler, the routing table and configuration.
	NodeCtx *NodeContext
}

// lookupCandidate is one shortlist entry together with its query state.
// All candidate mutation happens on the goroutine running the lookup;
// workers only report results over a channel.
type lookupCandidate struct {
	contact   network.Contact
	queried   bool
	failed    bool
	responded bool
}

// lookupOutcome is what one remote query produced.
type lookupOutcome struct {
	responder network.Contact
	contacts  []network.Contact
	value     []byte
	err       error
}

// LocateClosestNodes locates the k closest responsive nodes for a
// given target ID.
func (cnl *ClosestNodeLocator) LocateClosestNodes(ctx context.Context, target network.NodeID) ([]network.Contact, error) {
	closest, _, err := cnl.lookup(ctx, target, false)
	return closest, err
}

// LocateValue locates the value stored under the key. When no node
// holds it, the k closest responsive nodes are returned instead so the
// caller can publish to them.
func (cnl *ClosestNodeLocator) LocateValue(ctx context.Context, key network.NodeID) ([]byte, []network.Contact, error) {
	closest, value, err := cnl.lookup(ctx, key, true)
	return value, closest, err
}

// lookup is the iterative procedure: seed the shortlist from the local
// routing table, query alpha unqueried candidates in parallel, merge
// every response and keep going while the best known distance
// improves. Once it stops improving, a finishing round queries the k
// closest not-yet-queried candidates. The whole lookup runs under the
// total lookup deadline; on expiry the best responsive contacts seen
// so far are returned.
func (cnl *ClosestNodeLocator) lookup(ctx context.Context, target network.NodeID, wantValue bool) ([]network.Contact, []byte, error) {
	nodeCtx := cnl.NodeCtx
	k := nodeCtx.Config.ReplicationFactor
	alpha := nodeCtx.Config.ConcurrencyFactor

	lookupCtx, cancel := context.WithTimeout(ctx, nodeCtx.Config.LookupTimeout)
	defer cancel()

	nodeCtx.BucketTable.RecordLookup(target)

	seeds, seedErr := nodeCtx.ContactNodeTable.GetClosestNodes(target, k)
	if seedErr != nil {
		nodeCtx.Logger.Warn("Cannot seed lookup from the routing table", zap.Error(seedErr))
	}
	shortlist := make(map[network.NodeID]*lookupCandidate)
	for _, seed := range seeds {
		shortlist[seed.ID] = &lookupCandidate{contact: seed}
	}

	bestDistance, haveBest := closestDistance(shortlist, target)
	finishing := false

	for {
		width := alpha
		if finishing {
			width = k
		}
		batch := cnl.nextBatch(shortlist, target, width)
		if len(batch) == 0 {
			break
		}

		improved := false
		var foundValue []byte
		outcomes := cnl.queryBatch(lookupCtx, batch, target, wantValue)
		for outcome := range outcomes {
			candidate := shortlist[outcome.responder.ID]
			if outcome.err != nil {
				if candidate != nil {
					candidate.failed = true
				}
				continue
			}
			if candidate != nil {
				candidate.responded = true
			}
			if touchErr := nodeCtx.ContactNodeTable.Touch(outcome.responder); touchErr != nil && touchErr != network.ErrorSelfContact {
				nodeCtx.Logger.Debug("Cannot record lookup responder",
					zap.String("nodeID", outcome.responder.ID.String()),
					zap.Error(touchErr))
			}
			if wantValue && len(outcome.value) > 0 {
				foundValue = outcome.value
			}
			for _, learned := range outcome.contacts {
				if learned.ID.Equals(nodeCtx.CurrentNodeInfo.ID) {
					continue
				}
				if _, known := shortlist[learned.ID]; known {
					continue
				}
				shortlist[learned.ID] = &lookupCandidate{contact: learned}
				learnedDistance := learned.ID.XOR(target)
				if !haveBest || learnedDistance.Less(bestDistance) {
					bestDistance = learnedDistance
					haveBest = true
					improved = true
				}
			}
			if foundValue != nil {
				break
			}
		}

		if foundValue != nil {
			// A value ends the lookup immediately; outstanding
			// children are cancelled by the deferred cancel.
			return cnl.closestResponded(shortlist, target, k), foundValue, nil
		}
		if lookupCtx.Err() != nil {
			break
		}
		if improved {
			finishing = false
			continue
		}
		// No improvement: switch to finishing rounds until the k
		// closest known candidates have all been queried.
		if cnl.kClosestCovered(shortlist, target, k) {
			break
		}
		finishing = true
	}

	return cnl.closestResponded(shortlist, target, k), nil, nil
}

// nextBatch picks up to width unqueried, unfailed candidates,
// preferring smaller distance, and marks them queried.
func (cnl *ClosestNodeLocator) nextBatch(shortlist map[network.NodeID]*lookupCandidate, target network.NodeID, width int) []network.Contact {
	unqueried := make([]network.Contact, 0)
	for _, candidate := range shortlist {
		if !candidate.queried && !candidate.failed {
			unqueried = append(unqueried, candidate.contact)
		}
	}
	network.SortContactsByDistance(unqueried, target)
	if len(unqueried) > width {
		unqueried = unqueried[:width]
	}
	for _, contact := range unqueried {
		shortlist[contact.ID].queried = true
	}
	return unqueried
}

// queryBatch issues the batch in parallel and delivers outcomes in
// arrival order over the returned channel, which closes after the last
// one.
func (cnl *ClosestNodeLocator) queryBatch(ctx context.Context, batch []network.Contact, target network.NodeID, wantValue bool) <-chan lookupOutcome {
	outcomes := make(chan lookupOutcome, len(batch))
	remaining := len(batch)
	done := make(chan struct{}, len(batch))
	for _, contact := range batch {
		go func(contact network.Contact) {
			defer func() { done <- struct{}{} }()
			if wantValue {
				value, contacts, err := cnl.NodeCtx.CommHandler.FindValue(ctx, contact, target)
				outcomes <- lookupOutcome{responder: contact, contacts: contacts, value: value, err: err}
				return
			}
			contacts, err := cnl.NodeCtx.CommHandler.FindNode(ctx, contact, target)
			outcomes <- lookupOutcome{responder: contact, contacts: contacts, err: err}
		}(contact)
	}
	go func() {
		for i := 0; i < remaining; i++ {
			<-done
		}
		close(outcomes)
	}()
	return outcomes
}

// kClosestCovered reports whether every one of the k closest
// non-failed candidates has already been queried. That is the
// termination condition: no unqueried improvement remains.
func (cnl *ClosestNodeLocator) kClosestCovered(shortlist map[network.NodeID]*lookupCandidate, target network.NodeID, k int) bool {
	alive := make([]network.Contact, 0, len(shortlist))
	for _, candidate := range shortlist {
		if !candidate.failed {
			alive = append(alive, candidate.contact)
		}
	}
	network.SortContactsByDistance(alive, target)
	if len(alive) > k {
		alive = alive[:k]
	}
	for _, contact := range alive {
		if !shortlist[contact.ID].queried {
			return false
		}
	}
	return true
}

// closestResponded returns the k closest candidates that answered,
// sorted by ascending distance to the target.
func (cnl *ClosestNodeLocator) closestResponded(shortlist map[network.NodeID]*lookupCandidate, target network.NodeID, k int) []network.Contact {
	responded := make([]network.Contact, 0, len(shortlist))
	for _, candidate := range shortlist {
		if candidate.responded {
			responded = append(responded, candidate.contact)
		}
	}
	network.SortContactsByDistance(responded, target)
	if len(responded) > k {
		responded = responded[:k]
	}
	return responded
}

func closestDistance(shortlist map[network.NodeID]*lookupCandidate, target network.NodeID) (network.NodeID, bool) {
	var best network.NodeID
	have := false
	for id := range shortlist {
		distance := id.XOR(target)
		if !have || distance.Less(best) {
			best = distance
			have = true
		}
	}
	return best, have
}
