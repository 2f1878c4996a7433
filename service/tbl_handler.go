package service

import (
	"context"
	"errors"
	"time"

	"github.com/manelneto/ledger/network"
	"go.uber.org/zap"
)

// RoutingTableHandler is an implementation of RoutingTable which in
// addition to routing table operations also does a liveness check of
// the least recently seen contact of a full bucket to decide whether
// it can be evicted.
type RoutingTableHandler struct {
	CommHandler      Communicator
	ContactNodeTable network.RoutingTable
	ProbeTimeout     time.Duration
	Logger           *zap.Logger
}

// CreateRoutingTableHandler creates a routing table structure wrapped
// with a liveness probe before eviction, which requires the
// communication handler since it needs to contact other nodes.
func CreateRoutingTableHandler(comm Communicator, routingTable network.RoutingTable, probeTimeout time.Duration, logger *zap.Logger) *RoutingTableHandler {
	return &RoutingTableHandler{
		CommHandler:      comm,
		ContactNodeTable: routingTable,
		ProbeTimeout:     probeTimeout,
		Logger:           logger,
	}
}

// Touch records an observed contact. When the contact's bucket is
// full, the least recently seen contact is probed with PING: if it
// answers within the probe deadline it stays (moved to the tail) and
// the new contact is queued as a pending replacement; if it does not,
// it is evicted and the new contact takes the freed slot.
func (rtbl *RoutingTableHandler) Touch(contact network.Contact) error {
	touchErr := rtbl.ContactNodeTable.Touch(contact)
	if touchErr == nil {
		return nil
	}
	var fullErr *network.TableIsFullError
	if !errors.As(touchErr, &fullErr) {
		return touchErr
	}

	head := fullErr.LeastRecentlySeenNode
	probeCtx, cancel := context.WithTimeout(context.Background(), rtbl.ProbeTimeout)
	defer cancel()
	if alive, _ := rtbl.CommHandler.Ping(probeCtx, head); alive {
		// Head is alive: refresh its recency and keep the newcomer as
		// a replacement candidate.
		rtbl.ContactNodeTable.Touch(head)
		rtbl.ContactNodeTable.AddPendingReplacement(contact)
		return nil
	}

	rtbl.Logger.Debug("Evicting unresponsive bucket head",
		zap.String("evicted", head.ID.String()),
		zap.String("inserted", contact.ID.String()))
	if removeErr := rtbl.ContactNodeTable.Remove(head.ID); removeErr != nil && removeErr != network.ErrorUnknownNode {
		return removeErr
	}
	return rtbl.ContactNodeTable.Touch(contact)
}

// Remove just delegates to the routing table data structure it
// contains.
func (rtbl *RoutingTableHandler) Remove(nodeID network.NodeID) error {
	return rtbl.ContactNodeTable.Remove(nodeID)
}

// GetClosestNodes delegates to the underlying routing table.
func (rtbl *RoutingTableHandler) GetClosestNodes(target network.NodeID, k int) ([]network.Contact, error) {
	return rtbl.ContactNodeTable.GetClosestNodes(target, k)
}

// AddPendingReplacement delegates to the underlying routing table.
func (rtbl *RoutingTableHandler) AddPendingReplacement(contact network.Contact) {
	rtbl.ContactNodeTable.AddPendingReplacement(contact)
}
