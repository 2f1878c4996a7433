package service

import (
	"context"
	"time"

	"github.com/manelneto/ledger/identity"
	"github.com/manelneto/ledger/network"
	"go.uber.org/zap"
)

// republishCheckInterval is how often the republisher scans for origin
// records due for another round of STOREs.
const republishCheckInterval = 5 * time.Minute

// expireCheckInterval is how often stale records are purged.
const expireCheckInterval = 1 * time.Hour

// ContentKey derives the store key of a value: the left 160 bits of
// its SHA-256 digest.
func ContentKey(value []byte) network.NodeID {
	key, _ := identity.KeyFromBytes(identity.HashBytes(value))
	return key
}

// NodeDataContext handles data related functionality: retrieving,
// storing, periodically republishing and garbage collecting stale
// data.
type NodeDataContext struct {
	// NodeCtx to access other components running in this node.
	NodeCtx *NodeContext

	// Store is the place where data is actually stored.
	Store *DataStore

	// DataStorer is responsible for finding the right replicas and
	// issuing STORE to them.
	DataStorer *DataStorageHandler

	// DataRetriever is responsible for retrieving the value for a
	// given key, locally or across the network.
	DataRetriever *DataRetrievalHandler

	// DataRepublisher periodically re-stores records originated by
	// this node to keep them alive on their replicas.
	DataRepublisher *DataRepublishHandler

	// GarbageCollector purges records whose publishers stopped
	// republishing them.
	GarbageCollector *StaleDataHandler
}

// CreateNodeDataContext creates a new NodeDataContext wired to the
// node context.
func CreateNodeDataContext(nodeCtx *NodeContext) *NodeDataContext {
	dataContext := &NodeDataContext{
		NodeCtx: nodeCtx,
		Store:   CreateDataStore(),
	}
	dataContext.DataStorer = &DataStorageHandler{dataContext}
	dataContext.DataRetriever = &DataRetrievalHandler{dataContext}
	dataContext.DataRepublisher = &DataRepublishHandler{dataContext}
	dataContext.GarbageCollector = &StaleDataHandler{dataContext}
	return dataContext
}

// Start launches the republish and expiry loops.
func (dataContext *NodeDataContext) Start(done <-chan struct{}) {
	dataContext.DataRepublisher.Start(done)
	dataContext.GarbageCollector.Start(done)
}

// DataStorageHandler is responsible for locating the right nodes and
// issuing STORE to store a key-value pair.
type DataStorageHandler struct {
	*NodeDataContext
}

// StoreKVPair stores the pair locally as an origin record, then
// locates the k closest nodes to the key and issues STORE to each of
// them. A failed STORE on one replica is logged, not fatal;
// replication continues on the others. The key is the caller's
// responsibility: the content hash of the value, or the entity hash
// for ledger records.
func (ds *DataStorageHandler) StoreKVPair(ctx context.Context, key network.NodeID, value []byte, signature []byte) error {
	nodeCtx := ds.NodeCtx
	ds.Store.AddOrReplace(key, value, signature, nodeCtx.CurrentNodeInfo.ID, true)

	closestNodes, locateErr := nodeCtx.Locator.LocateClosestNodes(ctx, key)
	if locateErr != nil {
		nodeCtx.Logger.Warn("Error while locating nodes to store key",
			zap.String("key", key.String()),
			zap.Error(locateErr))
		return locateErr
	}
	numReplicas := 0
	for _, closestNode := range closestNodes {
		if closestNode.ID.Equals(nodeCtx.CurrentNodeInfo.ID) {
			continue
		}
		if stored, storeErr := nodeCtx.CommHandler.Store(ctx, closestNode, key, value, signature); storeErr != nil || !stored {
			nodeCtx.Logger.Warn("Error while storing key on replica",
				zap.String("key", key.String()),
				zap.String("replica", closestNode.ID.String()),
				zap.Error(storeErr))
			continue
		}
		numReplicas++
	}
	nodeCtx.Logger.Info("Stored key",
		zap.String("key", key.String()),
		zap.Int("replicas", numReplicas))
	return nil
}

// DataRetrievalHandler is responsible for retrieving data for a given
// key, contacting the appropriate nodes when it is not held locally.
type DataRetrievalHandler struct {
	*NodeDataContext
}

// RetrieveKVPair returns the value for the key if it is found locally
// or anywhere in the network. Values learned from the network are
// cached locally.
func (dr *DataRetrievalHandler) RetrieveKVPair(ctx context.Context, key network.NodeID) ([]byte, error) {
	if value, err := dr.Store.Get(key); err == nil {
		return value, nil
	}
	value, _, locateErr := dr.NodeCtx.Locator.LocateValue(ctx, key)
	if locateErr != nil {
		return nil, locateErr
	}
	if value == nil {
		return nil, ErrorKeyNotFound
	}
	dr.Store.AddOrReplace(key, value, nil, dr.NodeCtx.CurrentNodeInfo.ID, false)
	return value, nil
}

// DataRepublishHandler re-stores records originated by this node every
// republish interval so their replicas do not expire them.
type DataRepublishHandler struct {
	*NodeDataContext
}

// Start runs the republish loop until the node stops.
func (republisher *DataRepublishHandler) Start(done <-chan struct{}) {
	ticker := time.NewTicker(republishCheckInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				republisher.RepublishDueRecords()
			}
		}
	}()
}

// RepublishDueRecords issues another round of STOREs for every origin
// record older than the republish interval.
func (republisher *DataRepublishHandler) RepublishDueRecords() {
	nodeCtx := republisher.NodeCtx
	cutoff := time.Now().Add(-nodeCtx.Config.RepublishInterval)
	for _, record := range republisher.Store.OriginRecordsOlderThan(cutoff) {
		if err := republisher.DataStorer.StoreKVPair(context.Background(), record.Key, record.Value, record.Signature); err != nil {
			nodeCtx.Logger.Warn("Republish failed",
				zap.String("key", record.Key.String()),
				zap.Error(err))
		}
	}
}

// StaleDataHandler is responsible for removing the keys which are not
// being refreshed for a while.
type StaleDataHandler struct {
	*NodeDataContext
}

// Start runs the expiry loop until the node stops.
func (gc *StaleDataHandler) Start(done <-chan struct{}) {
	ticker := time.NewTicker(expireCheckInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-gc.NodeCtx.Config.ExpireInterval)
				if expired := gc.Store.ExpireOlderThan(cutoff); expired > 0 {
					gc.NodeCtx.Logger.Info("Expired stale records", zap.Int("count", expired))
				}
			}
		}
	}()
}
