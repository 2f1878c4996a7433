package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// refreshCheckInterval is how often the refresher scans for buckets
// that have gone unqueried for the configured refresh window.
const refreshCheckInterval = 1 * time.Minute

// RoutingTableRefresher is responsible for keeping the routing table
// up to date: any bucket not targeted by a lookup for the refresh
// window gets a FIND_NODE lookup against a random ID within its range.
// This is how a node discovers peers that joined in parts of the ID
// space it never had a reason to query.
type RoutingTableRefresher struct {
	NodeCtx *NodeContext
}

// CreateRoutingTableRefresher creates a routing table refresher bound
// to the node context.
func CreateRoutingTableRefresher(nodeCtx *NodeContext) *RoutingTableRefresher {
	return &RoutingTableRefresher{NodeCtx: nodeCtx}
}

// Start runs the refresh loop until the node stops.
func (refresher *RoutingTableRefresher) Start(done <-chan struct{}) {
	ticker := time.NewTicker(refreshCheckInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				refresher.RefreshStaleBuckets()
			}
		}
	}()
}

// RefreshStaleBuckets looks up a random target inside every bucket
// that went unqueried for the refresh window.
func (refresher *RoutingTableRefresher) RefreshStaleBuckets() {
	nodeCtx := refresher.NodeCtx
	cutoff := time.Now().Add(-nodeCtx.Config.RefreshInterval)
	for _, bucketIndex := range nodeCtx.BucketTable.StaleBuckets(cutoff) {
		target := nodeCtx.BucketTable.RefreshTarget(bucketIndex)
		if _, err := nodeCtx.Locator.LocateClosestNodes(context.Background(), target); err != nil {
			nodeCtx.Logger.Warn("Bucket refresh lookup failed",
				zap.Int("bucket", bucketIndex),
				zap.Error(err))
			continue
		}
		nodeCtx.Logger.Debug("Refreshed bucket", zap.Int("bucket", bucketIndex))
	}
}
