package service_test

import (
	"testing"
	"time"

	"github.com/manelneto/ledger/network"
	"github.com/manelneto/ledger/service"
	"go.uber.org/zap"
)

func bucketZeroContact(port uint32, second byte) network.Contact {
	// With a zero pivot every ID starting with a set high bit lands in
	// bucket 0.
	var id network.NodeID
	id[0] = 0x80
	id[1] = second
	return network.Contact{ID: id, IPAddress: "127.0.0.1", Port: port}
}

func TestTouchEvictsUnresponsiveHead(t *testing.T) {
	sim := newSimNetwork(20)
	table := network.CreateBucketRoutingTable(network.NodeID{}, 2)
	handler := service.CreateRoutingTableHandler(sim, table, 100*time.Millisecond, zap.NewNop())

	head := bucketZeroContact(21001, 1)
	second := bucketZeroContact(21002, 2)
	newcomer := bucketZeroContact(21003, 3)
	// head and second fill the bucket; only second is reachable, so
	// the probe of head fails and the newcomer takes its slot.
	sim.addNode(second)
	sim.addNode(newcomer)

	if err := handler.Touch(head); err != nil {
		t.Fatalf("Touch(head): %v", err)
	}
	if err := handler.Touch(second); err != nil {
		t.Fatalf("Touch(second): %v", err)
	}
	if err := handler.Touch(newcomer); err != nil {
		t.Fatalf("Touch(newcomer): %v", err)
	}

	contacts, _ := handler.GetClosestNodes(network.NodeID{}, 10)
	ids := make(map[network.NodeID]bool)
	for _, contact := range contacts {
		ids[contact.ID] = true
	}
	if ids[head.ID] {
		t.Fatal("unresponsive head must be evicted")
	}
	if !ids[second.ID] || !ids[newcomer.ID] {
		t.Fatal("expected the responsive contact and the newcomer in the bucket")
	}
}

func TestTouchKeepsResponsiveHeadAndQueuesNewcomer(t *testing.T) {
	sim := newSimNetwork(20)
	table := network.CreateBucketRoutingTable(network.NodeID{}, 2)
	handler := service.CreateRoutingTableHandler(sim, table, 100*time.Millisecond, zap.NewNop())

	head := bucketZeroContact(21011, 1)
	second := bucketZeroContact(21012, 2)
	newcomer := bucketZeroContact(21013, 3)
	sim.addNode(head)
	sim.addNode(second)
	sim.addNode(newcomer)

	for _, contact := range []network.Contact{head, second} {
		if err := handler.Touch(contact); err != nil {
			t.Fatalf("Touch: %v", err)
		}
	}
	if err := handler.Touch(newcomer); err != nil {
		t.Fatalf("Touch(newcomer): %v", err)
	}

	contacts, _ := handler.GetClosestNodes(network.NodeID{}, 10)
	if len(contacts) != 2 {
		t.Fatalf("expected the bucket to stay at capacity 2, got %d", len(contacts))
	}
	for _, contact := range contacts {
		if contact.ID.Equals(newcomer.ID) {
			t.Fatal("newcomer must wait in the replacement queue while the head is alive")
		}
	}

	// A freed slot promotes the queued newcomer.
	if err := handler.Remove(second.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	contacts, _ = handler.GetClosestNodes(network.NodeID{}, 10)
	promoted := false
	for _, contact := range contacts {
		promoted = promoted || contact.ID.Equals(newcomer.ID)
	}
	if !promoted {
		t.Fatal("queued newcomer must be promoted into the freed slot")
	}
}
