package service_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/manelneto/ledger/config"
	"github.com/manelneto/ledger/identity"
	pb "github.com/manelneto/ledger/kademliapb"
	"github.com/manelneto/ledger/ledger"
	"github.com/manelneto/ledger/network"
	"github.com/manelneto/ledger/service"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// newTestNode builds a full node context without starting any servers;
// handler methods are driven directly.
func newTestNode(t *testing.T, port uint32) *service.NodeContext {
	t.Helper()
	nodeIdentity, err := identity.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	nodeCtx, err := service.CreateNodeContext(
		testConfiguration(),
		nodeIdentity,
		"127.0.0.1",
		port,
		&config.RESTServerConfiguration{RESTPort: port + 1000},
		nil,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("CreateNodeContext: %v", err)
	}
	return nodeCtx
}

// peerContact builds a well-bound remote contact with its identity.
func peerContact(t *testing.T, port uint32) (network.Contact, *identity.Identity) {
	t.Helper()
	peerIdentity, err := identity.GenerateIdentity()
	if err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	contact := network.Contact{
		ID:        peerIdentity.ID,
		IPAddress: "127.0.0.1",
		Port:      port,
		PublicKey: peerIdentity.PublicKey,
	}
	return contact, peerIdentity
}

func tableContains(t *testing.T, nodeCtx *service.NodeContext, id network.NodeID) bool {
	t.Helper()
	contacts, err := nodeCtx.ContactNodeTable.GetClosestNodes(id, 100)
	if err != nil {
		t.Fatalf("GetClosestNodes: %v", err)
	}
	for _, contact := range contacts {
		if contact.ID.Equals(id) {
			return true
		}
	}
	return false
}

func TestPingTouchesSender(t *testing.T) {
	nodeCtx := newTestNode(t, 5000)
	peer, _ := peerContact(t, 5001)

	response, err := nodeCtx.MessagesHandler.Ping(context.Background(), &pb.PingRequest{
		SenderNodeInfo: network.ContactToProto(peer),
	})
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if !response.Alive {
		t.Fatal("expected alive response")
	}
	if !tableContains(t, nodeCtx, peer.ID) {
		t.Fatal("sender must be recorded in the routing table")
	}
}

func TestMalformedSenderIsDroppedWithoutTableUpdate(t *testing.T) {
	nodeCtx := newTestNode(t, 5002)
	peer, _ := peerContact(t, 5003)

	// A truncated ID must be rejected.
	forged := network.ContactToProto(peer)
	forged.NodeId = forged.NodeId[:4]
	if _, err := nodeCtx.MessagesHandler.Ping(context.Background(), &pb.PingRequest{SenderNodeInfo: forged}); err == nil {
		t.Fatal("expected an error for a malformed sender")
	}

	other, _ := peerContact(t, 5004)
	unbound := network.ContactToProto(network.Contact{
		ID:        other.ID,
		IPAddress: peer.IPAddress,
		Port:      peer.Port,
		PublicKey: peer.PublicKey,
	})
	if _, err := nodeCtx.MessagesHandler.Ping(context.Background(), &pb.PingRequest{SenderNodeInfo: unbound}); err == nil {
		t.Fatal("expected an error for an unbound sender ID")
	}
	if tableContains(t, nodeCtx, other.ID) || tableContains(t, nodeCtx, peer.ID) {
		t.Fatal("dropped requests must not update the routing table")
	}
}

func TestStoreThenFindValueRoundTrip(t *testing.T) {
	nodeCtx := newTestNode(t, 5010)
	peer, _ := peerContact(t, 5011)
	value := []byte("hello")
	key := service.ContentKey(value)

	storeResponse, err := nodeCtx.MessagesHandler.Store(context.Background(), &pb.StoreRequest{
		SenderNodeInfo: network.ContactToProto(peer),
		Key:            key[:],
		Value:          value,
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !storeResponse.Success {
		t.Fatal("expected the store to succeed")
	}

	findResponse, err := nodeCtx.MessagesHandler.FindValue(context.Background(), &pb.FindValueRequest{
		SenderNodeInfo: network.ContactToProto(peer),
		Key:            key[:],
	})
	if err != nil {
		t.Fatalf("FindValue: %v", err)
	}
	if !bytes.Equal(findResponse.Value, value) {
		t.Fatalf("expected %q back, got %q", value, findResponse.Value)
	}
}

func TestStoreRejectsNonContentHashKey(t *testing.T) {
	nodeCtx := newTestNode(t, 5012)
	peer, _ := peerContact(t, 5013)
	wrongKey := network.RandomNodeID()

	response, err := nodeCtx.MessagesHandler.Store(context.Background(), &pb.StoreRequest{
		SenderNodeInfo: network.ContactToProto(peer),
		Key:            wrongKey[:],
		Value:          []byte("hello"),
	})
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if response.Success {
		t.Fatal("a key that is not the content hash must be rejected")
	}
}

func TestFindNodeExcludesSender(t *testing.T) {
	nodeCtx := newTestNode(t, 5020)
	peerA, _ := peerContact(t, 5021)
	peerB, _ := peerContact(t, 5022)

	for _, peer := range []network.Contact{peerA, peerB} {
		if _, err := nodeCtx.MessagesHandler.Ping(context.Background(), &pb.PingRequest{SenderNodeInfo: network.ContactToProto(peer)}); err != nil {
			t.Fatalf("Ping: %v", err)
		}
	}

	response, err := nodeCtx.MessagesHandler.FindNode(context.Background(), &pb.FindNodeRequest{
		SenderNodeInfo: network.ContactToProto(peerA),
		TargetId:       peerA.ID[:],
	})
	if err != nil {
		t.Fatalf("FindNode: %v", err)
	}
	for _, nodeInfo := range response.Closest {
		if bytes.Equal(nodeInfo.NodeId, peerA.ID[:]) {
			t.Fatal("the sender must not be in its own answer")
		}
	}
	foundB := false
	for _, nodeInfo := range response.Closest {
		foundB = foundB || bytes.Equal(nodeInfo.NodeId, peerB.ID[:])
	}
	if !foundB {
		t.Fatal("other known contacts must be returned")
	}
}

func TestJoinRejectsWeakProofOfWork(t *testing.T) {
	nodeCtx := newTestNode(t, 5030)
	peer, peerIdentity := peerContact(t, 5031)

	// A proof at difficulty 0 is just one hash; with difficulty 8
	// configured it is overwhelmingly likely to be rejected. Search
	// explicitly for a nonce whose hash fails the target difficulty.
	var nonce, powHash []byte
	for i := byte(0); ; i++ {
		candidate := []byte{i}
		hash := identity.HashBytes(append(append([]byte{}, peerIdentity.PublicKey...), candidate...))
		if hash[0] != 0 {
			nonce, powHash = candidate, hash
			break
		}
	}

	response, err := nodeCtx.MessagesHandler.Join(context.Background(), &pb.JoinNetworkRequest{
		SenderNodeInfo: network.ContactToProto(peer),
		Nonce:          nonce,
		PowHash:        powHash,
	})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if response.Accepted {
		t.Fatal("a weak proof-of-work must be rejected")
	}
	if len(response.Closest) != 0 {
		t.Fatal("a rejected join must not leak contacts")
	}
	if tableContains(t, nodeCtx, peer.ID) {
		t.Fatal("a rejected join must not update the routing table")
	}
}

func TestJoinAdmitsValidProofOfWork(t *testing.T) {
	nodeCtx := newTestNode(t, 5032)
	peer, peerIdentity := peerContact(t, 5033)

	nonce, powHash := identity.GeneratePoW(peerIdentity.PublicKey, nodeCtx.Config.Difficulty)
	response, err := nodeCtx.MessagesHandler.Join(context.Background(), &pb.JoinNetworkRequest{
		SenderNodeInfo: network.ContactToProto(peer),
		Nonce:          nonce,
		PowHash:        powHash,
	})
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !response.Accepted {
		t.Fatal("a valid proof-of-work must be accepted")
	}
	if !tableContains(t, nodeCtx, peer.ID) {
		t.Fatal("an admitted joiner must be recorded in the routing table")
	}
	includesSelf := false
	for _, nodeInfo := range response.Closest {
		includesSelf = includesSelf || bytes.Equal(nodeInfo.NodeId, nodeCtx.CurrentNodeInfo.ID[:])
	}
	if !includesSelf {
		t.Fatal("the answering node must be among the returned contacts")
	}
}

func TestStoreIngestsTransactionRecords(t *testing.T) {
	nodeCtx := newTestNode(t, 5040)
	peer, peerIdentity := peerContact(t, 5041)

	tx := ledger.CreateSignedTransaction(peerIdentity.PrivateKey, peerIdentity.PublicKey, []byte("AUCTION_BID lamp 300"))
	value, err := json.Marshal(&service.LedgerRecord{Kind: service.RecordKindTransaction, Transaction: tx})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	key, err := identity.KeyFromBytes(tx.ID)
	if err != nil {
		t.Fatalf("KeyFromBytes: %v", err)
	}

	response, storeErr := nodeCtx.MessagesHandler.Store(context.Background(), &pb.StoreRequest{
		SenderNodeInfo: network.ContactToProto(peer),
		Key:            key[:],
		Value:          value,
	})
	if storeErr != nil {
		t.Fatalf("Store: %v", storeErr)
	}
	if !response.Success {
		t.Fatal("a valid transaction record must be accepted")
	}
	if !nodeCtx.Ledger.Pool.Contains(tx.ID) {
		t.Fatal("the transaction must land in the pool")
	}
}

func TestStoreRejectsUnsignedBlockRecords(t *testing.T) {
	nodeCtx := newTestNode(t, 5042)
	peer, _ := peerContact(t, 5043)

	genesis := nodeCtx.Ledger.Chain.BestTip()
	block := ledger.CreateBlock(genesis.Index+1, genesis.Hash, 1000, 0, nil)
	value, err := json.Marshal(&service.LedgerRecord{Kind: service.RecordKindBlock, Block: block})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	key, err := identity.KeyFromBytes(block.Hash)
	if err != nil {
		t.Fatalf("KeyFromBytes: %v", err)
	}

	response, storeErr := nodeCtx.MessagesHandler.Store(context.Background(), &pb.StoreRequest{
		SenderNodeInfo: network.ContactToProto(peer),
		Key:            key[:],
		Value:          value,
	})
	if storeErr != nil {
		t.Fatalf("Store: %v", storeErr)
	}
	if response.Success {
		t.Fatal("an unsigned block record must be rejected")
	}
	if nodeCtx.Ledger.Chain.Height() != 1 {
		t.Fatal("a rejected block must not extend the chain")
	}
}

func TestStoreAcceptsSignedBlockRecords(t *testing.T) {
	nodeCtx := newTestNode(t, 5044)
	peer, peerIdentity := peerContact(t, 5045)

	genesis := nodeCtx.Ledger.Chain.BestTip()
	block := ledger.CreateBlock(genesis.Index+1, genesis.Hash, 1000, 0, nil)
	value, err := json.Marshal(&service.LedgerRecord{Kind: service.RecordKindBlock, Block: block})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	key, err := identity.KeyFromBytes(block.Hash)
	if err != nil {
		t.Fatalf("KeyFromBytes: %v", err)
	}
	message := append(append([]byte{}, key[:]...), value...)
	signature := peerIdentity.Sign(message)

	response, storeErr := nodeCtx.MessagesHandler.Store(context.Background(), &pb.StoreRequest{
		SenderNodeInfo: network.ContactToProto(peer),
		Key:            key[:],
		Value:          value,
		Signature:      signature,
	})
	if storeErr != nil {
		t.Fatalf("Store: %v", storeErr)
	}
	if !response.Success {
		t.Fatal("a signed block record must be accepted")
	}
	if nodeCtx.Ledger.Chain.Height() != 2 {
		t.Fatalf("expected the block to extend the chain, height=%d", nodeCtx.Ledger.Chain.Height())
	}
}

func TestShutdownIsRefusedWithoutLoopbackPeer(t *testing.T) {
	nodeCtx := newTestNode(t, 5050)
	_, err := nodeCtx.MessagesHandler.Shutdown(context.Background(), &pb.ShutdownRequest{})
	if status.Code(err) != codes.PermissionDenied {
		t.Fatalf("expected PermissionDenied, got %v", err)
	}
}
