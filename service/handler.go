package service

import (
	"bytes"
	"context"
	"net"

	"github.com/manelneto/ledger/identity"
	pb "github.com/manelneto/ledger/kademliapb"
	"github.com/manelneto/ledger/network"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// KademliaMessagesHandler handles protocol and storage related
// incoming messages. It implements the server interface specified by
// the generated protobuf file. Every request that carries a
// well-formed, key-bound sender updates the routing table before being
// handled, except a JOIN whose proof-of-work fails; malformed or
// signature-invalid requests are dropped without a table update.
type KademliaMessagesHandler struct {
	nodeContext *NodeContext
	inflight    chan struct{}
}

// CreateKademliaMessagesHandler creates a new instance of the protocol
// message handler. The in-flight gate bounds concurrently handled
// requests; excess requests are rejected at the transport level rather
// than buffered.
func CreateKademliaMessagesHandler(nodeContext *NodeContext) *KademliaMessagesHandler {
	return &KademliaMessagesHandler{
		nodeContext: nodeContext,
		inflight:    make(chan struct{}, nodeContext.Config.MaxPendingRequests),
	}
}

// Ping from another node is a probe to test whether this node is
// alive. Answer that it is.
func (h *KademliaMessagesHandler) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	if !h.acquire() {
		return nil, errTooManyRequests
	}
	defer h.release()
	sender, err := h.sender(req.SenderNodeInfo)
	if err != nil {
		return nil, err
	}
	h.tryUpdateContactTableOrLogError(sender)
	return &pb.PingResponse{Alive: true}, nil
}

// Store asks this node to hold a key-value pair. The key must be the
// content hash of the value, except for ledger records, which are
// keyed by their entity hash. Values carrying ledger records
// additionally feed the chain or the transaction pool; block records
// must be signed by the sender.
func (h *KademliaMessagesHandler) Store(ctx context.Context, req *pb.StoreRequest) (*pb.StoreResponse, error) {
	if !h.acquire() {
		return nil, errTooManyRequests
	}
	defer h.release()
	sender, err := h.sender(req.SenderNodeInfo)
	if err != nil {
		return nil, err
	}
	key, err := network.NodeIDFromBytes(req.Key)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "key must be 160 bits (20 bytes)")
	}
	h.tryUpdateContactTableOrLogError(sender)

	// Ledger records live under their entity hash (block hash or
	// transaction ID), everything else under the content hash of the
	// value bytes. Either way the key is bound to the contents.
	isLedgerRecord, ingestErr := h.nodeContext.Ledger.Ingest(sender, key, req.Value, req.Signature)
	if isLedgerRecord && ingestErr != nil {
		h.nodeContext.Logger.Warn("Rejected ledger record",
			zap.String("key", key.String()),
			zap.String("sender", sender.ID.String()),
			zap.Error(ingestErr))
		return &pb.StoreResponse{Success: false}, nil
	}
	contentKey := ContentKey(req.Value)
	if !isLedgerRecord && !bytes.Equal(key[:], contentKey[:]) {
		h.nodeContext.Logger.Warn("Rejected STORE with non-content-hash key",
			zap.String("key", key.String()),
			zap.String("sender", sender.ID.String()))
		return &pb.StoreResponse{Success: false}, nil
	}

	h.nodeContext.NodeDataContext.Store.AddOrReplace(key, req.Value, req.Signature, sender.ID, false)
	return &pb.StoreResponse{Success: true}, nil
}

// FindNode returns up to k contacts closest to the requested ID,
// excluding the sender itself.
func (h *KademliaMessagesHandler) FindNode(ctx context.Context, req *pb.FindNodeRequest) (*pb.FindNodeResponse, error) {
	if !h.acquire() {
		return nil, errTooManyRequests
	}
	defer h.release()
	sender, err := h.sender(req.SenderNodeInfo)
	if err != nil {
		return nil, err
	}
	target, err := network.NodeIDFromBytes(req.TargetId)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "target ID must be 160 bits (20 bytes)")
	}
	h.tryUpdateContactTableOrLogError(sender)
	return &pb.FindNodeResponse{
		Closest: network.ContactsToProto(h.closestExcluding(target, sender.ID)),
	}, nil
}

// FindValue returns the value stored under the key when this node
// holds it, and the closest contacts it knows otherwise.
func (h *KademliaMessagesHandler) FindValue(ctx context.Context, req *pb.FindValueRequest) (*pb.FindValueResponse, error) {
	if !h.acquire() {
		return nil, errTooManyRequests
	}
	defer h.release()
	sender, err := h.sender(req.SenderNodeInfo)
	if err != nil {
		return nil, err
	}
	key, err := network.NodeIDFromBytes(req.Key)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "key must be 160 bits (20 bytes)")
	}
	h.tryUpdateContactTableOrLogError(sender)

	if value, getErr := h.nodeContext.NodeDataContext.Store.Get(key); getErr == nil {
		return &pb.FindValueResponse{Value: value}, nil
	}
	return &pb.FindValueResponse{
		Closest: network.ContactsToProto(h.closestExcluding(key, sender.ID)),
	}, nil
}

// Join admits a node presenting a valid proof-of-work over its public
// key. An invalid proof is answered with accepted=false and leaves the
// routing table untouched.
func (h *KademliaMessagesHandler) Join(ctx context.Context, req *pb.JoinNetworkRequest) (*pb.JoinNetworkResponse, error) {
	if !h.acquire() {
		return nil, errTooManyRequests
	}
	defer h.release()
	sender, err := h.sender(req.SenderNodeInfo)
	if err != nil {
		return nil, err
	}
	if !identity.VerifyPoW(sender.PublicKey, req.Nonce, req.PowHash, h.nodeContext.Config.Difficulty) {
		h.nodeContext.Logger.Warn("Rejected JOIN with invalid proof-of-work",
			zap.String("sender", sender.ID.String()))
		return &pb.JoinNetworkResponse{Accepted: false}, nil
	}
	h.tryUpdateContactTableOrLogError(sender)

	closest := h.closestExcluding(sender.ID, sender.ID)
	self := h.nodeContext.CurrentNodeInfo
	includesSelf := false
	for _, contact := range closest {
		if contact.ID.Equals(self.ID) {
			includesSelf = true
			break
		}
	}
	if !includesSelf {
		closest = append(closest, self)
	}
	return &pb.JoinNetworkResponse{
		Accepted: true,
		Closest:  network.ContactsToProto(closest),
	}, nil
}

// Shutdown initiates a graceful stop. Only requests arriving from the
// loopback interface are honoured.
func (h *KademliaMessagesHandler) Shutdown(ctx context.Context, req *pb.ShutdownRequest) (*pb.ShutdownResponse, error) {
	remote, ok := peer.FromContext(ctx)
	if !ok || !isLoopback(remote.Addr) {
		return nil, status.Error(codes.PermissionDenied, "shutdown is only honoured locally")
	}
	h.nodeContext.Logger.Info("Shutdown requested")
	h.nodeContext.Stop()
	return &pb.ShutdownResponse{}, nil
}

var errTooManyRequests = status.Error(codes.ResourceExhausted, "too many pending requests")

func (h *KademliaMessagesHandler) acquire() bool {
	select {
	case h.inflight <- struct{}{}:
		return true
	default:
		return false
	}
}

func (h *KademliaMessagesHandler) release() {
	<-h.inflight
}

// sender validates the request sender: well-formed contact, public key
// of the right length and an ID actually derived from that key.
// Requests failing these checks are dropped without a routing table
// update.
func (h *KademliaMessagesHandler) sender(nodeInfo *pb.NodeInfo) (network.Contact, error) {
	contact, err := network.ContactFromProto(nodeInfo)
	if err != nil {
		return network.Contact{}, status.Error(codes.InvalidArgument, "malformed sender")
	}
	if err := identity.VerifyContactID(contact); err != nil {
		return network.Contact{}, status.Error(codes.InvalidArgument, "sender ID is not bound to its public key")
	}
	return contact, nil
}

// closestExcluding returns up to k closest contacts to the target with
// the given ID filtered out.
func (h *KademliaMessagesHandler) closestExcluding(target network.NodeID, excluded network.NodeID) []network.Contact {
	k := h.nodeContext.Config.ReplicationFactor
	closest, err := h.nodeContext.ContactNodeTable.GetClosestNodes(target, k+1)
	if err != nil {
		h.nodeContext.Logger.Warn("Cannot get closest nodes", zap.Error(err))
		return []network.Contact{}
	}
	filtered := make([]network.Contact, 0, len(closest))
	for _, contact := range closest {
		if contact.ID.Equals(excluded) {
			continue
		}
		filtered = append(filtered, contact)
	}
	if len(filtered) > k {
		filtered = filtered[:k]
	}
	return filtered
}

// tryUpdateContactTableOrLogError tries to update the routing table
// with the sender's contact. Failures are logged, not fatal.
func (h *KademliaMessagesHandler) tryUpdateContactTableOrLogError(contact network.Contact) {
	if addErr := h.nodeContext.ContactNodeTable.Touch(contact); addErr != nil && addErr != network.ErrorSelfContact {
		h.nodeContext.Logger.Debug("Cannot record sender in the routing table",
			zap.String("nodeID", contact.ID.String()),
			zap.Error(addErr))
	}
}

func isLoopback(addr net.Addr) bool {
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return false
	}
	return tcpAddr.IP.IsLoopback()
}
