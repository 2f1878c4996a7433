package network

import (
	"context"
	"sync"
	"time"

	pb "github.com/manelneto/ledger/kademliapb"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// consecutiveFailureLimit is the number of consecutive failed RPCs to
// the same contact after which it is removed from the routing table.
const consecutiveFailureLimit = 3

// CommunicationHandler is responsible for contacting other nodes when
// necessary. Every outgoing RPC carries this node's contact as the
// sender and runs under a per-RPC deadline. Consecutive failures per
// contact are counted; after three the contact is removed from the
// routing table.
type CommunicationHandler struct {
	mutex            sync.Mutex
	self             Contact
	rpcTimeout       time.Duration
	failures         map[NodeID]int
	contactNodeTable RoutingTable
	logger           *zap.Logger
}

// CreateCommunicationHandler creates a communication handler sending
// RPCs on behalf of the given node. The routing table is informed of
// confirmed contact failures.
func CreateCommunicationHandler(self Contact, rpcTimeout time.Duration, routingTable RoutingTable, logger *zap.Logger) *CommunicationHandler {
	return &CommunicationHandler{
		self:             self,
		rpcTimeout:       rpcTimeout,
		failures:         make(map[NodeID]int),
		contactNodeTable: routingTable,
		logger:           logger,
	}
}

// Self returns the contact the handler sends as the request sender.
func (comm *CommunicationHandler) Self() Contact {
	return comm.self
}

// Ping probes the target for liveness. It returns false both on a
// negative answer and on any transport failure.
func (comm *CommunicationHandler) Ping(ctx context.Context, target Contact) (bool, error) {
	conn, client, err := comm.getClientWithConnection(target.Address())
	if err != nil {
		comm.recordFailure(target)
		return false, err
	}
	defer conn.Close()
	rpcCtx, cancel := comm.contextWithTimeout(ctx)
	defer cancel()

	response, err := client.Ping(rpcCtx, &pb.PingRequest{SenderNodeInfo: ContactToProto(comm.self)})
	if err != nil {
		comm.recordFailure(target)
		return false, err
	}
	comm.recordSuccess(target)
	return response.Alive, nil
}

// Store asks the target to store a key-value pair. The signature is
// required when the value carries a ledger block and may be empty
// otherwise.
func (comm *CommunicationHandler) Store(ctx context.Context, target Contact, key NodeID, value []byte, signature []byte) (bool, error) {
	conn, client, err := comm.getClientWithConnection(target.Address())
	if err != nil {
		comm.recordFailure(target)
		return false, err
	}
	defer conn.Close()
	rpcCtx, cancel := comm.contextWithTimeout(ctx)
	defer cancel()

	response, err := client.Store(rpcCtx, &pb.StoreRequest{
		SenderNodeInfo: ContactToProto(comm.self),
		Key:            key[:],
		Value:          value,
		Signature:      signature,
	})
	if err != nil {
		comm.recordFailure(target)
		return false, err
	}
	comm.recordSuccess(target)
	return response.Success, nil
}

// FindNode asks the target for the contacts it knows closest to the
// given identifier.
func (comm *CommunicationHandler) FindNode(ctx context.Context, target Contact, targetID NodeID) ([]Contact, error) {
	conn, client, err := comm.getClientWithConnection(target.Address())
	if err != nil {
		comm.recordFailure(target)
		return nil, err
	}
	defer conn.Close()
	rpcCtx, cancel := comm.contextWithTimeout(ctx)
	defer cancel()

	response, err := client.FindNode(rpcCtx, &pb.FindNodeRequest{
		SenderNodeInfo: ContactToProto(comm.self),
		TargetId:       targetID[:],
	})
	if err != nil {
		comm.recordFailure(target)
		return nil, err
	}
	comm.recordSuccess(target)
	return ContactsFromProto(response.Closest), nil
}

// FindValue asks the target for the value stored under the key. When
// the target does not hold the value it answers with the closest
// contacts it knows instead.
func (comm *CommunicationHandler) FindValue(ctx context.Context, target Contact, key NodeID) ([]byte, []Contact, error) {
	conn, client, err := comm.getClientWithConnection(target.Address())
	if err != nil {
		comm.recordFailure(target)
		return nil, nil, err
	}
	defer conn.Close()
	rpcCtx, cancel := comm.contextWithTimeout(ctx)
	defer cancel()

	response, err := client.FindValue(rpcCtx, &pb.FindValueRequest{
		SenderNodeInfo: ContactToProto(comm.self),
		Key:            key[:],
	})
	if err != nil {
		comm.recordFailure(target)
		return nil, nil, err
	}
	comm.recordSuccess(target)
	return response.Value, ContactsFromProto(response.Closest), nil
}

// Join presents a proof-of-work to the target and asks for admission
// to the network. On acceptance the target returns the contacts
// closest to this node's ID.
func (comm *CommunicationHandler) Join(ctx context.Context, target Contact, nonce []byte, powHash []byte) (bool, []Contact, error) {
	conn, client, err := comm.getClientWithConnection(target.Address())
	if err != nil {
		comm.recordFailure(target)
		return false, nil, err
	}
	defer conn.Close()
	rpcCtx, cancel := comm.contextWithTimeout(ctx)
	defer cancel()

	response, err := client.Join(rpcCtx, &pb.JoinNetworkRequest{
		SenderNodeInfo: ContactToProto(comm.self),
		Nonce:          nonce,
		PowHash:        powHash,
	})
	if err != nil {
		comm.recordFailure(target)
		return false, nil, err
	}
	comm.recordSuccess(target)
	return response.Accepted, ContactsFromProto(response.Closest), nil
}

// Shutdown asks the target to stop gracefully. Only local peers honour
// the request.
func (comm *CommunicationHandler) Shutdown(ctx context.Context, target Contact) error {
	conn, client, err := comm.getClientWithConnection(target.Address())
	if err != nil {
		return err
	}
	defer conn.Close()
	rpcCtx, cancel := comm.contextWithTimeout(ctx)
	defer cancel()

	_, err = client.Shutdown(rpcCtx, &pb.ShutdownRequest{})
	return err
}

// getClientWithConnection returns the client connection and the GRPC
// client. If there is any error while contacting it is reported to the
// caller.
func (comm *CommunicationHandler) getClientWithConnection(address string) (*grpc.ClientConn, pb.KademliaProtocolClient, error) {
	grpcConn, err := grpc.Dial(address, grpc.WithInsecure())
	if err != nil {
		return nil, nil, err
	}
	return grpcConn, pb.NewKademliaProtocolClient(grpcConn), nil
}

func (comm *CommunicationHandler) contextWithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, comm.rpcTimeout)
}

// recordFailure counts a failed attempt against the contact. Three
// consecutive failures remove it from the routing table.
func (comm *CommunicationHandler) recordFailure(target Contact) {
	comm.mutex.Lock()
	comm.failures[target.ID]++
	reached := comm.failures[target.ID] >= consecutiveFailureLimit
	if reached {
		delete(comm.failures, target.ID)
	}
	comm.mutex.Unlock()

	if reached && comm.contactNodeTable != nil {
		if removeErr := comm.contactNodeTable.Remove(target.ID); removeErr != nil && removeErr != ErrorUnknownNode {
			comm.logger.Warn("Cannot remove unresponsive contact",
				zap.String("nodeID", target.ID.String()),
				zap.Error(removeErr))
		}
	}
}

func (comm *CommunicationHandler) recordSuccess(target Contact) {
	comm.mutex.Lock()
	defer comm.mutex.Unlock()
	delete(comm.failures, target.ID)
}
