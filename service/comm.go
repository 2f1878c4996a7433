package service

import (
	"context"

	"github.com/manelneto/ledger/network"
)

// Communicator is the outbound RPC surface the service layer depends
// on. The production implementation is network.CommunicationHandler;
// tests substitute in-memory fakes.
type Communicator interface {
	Ping(ctx context.Context, target network.Contact) (bool, error)
	Store(ctx context.Context, target network.Contact, key network.NodeID, value []byte, signature []byte) (bool, error)
	FindNode(ctx context.Context, target network.Contact, targetID network.NodeID) ([]network.Contact, error)
	FindValue(ctx context.Context, target network.Contact, key network.NodeID) ([]byte, []network.Contact, error)
	Join(ctx context.Context, target network.Contact, nonce []byte, powHash []byte) (bool, []network.Contact, error)
	Shutdown(ctx context.Context, target network.Contact) error
}
