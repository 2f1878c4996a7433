package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/manelneto/ledger/config"
	"github.com/manelneto/ledger/identity"
	pb "github.com/manelneto/ledger/kademliapb"
	"github.com/manelneto/ledger/ledger"
	"github.com/manelneto/ledger/network"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

var (
	// ErrorCannotBindAddress is returned when the RPC listener cannot
	// be opened on the configured address.
	ErrorCannotBindAddress = errors.New("Cannot bind the RPC listen address")

	// ErrorCannotJoinNetwork is returned when admission to the network
	// through the bootstrap node fails after all attempts.
	ErrorCannotJoinNetwork = errors.New("Cannot join network")
)

// joinAttempts is how many times admission is retried with a freshly
// generated proof-of-work before giving up.
const joinAttempts = 3

// NodeContext provides access to various parts of the software stack
// of the node.
type NodeContext struct {
	// Config represents the network-wide configuration like
	// ReplicationFactor, ConcurrencyFactor, Difficulty etc.
	Config *config.Configuration

	// Identity is this node's key material; the node ID is derived
	// from its public key.
	Identity *identity.Identity

	// CurrentNodeInfo represents the contact info of the current node
	// as other peers see it.
	CurrentNodeInfo network.Contact

	// BucketTable is the raw k-bucket routing table data structure.
	BucketTable *network.BucketRoutingTable

	// ContactNodeTable is the routing table as the rest of the stack
	// uses it: the probing wrapper which checks liveness of bucket
	// heads before evicting them.
	ContactNodeTable network.RoutingTable

	// CommHandler sends messages to other nodes.
	CommHandler Communicator

	// MessagesHandler serves incoming protocol messages.
	MessagesHandler pb.KademliaProtocolServer

	// Locator runs iterative lookups for nodes and values.
	Locator *ClosestNodeLocator

	// Refresher keeps idle parts of the routing table fresh.
	Refresher *RoutingTableRefresher

	// Ledger glues the blockchain and transaction pool to the overlay.
	Ledger *LedgerContext

	// RESTConfig contains the configuration of the REST server for
	// the clients to contact.
	RESTConfig           *config.RESTServerConfiguration
	ClientRequestHandler RESTHandler

	// NodeDataContext is responsible for data related operations:
	// storage and retrieval, republishing and garbage collecting
	// stale data.
	*NodeDataContext

	Logger *zap.Logger

	grpcServer *grpc.Server
	done       chan struct{}
	stopOnce   sync.Once
}

// CreateNodeContext creates and initializes all the components
// required for a node to function. The snapshot store may be nil, in
// which case the chain is ephemeral.
func CreateNodeContext(
	netConfig *config.Configuration,
	nodeIdentity *identity.Identity,
	ipAddress string,
	port uint32,
	restConfig *config.RESTServerConfiguration,
	snapshots *ledger.SnapshotStore,
	logger *zap.Logger,
) (*NodeContext, error) {
	currentNodeInfo := network.Contact{
		ID:        nodeIdentity.ID,
		IPAddress: ipAddress,
		Port:      port,
		PublicKey: nodeIdentity.PublicKey,
	}
	nodeContext := &NodeContext{
		Config:          netConfig,
		Identity:        nodeIdentity,
		CurrentNodeInfo: currentNodeInfo,
		RESTConfig:      restConfig,
		Logger:          logger,
		done:            make(chan struct{}),
	}

	// The raw table plus the outbound communication handler; failures
	// confirmed by the handler remove contacts from the raw table.
	bucketTable := network.CreateBucketRoutingTable(nodeIdentity.ID, netConfig.ReplicationFactor)
	nodeContext.BucketTable = bucketTable
	commHandler := network.CreateCommunicationHandler(currentNodeInfo, netConfig.RPCTimeout, bucketTable, logger)
	nodeContext.CommHandler = commHandler

	// This is the smart routing table which adds liveness probe
	// capabilities before eviction.
	nodeContext.ContactNodeTable = CreateRoutingTableHandler(commHandler, bucketTable, netConfig.ProbeTimeout, logger)

	nodeContext.Locator = &ClosestNodeLocator{NodeCtx: nodeContext}
	nodeContext.Refresher = CreateRoutingTableRefresher(nodeContext)
	nodeContext.NodeDataContext = CreateNodeDataContext(nodeContext)
	nodeContext.Ledger = CreateLedgerContext(nodeContext, snapshots)
	nodeContext.MessagesHandler = CreateKademliaMessagesHandler(nodeContext)
	nodeContext.ClientRequestHandler = CreateKademliaRESTHandler(nodeContext)

	return nodeContext, nil
}

// StartNodeContext starts the RPC server and, unless the node is the
// bootstrap node, joins the network through the given bootstrap
// address with a proof-of-work, retrying with a fresh proof up to
// three times. The call blocks until the node is stopped.
func (ctx *NodeContext) StartNodeContext(isBootstrap bool, bootstrapAddress string) error {
	listenAddress := fmt.Sprintf("%s:%d", ctx.CurrentNodeInfo.IPAddress, ctx.CurrentNodeInfo.Port)
	listener, listenerErr := net.Listen("tcp", listenAddress)
	if listenerErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrorCannotBindAddress, listenAddress, listenerErr)
	}

	ctx.grpcServer = grpc.NewServer()
	pb.RegisterKademliaProtocolServer(ctx.grpcServer, ctx.MessagesHandler)
	reflection.Register(ctx.grpcServer)
	go func() {
		<-ctx.done
		ctx.grpcServer.GracefulStop()
	}()

	// Once the RPC listener is up, start the REST server and the
	// background maintenance tasks.
	ctx.startRESTServer()
	ctx.Refresher.Start(ctx.done)
	ctx.NodeDataContext.Start(ctx.done)

	if !isBootstrap {
		if joinErr := ctx.joinNetwork(bootstrapAddress); joinErr != nil {
			return joinErr
		}
	}

	ctx.Logger.Info("Starting RPC server",
		zap.String("address", listenAddress),
		zap.String("nodeID", ctx.CurrentNodeInfo.ID.String()))
	if serveErr := ctx.grpcServer.Serve(listener); serveErr != nil {
		return serveErr
	}
	return nil
}

// Stop initiates a graceful stop: the RPC server drains, background
// loops exit and StartNodeContext returns.
func (ctx *NodeContext) Stop() {
	ctx.stopOnce.Do(func() { close(ctx.done) })
}

// Done exposes the stop signal to collaborators.
func (ctx *NodeContext) Done() <-chan struct{} {
	return ctx.done
}

// joinNetwork asks the bootstrap node for admission, presenting a
// proof-of-work over this node's public key. On acceptance, every
// returned contact is probed and the live ones populate the routing
// table.
func (ctx *NodeContext) joinNetwork(bootstrapAddress string) error {
	host, portString, splitErr := net.SplitHostPort(bootstrapAddress)
	if splitErr != nil {
		return fmt.Errorf("%w: bad bootstrap address %q", ErrorCannotJoinNetwork, bootstrapAddress)
	}
	var bootstrapPort uint32
	if _, scanErr := fmt.Sscanf(portString, "%d", &bootstrapPort); scanErr != nil {
		return fmt.Errorf("%w: bad bootstrap address %q", ErrorCannotJoinNetwork, bootstrapAddress)
	}
	// The bootstrap contact starts out with an unknown ID; its real
	// contact arrives in the join response like any other peer's.
	bootstrapContact := network.Contact{IPAddress: host, Port: bootstrapPort}

	for attempt := 1; attempt <= joinAttempts; attempt++ {
		nonce, powHash := identity.GeneratePoW(ctx.Identity.PublicKey, ctx.Config.Difficulty)
		joinCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.LookupTimeout)
		accepted, closestNodes, joinErr := ctx.CommHandler.Join(joinCtx, bootstrapContact, nonce, powHash)
		cancel()
		if joinErr != nil {
			ctx.Logger.Warn("Join attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(joinErr))
			continue
		}
		if !accepted {
			ctx.Logger.Warn("Join rejected, retrying with a fresh proof-of-work",
				zap.Int("attempt", attempt))
			continue
		}
		ctx.populateTableFromJoin(closestNodes)
		ctx.Logger.Info("Joined the network",
			zap.String("bootstrap", bootstrapAddress),
			zap.Int("contacts", len(closestNodes)))
		return nil
	}
	return ErrorCannotJoinNetwork
}

// populateTableFromJoin pings the contacts returned by the bootstrap
// node in parallel and records the ones that answer.
func (ctx *NodeContext) populateTableFromJoin(contacts []network.Contact) {
	var waitGroup sync.WaitGroup
	for _, contact := range contacts {
		if contact.ID.Equals(ctx.CurrentNodeInfo.ID) {
			continue
		}
		waitGroup.Add(1)
		go func(contact network.Contact) {
			defer waitGroup.Done()
			pingCtx, cancel := context.WithTimeout(context.Background(), ctx.Config.RPCTimeout)
			defer cancel()
			if alive, _ := ctx.CommHandler.Ping(pingCtx, contact); alive {
				if touchErr := ctx.ContactNodeTable.Touch(contact); touchErr != nil {
					ctx.Logger.Debug("Cannot record joined contact",
						zap.String("nodeID", contact.ID.String()),
						zap.Error(touchErr))
				}
			}
		}(contact)
	}
	waitGroup.Wait()
}

// startRESTServer starts the REST server at the configured port on
// this node's address. RPC and REST ports must differ.
func (ctx *NodeContext) startRESTServer() {
	chiRouter := ctx.getChiRouter()
	restServerListenAddress := fmt.Sprintf("%s:%d", ctx.CurrentNodeInfo.IPAddress, ctx.RESTConfig.RESTPort)
	httpListener, httpListenerErr := net.Listen("tcp", restServerListenAddress)
	if httpListenerErr != nil {
		ctx.Logger.Error("Cannot start REST server",
			zap.String("address", restServerListenAddress),
			zap.Error(httpListenerErr))
		return
	}

	ctx.Logger.Info("Starting REST server", zap.String("address", restServerListenAddress))
	go func() {
		if httpServeErr := http.Serve(httpListener, chiRouter); httpServeErr != nil {
			ctx.Logger.Error("REST server stopped", zap.Error(httpServeErr))
		}
	}()
	go func() {
		<-ctx.done
		httpListener.Close()
	}()
}

// getChiRouter sets up routes and handlers for the REST server and
// returns the handle to the multiplexer.
func (ctx *NodeContext) getChiRouter() *chi.Mux {
	chiRouter := chi.NewRouter()
	chiRouter.Use(
		render.SetContentType(render.ContentTypeJSON),
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	chiRouter.Get("/data/{key}", ctx.ClientRequestHandler.GetData)
	chiRouter.Post("/data", ctx.ClientRequestHandler.PutData)
	chiRouter.Post("/transactions", ctx.ClientRequestHandler.SubmitTransaction)
	chiRouter.Get("/chain", ctx.ClientRequestHandler.GetChainInfo)
	chiRouter.Get("/chain/blocks/{hash}", ctx.ClientRequestHandler.GetBlock)
	chiRouter.Post("/chain/forge", ctx.ClientRequestHandler.ForgeBlock)
	return chiRouter
}
