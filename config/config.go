package config

import "time"

// Configuration represents the protocol parameters common to all the
// nodes in the given network.
//
// Replication factor: the bucket capacity and the number of nearest
// nodes returned by lookups and closest-node queries (k).
//
// Concurrency factor: the number of parallel requests in flight during
// an iterative lookup (alpha).
//
// Difficulty: the number of leading zero bits a join proof-of-work
// hash must have.
type Configuration struct {
	ReplicationFactor int
	ConcurrencyFactor int
	Difficulty        int

	// Per-RPC deadline for outgoing requests.
	RPCTimeout time.Duration

	// Deadline for the liveness probe of a bucket head before eviction.
	ProbeTimeout time.Duration

	// Total deadline for one iterative lookup.
	LookupTimeout time.Duration

	// Records originated locally are re-stored this often.
	RepublishInterval time.Duration

	// Records not republished within this window are purged.
	ExpireInterval time.Duration

	// Buckets not targeted by a lookup within this window are
	// refreshed against a random in-range ID.
	RefreshInterval time.Duration

	// Inbound requests beyond this many in flight are rejected at the
	// transport level.
	MaxPendingRequests int

	// Upper bound on transactions packed into one forged block.
	MaxTransactionsPerBlock int
}

// DefaultConfiguration returns the protocol defaults.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		ReplicationFactor:       20,
		ConcurrencyFactor:       3,
		Difficulty:              20,
		RPCTimeout:              2 * time.Second,
		ProbeTimeout:            1 * time.Second,
		LookupTimeout:           15 * time.Second,
		RepublishInterval:       1 * time.Hour,
		ExpireInterval:          24 * time.Hour,
		RefreshInterval:         1 * time.Hour,
		MaxPendingRequests:      256,
		MaxTransactionsPerBlock: 128,
	}
}

// RESTServerConfiguration contains the configuration of the REST
// server for the clients to contact.
type RESTServerConfiguration struct {
	RESTPort uint32
}
