package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/manelneto/ledger/identity"
	"github.com/manelneto/ledger/ledger"
	"github.com/manelneto/ledger/network"
	"go.uber.org/zap"
)

// Record kinds carried inside STORE values when the value is a ledger
// entity rather than an opaque client blob.
const (
	RecordKindBlock       = "block"
	RecordKindTransaction = "transaction"
)

// maxAncestorWalk bounds how many unknown predecessors a node fetches
// when a block arrives ahead of its history.
const maxAncestorWalk = 64

var (
	// ErrorUnsignedBlockRecord is raised when a STORE carrying a
	// ledger block has no valid sender signature over key and value.
	ErrorUnsignedBlockRecord = errors.New("STORE of a ledger block requires a valid signature")

	// ErrorRecordKeyMismatch is raised when a ledger record is stored
	// under a key that is not the entity hash of its contents. Blocks
	// live under their block hash and transactions under their ID, so
	// a prev-hash walk can find them.
	ErrorRecordKeyMismatch = errors.New("Ledger record key is not the entity hash")
)

// LedgerRecord is the envelope a block or transaction travels in when
// published into the DHT under its content hash.
type LedgerRecord struct {
	Kind        string              `json:"kind"`
	Block       *ledger.Block       `json:"block,omitempty"`
	Transaction *ledger.Transaction `json:"transaction,omitempty"`
}

// LedgerContext glues the ledger to the overlay: new blocks and
// transactions are published under their content hashes via store
// publication, incoming STOREs of ledger records feed the chain and
// the pool, and unknown block ancestry is fetched back with
// FIND_VALUE walks.
type LedgerContext struct {
	NodeCtx   *NodeContext
	Pool      *ledger.TransactionPool
	Chain     *ledger.Blockchain
	Snapshots *ledger.SnapshotStore
}

// CreateLedgerContext creates the ledger context, loading the chain
// snapshot when a snapshot store is given.
func CreateLedgerContext(nodeCtx *NodeContext, snapshots *ledger.SnapshotStore) *LedgerContext {
	pool := ledger.CreateTransactionPool()
	chain := ledger.CreateBlockchain(pool)
	ledgerCtx := &LedgerContext{
		NodeCtx:   nodeCtx,
		Pool:      pool,
		Chain:     chain,
		Snapshots: snapshots,
	}
	if snapshots != nil {
		if blocks, err := snapshots.Load(); err != nil {
			nodeCtx.Logger.Warn("Cannot load chain snapshot", zap.Error(err))
		} else if len(blocks) > 1 {
			if err := chain.Adopt(blocks); err != nil {
				nodeCtx.Logger.Warn("Snapshot chain rejected", zap.Error(err))
			}
		}
	}
	return ledgerCtx
}

// SubmitTransaction verifies and pools a transaction, then publishes
// it into the overlay under its content hash.
func (lc *LedgerContext) SubmitTransaction(ctx context.Context, tx *ledger.Transaction) error {
	if err := lc.Chain.SubmitTransaction(tx); err != nil {
		return err
	}
	return lc.publish(ctx, RecordKindTransaction, &LedgerRecord{Kind: RecordKindTransaction, Transaction: tx}, tx.ID)
}

// ForgeBlock packs pending transactions into the next block of the
// best chain, appends it, snapshots the chain and publishes the block.
func (lc *LedgerContext) ForgeBlock(ctx context.Context) (*ledger.Block, error) {
	block, err := lc.Chain.ForgeBlock(lc.NodeCtx.Config.MaxTransactionsPerBlock)
	if err != nil {
		return nil, err
	}
	lc.snapshot()
	if err := lc.publish(ctx, RecordKindBlock, &LedgerRecord{Kind: RecordKindBlock, Block: block}, block.Hash); err != nil {
		lc.NodeCtx.Logger.Warn("Block publication failed",
			zap.String("block", block.String()),
			zap.Error(err))
	}
	return block, nil
}

// publish stores a ledger record into the DHT under the left 160 bits
// of the entity hash. Block records are signed; signing is what lets
// replicas check provenance before feeding their own chains.
func (lc *LedgerContext) publish(ctx context.Context, kind string, record *LedgerRecord, entityHash []byte) error {
	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	key, err := identity.KeyFromBytes(entityHash)
	if err != nil {
		return err
	}
	var signature []byte
	if kind == RecordKindBlock {
		signature = lc.NodeCtx.Identity.Sign(signedStoreMessage(key, value))
	}
	return lc.NodeCtx.NodeDataContext.DataStorer.StoreKVPair(ctx, key, value, signature)
}

// Ingest inspects an incoming STORE value. When it decodes as a ledger
// record the chain or the pool absorbs it; opaque values are left to
// the plain data store. The boolean reports whether the value was a
// ledger record.
func (lc *LedgerContext) Ingest(sender network.Contact, key network.NodeID, value []byte, signature []byte) (bool, error) {
	var record LedgerRecord
	if err := json.Unmarshal(value, &record); err != nil {
		return false, nil
	}
	switch record.Kind {
	case RecordKindBlock:
		if record.Block == nil {
			return false, nil
		}
		block := record.Block
		if !bytes.Equal(block.Hash, block.ComputeHash()) || !keyMatchesEntityHash(key, block.Hash) {
			return true, ErrorRecordKeyMismatch
		}
		if !identity.Verify(sender.PublicKey, signedStoreMessage(key, value), signature) {
			return true, ErrorUnsignedBlockRecord
		}
		return true, lc.receiveBlock(block)
	case RecordKindTransaction:
		if record.Transaction == nil {
			return false, nil
		}
		if !keyMatchesEntityHash(key, record.Transaction.ID) {
			return true, ErrorRecordKeyMismatch
		}
		err := lc.Chain.SubmitTransaction(record.Transaction)
		if err == ledger.ErrorDuplicateTransaction {
			return true, nil
		}
		return true, err
	}
	return false, nil
}

// keyMatchesEntityHash checks that a record key is the left 160 bits
// of the entity hash.
func keyMatchesEntityHash(key network.NodeID, entityHash []byte) bool {
	derived, err := identity.KeyFromBytes(entityHash)
	if err != nil {
		return false
	}
	return derived.Equals(key)
}

// receiveBlock feeds a block to the chain. A block with unknown
// ancestry triggers an asynchronous walk back through FIND_VALUE on
// the missing previous hashes.
func (lc *LedgerContext) receiveBlock(block *ledger.Block) error {
	err := lc.Chain.ReceiveBlock(block)
	switch err {
	case nil:
		lc.snapshot()
		return nil
	case ledger.ErrorDuplicateBlock:
		return nil
	case ledger.ErrorUnknownPrevHash:
		go lc.fetchAncestorsAndRetry(block)
		return nil
	default:
		return err
	}
}

// fetchAncestorsAndRetry walks the chain backwards from the block's
// predecessor, retrieving each missing ancestor from the overlay, then
// replays the fetched blocks oldest first and retries the original
// block.
func (lc *LedgerContext) fetchAncestorsAndRetry(block *ledger.Block) {
	nodeCtx := lc.NodeCtx
	missing := block.PrevHash
	fetched := make([]*ledger.Block, 0)

	for walk := 0; walk < maxAncestorWalk; walk++ {
		if _, known := lc.Chain.BlockByHash(missing); known {
			break
		}
		key, err := identity.KeyFromBytes(missing)
		if err != nil {
			return
		}
		value, retrieveErr := nodeCtx.NodeDataContext.DataRetriever.RetrieveKVPair(context.Background(), key)
		if retrieveErr != nil {
			nodeCtx.Logger.Warn("Cannot retrieve missing ancestor block",
				zap.String("key", key.String()),
				zap.Error(retrieveErr))
			return
		}
		var record LedgerRecord
		if err := json.Unmarshal(value, &record); err != nil || record.Kind != RecordKindBlock || record.Block == nil {
			nodeCtx.Logger.Warn("Ancestor record is not a block", zap.String("key", key.String()))
			return
		}
		fetched = append(fetched, record.Block)
		missing = record.Block.PrevHash
	}

	for i := len(fetched) - 1; i >= 0; i-- {
		if err := lc.Chain.ReceiveBlock(fetched[i]); err != nil && err != ledger.ErrorDuplicateBlock {
			nodeCtx.Logger.Warn("Fetched ancestor rejected",
				zap.String("block", fetched[i].String()),
				zap.Error(err))
			return
		}
	}
	if err := lc.Chain.ReceiveBlock(block); err != nil && err != ledger.ErrorDuplicateBlock {
		nodeCtx.Logger.Warn("Block rejected after ancestor walk",
			zap.String("block", block.String()),
			zap.Error(err))
		return
	}
	lc.snapshot()
}

// snapshot persists the best chain when persistence is enabled.
func (lc *LedgerContext) snapshot() {
	if lc.Snapshots == nil {
		return
	}
	if err := lc.Snapshots.Save(lc.Chain.Blocks()); err != nil {
		lc.NodeCtx.Logger.Warn("Cannot save chain snapshot", zap.Error(err))
	}
}

// signedStoreMessage is the byte string a STORE signature covers.
func signedStoreMessage(key network.NodeID, value []byte) []byte {
	message := make([]byte, 0, len(key)+len(value))
	message = append(message, key[:]...)
	message = append(message, value...)
	return message
}
