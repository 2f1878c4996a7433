package ledger

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
	"sync"
	"time"
)

// maxForkDepth bounds how far behind the best tip a side branch may
// fork off and still be tracked.
const maxForkDepth = 6

var (
	// ErrorBadBlockIndex is raised when a block's index is not one more
	// than its predecessor's.
	ErrorBadBlockIndex = errors.New("Block has invalid index")

	// ErrorBadPrevHash is raised when a block's previous hash is not
	// the hash of its predecessor.
	ErrorBadPrevHash = errors.New("Block has invalid previous hash")

	// ErrorBadBlockHash is raised when a block's hash is not the hash
	// of its own header fields.
	ErrorBadBlockHash = errors.New("Block hash does not match its contents")

	// ErrorBadMerkleRoot is raised when a block's Merkle root is not
	// the root computed over its transactions.
	ErrorBadMerkleRoot = errors.New("Block Merkle root does not match its transactions")

	// ErrorDuplicateTransactionInBlock is raised when two transactions
	// in the same block share an ID.
	ErrorDuplicateTransactionInBlock = errors.New("Duplicate transaction in block")

	// ErrorNonMonotonicTimestamp is raised when a block's timestamp is
	// not strictly greater than its predecessor's.
	ErrorNonMonotonicTimestamp = errors.New("Block timestamp is not after its predecessor's")

	// ErrorUnknownPrevHash is raised when a block extends neither the
	// best chain nor any known side branch. The caller is expected to
	// fetch the missing ancestors and retry.
	ErrorUnknownPrevHash = errors.New("Block extends an unknown previous hash")

	// ErrorDuplicateBlock is raised when a block is received again.
	ErrorDuplicateBlock = errors.New("Block is already known")

	// ErrorForkTooDeep is raised when a side branch forks off further
	// behind the tip than the tracked depth.
	ErrorForkTooDeep = errors.New("Fork depth exceeded")
)

// Blockchain is the ordered sequence of blocks plus the side branches
// kept for fork handling. The best chain is the longest valid chain;
// on equal length the chain with the lower cumulative block-hash wins.
// Blocks are appended only, never mutated.
type Blockchain struct {
	mutex        sync.RWMutex
	blocks       []*Block
	blocksByHash map[string]*Block
	branches     map[string][]*Block
	confirmed    map[string]uint64
	pool         *TransactionPool
}

// CreateBlockchain creates a chain holding only the genesis block,
// pruning and restoring the given pool as blocks confirm and reorgs
// abandon transactions.
func CreateBlockchain(pool *TransactionPool) *Blockchain {
	genesis := CreateGenesisBlock()
	chain := &Blockchain{
		blocks:       []*Block{genesis},
		blocksByHash: map[string]*Block{hex.EncodeToString(genesis.Hash): genesis},
		branches:     make(map[string][]*Block),
		confirmed:    make(map[string]uint64),
		pool:         pool,
	}
	return chain
}

// BestTip returns the last block of the best chain.
func (chain *Blockchain) BestTip() *Block {
	chain.mutex.RLock()
	defer chain.mutex.RUnlock()
	return chain.blocks[len(chain.blocks)-1]
}

// Height returns the number of blocks on the best chain.
func (chain *Blockchain) Height() int {
	chain.mutex.RLock()
	defer chain.mutex.RUnlock()
	return len(chain.blocks)
}

// Blocks returns a snapshot of the best chain, genesis first.
func (chain *Blockchain) Blocks() []*Block {
	chain.mutex.RLock()
	defer chain.mutex.RUnlock()
	snapshot := make([]*Block, len(chain.blocks))
	copy(snapshot, chain.blocks)
	return snapshot
}

// BlockByHash returns any known block with the given hash, on the best
// chain or on a side branch.
func (chain *Blockchain) BlockByHash(hash []byte) (*Block, bool) {
	chain.mutex.RLock()
	defer chain.mutex.RUnlock()
	block, present := chain.blocksByHash[hex.EncodeToString(hash)]
	return block, present
}

// IsConfirmed reports whether a transaction with the given ID is
// included in a block of the best chain.
func (chain *Blockchain) IsConfirmed(transactionID []byte) bool {
	chain.mutex.RLock()
	defer chain.mutex.RUnlock()
	_, present := chain.confirmed[hex.EncodeToString(transactionID)]
	return present
}

// SubmitTransaction verifies the transaction, rejects duplicates
// (already pending or already confirmed on the best chain) and inserts
// it into the pool.
func (chain *Blockchain) SubmitTransaction(tx *Transaction) error {
	if err := tx.Verify(); err != nil {
		return err
	}
	if chain.IsConfirmed(tx.ID) {
		return ErrorDuplicateTransaction
	}
	return chain.pool.Add(tx)
}

// ReceiveBlock accepts a block that extends the best tip or a known
// side branch. A side branch growing past the best chain triggers a
// reorg. A block whose predecessor is unknown fails with
// ErrorUnknownPrevHash so the caller can walk the chain back.
func (chain *Blockchain) ReceiveBlock(block *Block) error {
	chain.mutex.Lock()
	defer chain.mutex.Unlock()

	if _, known := chain.blocksByHash[hex.EncodeToString(block.Hash)]; known {
		return ErrorDuplicateBlock
	}

	tip := chain.blocks[len(chain.blocks)-1]
	if bytes.Equal(block.PrevHash, tip.Hash) {
		if err := validateSuccessor(tip, block); err != nil {
			return err
		}
		chain.blocks = append(chain.blocks, block)
		chain.blocksByHash[hex.EncodeToString(block.Hash)] = block
		chain.confirm(block)
		chain.pool.ProcessBlock(block.Transactions)
		return nil
	}

	parent, known := chain.blocksByHash[hex.EncodeToString(block.PrevHash)]
	if !known {
		return ErrorUnknownPrevHash
	}
	prefix, err := chain.chainThrough(parent)
	if err != nil {
		return err
	}
	if err := validateSuccessor(parent, block); err != nil {
		return err
	}

	candidate := make([]*Block, len(prefix), len(prefix)+1)
	copy(candidate, prefix)
	candidate = append(candidate, block)
	chain.blocksByHash[hex.EncodeToString(block.Hash)] = block

	// The candidate replaces any tracked branch it extends.
	delete(chain.branches, hex.EncodeToString(block.PrevHash))
	chain.branches[hex.EncodeToString(block.Hash)] = candidate

	chain.maybeReorg(candidate)
	return nil
}

// chainThrough returns the full chain from genesis up to and including
// the given block, looking on the best chain first and then on the
// side branches.
func (chain *Blockchain) chainThrough(parent *Block) ([]*Block, error) {
	if int(parent.Index) < len(chain.blocks) && chain.blocks[parent.Index] == parent {
		if len(chain.blocks)-1-int(parent.Index) > maxForkDepth {
			return nil, ErrorForkTooDeep
		}
		return chain.blocks[:parent.Index+1], nil
	}
	for _, branch := range chain.branches {
		if int(parent.Index) < len(branch) && branch[parent.Index] == parent {
			return branch[:parent.Index+1], nil
		}
	}
	return nil, ErrorUnknownPrevHash
}

// maybeReorg switches the best chain to the candidate when it is
// strictly longer, or equally long with a lower cumulative block-hash.
// Transactions unique to the abandoned blocks go back to the pool and
// transactions in the adopted blocks leave it.
func (chain *Blockchain) maybeReorg(candidate []*Block) {
	if len(candidate) < len(chain.blocks) {
		return
	}
	if len(candidate) == len(chain.blocks) &&
		cumulativeHash(candidate).Cmp(cumulativeHash(chain.blocks)) >= 0 {
		return
	}

	forkPoint := commonPrefixLength(chain.blocks, candidate)
	abandoned := chain.blocks[forkPoint:]
	adopted := candidate[forkPoint:]

	for _, block := range abandoned {
		for _, tx := range block.Transactions {
			delete(chain.confirmed, hex.EncodeToString(tx.ID))
		}
		chain.pool.Restore(block.Transactions)
	}

	oldTip := chain.blocks[len(chain.blocks)-1]
	chain.branches[hex.EncodeToString(oldTip.Hash)] = chain.blocks
	delete(chain.branches, hex.EncodeToString(candidate[len(candidate)-1].Hash))
	chain.blocks = candidate

	for _, block := range adopted {
		chain.confirm(block)
		chain.pool.ProcessBlock(block.Transactions)
	}
}

// confirm assumes the mutex is held.
func (chain *Blockchain) confirm(block *Block) {
	for _, tx := range block.Transactions {
		chain.confirmed[hex.EncodeToString(tx.ID)] = block.Index
	}
}

// validateSuccessor checks every predicate a block must satisfy to
// extend the given predecessor.
func validateSuccessor(prev *Block, block *Block) error {
	if block.Index != prev.Index+1 {
		return ErrorBadBlockIndex
	}
	if !bytes.Equal(block.PrevHash, prev.Hash) {
		return ErrorBadPrevHash
	}
	if !bytes.Equal(block.Hash, block.ComputeHash()) {
		return ErrorBadBlockHash
	}
	if !bytes.Equal(block.MerkleRoot, TransactionsMerkleRoot(block.Transactions)) {
		return ErrorBadMerkleRoot
	}
	if block.Timestamp <= prev.Timestamp {
		return ErrorNonMonotonicTimestamp
	}
	seen := make(map[string]bool, len(block.Transactions))
	for _, tx := range block.Transactions {
		key := hex.EncodeToString(tx.ID)
		if seen[key] {
			return ErrorDuplicateTransactionInBlock
		}
		seen[key] = true
		if err := tx.Verify(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateChain checks an entire chain from genesis, predicate by
// predicate. Used when adopting a snapshot or syncing from a peer.
func ValidateChain(blocks []*Block) error {
	if len(blocks) == 0 {
		return ErrorBadBlockIndex
	}
	genesis := blocks[0]
	if genesis.Index != 0 || !bytes.Equal(genesis.PrevHash, make([]byte, HashLength)) {
		return ErrorBadPrevHash
	}
	if !bytes.Equal(genesis.Hash, genesis.ComputeHash()) {
		return ErrorBadBlockHash
	}
	for i := 1; i < len(blocks); i++ {
		if err := validateSuccessor(blocks[i-1], blocks[i]); err != nil {
			return err
		}
	}
	return nil
}

// ForgeBlock builds the next block of the best chain from up to
// maxTransactions pending transactions, appends it and prunes the
// pool. The timestamp is the current time, nudged forward when the
// clock has not advanced past the tip.
func (chain *Blockchain) ForgeBlock(maxTransactions int) (*Block, error) {
	transactions := chain.pool.Take(maxTransactions)

	chain.mutex.Lock()
	tip := chain.blocks[len(chain.blocks)-1]
	timestamp := time.Now().UnixMilli()
	if timestamp <= tip.Timestamp {
		timestamp = tip.Timestamp + 1
	}
	block := CreateBlock(tip.Index+1, tip.Hash, timestamp, 0, transactions)
	chain.mutex.Unlock()

	if err := chain.ReceiveBlock(block); err != nil {
		return nil, err
	}
	return block, nil
}

// Adopt replaces the current chain with a longer validated one. Used
// when loading a snapshot or on initial sync. Pool contents confirmed
// by the adopted chain are pruned.
func (chain *Blockchain) Adopt(blocks []*Block) error {
	if err := ValidateChain(blocks); err != nil {
		return err
	}
	chain.mutex.Lock()
	defer chain.mutex.Unlock()
	if len(blocks) <= len(chain.blocks) {
		return ErrorBadBlockIndex
	}
	chain.blocks = blocks
	chain.blocksByHash = make(map[string]*Block, len(blocks))
	chain.branches = make(map[string][]*Block)
	chain.confirmed = make(map[string]uint64)
	for _, block := range blocks {
		chain.blocksByHash[hex.EncodeToString(block.Hash)] = block
		chain.confirm(block)
		chain.pool.ProcessBlock(block.Transactions)
	}
	return nil
}

// cumulativeHash sums the block hashes of a chain as unsigned
// integers. Lower totals win length ties.
func cumulativeHash(blocks []*Block) *big.Int {
	total := new(big.Int)
	for _, block := range blocks {
		total.Add(total, new(big.Int).SetBytes(block.Hash))
	}
	return total
}

func commonPrefixLength(a []*Block, b []*Block) int {
	limit := len(a)
	if len(b) < limit {
		limit = len(b)
	}
	for i := 0; i < limit; i++ {
		if !bytes.Equal(a[i].Hash, b[i].Hash) {
			return i
		}
	}
	return limit
}
