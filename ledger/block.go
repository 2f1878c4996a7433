package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Block is one append-only unit of the ledger. The hash covers index,
// previous hash, timestamp, Merkle root and nonce; the transactions
// are anchored through the Merkle root.
type Block struct {
	Index        uint64         `json:"index"`
	PrevHash     []byte         `json:"prev_hash"`
	Timestamp    int64          `json:"timestamp"`
	MerkleRoot   []byte         `json:"merkle_root"`
	Nonce        uint64         `json:"nonce"`
	Transactions []*Transaction `json:"transactions"`
	Hash         []byte         `json:"hash"`
}

// CreateBlock builds a block over the given transactions, computing
// the Merkle root and the block hash.
func CreateBlock(index uint64, prevHash []byte, timestamp int64, nonce uint64, transactions []*Transaction) *Block {
	block := &Block{
		Index:        index,
		PrevHash:     prevHash,
		Timestamp:    timestamp,
		MerkleRoot:   TransactionsMerkleRoot(transactions),
		Nonce:        nonce,
		Transactions: transactions,
	}
	block.Hash = block.ComputeHash()
	return block
}

// CreateGenesisBlock builds the fixed first block every node agrees
// on: index 0, an all-zero previous hash, timestamp 0 and no
// transactions.
func CreateGenesisBlock() *Block {
	return CreateBlock(0, make([]byte, HashLength), 0, 0, nil)
}

// ComputeHash returns the SHA-256 digest over the block header fields:
// index, previous hash, timestamp, Merkle root and nonce.
func (b *Block) ComputeHash() []byte {
	hasher := sha256.New()
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, b.Index)
	hasher.Write(buffer)
	hasher.Write(b.PrevHash)
	binary.BigEndian.PutUint64(buffer, uint64(b.Timestamp))
	hasher.Write(buffer)
	hasher.Write(b.MerkleRoot)
	binary.BigEndian.PutUint64(buffer, b.Nonce)
	hasher.Write(buffer)
	return hasher.Sum(nil)
}

// InclusionProof returns the Merkle inclusion proof of the transaction
// with the given ID, or nil when the block does not contain it.
func (b *Block) InclusionProof(transactionID []byte) *MerkleProof {
	leaves := make([][]byte, len(b.Transactions))
	index := -1
	for i, tx := range b.Transactions {
		leaves[i] = tx.ID
		if index < 0 && hex.EncodeToString(tx.ID) == hex.EncodeToString(transactionID) {
			index = i
		}
	}
	if index < 0 {
		return nil
	}
	proof, err := BuildMerkleProof(leaves, index)
	if err != nil {
		return nil
	}
	return proof
}

// String returns a short human-readable form for logs.
func (b *Block) String() string {
	return fmt.Sprintf("Block[%d]: %s at %d with %d transaction(s)",
		b.Index, hex.EncodeToString(b.Hash), b.Timestamp, len(b.Transactions))
}
