package ledger

import (
	"bytes"
	"crypto/sha256"
	"errors"
)

// HashLength is the length of every entity hash in the ledger.
const HashLength = sha256.Size

var (
	// ErrorProofIndexOutOfRange is raised when asking for an inclusion
	// proof of a leaf index the tree does not have.
	ErrorProofIndexOutOfRange = errors.New("Merkle leaf index out of range")
)

// MerkleProof is an inclusion proof: the leaf index and the sibling
// hashes from the leaf up to the root.
type MerkleProof struct {
	Index    int      `json:"index"`
	Siblings [][]byte `json:"siblings"`
}

// MerkleRoot reduces an ordered list of leaf hashes to a single root
// by pairwise SHA-256, duplicating the last node whenever a layer has
// an odd count. The root of an empty list is all zero bits.
func MerkleRoot(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		root := make([]byte, HashLength)
		return root
	}
	layer := make([][]byte, len(leaves))
	copy(layer, leaves)
	for len(layer) > 1 {
		layer = nextLayer(layer)
	}
	return layer[0]
}

// TransactionsMerkleRoot is MerkleRoot over the transaction IDs of a
// block, in block order.
func TransactionsMerkleRoot(transactions []*Transaction) []byte {
	leaves := make([][]byte, len(transactions))
	for i, tx := range transactions {
		leaves[i] = tx.ID
	}
	return MerkleRoot(leaves)
}

// BuildMerkleProof returns the inclusion proof for the leaf at the
// given index.
func BuildMerkleProof(leaves [][]byte, index int) (*MerkleProof, error) {
	if index < 0 || index >= len(leaves) {
		return nil, ErrorProofIndexOutOfRange
	}
	proof := &MerkleProof{Index: index}
	layer := make([][]byte, len(leaves))
	copy(layer, leaves)
	position := index
	for len(layer) > 1 {
		siblingPosition := position ^ 1
		if siblingPosition >= len(layer) {
			// Odd layer: the last node is paired with itself.
			siblingPosition = position
		}
		proof.Siblings = append(proof.Siblings, layer[siblingPosition])
		position /= 2
		layer = nextLayer(layer)
	}
	return proof, nil
}

// VerifyMerkleProof folds the sibling path over the leaf and compares
// the result against the root. The side of each sibling follows from
// the leaf index bits.
func VerifyMerkleProof(root []byte, leaf []byte, proof *MerkleProof) bool {
	if proof == nil {
		return false
	}
	current := leaf
	position := proof.Index
	for _, sibling := range proof.Siblings {
		if position%2 == 1 {
			current = hashPair(sibling, current)
		} else {
			current = hashPair(current, sibling)
		}
		position /= 2
	}
	return bytes.Equal(current, root)
}

func nextLayer(layer [][]byte) [][]byte {
	if len(layer)%2 == 1 {
		layer = append(layer, layer[len(layer)-1])
	}
	parents := make([][]byte, 0, len(layer)/2)
	for i := 0; i < len(layer); i += 2 {
		parents = append(parents, hashPair(layer[i], layer[i+1]))
	}
	return parents
}

func hashPair(left []byte, right []byte) []byte {
	hasher := sha256.New()
	hasher.Write(left)
	hasher.Write(right)
	return hasher.Sum(nil)
}
