package ledger

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrorInvalidTransactionID is raised when a transaction's ID is
	// not the hash of its sender, payload and timestamp.
	ErrorInvalidTransactionID = errors.New("Transaction ID does not match its contents")

	// ErrorBadTransactionSignature is raised when a transaction's
	// signature does not verify under its sender key.
	ErrorBadTransactionSignature = errors.New("Transaction signature is invalid")

	// ErrorBadSenderKey is raised when the sender public key does not
	// have the ed25519 length.
	ErrorBadSenderKey = errors.New("Transaction sender key must be 32 bytes (ed25519)")
)

// Transaction is one auction event on the ledger. The payload encoding
// is opaque to the ledger core; the auction layer gives it meaning.
// The ID is the SHA-256 digest of sender key, payload and timestamp,
// and the signature covers the ID under the sender key.
type Transaction struct {
	ID            []byte `json:"id"`
	FromPublicKey []byte `json:"from_public_key"`
	Payload       []byte `json:"payload"`
	Timestamp     int64  `json:"timestamp"`
	Signature     []byte `json:"signature"`
}

// ComputeTransactionID derives the content hash identifying a
// transaction: SHA-256 over sender key, payload and big-endian
// timestamp.
func ComputeTransactionID(fromPublicKey []byte, payload []byte, timestamp int64) []byte {
	contents := make([]byte, 0, len(fromPublicKey)+len(payload)+8)
	contents = append(contents, fromPublicKey...)
	contents = append(contents, payload...)
	timestampBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(timestampBytes, uint64(timestamp))
	contents = append(contents, timestampBytes...)
	digest := sha256.Sum256(contents)
	return digest[:]
}

// CreateSignedTransaction builds a transaction from the payload,
// stamps it with the current time and signs its ID with the given key
// pair.
func CreateSignedTransaction(privateKey ed25519.PrivateKey, publicKey ed25519.PublicKey, payload []byte) *Transaction {
	timestamp := time.Now().UnixMilli()
	id := ComputeTransactionID(publicKey, payload, timestamp)
	return &Transaction{
		ID:            id,
		FromPublicKey: publicKey,
		Payload:       payload,
		Timestamp:     timestamp,
		Signature:     ed25519.Sign(privateKey, id),
	}
}

// Verify checks that the transaction ID is derived from its contents
// and that the signature over the ID verifies under the sender key.
func (tx *Transaction) Verify() error {
	if len(tx.FromPublicKey) != ed25519.PublicKeySize {
		return ErrorBadSenderKey
	}
	if !bytes.Equal(tx.ID, ComputeTransactionID(tx.FromPublicKey, tx.Payload, tx.Timestamp)) {
		return ErrorInvalidTransactionID
	}
	if len(tx.Signature) != ed25519.SignatureSize ||
		!ed25519.Verify(ed25519.PublicKey(tx.FromPublicKey), tx.ID, tx.Signature) {
		return ErrorBadTransactionSignature
	}
	return nil
}

// String returns a short human-readable form for logs.
func (tx *Transaction) String() string {
	return fmt.Sprintf("Transaction[%s] from %s at %d",
		hex.EncodeToString(tx.ID), hex.EncodeToString(tx.FromPublicKey), tx.Timestamp)
}
