package identity

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/manelneto/ledger/network"
)

// DefaultDifficulty is the number of leading zero bits required of a
// join proof-of-work hash.
const DefaultDifficulty = 20

var (
	// ErrorBadPublicKey is raised when a public key does not have the
	// ed25519 length and cannot back a node identity.
	ErrorBadPublicKey = errors.New("Public key must be 32 bytes (ed25519)")

	// ErrorIDMismatch is raised when a contact's ID is not the one
	// derived from its public key.
	ErrorIDMismatch = errors.New("Node ID does not match the public key")
)

// Identity is the long-lived key material of a node: the signing key
// pair and the 160-bit node ID derived from the public key. Binding
// the ID to the key means an ID cannot be claimed without holding the
// corresponding private key.
type Identity struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
	ID         network.NodeID
}

// GenerateIdentity creates a fresh key pair and the node ID derived
// from it.
func GenerateIdentity() (*Identity, error) {
	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, err
	}
	return &Identity{
		PrivateKey: privateKey,
		PublicKey:  publicKey,
		ID:         NodeIDFromPublicKey(publicKey),
	}, nil
}

// NodeIDFromPublicKey derives the node ID: the left 160 bits of the
// SHA-256 digest of the public key.
func NodeIDFromPublicKey(publicKey []byte) network.NodeID {
	digest := sha256.Sum256(publicKey)
	var id network.NodeID
	copy(id[:], digest[:network.IDLength])
	return id
}

// VerifyContactID checks the binding between a contact's ID and its
// public key.
func VerifyContactID(contact network.Contact) error {
	if len(contact.PublicKey) != ed25519.PublicKeySize {
		return ErrorBadPublicKey
	}
	if !NodeIDFromPublicKey(contact.PublicKey).Equals(contact.ID) {
		return ErrorIDMismatch
	}
	return nil
}

// Sign signs the message with the identity's private key.
func (identity *Identity) Sign(message []byte) []byte {
	return ed25519.Sign(identity.PrivateKey, message)
}

// Verify checks a signature over the message under the given public key.
func Verify(publicKey []byte, message []byte, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature)
}

// HashBytes is the entity hash used throughout the ledger and the
// overlay: SHA-256.
func HashBytes(data []byte) []byte {
	digest := sha256.Sum256(data)
	return digest[:]
}

// KeyFromBytes truncates a 256-bit content hash to a 160-bit store key.
func KeyFromBytes(digest []byte) (network.NodeID, error) {
	if len(digest) < network.IDLength {
		return network.NodeID{}, network.ErrorInvalidIDLength
	}
	var key network.NodeID
	copy(key[:], digest[:network.IDLength])
	return key, nil
}

// storedKeyData is the on-disk form of a key pair.
type storedKeyData struct {
	PublicKey  []byte `json:"public_key"`
	PrivateKey []byte `json:"private_key"`
}

// LoadOrCreateIdentity loads the key pair previously saved for the
// given listen address, or generates and saves a fresh one. Keeping the
// key file keeps the node ID stable across restarts.
func LoadOrCreateIdentity(directory string, ipAddress string, port uint32) (*Identity, error) {
	keyFilePath := filepath.Join(directory, fmt.Sprintf("%s_%d.json", ipAddress, port))
	if loaded, err := loadIdentityFromFile(keyFilePath); err == nil {
		return loaded, nil
	}
	generated, err := GenerateIdentity()
	if err != nil {
		return nil, err
	}
	if err := saveIdentityToFile(keyFilePath, generated); err != nil {
		return nil, err
	}
	return generated, nil
}

func loadIdentityFromFile(keyFilePath string) (*Identity, error) {
	contents, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	var stored storedKeyData
	if err := json.Unmarshal(contents, &stored); err != nil {
		return nil, err
	}
	if len(stored.PublicKey) != ed25519.PublicKeySize || len(stored.PrivateKey) != ed25519.PrivateKeySize {
		return nil, ErrorBadPublicKey
	}
	return &Identity{
		PrivateKey: ed25519.PrivateKey(stored.PrivateKey),
		PublicKey:  ed25519.PublicKey(stored.PublicKey),
		ID:         NodeIDFromPublicKey(stored.PublicKey),
	}, nil
}

// saveIdentityToFile writes the key pair atomically: a temp file in the
// same directory followed by a rename.
func saveIdentityToFile(keyFilePath string, identity *Identity) error {
	if err := os.MkdirAll(filepath.Dir(keyFilePath), 0700); err != nil {
		return err
	}
	contents, err := json.Marshal(storedKeyData{
		PublicKey:  identity.PublicKey,
		PrivateKey: identity.PrivateKey,
	})
	if err != nil {
		return err
	}
	tempFilePath := keyFilePath + ".tmp"
	if err := os.WriteFile(tempFilePath, contents, 0600); err != nil {
		return err
	}
	return os.Rename(tempFilePath, keyFilePath)
}

// GeneratePoW searches for a nonce such that the SHA-256 digest of the
// public key concatenated with the nonce has at least difficulty
// leading zero bits. The search is unbounded; at the default
// difficulty it takes around a million attempts.
func GeneratePoW(publicKey []byte, difficulty int) (nonce []byte, powHash []byte) {
	var counter uint64
	buffer := make([]byte, 8)
	for {
		binary.BigEndian.PutUint64(buffer, counter)
		digest := powDigest(publicKey, buffer)
		if leadingZeroBits(digest) >= difficulty {
			return buffer, digest
		}
		counter++
	}
}

// VerifyPoW checks a join proof-of-work: the presented hash must equal
// the SHA-256 digest of public key and nonce, and meet the difficulty.
// Verification is a single hash.
func VerifyPoW(publicKey []byte, nonce []byte, powHash []byte, difficulty int) bool {
	digest := powDigest(publicKey, nonce)
	if len(powHash) != len(digest) {
		return false
	}
	for i := range digest {
		if digest[i] != powHash[i] {
			return false
		}
	}
	return leadingZeroBits(digest) >= difficulty
}

func powDigest(publicKey []byte, nonce []byte) []byte {
	input := make([]byte, 0, len(publicKey)+len(nonce))
	input = append(input, publicKey...)
	input = append(input, nonce...)
	return HashBytes(input)
}

func leadingZeroBits(digest []byte) int {
	zeros := 0
	for _, b := range digest {
		if b == 0 {
			zeros += 8
			continue
		}
		for mask := byte(0x80); mask > 0 && b&mask == 0; mask >>= 1 {
			zeros++
		}
		break
	}
	return zeros
}
