package ledger_test

import (
	"bytes"
	"crypto/sha256"

	"github.com/manelneto/ledger/ledger"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func leaf(seed byte) []byte {
	digest := sha256.Sum256([]byte{seed})
	return digest[:]
}

var _ = Describe("MerkleTree", func() {
	It("should reduce an empty list to an all-zero root", func() {
		Expect(ledger.MerkleRoot(nil)).To(Equal(make([]byte, ledger.HashLength)))
	})

	It("should be deterministic", func() {
		leaves := [][]byte{leaf(1), leaf(2), leaf(3), leaf(4), leaf(5)}
		Expect(ledger.MerkleRoot(leaves)).To(Equal(ledger.MerkleRoot(leaves)))
	})

	It("should change the root when any leaf changes", func() {
		leaves := [][]byte{leaf(1), leaf(2), leaf(3), leaf(4)}
		original := ledger.MerkleRoot(leaves)
		for i := range leaves {
			altered := make([][]byte, len(leaves))
			copy(altered, leaves)
			altered[i] = leaf(0xFF - byte(i))
			Expect(ledger.MerkleRoot(altered)).NotTo(Equal(original))
		}
	})

	It("should duplicate the last leaf of an odd layer", func() {
		odd := [][]byte{leaf(1), leaf(2), leaf(3)}
		padded := [][]byte{leaf(1), leaf(2), leaf(3), leaf(3)}
		Expect(ledger.MerkleRoot(odd)).To(Equal(ledger.MerkleRoot(padded)))
	})

	It("should depend on leaf order", func() {
		Expect(ledger.MerkleRoot([][]byte{leaf(1), leaf(2)})).
			NotTo(Equal(ledger.MerkleRoot([][]byte{leaf(2), leaf(1)})))
	})

	It("should produce verifiable inclusion proofs", func() {
		leaves := [][]byte{leaf(1), leaf(2), leaf(3), leaf(4), leaf(5)}
		root := ledger.MerkleRoot(leaves)
		for index, l := range leaves {
			proof, err := ledger.BuildMerkleProof(leaves, index)
			Expect(err).To(BeNil())
			Expect(ledger.VerifyMerkleProof(root, l, proof)).To(BeTrue())
		}
	})

	It("should reject proofs for the wrong leaf", func() {
		leaves := [][]byte{leaf(1), leaf(2), leaf(3)}
		root := ledger.MerkleRoot(leaves)
		proof, err := ledger.BuildMerkleProof(leaves, 0)
		Expect(err).To(BeNil())
		Expect(ledger.VerifyMerkleProof(root, leaf(9), proof)).To(BeFalse())

		tampered := make([]byte, ledger.HashLength)
		Expect(ledger.VerifyMerkleProof(tampered, leaf(1), proof)).To(BeFalse())
	})

	It("should refuse proofs for out-of-range indices", func() {
		leaves := [][]byte{leaf(1)}
		_, err := ledger.BuildMerkleProof(leaves, 1)
		Expect(err).To(Equal(ledger.ErrorProofIndexOutOfRange))
	})

	It("should anchor a single leaf as its own root path", func() {
		leaves := [][]byte{leaf(7)}
		root := ledger.MerkleRoot(leaves)
		Expect(bytes.Equal(root, leaf(7))).To(BeTrue())
	})
})
