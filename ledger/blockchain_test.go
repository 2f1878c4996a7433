package ledger_test

import (
	"crypto/ed25519"

	"github.com/manelneto/ledger/ledger"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func signedTransaction(payload string) *ledger.Transaction {
	publicKey, privateKey, err := ed25519.GenerateKey(nil)
	Expect(err).To(BeNil())
	return ledger.CreateSignedTransaction(privateKey, publicKey, []byte(payload))
}

// successor builds a valid next block over prev carrying the given
// transactions.
func successor(prev *ledger.Block, timestamp int64, transactions ...*ledger.Transaction) *ledger.Block {
	return ledger.CreateBlock(prev.Index+1, prev.Hash, timestamp, 0, transactions)
}

var _ = Describe("Blockchain", func() {
	var (
		pool  *ledger.TransactionPool
		chain *ledger.Blockchain
	)

	BeforeEach(func() {
		pool = ledger.CreateTransactionPool()
		chain = ledger.CreateBlockchain(pool)
	})

	It("should start from the deterministic genesis block", func() {
		other := ledger.CreateBlockchain(ledger.CreateTransactionPool())
		Expect(chain.BestTip().Hash).To(Equal(other.BestTip().Hash))
		Expect(chain.BestTip().Index).To(Equal(uint64(0)))
		Expect(chain.Height()).To(Equal(1))
	})

	It("should append a valid successor and prune its transactions from the pool", func() {
		tx := signedTransaction("AUCTION_CREATE lamp")
		Expect(chain.SubmitTransaction(tx)).To(BeNil())
		Expect(pool.Len()).To(Equal(1))

		block := successor(chain.BestTip(), 1000, tx)
		Expect(chain.ReceiveBlock(block)).To(BeNil())
		Expect(chain.Height()).To(Equal(2))
		Expect(chain.IsConfirmed(tx.ID)).To(BeTrue())
		Expect(pool.Len()).To(Equal(0))
	})

	It("should reject blocks violating each validation predicate", func() {
		genesis := chain.BestTip()
		tx := signedTransaction("AUCTION_BID lamp 100")

		badIndex := ledger.CreateBlock(genesis.Index+2, genesis.Hash, 1000, 0, nil)
		Expect(chain.ReceiveBlock(badIndex)).To(Equal(ledger.ErrorBadBlockIndex))

		badTimestamp := ledger.CreateBlock(genesis.Index+1, genesis.Hash, genesis.Timestamp, 0, nil)
		Expect(chain.ReceiveBlock(badTimestamp)).To(Equal(ledger.ErrorNonMonotonicTimestamp))

		badMerkle := successor(genesis, 1000, tx)
		badMerkle.MerkleRoot = make([]byte, ledger.HashLength)
		badMerkle.Hash = badMerkle.ComputeHash()
		Expect(chain.ReceiveBlock(badMerkle)).To(Equal(ledger.ErrorBadMerkleRoot))

		tamperedHash := successor(genesis, 1000, tx)
		tamperedHash.Hash = make([]byte, ledger.HashLength)
		Expect(chain.ReceiveBlock(tamperedHash)).To(Equal(ledger.ErrorBadBlockHash))

		duplicated := successor(genesis, 1000, tx, tx)
		Expect(chain.ReceiveBlock(duplicated)).To(Equal(ledger.ErrorDuplicateTransactionInBlock))

		forged := signedTransaction("AUCTION_CLOSE lamp")
		forged.Payload = []byte("AUCTION_CLOSE chair")
		badSignature := successor(genesis, 1000, forged)
		Expect(chain.ReceiveBlock(badSignature)).To(Equal(ledger.ErrorInvalidTransactionID))
	})

	It("should reject duplicate and replayed transactions", func() {
		tx := signedTransaction("AUCTION_BID lamp 250")
		Expect(chain.SubmitTransaction(tx)).To(BeNil())
		Expect(chain.SubmitTransaction(tx)).To(Equal(ledger.ErrorDuplicateTransaction))

		block := successor(chain.BestTip(), 1000, tx)
		Expect(chain.ReceiveBlock(block)).To(BeNil())

		// Confirmed on the best chain: resubmission is a replay.
		Expect(chain.SubmitTransaction(tx)).To(Equal(ledger.ErrorDuplicateTransaction))
	})

	It("should hold orphan blocks back until their ancestry is known", func() {
		genesis := chain.BestTip()
		hidden := successor(genesis, 1000)
		orphan := successor(hidden, 2000)
		Expect(chain.ReceiveBlock(orphan)).To(Equal(ledger.ErrorUnknownPrevHash))

		Expect(chain.ReceiveBlock(hidden)).To(BeNil())
		Expect(chain.ReceiveBlock(orphan)).To(BeNil())
		Expect(chain.Height()).To(Equal(3))
	})

	It("should reorg to a longer side branch and return abandoned transactions to the pool", func() {
		genesis := chain.BestTip()
		shared := signedTransaction("AUCTION_CREATE lamp")
		onlyInOld := signedTransaction("AUCTION_BID lamp 100")
		onlyInNew := signedTransaction("AUCTION_BID lamp 150")

		blockOne := successor(genesis, 1000, shared)
		blockTwo := successor(blockOne, 2000, onlyInOld)
		Expect(chain.ReceiveBlock(blockOne)).To(BeNil())
		Expect(chain.ReceiveBlock(blockTwo)).To(BeNil())
		Expect(chain.Height()).To(Equal(3))

		sideOne := successor(genesis, 1500, shared)
		sideTwo := successor(sideOne, 2500, onlyInNew)
		sideThree := successor(sideTwo, 3500)
		Expect(chain.ReceiveBlock(sideOne)).To(BeNil())
		Expect(chain.ReceiveBlock(sideTwo)).To(BeNil())

		// Two blocks long on both sides: the best tip must not move yet
		// unless the side branch wins the hash tie-break, and the side
		// branch only overtakes with its third block.
		Expect(chain.ReceiveBlock(sideThree)).To(BeNil())
		Expect(chain.BestTip().Hash).To(Equal(sideThree.Hash))
		Expect(chain.Height()).To(Equal(4))

		// Transactions unique to the abandoned branch are pending
		// again; adopted and shared ones are not.
		Expect(pool.Contains(onlyInOld.ID)).To(BeTrue())
		Expect(pool.Contains(onlyInNew.ID)).To(BeFalse())
		Expect(pool.Contains(shared.ID)).To(BeFalse())
		Expect(chain.IsConfirmed(onlyInNew.ID)).To(BeTrue())
		Expect(chain.IsConfirmed(onlyInOld.ID)).To(BeFalse())
		Expect(chain.IsConfirmed(shared.ID)).To(BeTrue())
	})

	It("should forge blocks from the pool in insertion order", func() {
		first := signedTransaction("AUCTION_CREATE lamp")
		second := signedTransaction("AUCTION_BID lamp 100")
		Expect(chain.SubmitTransaction(first)).To(BeNil())
		Expect(chain.SubmitTransaction(second)).To(BeNil())

		block, err := chain.ForgeBlock(10)
		Expect(err).To(BeNil())
		Expect(block.Transactions).To(HaveLen(2))
		Expect(block.Transactions[0].ID).To(Equal(first.ID))
		Expect(block.MerkleRoot).To(Equal(ledger.TransactionsMerkleRoot(block.Transactions)))
		Expect(chain.BestTip().Hash).To(Equal(block.Hash))
		Expect(pool.Len()).To(Equal(0))
	})

	It("should validate whole chains for adoption", func() {
		genesis := chain.BestTip()
		blockOne := successor(genesis, 1000)
		blockTwo := successor(blockOne, 2000)
		Expect(ledger.ValidateChain([]*ledger.Block{genesis, blockOne, blockTwo})).To(BeNil())

		broken := []*ledger.Block{genesis, blockTwo}
		Expect(ledger.ValidateChain(broken)).NotTo(BeNil())

		fresh := ledger.CreateBlockchain(ledger.CreateTransactionPool())
		Expect(fresh.Adopt([]*ledger.Block{genesis, blockOne, blockTwo})).To(BeNil())
		Expect(fresh.Height()).To(Equal(3))
	})
})
