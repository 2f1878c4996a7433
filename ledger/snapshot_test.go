package ledger_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/manelneto/ledger/ledger"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain")
	store, err := ledger.OpenSnapshotStore(path)
	if err != nil {
		t.Fatalf("OpenSnapshotStore: %v", err)
	}
	defer store.Close()

	if blocks, err := store.Load(); err != nil || blocks != nil {
		t.Fatalf("fresh store must load an empty chain, got %d blocks, err %v", len(blocks), err)
	}

	pool := ledger.CreateTransactionPool()
	chain := ledger.CreateBlockchain(pool)
	tx := poolTransaction(t, "AUCTION_CREATE lamp")
	if err := chain.SubmitTransaction(tx); err != nil {
		t.Fatalf("SubmitTransaction: %v", err)
	}
	if _, err := chain.ForgeBlock(10); err != nil {
		t.Fatalf("ForgeBlock: %v", err)
	}

	if err := store.Save(chain.Blocks()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != chain.Height() {
		t.Fatalf("expected %d blocks, got %d", chain.Height(), len(loaded))
	}
	if !bytes.Equal(loaded[len(loaded)-1].Hash, chain.BestTip().Hash) {
		t.Fatal("loaded tip differs from the saved one")
	}
	if err := ledger.ValidateChain(loaded); err != nil {
		t.Fatalf("loaded chain must validate: %v", err)
	}

	// A shorter save must not leave stale blocks behind.
	if err := store.Save(chain.Blocks()[:1]); err != nil {
		t.Fatalf("Save (shorter): %v", err)
	}
	reloaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load (shorter): %v", err)
	}
	if len(reloaded) != 1 {
		t.Fatalf("expected 1 block after shorter save, got %d", len(reloaded))
	}
}
