package ledger

import (
	"encoding/binary"
	"encoding/json"

	"github.com/syndtr/goleveldb/leveldb"
)

var (
	snapshotHeightKey = []byte("chain/height")
	snapshotBlockPrefix = []byte("chain/block/")
)

// SnapshotStore persists the best chain under a LevelDB handle so a
// restarted node does not start from genesis. Each save replaces the
// previous snapshot in a single atomic batch. Persistence is optional;
// a node without a data directory runs fully ephemeral.
type SnapshotStore struct {
	db *leveldb.DB
}

// OpenSnapshotStore opens (or creates) the snapshot database at the
// given path.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

// Close safely closes the underlying database.
func (store *SnapshotStore) Close() error {
	return store.db.Close()
}

// Save writes the chain as one atomic batch, replacing any blocks from
// a longer previous snapshot.
func (store *SnapshotStore) Save(blocks []*Block) error {
	previousHeight, _ := store.height()

	batch := new(leveldb.Batch)
	for i, block := range blocks {
		encoded, err := json.Marshal(block)
		if err != nil {
			return err
		}
		batch.Put(blockKey(uint64(i)), encoded)
	}
	for i := uint64(len(blocks)); i < previousHeight; i++ {
		batch.Delete(blockKey(i))
	}
	heightBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(heightBytes, uint64(len(blocks)))
	batch.Put(snapshotHeightKey, heightBytes)
	return store.db.Write(batch, nil)
}

// Load reads the last saved chain. A missing snapshot is returned as
// an empty chain, not an error.
func (store *SnapshotStore) Load() ([]*Block, error) {
	height, err := store.height()
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	blocks := make([]*Block, 0, height)
	for i := uint64(0); i < height; i++ {
		encoded, err := store.db.Get(blockKey(i), nil)
		if err != nil {
			return nil, err
		}
		var block Block
		if err := json.Unmarshal(encoded, &block); err != nil {
			return nil, err
		}
		blocks = append(blocks, &block)
	}
	return blocks, nil
}

func (store *SnapshotStore) height() (uint64, error) {
	heightBytes, err := store.db.Get(snapshotHeightKey, nil)
	if err != nil {
		return 0, err
	}
	if len(heightBytes) != 8 {
		return 0, leveldb.ErrNotFound
	}
	return binary.BigEndian.Uint64(heightBytes), nil
}

func blockKey(index uint64) []byte {
	key := make([]byte, len(snapshotBlockPrefix)+8)
	copy(key, snapshotBlockPrefix)
	binary.BigEndian.PutUint64(key[len(snapshotBlockPrefix):], index)
	return key
}
