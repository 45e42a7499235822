// storage package persists the ledger state: accounts, the journal of
// applied transfers and the authenticated state tree of accounts. Every
// mutation goes through Update, which runs in a single database write
// transaction. The following prefixes are used:
//   - 'a/' for accounts
//   - 't/' for the transfer journal
//   - 's/' for the arbo state tree
//   - 'm/' for metadata
package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vocdoni/arbo"
	"github.com/vocdoni/confidential-transfers/log"
	"github.com/vocdoni/confidential-transfers/types"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/prefixeddb"
)

var (
	// Prefixes for the keys in the database.
	accountPrefix  = []byte("a/")
	transferPrefix = []byte("t/")
	statePrefix    = []byte("s/")
	metadataPrefix = []byte("m/")

	// stateHashFunction is the hash function of the state tree.
	stateHashFunction = arbo.HashFunctionSha256
)

var (
	// ErrNotFound is returned when the requested artifact does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when an artifact that must be unique is
	// stored twice.
	ErrAlreadyExists = errors.New("already exists")
)

// Storage wraps the database of the ledger. Reads run against the last
// committed state, writes are serialized by Update.
type Storage struct {
	db         db.Database
	tree       *arbo.Tree
	globalLock sync.Mutex
}

// New creates a new Storage instance over the database provided.
func New(database db.Database) (*Storage, error) {
	tree, err := arbo.NewTree(arbo.Config{
		Database:     prefixeddb.NewPrefixedDatabase(database, statePrefix),
		MaxLevels:    types.StateTreeMaxLevels,
		HashFunction: stateHashFunction,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open state tree: %w", err)
	}
	return &Storage{db: database, tree: tree}, nil
}

// Close closes the storage.
func (s *Storage) Close() {
	if err := s.db.Close(); err != nil {
		log.Warnw("error closing database", "error", err.Error())
	}
}

// Update runs fn inside a write transaction while holding the storage lock.
// If fn returns nil the transaction is committed, otherwise it is discarded
// and none of its writes are visible. The Tx must not be used after fn
// returns.
func (s *Storage) Update(fn func(tx *Tx) error) error {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	wTx := s.db.WriteTx()
	defer wTx.Discard()
	if err := fn(newTx(s, wTx)); err != nil {
		return err
	}
	if err := wTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Account returns the account with the given key from the committed state.
// It returns ErrNotFound if the account does not exist.
func (s *Storage) Account(key []byte) (*Account, error) {
	return getAccount(prefixeddb.NewPrefixedReader(s.db, accountPrefix), key)
}

// Transfer returns the journal record of the transfer with the given id. It
// returns ErrNotFound if there is no such transfer.
func (s *Storage) Transfer(id []byte) (*TransferRecord, error) {
	return getTransfer(prefixeddb.NewPrefixedReader(s.db, transferPrefix), id)
}

// StateRoot returns the root of the state tree.
func (s *Storage) StateRoot() (types.HexBytes, error) {
	return s.tree.Root()
}

// CountAccounts returns the number of accounts stored.
func (s *Storage) CountAccounts() (int, error) {
	count := 0
	if err := prefixeddb.NewPrefixedReader(s.db, accountPrefix).Iterate(nil, func(_, _ []byte) bool {
		count++
		return true
	}); err != nil {
		return 0, fmt.Errorf("iterate accounts: %w", err)
	}
	return count, nil
}

// Metadata decodes the metadata stored under key into out. It returns
// ErrNotFound if there is nothing stored.
func (s *Storage) Metadata(key string, out any) error {
	data, err := prefixeddb.NewPrefixedReader(s.db, metadataPrefix).Get([]byte(key))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return ErrNotFound
		}
		return err
	}
	return decodeArtifact(data, out)
}

// SetMetadata stores value under key, outside of any ledger update.
func (s *Storage) SetMetadata(key string, value any) error {
	return s.Update(func(tx *Tx) error {
		return tx.SetMetadata(key, value)
	})
}
