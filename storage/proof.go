package storage

import (
	"fmt"

	"github.com/vocdoni/arbo"
)

// AccountProof returns the proof of the account with the given key against
// the current state root.
func (s *Storage) AccountProof(key []byte) (*AccountProof, error) {
	s.globalLock.Lock()
	defer s.globalLock.Unlock()

	root, err := s.tree.Root()
	if err != nil {
		return nil, err
	}
	leafK, leafV, siblings, exists, err := s.tree.GenProof(key)
	if err != nil {
		return nil, fmt.Errorf("could not generate proof: %w", err)
	}
	return &AccountProof{
		Root:     root,
		Key:      leafK,
		Value:    leafV,
		Siblings: siblings,
		Exists:   exists,
	}, nil
}

// Verify checks the proof against its root.
func (p *AccountProof) Verify() (bool, error) {
	return arbo.CheckProof(stateHashFunction, p.Key, p.Value, p.Root, p.Siblings)
}

// VerifyAccount checks that the proof includes the given account.
func (p *AccountProof) VerifyAccount(a *Account) (bool, error) {
	val, err := encodeArtifact(a)
	if err != nil {
		return false, err
	}
	if !p.Exists || string(p.Key) != string(a.Key) || string(p.Value) != string(leafValue(val)) {
		return false, nil
	}
	return p.Verify()
}
