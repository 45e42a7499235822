package ledger

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/storage"
	"github.com/vocdoni/confidential-transfers/testutil"
	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/zk"
	"go.vocdoni.io/dvote/db/metadb"
)

const testBound = 1 << 12

type fakeVerifier struct {
	reject bool
	calls  atomic.Int64
}

func (f *fakeVerifier) Verify(*transfer.Statement, *zk.Proof) bool {
	f.calls.Add(1)
	return !f.reject
}

// emptyProof returns a well formed proof made of identity points. Only the
// fake verifier accepts it.
func emptyProof(c *qt.C) *zk.Proof {
	var buf bytes.Buffer
	_, err := groth16.NewProof(circuits.TransferCurve).WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	proof, err := zk.ProofFromBytes(buf.Bytes())
	c.Assert(err, qt.IsNil)
	return proof
}

type testLedger struct {
	*Ledger
	c         *qt.C
	verifier  *fakeVerifier
	alice     *elgamal.KeyPair
	bob       *elgamal.KeyPair
	collector *elgamal.KeyPair
}

func newTestLedger(c *qt.C, conf Config) *testLedger {
	stg, err := storage.New(metadb.NewTest(c))
	c.Assert(err, qt.IsNil)
	verifier := &fakeVerifier{}
	tl := &testLedger{
		c:         c,
		verifier:  verifier,
		alice:     testutil.KeyPair(c, "alice"),
		bob:       testutil.KeyPair(c, "bob"),
		collector: testutil.KeyPair(c, "collector"),
	}
	if conf.FeeCollector == nil {
		conf.FeeCollector = tl.collector.PublicKey
	}
	tl.Ledger, err = New(stg, verifier, conf)
	c.Assert(err, qt.IsNil)
	return tl
}

// fund stores a funded account straight into the storage, like the genesis.
func (tl *testLedger) fund(kp *elgamal.KeyPair, amount uint64) {
	balance, err := elgamal.NewCiphertext(kp.PublicKey).Encrypt(new(big.Int).SetUint64(amount), kp.PublicKey, nil)
	tl.c.Assert(err, qt.IsNil)
	account := storage.NewAccount(kp.PublicKey)
	account.Balance = balance
	tl.c.Assert(tl.stg.Update(func(tx *storage.Tx) error {
		return tx.SetAccount(account)
	}), qt.IsNil)
}

func (tl *testLedger) balance(kp *elgamal.KeyPair) uint64 {
	a, err := tl.Account(kp.PublicKey)
	tl.c.Assert(err, qt.IsNil)
	v, err := kp.Decrypt(a.Balance, testBound)
	tl.c.Assert(err, qt.IsNil)
	return v
}

func (tl *testLedger) nonce(kp *elgamal.KeyPair) uint64 {
	a, err := tl.Account(kp.PublicKey)
	tl.c.Assert(err, qt.IsNil)
	return a.Nonce
}

// transfer builds a transfer from the stored state of the sender.
func (tl *testLedger) transfer(from, to *elgamal.KeyPair, amount, fee transfer.Amount) *transfer.Statement {
	a, err := tl.Account(from.PublicKey)
	tl.c.Assert(err, qt.IsNil)
	return tl.transferFrom(from, to, a.Balance, a.Nonce, amount, fee)
}

func (tl *testLedger) transferFrom(from, to *elgamal.KeyPair, balance *elgamal.Ciphertext, nonce uint64,
	amount, fee transfer.Amount,
) *transfer.Statement {
	value, err := from.Decrypt(balance, testBound)
	tl.c.Assert(err, qt.IsNil)
	st, _, err := transfer.Build(&transfer.Params{
		Sender:       from,
		Balance:      balance,
		BalanceValue: transfer.Amount(value),
		Nonce:        nonce,
		Recipient:    to.PublicKey,
		FeeCollector: tl.collector.PublicKey,
		Amount:       amount,
		Fee:          fee,
	})
	tl.c.Assert(err, qt.IsNil)
	return st
}

// snapshot returns the encoded accounts and the state root.
func (tl *testLedger) snapshot(kps ...*elgamal.KeyPair) []string {
	root, err := tl.StateRoot()
	tl.c.Assert(err, qt.IsNil)
	out := []string{root.String()}
	for _, kp := range kps {
		a, err := tl.Account(kp.PublicKey)
		if err != nil {
			out = append(out, err.Error())
			continue
		}
		out = append(out, a.Balance.String(), fmt.Sprint(a.Nonce))
	}
	return out
}

func TestApplyTransfer(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{})
	tl.fund(tl.alice, 100)

	st := tl.transfer(tl.alice, tl.bob, 10, 1)
	proof := emptyProof(c)
	receipt, err := tl.ApplyTransfer(st, proof)
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.Nonce, qt.Equals, uint64(1))
	c.Assert(receipt.ID, qt.DeepEquals, TransferID(st, proof))
	root, err := tl.StateRoot()
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.StateRoot, qt.DeepEquals, root)

	c.Assert(tl.balance(tl.alice), qt.Equals, uint64(89))
	c.Assert(tl.nonce(tl.alice), qt.Equals, uint64(1))
	c.Assert(tl.balance(tl.bob), qt.Equals, uint64(10))
	c.Assert(tl.nonce(tl.bob), qt.Equals, uint64(0))
	c.Assert(tl.balance(tl.collector), qt.Equals, uint64(1))

	record, err := tl.Transfer(receipt.ID)
	c.Assert(err, qt.IsNil)
	c.Assert([]byte(record.Statement), qt.DeepEquals, st.Encode())
	c.Assert(record.Nonce, qt.Equals, uint64(1))
	c.Assert(record.StateRoot, qt.DeepEquals, root)

	count, err := tl.CountAccounts()
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 3)

	// replaying the same transfer is rejected without state changes
	before := tl.snapshot(tl.alice, tl.bob, tl.collector)
	_, err = tl.ApplyTransfer(st, proof)
	c.Assert(err, qt.ErrorIs, ErrStaleNonce)
	c.Assert(tl.snapshot(tl.alice, tl.bob, tl.collector), qt.DeepEquals, before)

	// a second transfer from the new state
	st2 := tl.transfer(tl.alice, tl.bob, 9, 0)
	_, err = tl.ApplyTransfer(st2, proof)
	c.Assert(err, qt.IsNil)
	c.Assert(tl.balance(tl.alice), qt.Equals, uint64(80))
	c.Assert(tl.nonce(tl.alice), qt.Equals, uint64(2))
	c.Assert(tl.balance(tl.bob), qt.Equals, uint64(19))
	c.Assert(tl.balance(tl.collector), qt.Equals, uint64(1))
}

func TestApplyTransferRejects(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{})
	tl.fund(tl.alice, 100)
	tl.fund(tl.bob, 5)
	proof := emptyProof(c)

	current, err := tl.Account(tl.alice.PublicKey)
	c.Assert(err, qt.IsNil)
	otherBalance, err := elgamal.NewCiphertext(tl.alice.PublicKey).Encrypt(big.NewInt(100), tl.alice.PublicKey, nil)
	c.Assert(err, qt.IsNil)
	torsion := curves.New(elgamal.DefaultCurve)
	torsion.SetPoint(big.NewInt(0), new(big.Int).Sub(fr.Modulus(), big.NewInt(1)))
	stranger := testutil.KeyPair(c, "stranger")

	tests := []struct {
		name           string
		statement      func() *transfer.Statement
		noProof        bool
		reject         bool
		want           error
		verifierCalled bool
	}{
		{
			name:      "future nonce",
			statement: func() *transfer.Statement { return tl.transferFrom(tl.alice, tl.bob, current.Balance, 4, 10, 1) },
			want:      ErrStaleNonce,
		},
		{
			name: "past nonce",
			statement: func() *transfer.Statement {
				st := tl.transfer(tl.alice, tl.bob, 10, 1)
				st.Nonce = 0
				return st
			},
			want: ErrStaleNonce,
		},
		{
			name:      "balance mismatch",
			statement: func() *transfer.Statement { return tl.transferFrom(tl.alice, tl.bob, otherBalance, 0, 10, 1) },
			want:      ErrBalanceMismatch,
		},
		{
			name:           "proof rejected",
			statement:      func() *transfer.Statement { return tl.transfer(tl.alice, tl.bob, 10, 1) },
			reject:         true,
			want:           ErrProofRejected,
			verifierCalled: true,
		},
		{
			name: "unknown sender",
			statement: func() *transfer.Statement {
				return tl.transferFrom(stranger, tl.bob, elgamal.ZeroCiphertext(), 0, 0, 0)
			},
			want: ErrAccountNotFound,
		},
		{
			name: "fee to another account",
			statement: func() *transfer.Statement {
				st := tl.transfer(tl.alice, tl.bob, 10, 1)
				st.FeeCollector = tl.bob.PublicKey
				return st
			},
			want: ErrFeeCollectorMismatch,
		},
		{
			name:      "self transfer",
			statement: func() *transfer.Statement { return tl.transfer(tl.alice, tl.alice, 10, 1) },
			want:      ErrSelfTransferDisallowed,
		},
		{
			name: "small order recipient",
			statement: func() *transfer.Statement {
				st := tl.transfer(tl.alice, tl.bob, 10, 1)
				st.Recipient = torsion
				return st
			},
			want: ErrSubgroupCheckFailed,
		},
		{
			name: "incomplete statement",
			statement: func() *transfer.Statement {
				st := tl.transfer(tl.alice, tl.bob, 10, 1)
				st.RecipientAmount = nil
				return st
			},
			want: ErrInvalidEncoding,
		},
		{
			name:      "missing proof",
			statement: func() *transfer.Statement { return tl.transfer(tl.alice, tl.bob, 10, 1) },
			noProof:   true,
			want:      ErrInvalidEncoding,
		},
	}
	for _, tc := range tests {
		c.Run(tc.name, func(c *qt.C) {
			p := proof
			if tc.noProof {
				p = nil
			}
			tl.verifier.reject = tc.reject
			tl.verifier.calls.Store(0)
			before := tl.snapshot(tl.alice, tl.bob, tl.collector)

			_, err := tl.ApplyTransfer(tc.statement(), p)
			c.Assert(err, qt.ErrorIs, tc.want)
			reason, ok := Reason(err)
			c.Assert(ok, qt.IsTrue)
			c.Assert(reason, qt.Equals, tc.want.(*RejectError).Reason)
			c.Assert(tl.verifier.calls.Load() > 0, qt.Equals, tc.verifierCalled)
			c.Assert(tl.snapshot(tl.alice, tl.bob, tl.collector), qt.DeepEquals, before)
		})
	}
}

func TestProofRejectedCarriesNoDetail(t *testing.T) {
	c := qt.New(t)
	err := reject(ProofRejected, nil)
	c.Assert(err.Error(), qt.Equals, "transfer rejected: proof rejected")
	c.Assert(err.Unwrap(), qt.IsNil)
}

func TestSelfTransfer(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{AllowSelfTransfer: true})
	tl.fund(tl.alice, 100)

	_, err := tl.ApplyTransfer(tl.transfer(tl.alice, tl.alice, 10, 1), emptyProof(c))
	c.Assert(err, qt.IsNil)
	c.Assert(tl.balance(tl.alice), qt.Equals, uint64(99))
	c.Assert(tl.nonce(tl.alice), qt.Equals, uint64(1))
	c.Assert(tl.balance(tl.collector), qt.Equals, uint64(1))
}

func TestSenderIsFeeCollector(t *testing.T) {
	c := qt.New(t)
	alice := testutil.KeyPair(c, "alice")
	tl := newTestLedger(c, Config{FeeCollector: alice.PublicKey})
	tl.collector = tl.alice
	tl.fund(tl.alice, 100)

	_, err := tl.ApplyTransfer(tl.transfer(tl.alice, tl.bob, 10, 5), emptyProof(c))
	c.Assert(err, qt.IsNil)
	c.Assert(tl.balance(tl.alice), qt.Equals, uint64(90))
	c.Assert(tl.balance(tl.bob), qt.Equals, uint64(10))
}

func TestZeroAmountTransfer(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{})
	tl.fund(tl.alice, 100)

	_, err := tl.ApplyTransfer(tl.transfer(tl.alice, tl.bob, 0, 0), emptyProof(c))
	c.Assert(err, qt.IsNil)
	c.Assert(tl.balance(tl.alice), qt.Equals, uint64(100))
	c.Assert(tl.nonce(tl.alice), qt.Equals, uint64(1))
	c.Assert(tl.balance(tl.bob), qt.Equals, uint64(0))
}

func TestConcurrentTransfersSameNonce(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{})
	tl.fund(tl.alice, 100)
	proof := emptyProof(c)

	const n = 8
	statements := make([]*transfer.Statement, n)
	for i := range statements {
		statements[i] = tl.transfer(tl.alice, tl.bob, transfer.Amount(i+1), 0)
	}
	var (
		wg       sync.WaitGroup
		accepted atomic.Int64
		stale    atomic.Int64
	)
	for _, st := range statements {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tl.ApplyTransfer(st, proof)
			if err == nil {
				accepted.Add(1)
				return
			}
			if reason, ok := Reason(err); ok && (reason == StaleNonce || reason == BalanceMismatch) {
				stale.Add(1)
			}
		}()
	}
	wg.Wait()
	c.Assert(accepted.Load(), qt.Equals, int64(1))
	c.Assert(stale.Load(), qt.Equals, int64(n-1))
	c.Assert(tl.nonce(tl.alice), qt.Equals, uint64(1))
	c.Assert(tl.balance(tl.alice)+tl.balance(tl.bob), qt.Equals, uint64(100))
}

func TestApplyTransfers(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{})
	tl.fund(tl.alice, 100)
	tl.fund(tl.bob, 20)
	proof := emptyProof(c)

	alice, err := tl.Account(tl.alice.PublicKey)
	c.Assert(err, qt.IsNil)
	first := tl.transferFrom(tl.alice, tl.bob, alice.Balance, 0, 10, 1)
	second := tl.transferFrom(tl.alice, tl.bob, first.BalanceAfter, 1, 20, 1)
	replay := first
	// bob spends before being credited, a credit changes the balance his
	// statement was built on
	carol := testutil.KeyPair(c, "carol")
	fromBob := tl.transfer(tl.bob, carol, 5, 0)

	results := tl.ApplyTransfers(context.Background(), []BatchItem{
		{Statement: fromBob, Proof: proof},
		{Statement: first, Proof: proof},
		{Statement: second, Proof: proof},
		{Statement: replay, Proof: proof},
		{Statement: fromBob, Proof: nil},
	})
	c.Assert(results, qt.HasLen, 5)
	c.Assert(results[0].Err, qt.IsNil)
	c.Assert(results[1].Err, qt.IsNil)
	c.Assert(results[1].Receipt.Nonce, qt.Equals, uint64(1))
	c.Assert(results[2].Err, qt.IsNil)
	c.Assert(results[2].Receipt.Nonce, qt.Equals, uint64(2))
	c.Assert(results[3].Err, qt.ErrorIs, ErrStaleNonce)
	c.Assert(results[4].Err, qt.ErrorIs, ErrInvalidEncoding)

	c.Assert(tl.balance(tl.alice), qt.Equals, uint64(100-11-21))
	c.Assert(tl.nonce(tl.alice), qt.Equals, uint64(2))
	c.Assert(tl.balance(tl.bob), qt.Equals, uint64(20-5+10+20))
	c.Assert(tl.nonce(tl.bob), qt.Equals, uint64(1))
	c.Assert(tl.balance(carol), qt.Equals, uint64(5))
	c.Assert(tl.balance(tl.collector), qt.Equals, uint64(2))

	// proofs of the whole batch are checked, in parallel
	c.Assert(tl.verifier.calls.Load(), qt.Equals, int64(4))
}

func TestApplyTransfersCancelled(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{})
	tl.fund(tl.alice, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := tl.ApplyTransfers(ctx, []BatchItem{{Statement: tl.transfer(tl.alice, tl.bob, 1, 0), Proof: emptyProof(c)}})
	c.Assert(results[0].Err, qt.ErrorIs, context.Canceled)
	c.Assert(tl.nonce(tl.alice), qt.Equals, uint64(0))
}

func TestCreateAccount(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{})

	a, err := tl.CreateAccount(tl.bob.PublicKey)
	c.Assert(err, qt.IsNil)
	c.Assert(a.Nonce, qt.Equals, uint64(0))
	c.Assert(a.Balance.Equal(elgamal.ZeroCiphertext()), qt.IsTrue)
	c.Assert(tl.balance(tl.bob), qt.Equals, uint64(0))

	_, err = tl.CreateAccount(tl.bob.PublicKey)
	c.Assert(err, qt.ErrorIs, storage.ErrAlreadyExists)

	_, err = tl.Account(tl.alice.PublicKey)
	c.Assert(err, qt.ErrorIs, ErrAccountNotFound)

	proof, err := tl.AccountProof(tl.bob.PublicKey)
	c.Assert(err, qt.IsNil)
	ok, err := proof.VerifyAccount(a)
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	_, err = tl.CreateAccount(curves.New(elgamal.DefaultCurve))
	c.Assert(err, qt.ErrorIs, ErrSubgroupCheckFailed)
	c.Assert(err, qt.ErrorIs, ecc.ErrIdentityKey)
	_, err = tl.CreateAccount(nil)
	c.Assert(err, qt.ErrorIs, ErrInvalidEncoding)
}

func TestIdentityKeysRejected(t *testing.T) {
	c := qt.New(t)
	identity := curves.New(elgamal.DefaultCurve)

	stg, err := storage.New(metadb.NewTest(c))
	c.Assert(err, qt.IsNil)
	_, err = New(stg, &fakeVerifier{}, Config{FeeCollector: identity})
	c.Assert(err, qt.ErrorIs, ErrSubgroupCheckFailed)
	c.Assert(err, qt.ErrorIs, ecc.ErrIdentityKey)

	tl := newTestLedger(c, Config{})
	tl.fund(tl.alice, 100)
	before := tl.snapshot(tl.alice, tl.bob, tl.collector)
	st := tl.transfer(tl.alice, tl.bob, 10, 1)
	st.Recipient = identity
	_, err = tl.ApplyTransfer(st, emptyProof(c))
	c.Assert(err, qt.ErrorIs, ErrSubgroupCheckFailed)
	c.Assert(tl.verifier.calls.Load(), qt.Equals, int64(0))
	c.Assert(tl.snapshot(tl.alice, tl.bob, tl.collector), qt.DeepEquals, before)

	_, err = tl.ApplyEncodedTransfer(st.Encode(), emptyProof(c).Bytes())
	c.Assert(err, qt.ErrorIs, ErrSubgroupCheckFailed)
}

func TestDecodeTransfer(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{})
	tl.fund(tl.alice, 100)
	st := tl.transfer(tl.alice, tl.bob, 10, 1)
	proof := emptyProof(c)

	decoded, p, err := DecodeTransfer(st.Encode(), proof.Bytes())
	c.Assert(err, qt.IsNil)
	c.Assert(decoded.Equal(st), qt.IsTrue)
	c.Assert(p.Bytes(), qt.DeepEquals, proof.Bytes())

	_, _, err = DecodeTransfer(st.Encode()[1:], proof.Bytes())
	c.Assert(err, qt.ErrorIs, ErrInvalidEncoding)
	_, _, err = DecodeTransfer(st.Encode(), proof.Bytes()[1:])
	c.Assert(err, qt.ErrorIs, ErrInvalidEncoding)

	receipt, err := tl.ApplyEncodedTransfer(st.Encode(), proof.Bytes())
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.Nonce, qt.Equals, uint64(1))
}

func TestGenesis(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{DecryptionBound: testBound})

	g := &Genesis{Accounts: []GenesisAccount{
		{Key: tl.alice.PublicKey.Marshal(), Amount: 100},
		{Key: tl.bob.PublicKey.Marshal(), Amount: 5},
	}}
	applied, err := tl.ApplyGenesis(g)
	c.Assert(err, qt.IsNil)
	c.Assert(applied, qt.IsTrue)
	c.Assert(tl.balance(tl.alice), qt.Equals, uint64(100))
	c.Assert(tl.balance(tl.bob), qt.Equals, uint64(5))
	c.Assert(tl.balance(tl.collector), qt.Equals, uint64(0))

	applied, err = tl.ApplyGenesis(g)
	c.Assert(err, qt.IsNil)
	c.Assert(applied, qt.IsFalse)
	c.Assert(tl.balance(tl.alice), qt.Equals, uint64(100))

	over := newTestLedger(c, Config{DecryptionBound: testBound})
	_, err = over.ApplyGenesis(&Genesis{Accounts: []GenesisAccount{
		{Key: tl.alice.PublicKey.Marshal(), Amount: testBound + 1},
	}})
	c.Assert(err, qt.ErrorIs, ErrDecryptionOutOfRange)
	_, err = over.Account(tl.alice.PublicKey)
	c.Assert(err, qt.ErrorIs, ErrAccountNotFound)

	// a bound over 32 bits does not allow balances the circuit cannot prove
	wide := newTestLedger(c, Config{DecryptionBound: 1 << 40})
	_, err = wide.ApplyGenesis(&Genesis{Accounts: []GenesisAccount{
		{Key: tl.alice.PublicKey.Marshal(), Amount: uint64(transfer.MaxAmount) + 1},
	}})
	c.Assert(err, qt.ErrorIs, ErrDecryptionOutOfRange)

	_, err = wide.ApplyGenesis(&Genesis{Accounts: []GenesisAccount{
		{Key: curves.New(elgamal.DefaultCurve).Marshal(), Amount: 1},
	}})
	c.Assert(err, qt.ErrorIs, ErrSubgroupCheckFailed)
	c.Assert(err, qt.ErrorIs, ecc.ErrIdentityKey)
}

func TestBindVerifyingKey(t *testing.T) {
	c := qt.New(t)
	tl := newTestLedger(c, Config{})

	c.Assert(tl.BindVerifyingKey([]byte{1, 2, 3}), qt.IsNil)
	c.Assert(tl.BindVerifyingKey([]byte{1, 2, 3}), qt.IsNil)
	c.Assert(tl.BindVerifyingKey([]byte{4, 5, 6}), qt.ErrorIs, ErrVerifyingKeyMismatch)
}

// TestEndToEnd runs the transfer scenario with real proofs.
func TestEndToEnd(t *testing.T) {
	c := qt.New(t)
	pk, vk := testutil.Keys(t)

	alice := testutil.KeyPair(c, "alice")
	bob := testutil.KeyPair(c, "bob")
	collector := testutil.KeyPair(c, "collector")
	stg, err := storage.New(metadb.NewTest(c))
	c.Assert(err, qt.IsNil)
	l, err := New(stg, vk, Config{FeeCollector: collector.PublicKey})
	c.Assert(err, qt.IsNil)
	_, err = l.ApplyGenesis(&Genesis{Accounts: []GenesisAccount{{Key: alice.PublicKey.Marshal(), Amount: 100}}})
	c.Assert(err, qt.IsNil)

	account, err := l.Account(alice.PublicKey)
	c.Assert(err, qt.IsNil)
	st, w, err := transfer.Build(&transfer.Params{
		Sender:       alice,
		Balance:      account.Balance,
		BalanceValue: 100,
		Nonce:        account.Nonce,
		Recipient:    bob.PublicKey,
		FeeCollector: collector.PublicKey,
		Amount:       10,
		Fee:          1,
	})
	c.Assert(err, qt.IsNil)
	proof, err := zk.Prove(pk, st, w)
	c.Assert(err, qt.IsNil)
	w.Zeroize()

	// a proof does not verify for a different statement
	other := *st
	other.Nonce++
	c.Assert(vk.Verify(&other, proof), qt.IsFalse)

	_, err = l.ApplyTransfer(st, proof)
	c.Assert(err, qt.IsNil)

	decrypt := func(kp *elgamal.KeyPair) uint64 {
		a, err := l.Account(kp.PublicKey)
		c.Assert(err, qt.IsNil)
		v, err := kp.Decrypt(a.Balance, testBound)
		c.Assert(err, qt.IsNil)
		return v
	}
	c.Assert(decrypt(alice), qt.Equals, uint64(89))
	c.Assert(decrypt(bob), qt.Equals, uint64(10))
	c.Assert(decrypt(collector), qt.Equals, uint64(1))
	account, err = l.Account(alice.PublicKey)
	c.Assert(err, qt.IsNil)
	c.Assert(account.Nonce, qt.Equals, uint64(1))

	_, err = l.ApplyTransfer(st, proof)
	c.Assert(err, qt.ErrorIs, ErrStaleNonce)
}
