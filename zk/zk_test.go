package zk_test

import (
	"bytes"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/testutil"
	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/util"
	"github.com/vocdoni/confidential-transfers/zk"
)

func buildTransfer(c *qt.C, amount, fee transfer.Amount, balance uint64) (*transfer.Statement, *transfer.Witness) {
	alice := testutil.KeyPair(c, "alice")
	bob := testutil.KeyPair(c, "bob")
	collector := testutil.KeyPair(c, "collector")
	ct, err := elgamal.NewCiphertext(alice.PublicKey).Encrypt(new(big.Int).SetUint64(balance), alice.PublicKey, nil)
	c.Assert(err, qt.IsNil)
	st, w, err := transfer.Build(&transfer.Params{
		Sender:       alice,
		Balance:      ct,
		BalanceValue: transfer.Amount(balance),
		Recipient:    bob.PublicKey,
		FeeCollector: collector.PublicKey,
		Amount:       amount,
		Fee:          fee,
	})
	c.Assert(err, qt.IsNil)
	return st, w
}

func TestProofSize(t *testing.T) {
	c := qt.New(t)
	// Ar (32) + Bs (64) + Krs (32) + commitments length (4) + commitment pok (32)
	c.Assert(zk.ProofSize, qt.Equals, 164)

	_, err := zk.ProofFromBytes(make([]byte, zk.ProofSize-1))
	c.Assert(err, qt.ErrorIs, ecc.ErrInvalidEncoding)
	_, err = zk.ProofFromBytes(make([]byte, zk.ProofSize+1))
	c.Assert(err, qt.ErrorIs, ecc.ErrInvalidEncoding)
	_, err = zk.ProofFromBytes(bytes.Repeat([]byte{0xff}, zk.ProofSize))
	c.Assert(err, qt.ErrorIs, ecc.ErrInvalidEncoding)
}

func TestSetupSizeExceeded(t *testing.T) {
	c := qt.New(t)
	_, _, err := zk.Setup(zk.SetupConfig{MaxConstraintsLog2: 10})
	c.Assert(err, qt.ErrorIs, zk.ErrSetupSizeExceeded)
}

func TestVerifyRejectsMalformedInputs(t *testing.T) {
	c := qt.New(t)
	st, _ := buildTransfer(c, 10, 1, 100)

	c.Assert(zk.Verify(nil, st, &zk.Proof{}), qt.IsFalse)
	c.Assert(zk.Verify(&zk.VerifyingKey{}, st, nil), qt.IsFalse)
	c.Assert(zk.Verify(&zk.VerifyingKey{}, st, &zk.Proof{}), qt.IsFalse)
	c.Assert(zk.Verify(&zk.VerifyingKey{}, &transfer.Statement{}, &zk.Proof{}), qt.IsFalse)
}

func TestProveVerify(t *testing.T) {
	c := qt.New(t)
	pk, vk := testutil.Keys(t)

	st, w := buildTransfer(c, 10, 1, 100)
	proof, err := zk.Prove(pk, st, w)
	c.Assert(err, qt.IsNil)
	c.Assert(zk.Verify(vk, st, proof), qt.IsTrue)
	c.Assert(vk.Verify(st, proof), qt.IsTrue)

	c.Run("proof encoding", func(c *qt.C) {
		buf := proof.Bytes()
		c.Assert(buf, qt.HasLen, zk.ProofSize)
		decoded, err := zk.ProofFromBytes(buf)
		c.Assert(err, qt.IsNil)
		c.Assert(decoded.Bytes(), qt.DeepEquals, buf)
		c.Assert(zk.Verify(vk, st, decoded), qt.IsTrue)

		data, err := json.Marshal(proof)
		c.Assert(err, qt.IsNil)
		fromJSON := &zk.Proof{}
		c.Assert(json.Unmarshal(data, fromJSON), qt.IsNil)
		c.Assert(fromJSON.Bytes(), qt.DeepEquals, buf)
	})

	c.Run("fresh blinding", func(c *qt.C) {
		again, err := zk.Prove(pk, st, w)
		c.Assert(err, qt.IsNil)
		c.Assert(again.Bytes(), qt.Not(qt.DeepEquals), proof.Bytes())
		c.Assert(zk.Verify(vk, st, again), qt.IsTrue)
	})

	c.Run("other statement", func(c *qt.C) {
		other := *st
		other.Nonce = st.Nonce + 1
		c.Assert(zk.Verify(vk, &other, proof), qt.IsFalse)

		other = *st
		other.RecipientAmount = st.FeeAmount
		c.Assert(zk.Verify(vk, &other, proof), qt.IsFalse)
	})

	c.Run("insufficient balance", func(c *qt.C) {
		st, w := buildTransfer(c, 90, 0, 100)
		w.Amount = 110
		forged, err := transfer.NewStatement(st.Sender, st.Recipient, st.FeeCollector, st.BalanceBefore, st.Nonce, w)
		c.Assert(err, qt.IsNil)
		_, err = zk.Prove(pk, forged, w)
		c.Assert(err, qt.ErrorIs, zk.ErrUnsatisfiedWitness)
	})

	c.Run("key encoding", func(c *qt.C) {
		loaded, err := zk.LoadVerifyingKey(vk.Bytes())
		c.Assert(err, qt.IsNil)
		c.Assert(loaded.Hash(), qt.DeepEquals, vk.Hash())
		c.Assert(zk.Verify(loaded, st, proof), qt.IsTrue)

		_, err = zk.LoadVerifyingKey(append(vk.Bytes(), 0))
		c.Assert(err, qt.IsNotNil)

		ccs, key, err := pk.Bytes()
		c.Assert(err, qt.IsNil)
		loadedPk, err := zk.LoadProvingKey(ccs, key)
		c.Assert(err, qt.IsNil)
		c.Assert(loadedPk.NbConstraints(), qt.Equals, pk.NbConstraints())
		proof, err := zk.Prove(loadedPk, st, w)
		c.Assert(err, qt.IsNil)
		c.Assert(zk.Verify(vk, st, proof), qt.IsTrue)
	})

	c.Run("export", func(c *qt.C) {
		dir := c.TempDir()
		ccsPath, pkPath, vkPath := filepath.Join(dir, "ccs"), filepath.Join(dir, "pk"), filepath.Join(dir, "vk")
		c.Assert(pk.Export(ccsPath, pkPath), qt.IsNil)
		c.Assert(vk.Export(vkPath), qt.IsNil)

		vkData, err := os.ReadFile(vkPath)
		c.Assert(err, qt.IsNil)
		c.Assert(vkData, qt.DeepEquals, vk.Bytes())
		ccsData, err := os.ReadFile(ccsPath)
		c.Assert(err, qt.IsNil)
		pkData, err := os.ReadFile(pkPath)
		c.Assert(err, qt.IsNil)
		loadedPk, err := zk.LoadProvingKey(ccsData, pkData)
		c.Assert(err, qt.IsNil)
		c.Assert(loadedPk.NbConstraints(), qt.Equals, pk.NbConstraints())
	})
}

func TestSoundnessRandomWitnesses(t *testing.T) {
	c := qt.New(t)
	pk, vk := testutil.Keys(t)

	for i := 0; i < 3; i++ {
		balance := uint64(util.RandomInt(1, 1<<16))
		amount := transfer.Amount(balance + uint64(util.RandomInt(0, 1<<8)))
		fee := transfer.Amount(util.RandomInt(1, 1<<8))

		// a statement whose ciphertexts are consistent with a transfer of
		// amount + fee > balance
		st, w := buildTransfer(c, 0, 0, balance)
		w.Amount, w.Fee = amount, fee
		forged, err := transfer.NewStatement(st.Sender, st.Recipient, st.FeeCollector, st.BalanceBefore, st.Nonce, w)
		c.Assert(err, qt.IsNil)
		_, err = zk.Prove(pk, forged, w)
		c.Assert(err, qt.ErrorIs, zk.ErrUnsatisfiedWitness)

		// a valid proof of the affordable transfer does not verify the
		// forged statement
		w.Amount, w.Fee = transfer.Amount(balance), 0
		valid, err := transfer.NewStatement(st.Sender, st.Recipient, st.FeeCollector, st.BalanceBefore, st.Nonce, w)
		c.Assert(err, qt.IsNil)
		proof, err := zk.Prove(pk, valid, w)
		c.Assert(err, qt.IsNil)
		c.Assert(zk.Verify(vk, valid, proof), qt.IsTrue)
		c.Assert(zk.Verify(vk, forged, proof), qt.IsFalse)
	}
}
