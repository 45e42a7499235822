package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/consensys/gnark/backend/groth16"
	qt "github.com/frankban/quicktest"
	"github.com/vocdoni/confidential-transfers/circuits"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/ledger"
	"github.com/vocdoni/confidential-transfers/storage"
	"github.com/vocdoni/confidential-transfers/testutil"
	"github.com/vocdoni/confidential-transfers/transfer"
	"github.com/vocdoni/confidential-transfers/types"
	"github.com/vocdoni/confidential-transfers/zk"
	"go.vocdoni.io/dvote/db/metadb"
)

type testVerifier struct {
	reject bool
}

func (v *testVerifier) Verify(*transfer.Statement, *zk.Proof) bool {
	return !v.reject
}

type apiError struct {
	Err  string `json:"error"`
	Code int    `json:"code"`
}

type testAPI struct {
	c        *qt.C
	server   *httptest.Server
	verifier *testVerifier
	ledger   *ledger.Ledger
}

func newTestAPI(c *qt.C, conf ledger.Config) *testAPI {
	stg, err := storage.New(metadb.NewTest(c))
	c.Assert(err, qt.IsNil)
	verifier := &testVerifier{}
	l, err := ledger.New(stg, verifier, conf)
	c.Assert(err, qt.IsNil)
	a, err := NewRouter(&APIConfig{Ledger: l, VerifyingKeyHash: types.HexBytes{1, 2, 3}})
	c.Assert(err, qt.IsNil)
	server := httptest.NewServer(a.Router())
	c.Cleanup(server.Close)
	return &testAPI{c: c, server: server, verifier: verifier, ledger: l}
}

func (ta *testAPI) request(method, path string, body any) (int, []byte) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		ta.c.Assert(err, qt.IsNil)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ta.server.URL+path, reader)
	ta.c.Assert(err, qt.IsNil)
	resp, err := http.DefaultClient.Do(req)
	ta.c.Assert(err, qt.IsNil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	ta.c.Assert(err, qt.IsNil)
	return resp.StatusCode, data
}

func (ta *testAPI) get(path string, out any) int {
	status, data := ta.request(http.MethodGet, path, nil)
	if status == http.StatusOK && out != nil {
		ta.c.Assert(json.Unmarshal(data, out), qt.IsNil)
	}
	return status
}

func (ta *testAPI) post(path string, body, out any) int {
	status, data := ta.request(http.MethodPost, path, body)
	if status == http.StatusOK && out != nil {
		ta.c.Assert(json.Unmarshal(data, out), qt.IsNil)
	}
	return status
}

// errorCode performs the request and returns the API error code.
func (ta *testAPI) errorCode(method, path string, body any) (int, apiError) {
	status, data := ta.request(method, path, body)
	var e apiError
	ta.c.Assert(json.Unmarshal(data, &e), qt.IsNil, qt.Commentf("body: %s", data))
	return status, e
}

func emptyProof(c *qt.C) []byte {
	var buf bytes.Buffer
	_, err := groth16.NewProof(circuits.TransferCurve).WriteTo(&buf)
	c.Assert(err, qt.IsNil)
	return buf.Bytes()
}

func accountPath(kp *elgamal.KeyPair) string {
	return "/accounts/" + types.HexBytes(kp.PublicKey.Marshal()).String()
}

func TestPingAndInfo(t *testing.T) {
	c := qt.New(t)
	collector := testutil.KeyPair(c, "collector")
	ta := newTestAPI(c, ledger.Config{FeeCollector: collector.PublicKey})

	status, _ := ta.request(http.MethodGet, PingEndpoint, nil)
	c.Assert(status, qt.Equals, http.StatusOK)

	info := &Info{}
	c.Assert(ta.get(InfoEndpoint, info), qt.Equals, http.StatusOK)
	c.Assert(info.VerifyingKeyHash, qt.DeepEquals, types.HexBytes{1, 2, 3})
	c.Assert(info.FeeCollector, qt.DeepEquals, types.HexBytes(collector.PublicKey.Marshal()))
	c.Assert(info.AmountBits, qt.Equals, circuits.AmountBits)
	c.Assert(info.StatementSize, qt.Equals, transfer.StatementSize)
	c.Assert(info.ProofSize, qt.Equals, zk.ProofSize)
}

func TestAccounts(t *testing.T) {
	c := qt.New(t)
	ta := newTestAPI(c, ledger.Config{})
	alice := testutil.KeyPair(c, "alice")

	status, e := ta.errorCode(http.MethodGet, accountPath(alice), nil)
	c.Assert(status, qt.Equals, http.StatusNotFound)
	c.Assert(e.Code, qt.Equals, ErrAccountNotFound.Code)

	// only the key is accepted, funds come from genesis
	status, e = ta.errorCode(http.MethodPost, AccountsEndpoint, map[string]any{
		"key":     types.HexBytes(alice.PublicKey.Marshal()),
		"balance": elgamal.ZeroCiphertext(),
	})
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(e.Code, qt.Equals, ErrMalformedBody.Code)

	identity := curves.New(elgamal.DefaultCurve)
	status, e = ta.errorCode(http.MethodPost, AccountsEndpoint, &NewAccount{Key: identity.Marshal()})
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(e.Code, qt.Equals, ErrSubgroupCheckFailed.Code)

	account := &Account{}
	c.Assert(ta.post(AccountsEndpoint, &NewAccount{Key: alice.PublicKey.Marshal()}, account),
		qt.Equals, http.StatusOK)
	c.Assert(account.Nonce, qt.Equals, uint64(0))

	account = &Account{}
	c.Assert(ta.get(accountPath(alice), account), qt.Equals, http.StatusOK)
	c.Assert(account.Balance.Equal(elgamal.ZeroCiphertext()), qt.IsTrue)
	v, err := alice.Decrypt(account.Balance, 1000)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(0))

	status, e = ta.errorCode(http.MethodPost, AccountsEndpoint, &NewAccount{Key: alice.PublicKey.Marshal()})
	c.Assert(status, qt.Equals, http.StatusConflict)
	c.Assert(e.Code, qt.Equals, ErrAccountAlreadyExists.Code)

	status, e = ta.errorCode(http.MethodPost, AccountsEndpoint, &NewAccount{Key: types.HexBytes{1, 2, 3}})
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(e.Code, qt.Equals, ErrMalformedAccountKey.Code)

	status, e = ta.errorCode(http.MethodGet, "/accounts/zz", nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(e.Code, qt.Equals, ErrMalformedAccountKey.Code)

	proof := &storage.AccountProof{}
	c.Assert(ta.get(accountPath(alice)+"/proof", proof), qt.Equals, http.StatusOK)
	ok, err := proof.VerifyAccount(&storage.Account{Key: alice.PublicKey.Marshal(), Balance: account.Balance})
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	state := &State{}
	c.Assert(ta.get(StateEndpoint, state), qt.Equals, http.StatusOK)
	c.Assert(state.Accounts, qt.Equals, 1)
	c.Assert(state.Root, qt.DeepEquals, proof.Root)
}

func TestTransfers(t *testing.T) {
	c := qt.New(t)
	collector := testutil.KeyPair(c, "collector")
	ta := newTestAPI(c, ledger.Config{FeeCollector: collector.PublicKey})
	alice := testutil.KeyPair(c, "alice")
	bob := testutil.KeyPair(c, "bob")
	applied, err := ta.ledger.ApplyGenesis(&ledger.Genesis{
		Accounts: []ledger.GenesisAccount{{Key: alice.PublicKey.Marshal(), Amount: 100}},
	})
	c.Assert(err, qt.IsNil)
	c.Assert(applied, qt.IsTrue)
	funded := &Account{}
	c.Assert(ta.get(accountPath(alice), funded), qt.Equals, http.StatusOK)
	balance := funded.Balance

	st, _, err := transfer.Build(&transfer.Params{
		Sender:       alice,
		Balance:      balance,
		BalanceValue: 100,
		Recipient:    bob.PublicKey,
		FeeCollector: collector.PublicKey,
		Amount:       10,
		Fee:          1,
	})
	c.Assert(err, qt.IsNil)
	req := &Transfer{Statement: st.Encode(), Proof: emptyProof(c)}

	// a rejected proof carries no detail
	ta.verifier.reject = true
	status, e := ta.errorCode(http.MethodPost, TransfersEndpoint, req)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(e.Code, qt.Equals, ErrProofRejected.Code)
	c.Assert(e.Err, qt.Equals, "proof rejected")
	ta.verifier.reject = false

	receipt := &Receipt{}
	c.Assert(ta.post(TransfersEndpoint, req, receipt), qt.Equals, http.StatusOK)
	c.Assert(receipt.Nonce, qt.Equals, uint64(1))

	status, e = ta.errorCode(http.MethodPost, TransfersEndpoint, req)
	c.Assert(status, qt.Equals, http.StatusConflict)
	c.Assert(e.Code, qt.Equals, ErrStaleNonce.Code)

	status, e = ta.errorCode(http.MethodPost, TransfersEndpoint, &Transfer{Statement: st.Encode()[1:], Proof: req.Proof})
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(e.Code, qt.Equals, ErrInvalidEncoding.Code)

	status, e = ta.errorCode(http.MethodPost, TransfersEndpoint, map[string]any{
		"statement": types.HexBytes(st.Encode()), "proof": req.Proof, "nonce": 2,
	})
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(e.Code, qt.Equals, ErrMalformedBody.Code)

	info := &TransferInfo{}
	c.Assert(ta.get(TransfersEndpoint+"/"+receipt.ID.String(), info), qt.Equals, http.StatusOK)
	c.Assert(info.Statement.Equal(st), qt.IsTrue)
	c.Assert(info.StateRoot, qt.DeepEquals, receipt.StateRoot)

	status, e = ta.errorCode(http.MethodGet, TransfersEndpoint+"/"+types.HexBytes(make([]byte, 32)).String(), nil)
	c.Assert(status, qt.Equals, http.StatusNotFound)
	c.Assert(e.Code, qt.Equals, ErrTransferNotFound.Code)

	status, e = ta.errorCode(http.MethodGet, TransfersEndpoint+"/0x01", nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	c.Assert(e.Code, qt.Equals, ErrMalformedTransferID.Code)

	account := &Account{}
	c.Assert(ta.get(accountPath(bob), account), qt.Equals, http.StatusOK)
	v, err := bob.Decrypt(account.Balance, 1000)
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, uint64(10))
}
