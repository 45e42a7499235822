// Package transfer defines the public statement and the private witness of a
// confidential transfer, and builds both from the sender's view of its
// account.
package transfer

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/vocdoni/confidential-transfers/crypto/ecc"
	"github.com/vocdoni/confidential-transfers/crypto/ecc/curves"
	"github.com/vocdoni/confidential-transfers/crypto/elgamal"
	"github.com/vocdoni/confidential-transfers/types"
)

// StatementSize is the size of the canonical statement encoding: three
// points, four ciphertexts and the nonce.
const StatementSize = 3*ecc.PointSize + 4*elgamal.SizeCiphertext + 8

// ErrIncompleteStatement is returned when a statement misses any of its
// points or ciphertexts.
var ErrIncompleteStatement = errors.New("incomplete statement")

// Statement holds the public inputs of a transfer proof. It is immutable once
// a proof has been generated for it.
type Statement struct {
	Sender          ecc.Point
	Recipient       ecc.Point
	FeeCollector    ecc.Point
	BalanceBefore   *elgamal.Ciphertext
	BalanceAfter    *elgamal.Ciphertext
	RecipientAmount *elgamal.Ciphertext
	FeeAmount       *elgamal.Ciphertext
	Nonce           uint64
}

func (st *Statement) points() []ecc.Point {
	return []ecc.Point{st.Sender, st.Recipient, st.FeeCollector}
}

func (st *Statement) ciphertexts() []*elgamal.Ciphertext {
	return []*elgamal.Ciphertext{st.BalanceBefore, st.BalanceAfter, st.RecipientAmount, st.FeeAmount}
}

// Validate checks that every point of the statement is set and is a valid
// subgroup element, and that no key is the identity. It returns
// ErrIncompleteStatement or an error wrapping ecc.ErrNotInSubgroup.
func (st *Statement) Validate() error {
	if st == nil {
		return ErrIncompleteStatement
	}
	for _, p := range st.points() {
		if p == nil {
			return ErrIncompleteStatement
		}
		if err := ecc.CheckKey(p); err != nil {
			return err
		}
	}
	for _, ct := range st.ciphertexts() {
		if ct == nil || ct.C1 == nil || ct.C2 == nil {
			return ErrIncompleteStatement
		}
		if !ct.InSubgroup() {
			return ecc.ErrNotInSubgroup
		}
	}
	return nil
}

// Encode returns the canonical encoding of the statement:
//
//	sender || recipient || feeCollector || before || after || recipientAmount || fee || nonce
//
// with 32 byte compressed points, 64 byte ciphertexts and the nonce as 8
// bytes big-endian. The statement must be complete.
func (st *Statement) Encode() []byte {
	buf := make([]byte, 0, StatementSize)
	for _, p := range st.points() {
		buf = append(buf, p.Marshal()...)
	}
	for _, ct := range st.ciphertexts() {
		buf = append(buf, ct.Serialize()...)
	}
	return binary.BigEndian.AppendUint64(buf, st.Nonce)
}

// DecodeStatement decodes a statement encoded with Encode. Every point must be
// canonically encoded and belong to the prime order subgroup, and no key may
// be the identity.
func DecodeStatement(buf []byte) (*Statement, error) {
	if len(buf) != StatementSize {
		return nil, fmt.Errorf("%w: statement must be %d bytes, got %d",
			ecc.ErrInvalidEncoding, StatementSize, len(buf))
	}
	st := &Statement{}
	offset := 0
	for _, dst := range []*ecc.Point{&st.Sender, &st.Recipient, &st.FeeCollector} {
		p := curves.New(elgamal.DefaultCurve)
		if err := p.Unmarshal(buf[offset : offset+ecc.PointSize]); err != nil {
			return nil, err
		}
		if err := ecc.CheckKey(p); err != nil {
			return nil, err
		}
		*dst = p
		offset += ecc.PointSize
	}
	for _, dst := range []**elgamal.Ciphertext{&st.BalanceBefore, &st.BalanceAfter, &st.RecipientAmount, &st.FeeAmount} {
		ct := &elgamal.Ciphertext{}
		if err := ct.Deserialize(buf[offset : offset+elgamal.SizeCiphertext]); err != nil {
			return nil, err
		}
		*dst = ct
		offset += elgamal.SizeCiphertext
	}
	st.Nonce = binary.BigEndian.Uint64(buf[offset:])
	return st, nil
}

// Hash returns the keccak256 hash of the statement encoding.
func (st *Statement) Hash() types.HexBytes {
	return crypto.Keccak256(st.Encode())
}

// Equal reports whether both statements have the same encoding.
func (st *Statement) Equal(other *Statement) bool {
	if st.Validate() != nil || other.Validate() != nil {
		return false
	}
	return string(st.Encode()) == string(other.Encode())
}

// statementJSON is the JSON form of a Statement, with every point and
// ciphertext hex encoded.
type statementJSON struct {
	Sender          types.HexBytes `json:"sender"`
	Recipient       types.HexBytes `json:"recipient"`
	FeeCollector    types.HexBytes `json:"feeCollector"`
	BalanceBefore   types.HexBytes `json:"balanceBefore"`
	BalanceAfter    types.HexBytes `json:"balanceAfter"`
	RecipientAmount types.HexBytes `json:"recipientAmount"`
	FeeAmount       types.HexBytes `json:"feeAmount"`
	Nonce           uint64         `json:"nonce"`
}

// MarshalJSON implements json.Marshaler.
func (st *Statement) MarshalJSON() ([]byte, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&statementJSON{
		Sender:          st.Sender.Marshal(),
		Recipient:       st.Recipient.Marshal(),
		FeeCollector:    st.FeeCollector.Marshal(),
		BalanceBefore:   st.BalanceBefore.Serialize(),
		BalanceAfter:    st.BalanceAfter.Serialize(),
		RecipientAmount: st.RecipientAmount.Serialize(),
		FeeAmount:       st.FeeAmount.Serialize(),
		Nonce:           st.Nonce,
	})
}

// UnmarshalJSON implements json.Unmarshaler. It applies the same checks as
// DecodeStatement.
func (st *Statement) UnmarshalJSON(data []byte) error {
	var sj statementJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return fmt.Errorf("%w: %v", ecc.ErrInvalidEncoding, err)
	}
	buf := make([]byte, 0, StatementSize)
	for _, field := range []types.HexBytes{
		sj.Sender, sj.Recipient, sj.FeeCollector,
	} {
		if len(field) != ecc.PointSize {
			return fmt.Errorf("%w: invalid point length %d", ecc.ErrInvalidEncoding, len(field))
		}
		buf = append(buf, field...)
	}
	for _, field := range []types.HexBytes{
		sj.BalanceBefore, sj.BalanceAfter, sj.RecipientAmount, sj.FeeAmount,
	} {
		if len(field) != elgamal.SizeCiphertext {
			return fmt.Errorf("%w: invalid ciphertext length %d", ecc.ErrInvalidEncoding, len(field))
		}
		buf = append(buf, field...)
	}
	buf = binary.BigEndian.AppendUint64(buf, sj.Nonce)
	decoded, err := DecodeStatement(buf)
	if err != nil {
		return err
	}
	*st = *decoded
	return nil
}
