package lighter

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

type Signer struct {
	privKey *ecdsa.PrivateKey
	address common.Address
	chainID uint64
}

func NewSigner(hexKey string, chainID uint64) (*Signer, error) {
	clean := strings.TrimSpace(hexKey)
	if clean == "" {
		return nil, errors.New("private key is required")
	}
	clean = strings.TrimPrefix(clean, "0x")
	key, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, err
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return &Signer{privKey: key, address: addr, chainID: chainID}, nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

func (s *Signer) SignOrderTx(tx OrderTx) (Signature, error) {
	payload, err := EncodeOrderTx(tx)
	if err != nil {
		return Signature{}, err
	}
	return s.sign(payload)
}

func (s *Signer) SignCancelTx(tx CancelTx) (Signature, error) {
	payload, err := EncodeCancelTx(tx)
	if err != nil {
		return Signature{}, err
	}
	return s.sign(payload)
}

// sign hashes chainID || payload with keccak and signs the digest. The chain
// id prefix keeps a testnet signature from replaying on mainnet.
func (s *Signer) sign(payload []byte) (Signature, error) {
	var chainBytes [8]byte
	binary.BigEndian.PutUint64(chainBytes[:], s.chainID)
	digest := crypto.Keccak256(bytes.Join([][]byte{chainBytes[:], payload}, nil))
	sig, err := crypto.Sign(digest, s.privKey)
	if err != nil {
		return Signature{}, err
	}
	return signatureFromBytes(sig)
}

func signatureFromBytes(sig []byte) (Signature, error) {
	if len(sig) != 65 {
		return Signature{}, fmt.Errorf("unexpected signature length %d", len(sig))
	}
	return Signature{
		R: hexutil.Encode(sig[:32]),
		S: hexutil.Encode(sig[32:64]),
		V: int(sig[64]) + 27,
	}, nil
}
