package crypto

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	btc_ecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/entropyio/evmcore/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/umbracle/fastrlp"
	"golang.org/x/crypto/sha3"
)

const (
	// SignatureLength is the byte length of an [R || S || V] signature.
	SignatureLength = 64 + 1

	// recoveryID is added to V to obtain the btcec compact header byte.
	recoveryID = byte(27)

	// recoveryIDOffset is the position of V within the signature.
	recoveryIDOffset = 64
)

var (
	secp256k1N     = uint256.MustFromHex("0xfffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141")
	secp256k1NHalf = new(uint256.Int).Rsh(secp256k1N, 1)

	errHashOfInvalidLength = errors.New("message hash of invalid length")
	errInvalidSignature    = errors.New("invalid signature")
)

// EmptyCodeHash is the known hash of the empty byte slice.
var EmptyCodeHash = Keccak256Hash(nil)

var addressPool fastrlp.ArenaPool

// Keccak256 calculates and returns the Keccak256 hash of the input data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates and returns the Keccak256 hash of the input data,
// converting it to an internal Hash data structure.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(h[:0])
	return h
}

// CreateAddress creates an address given the bytes and the nonce.
func CreateAddress(b common.Address, nonce uint64) common.Address {
	a := addressPool.Get()
	defer addressPool.Put(a)

	v := a.NewArray()
	v.Set(a.NewBytes(b.Bytes()))
	v.Set(a.NewUint(nonce))

	return common.BytesToAddress(Keccak256(v.MarshalTo(nil))[12:])
}

// CreateAddress2 creates an address given the address bytes, initial
// contract code hash and a salt.
func CreateAddress2(b common.Address, salt [32]byte, inithash []byte) common.Address {
	return common.BytesToAddress(Keccak256([]byte{0xff}, b.Bytes(), salt[:], inithash)[12:])
}

// ValidateSignatureValues verifies whether the signature values are valid with
// the given chain rules. The v value is assumed to be either 0 or 1.
func ValidateSignatureValues(v byte, r, s *uint256.Int, homestead bool) bool {
	if r.IsZero() || s.IsZero() {
		return false
	}
	// reject upper range of s values (ECDSA malleability)
	if homestead && s.Gt(secp256k1NHalf) {
		return false
	}
	return r.Lt(secp256k1N) && s.Lt(secp256k1N) && (v == 0 || v == 1)
}

// Ecrecover returns the uncompressed public key that created the given
// signature. The signature is in [R || S || V] format with V being 0 or 1.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	if len(hash) != common.HashLength {
		return nil, errHashOfInvalidLength
	}
	if len(sig) != SignatureLength {
		return nil, errInvalidSignature
	}
	btcsig := make([]byte, SignatureLength)
	btcsig[0] = sig[recoveryIDOffset] + recoveryID
	copy(btcsig[1:], sig)

	pub, _, err := btc_ecdsa.RecoverCompact(btcsig, hash)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// Sign calculates a secp256k1 signature over hash in [R || S || V] format.
func Sign(hash []byte, key []byte) ([]byte, error) {
	if len(hash) != common.HashLength {
		return nil, fmt.Errorf("hash is required to be exactly %d bytes (%d)", common.HashLength, len(hash))
	}
	priv, _ := btcec.PrivKeyFromBytes(key)
	defer priv.Zero()

	sig, err := btc_ecdsa.SignCompact(priv, hash, false)
	if err != nil {
		return nil, err
	}
	v := sig[0] - recoveryID
	copy(sig, sig[1:])
	sig[recoveryIDOffset] = v
	return sig, nil
}

// PubkeyToAddress derives the account address of an uncompressed public key.
func PubkeyToAddress(pub []byte) common.Address {
	if len(pub) == 65 {
		pub = pub[1:]
	}
	return common.BytesToAddress(Keccak256(pub)[12:])
}
