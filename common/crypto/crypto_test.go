package crypto

import (
	"testing"

	"github.com/entropyio/evmcore/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeccak256Hash(t *testing.T) {
	assert.Equal(t,
		common.HexToHash("0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"),
		Keccak256Hash(nil))
	assert.Equal(t, EmptyCodeHash, Keccak256Hash([]byte{}))
	assert.Equal(t, Keccak256Hash([]byte("ab")).Bytes(), Keccak256([]byte("a"), []byte("b")))
}

func TestCreateAddress(t *testing.T) {
	sender := common.HexToAddress("0x6ac7ea33f8831ea9dcc53393aaa88b25a785dbf0")

	cases := []struct {
		nonce uint64
		want  string
	}{
		{0, "0xcd234a471b72ba2f1ccf0a70fcaba648a5eecd8d"},
		{1, "0x343c43a37d37dff08ae8c4a11544c718abb4fcf8"},
		{2, "0xf778b86fa74e846c4f0a1fbd1335fe81c00a0c91"},
	}
	for _, c := range cases {
		assert.Equal(t, common.HexToAddress(c.want), CreateAddress(sender, c.nonce), "nonce %d", c.nonce)
	}
}

func TestCreateAddress2(t *testing.T) {
	// first example of EIP-1014
	addr := CreateAddress2(common.Address{}, [32]byte{}, Keccak256([]byte{0x00}))
	assert.Equal(t, common.HexToAddress("0x4D1A2e2bB4F88F0250f26Ffff098B0b30B26BF38"), addr)
}

func TestSignAndRecover(t *testing.T) {
	key := common.FromHex("0x289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032")
	hash := Keccak256([]byte("evmcore"))

	sig, err := Sign(hash, key)
	require.NoError(t, err)
	require.Len(t, sig, SignatureLength)

	pub, err := Ecrecover(hash, sig)
	require.NoError(t, err)
	require.Len(t, pub, 65)

	// recovering with the other parity yields a different key
	flipped := common.CopyBytes(sig)
	flipped[64] ^= 1
	other, err := Ecrecover(hash, flipped)
	if err == nil {
		assert.NotEqual(t, PubkeyToAddress(pub), PubkeyToAddress(other))
	}

	_, err = Ecrecover(hash[:31], sig)
	assert.True(t, errors.Is(err, errHashOfInvalidLength))
	_, err = Ecrecover(hash, sig[:64])
	assert.True(t, errors.Is(err, errInvalidSignature))
}

func TestValidateSignatureValues(t *testing.T) {
	one := uint256.NewInt(1)
	zero := uint256.NewInt(0)
	assert.True(t, ValidateSignatureValues(0, one, one, true))
	assert.True(t, ValidateSignatureValues(1, one, one, true))
	assert.False(t, ValidateSignatureValues(2, one, one, true))
	assert.False(t, ValidateSignatureValues(0, zero, one, true))
	assert.False(t, ValidateSignatureValues(0, one, zero, true))
	assert.False(t, ValidateSignatureValues(0, secp256k1N, one, false))

	upper := new(uint256.Int).AddUint64(secp256k1NHalf, 1)
	assert.False(t, ValidateSignatureValues(0, one, upper, true))
	assert.True(t, ValidateSignatureValues(0, one, upper, false))
}
