package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromHex(t *testing.T) {
	assert.Equal(t, []byte{0x01}, FromHex("0x1"))
	assert.Equal(t, []byte{0x01, 0x02}, FromHex("0102"))
	assert.Equal(t, []byte{}, FromHex("0x"))
}

func TestPadBytes(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 1, 2}, LeftPadBytes([]byte{1, 2}, 4))
	assert.Equal(t, []byte{1, 2, 0, 0}, RightPadBytes([]byte{1, 2}, 4))
	assert.Equal(t, []byte{1, 2}, LeftPadBytes([]byte{1, 2}, 1))
}

func TestGetData(t *testing.T) {
	data := []byte{1, 2, 3}
	assert.Equal(t, []byte{2, 3, 0, 0}, GetData(data, 1, 4))
	assert.Equal(t, []byte{0, 0}, GetData(data, 10, 2))
	assert.Equal(t, []byte{}, GetData(data, 1, 0))
}

func TestAddressHex(t *testing.T) {
	a := HexToAddress("0xF7FE84EC6D79BB7AE74EE5C301A551B0440B27E2")
	assert.Equal(t, "0xf7fe84ec6d79bb7ae74ee5c301a551b0440b27e2", a.Hex())
	assert.True(t, IsHexAddress(a.Hex()))
	assert.False(t, IsHexAddress("0x1234"))
	assert.Equal(t, a, BytesToAddress(a.Hash().Bytes()))
}
