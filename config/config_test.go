package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatible(t *testing.T) {
	type test struct {
		stored, new *ChainConfig
		head        uint64
		wantErr     *CompatError
	}
	tests := []test{
		{stored: AllForksChainConfig, new: AllForksChainConfig, head: 0, wantErr: nil},
		{stored: AllForksChainConfig, new: AllForksChainConfig, head: 100, wantErr: nil},
		{
			stored:  &ChainConfig{EIP150Block: big.NewInt(10)},
			new:     &ChainConfig{EIP150Block: big.NewInt(20)},
			head:    9,
			wantErr: nil,
		},
		{
			stored: AllForksChainConfig,
			new:    &ChainConfig{HomesteadBlock: nil},
			head:   3,
			wantErr: &CompatError{
				What:         "Homestead fork block",
				StoredConfig: big.NewInt(0),
				NewConfig:    nil,
				RewindTo:     0,
			},
		},
		{
			stored: &ChainConfig{HomesteadBlock: big.NewInt(30), LondonBlock: big.NewInt(10)},
			new:    &ChainConfig{HomesteadBlock: big.NewInt(25), LondonBlock: big.NewInt(20)},
			head:   25,
			wantErr: &CompatError{
				What:         "London fork block",
				StoredConfig: big.NewInt(10),
				NewConfig:    big.NewInt(20),
				RewindTo:     9,
			},
		},
	}
	for _, test := range tests {
		err := test.stored.CheckCompatible(test.new, test.head)
		assert.Equal(t, test.wantErr, err, "stored: %v new: %v head: %d", test.stored, test.new, test.head)
	}
}

func TestCheckConfigForkOrder(t *testing.T) {
	assert.NoError(t, MainnetChainConfig.CheckConfigForkOrder())
	assert.NoError(t, AllForksChainConfig.CheckConfigForkOrder())
	assert.NoError(t, FrontierChainConfig.CheckConfigForkOrder())

	skipped := &ChainConfig{HomesteadBlock: big.NewInt(0), LondonBlock: big.NewInt(0)}
	assert.Error(t, skipped.CheckConfigForkOrder())

	reversed := &ChainConfig{HomesteadBlock: big.NewInt(10), EIP150Block: big.NewInt(5)}
	assert.Error(t, reversed.CheckConfigForkOrder())
}

func TestRules(t *testing.T) {
	r := MainnetChainConfig.Rules(big.NewInt(12_965_000), false)
	assert.True(t, r.IsHomestead)
	assert.True(t, r.IsEIP150)
	assert.True(t, r.IsLondon)
	assert.False(t, r.IsShanghai)
	assert.False(t, r.IsEOF)

	r = (&ChainConfig{}).Rules(big.NewInt(0), true)
	assert.Equal(t, int64(0), r.ChainID.Int64())
	assert.True(t, r.IsMerge)
	assert.False(t, r.IsHomestead)
}

func TestGasSchedule(t *testing.T) {
	frontier := NewGasSchedule(FrontierChainConfig.Rules(big.NewInt(0), false))
	london := NewGasSchedule(LegacyChainConfig.Rules(big.NewInt(0), false))

	assert.Equal(t, uint64(3), frontier.VeryLow)
	assert.Equal(t, uint64(3), london.VeryLow)
	assert.Equal(t, CallGasFrontier, frontier.Call)
	assert.False(t, frontier.CallGasForwarding)
	assert.True(t, london.CallGasForwarding)
	assert.True(t, london.AccessLists)
	assert.Equal(t, uint64(4800), london.SstoreRefund)
	assert.Equal(t, uint64(2), london.InitCodeWord)
	assert.Zero(t, frontier.InitCodeWord)

	// 1 word: 3, 32 words: 96 + 2, 1024 words: 3072 + 2048
	assert.Equal(t, uint64(3), frontier.MemoryCost(1))
	assert.Equal(t, uint64(98), frontier.MemoryCost(32))
	assert.Equal(t, uint64(5120), frontier.MemoryCost(1024))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "evm.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
[chain]
chainId = 7
homestead = 0
eip150 = 0
london = 5

[exec]
gasLimit = 100000
origin = "0x00000000000000000000000000000000000000aa"

[log]
level = "DEBUG"
`), 0o600))
	cfg, err := LoadFile(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, uint64(100000), cfg.Exec.GasLimit)
	assert.Equal(t, "DEBUG", cfg.Log.Level)
	cc := cfg.Chain.ChainConfig()
	assert.Equal(t, int64(7), cc.ChainID.Int64())
	assert.Equal(t, int64(5), cc.LondonBlock.Int64())
	assert.Nil(t, cc.ShanghaiBlock)

	yamlPath := filepath.Join(dir, "evm.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
chain:
  chainId: 9
  homestead: 0
  eip150: 0
  london: 0
  shanghai: 0
  eof: 0
exec:
  gasLimit: 42
`), 0o600))
	cfg, err = LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cfg.Exec.GasLimit)
	assert.True(t, cfg.Chain.ChainConfig().IsEOF(big.NewInt(0)))

	badOrder := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(badOrder, []byte("chain:\n  london: 0\n"), 0o600))
	_, err = LoadFile(badOrder)
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(dir, "evm.json"))
	assert.Error(t, err)
}
