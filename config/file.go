package config

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk configuration of the evm command.
type FileConfig struct {
	Chain ChainFile `toml:"chain" yaml:"chain"`
	Exec  ExecFile  `toml:"exec" yaml:"exec"`
	Log   LogFile   `toml:"log" yaml:"log"`
	// Alloc seeds the world state, keyed by hex address.
	Alloc map[string]AccountFile `toml:"alloc" yaml:"alloc"`
}

// AccountFile is one pre-existing account. Numbers and bytes are hex or
// decimal strings.
type AccountFile struct {
	Balance string            `toml:"balance" yaml:"balance"`
	Nonce   uint64            `toml:"nonce" yaml:"nonce"`
	Code    string            `toml:"code" yaml:"code"`
	Storage map[string]string `toml:"storage" yaml:"storage"`
}

// ChainFile schedules forks by block number. Absent entries are disabled.
type ChainFile struct {
	ChainID   uint64  `toml:"chainId" yaml:"chainId"`
	Homestead *uint64 `toml:"homestead" yaml:"homestead"`
	EIP150    *uint64 `toml:"eip150" yaml:"eip150"`
	London    *uint64 `toml:"london" yaml:"london"`
	Shanghai  *uint64 `toml:"shanghai" yaml:"shanghai"`
	EOF       *uint64 `toml:"eof" yaml:"eof"`
}

// ExecFile holds the block and message parameters of a run.
type ExecFile struct {
	GasLimit    uint64 `toml:"gasLimit" yaml:"gasLimit"`
	GasPrice    uint64 `toml:"gasPrice" yaml:"gasPrice"`
	BlockNumber uint64 `toml:"blockNumber" yaml:"blockNumber"`
	Time        uint64 `toml:"time" yaml:"time"`
	Origin      string `toml:"origin" yaml:"origin"`
	Coinbase    string `toml:"coinbase" yaml:"coinbase"`
	Value       string `toml:"value" yaml:"value"`
}

// LogFile mirrors logger.Config.
type LogFile struct {
	Level      string `toml:"level" yaml:"level"`
	File       string `toml:"file" yaml:"file"`
	MaxSize    int    `toml:"maxSize" yaml:"maxSize"`
	MaxBackups int    `toml:"maxBackups" yaml:"maxBackups"`
	MaxAge     int    `toml:"maxAge" yaml:"maxAge"`
	Compress   bool   `toml:"compress" yaml:"compress"`
}

// LoadFile decodes a .toml, .yaml or .yml file into a FileConfig.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg := new(FileConfig)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "decode %s", path)
		}
	default:
		return nil, errors.Errorf("unsupported config format %q", ext)
	}
	if err := cfg.Chain.ChainConfig().CheckConfigForkOrder(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// ChainConfig converts the fork schedule into a ChainConfig.
func (c ChainFile) ChainConfig() *ChainConfig {
	block := func(n *uint64) *big.Int {
		if n == nil {
			return nil
		}
		return new(big.Int).SetUint64(*n)
	}
	return &ChainConfig{
		ChainID:        new(big.Int).SetUint64(c.ChainID),
		HomesteadBlock: block(c.Homestead),
		EIP150Block:    block(c.EIP150),
		LondonBlock:    block(c.London),
		ShanghaiBlock:  block(c.Shanghai),
		EOFBlock:       block(c.EOF),
	}
}
