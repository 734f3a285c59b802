package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/config"
	"github.com/entropyio/evmcore/evm"
	"github.com/entropyio/evmcore/logger"
	"github.com/entropyio/evmcore/runtime"
	"github.com/entropyio/evmcore/state"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
)

const defaultGas = 10_000_000

type runParams struct {
	input      string
	gas        uint64
	value      string
	sender     string
	create     bool
	configPath string

	json    bool
	debug   bool
	memory  bool
	dump    bool
	metrics bool
}

func newRunCommand() *cobra.Command {
	p := new(runParams)

	cmd := &cobra.Command{
		Use:   "run <code|file>",
		Short: "Runs bytecode against an in-memory state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return p.run(cmd.OutOrStdout(), args[0])
		},
	}
	cmd.Flags().StringVar(&p.input, "input", "", "call data as hex")
	cmd.Flags().Uint64Var(&p.gas, "gas", 0, "gas limit of the message (default 10000000)")
	cmd.Flags().StringVar(&p.value, "value", "", "value sent with the message (decimal or 0x hex)")
	cmd.Flags().StringVar(&p.sender, "sender", "", "caller address")
	cmd.Flags().BoolVar(&p.create, "create", false, "run the code as init code of a contract creation")
	cmd.Flags().StringVar(&p.configPath, "config", "", "toml or yaml file with chain, execution, logging and allocation settings")
	cmd.Flags().BoolVar(&p.json, "json", false, "stream a JSON trace and print the result as JSON")
	cmd.Flags().BoolVar(&p.debug, "debug", false, "print the structured trace after execution")
	cmd.Flags().BoolVar(&p.memory, "memory", false, "include memory in traces")
	cmd.Flags().BoolVar(&p.dump, "dump", false, "print the world state after execution")
	cmd.Flags().BoolVar(&p.metrics, "metrics", false, "print the engine counters after execution")
	return cmd
}

// runResult is what the run command reports.
type runResult struct {
	Status  string `json:"status"`
	Output  string `json:"output"`
	GasUsed uint64 `json:"gasUsed"`
	Refund  uint64 `json:"refund"`
	Address string `json:"address,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r *runResult) GetOutput() string {
	var buffer bytes.Buffer

	fmt.Fprintf(&buffer, "status:   %s\n", r.Status)
	fmt.Fprintf(&buffer, "output:   %s\n", r.Output)
	fmt.Fprintf(&buffer, "gas used: %d\n", r.GasUsed)
	fmt.Fprintf(&buffer, "refund:   %d\n", r.Refund)
	if r.Address != "" {
		fmt.Fprintf(&buffer, "address:  %s\n", r.Address)
	}
	if r.Error != "" {
		fmt.Fprintf(&buffer, "error:    %s\n", r.Error)
	}
	return buffer.String()
}

// config builds the runtime configuration from the config file and flags.
// Flags win over the file.
func (p *runParams) config() (*runtime.Config, error) {
	cfg := &runtime.Config{
		ChainConfig: config.AllForksChainConfig,
		State:       state.NewMemoryState(),
	}
	if p.configPath != "" {
		fc, err := config.LoadFile(p.configPath)
		if err != nil {
			return nil, err
		}
		if err := applyFileConfig(cfg, fc); err != nil {
			return nil, err
		}
	}
	if p.gas != 0 {
		cfg.GasLimit = p.gas
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = defaultGas
	}
	if p.value != "" {
		v, err := parseValue(p.value)
		if err != nil {
			return nil, err
		}
		cfg.Value = v
	}
	if p.sender != "" {
		if !common.IsHexAddress(p.sender) {
			return nil, errors.Errorf("invalid sender %q", p.sender)
		}
		cfg.Origin = common.HexToAddress(p.sender)
	}
	return cfg, nil
}

func applyFileConfig(cfg *runtime.Config, fc *config.FileConfig) error {
	if fc.Log != (config.LogFile{}) {
		if err := logger.Setup(logger.Config(fc.Log)); err != nil {
			return err
		}
	}
	if fc.Chain != (config.ChainFile{}) {
		cfg.ChainConfig = fc.Chain.ChainConfig()
	}
	exec := fc.Exec
	cfg.GasLimit = exec.GasLimit
	cfg.GasPrice = new(big.Int).SetUint64(exec.GasPrice)
	cfg.BlockNumber = new(big.Int).SetUint64(exec.BlockNumber)
	cfg.Time = exec.Time
	if exec.Origin != "" {
		cfg.Origin = common.HexToAddress(exec.Origin)
	}
	if exec.Coinbase != "" {
		cfg.Coinbase = common.HexToAddress(exec.Coinbase)
	}
	if exec.Value != "" {
		v, err := parseValue(exec.Value)
		if err != nil {
			return err
		}
		cfg.Value = v
	}
	return cfg.State.Load(fc.Alloc)
}

func parseValue(s string) (*uint256.Int, error) {
	b, ok := new(big.Int).SetString(s, 0)
	if !ok || b.Sign() < 0 {
		return nil, errors.Errorf("invalid value %q", s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		return nil, errors.Errorf("value %q exceeds 256 bits", s)
	}
	return v, nil
}

func (p *runParams) run(out io.Writer, codeArg string) error {
	code, err := readCode(codeArg)
	if err != nil {
		return err
	}
	input, err := readCode(p.input)
	if err != nil {
		return errors.Wrap(err, "input")
	}
	cfg, err := p.config()
	if err != nil {
		return err
	}

	logCfg := &evm.LogConfig{EnableMemory: p.memory, EnableReturnData: true}
	var structLogger *evm.StructLogger
	switch {
	case p.json:
		cfg.EVMConfig.Tracer = evm.NewJSONLogger(logCfg, out)
	case p.debug:
		structLogger = evm.NewStructLogger(logCfg)
		cfg.EVMConfig.Tracer = structLogger
	}

	msg := evm.Message{
		Caller: cfg.Origin,
		Input:  input,
		Gas:    cfg.GasLimit,
		Value:  cfg.Value,
	}
	if p.create {
		msg.Type, msg.Input = evm.CallTypeCreate, append(code, input...)
	} else {
		msg.Type, msg.To = evm.CallTypeCall, runtime.ContractAddress
		cfg.State.SetCode(runtime.ContractAddress, code)
	}
	res := runtime.Run(msg, cfg)

	result := &runResult{
		Status:  res.Status.String(),
		Output:  "0x" + common.Bytes2Hex(res.ReturnData),
		GasUsed: res.GasUsed,
		Refund:  res.RefundedGas,
	}
	if p.create && !res.Failed() {
		result.Address = res.ContractAddress.Hex()
	}
	if res.Err != nil {
		result.Error = res.Err.Error()
	}

	if structLogger != nil {
		writeStructLogs(out, structLogger.StructLogs())
	}
	if p.json {
		if err := json.NewEncoder(out).Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, result.GetOutput())
	}
	if p.dump {
		data, err := cfg.State.Dump()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	}
	if p.metrics {
		if err := writeMetrics(out); err != nil {
			return err
		}
	}
	return nil
}

func writeStructLogs(w io.Writer, logs []evm.StructLog) {
	for _, l := range logs {
		fmt.Fprintf(w, "%-16spc=%08d gas=%v cost=%v", l.OpName(), l.Pc, l.Gas, l.GasCost)
		if l.Err != nil {
			fmt.Fprintf(w, " ERROR: %v", l.Err)
		}
		fmt.Fprintln(w)
		if len(l.Stack) > 0 {
			fmt.Fprintln(w, "Stack:")
			for i := len(l.Stack) - 1; i >= 0; i-- {
				fmt.Fprintf(w, "%08d  %s\n", len(l.Stack)-i-1, l.Stack[i].Hex())
			}
		}
		if len(l.Memory) > 0 {
			fmt.Fprintf(w, "Memory: %x\n", l.Memory)
		}
	}
}

// writeMetrics prints the engine counters, one sample per line.
func writeMetrics(w io.Writer) error {
	families, err := evm.Registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %v", mf.GetName(), formatLabels(m.GetLabel()), sampleValue(mf.GetType(), m)))
		}
	}
	sort.Strings(lines)
	_, err = fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(labels))
	for _, l := range labels {
		pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func sampleValue(typ dto.MetricType, m *dto.Metric) float64 {
	switch typ {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	default:
		return m.GetUntyped().GetValue()
	}
}
