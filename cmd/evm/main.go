// Command evm runs, disassembles and validates EVM bytecode.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/entropyio/evmcore/common"
	"github.com/entropyio/evmcore/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const logLevelFlag = "log-level"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "evm",
		Short:         "Runs and inspects EVM bytecode",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, _ := cmd.Flags().GetString(logLevelFlag)
			if level == "" {
				return nil
			}
			return logger.SetLevel(strings.ToUpper(level))
		},
	}
	root.PersistentFlags().String(logLevelFlag, "", "log level (DEBUG, INFO, WARNING, ERROR)")

	root.AddCommand(
		newRunCommand(),
		newDisasmCommand(),
		newValidateCommand(),
	)
	return root
}

// readCode decodes hex bytecode given inline or as the path of a file
// holding it.
func readCode(arg string) ([]byte, error) {
	src := strings.TrimSpace(arg)
	if _, err := os.Stat(src); err == nil {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, errors.Wrap(err, "read code")
		}
		src = strings.TrimSpace(string(data))
	}
	src = strings.TrimPrefix(strings.TrimPrefix(src, "0x"), "0X")
	if len(src)%2 == 1 || !isHexString(src) {
		return nil, errors.Errorf("invalid hex code %q", abbreviate(src))
	}
	return common.Hex2Bytes(src), nil
}

func isHexString(s string) bool {
	for _, c := range s {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

func abbreviate(s string) string {
	if len(s) > 16 {
		return s[:16] + "..."
	}
	return s
}
