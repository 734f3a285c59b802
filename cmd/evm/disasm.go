package main

import (
	"encoding/hex"

	"github.com/entropyio/evmcore/asm"
	"github.com/spf13/cobra"
)

func newDisasmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <code|file>",
		Short: "Disassembles legacy code or an object format container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := readCode(args[0])
			if err != nil {
				return err
			}
			return asm.PrintDisassembled(cmd.OutOrStdout(), hex.EncodeToString(code))
		},
	}
}
