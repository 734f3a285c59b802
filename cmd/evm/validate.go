package main

import (
	"fmt"

	"github.com/entropyio/evmcore/config"
	"github.com/entropyio/evmcore/evm"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate <code|file>...",
		Short: "Validates object format containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jt := evm.NewEVM(evm.BlockContext{}, evm.TxContext{}, nil, config.AllForksChainConfig, evm.Config{}).EOFInstructionSet()
			out := cmd.OutOrStdout()

			var invalid int
			for i, arg := range args {
				code, err := readCode(arg)
				if err != nil {
					return err
				}
				if err := validateContainer(code, jt); err != nil {
					invalid++
					fmt.Fprintf(out, "%d: err: %v\n", i, err)
					continue
				}
				fmt.Fprintf(out, "%d: OK\n", i)
				if verbose {
					var c evm.Container
					_ = c.UnmarshalBinary(code)
					fmt.Fprint(out, c.String())
				}
			}
			if invalid > 0 {
				return errors.Errorf("%d of %d containers invalid", invalid, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the decoded container")
	return cmd
}

func validateContainer(code []byte, jt *evm.JumpTable) error {
	if !evm.HasEOFMagic(code) {
		return errors.Wrap(evm.ErrInvalidCode, "not an object format container")
	}
	_, err := evm.NewEOFCode(code, jt)
	return err
}
