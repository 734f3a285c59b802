package evm

import (
	"github.com/pkg/errors"
)

// List evm execution errors
var (
	ErrStackUnderflow           = errors.New("stack underflow")
	ErrStackOverflow            = errors.New("stack limit reached")
	ErrOutOfGas                 = errors.New("out of gas")
	ErrInvalidOpCode            = errors.New("invalid opcode")
	ErrInvalidCodeReference     = errors.New("invalid code reference")
	ErrInvalidJump              = errors.New("invalid jump destination")
	ErrCodeStoreOutOfGas        = errors.New("contract creation code storage out of gas")
	ErrDepth                    = errors.New("max call depth exceeded")
	ErrInsufficientBalance      = errors.New("insufficient balance for transfer")
	ErrContractAddressCollision = errors.New("contract address collision")
	ErrExecutionReverted        = errors.New("execution reverted")
	ErrMaxCodeSizeExceeded      = errors.New("max code size exceeded")
	ErrMaxInitCodeSizeExceeded  = errors.New("max initcode size exceeded")
	ErrInvalidCode              = errors.New("invalid code")
	ErrWriteProtection          = errors.New("write protection")
	ErrReturnDataOutOfBounds    = errors.New("return data out of bounds")
	ErrGasUintOverflow          = errors.New("gas uint64 overflow")
	ErrReturnStackExceeded      = errors.New("return stack limit reached")
	ErrNonceUintOverflow        = errors.New("nonce uint64 overflow")

	// errStopToken is an internal token indicating interpreter loop
	// termination, never returned to outside callers.
	errStopToken = errors.New("stop token")

	// errSuspend is returned by call and create instructions that pushed
	// a child frame; the frame resumes once the child halts.
	errSuspend = errors.New("frame suspended")
)

// IsFailure reports whether err forfeits the frame's remaining gas. Reverts
// and successful halts do not.
func IsFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrExecutionReverted)
}
