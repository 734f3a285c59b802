package evm

import (
	"github.com/entropyio/evmcore/common/math"
	"github.com/pkg/errors"
)

// interpret steps frame from its saved pc until it halts or suspends on a
// nested message. It returns errStopToken on STOP, RETURN and SELFDESTRUCT,
// errSuspend when a child frame was pushed, and the failure otherwise.
//
// It's important to note that any errors returned by the interpreter should be
// considered a revert-and-consume-all-gas operation except for
// ErrExecutionReverted which means revert-and-keep-gas-left.
func (evm *EVM) interpret(frame *Frame) (err error) {
	var (
		op    OpCode // current opcode
		table = frame.table
		code  = frame.code()
		pc    = frame.pc // program counter
		cost  uint64
		steps uint64
		// copies used by tracer
		pcCopy  uint64 // needed for the deferred EVMLogger
		gasCopy uint64 // for EVMLogger to log gas remaining before execution
		logged  bool   // deferred EVMLogger should ignore already logged steps
		debug   = evm.Config.Tracer != nil
	)
	defer func() {
		frame.pc = pc
		opcodeCounter.Add(float64(steps))
		if !debug || err == nil || err == errSuspend || err == errStopToken {
			return
		}
		if !logged {
			evm.Config.Tracer.CaptureState(pcCopy, op, gasCopy, cost, frame, frame.Depth, err)
		} else {
			evm.Config.Tracer.CaptureFault(pcCopy, op, gasCopy, cost, frame, frame.Depth, err)
		}
	}()

	// The Interpreter main run loop (contextual). This loop runs until either an
	// explicit STOP, RETURN or SELFDESTRUCT is executed, an error occurred during
	// the execution of one of the operations, the frame suspends on a nested
	// message, or the code runs out.
	for {
		if debug {
			// Capture pre-execution values for tracing.
			logged, pcCopy, gasCopy = false, pc, frame.Gas
		}
		// Running off the end of the code halts like STOP.
		if pc >= uint64(len(code)) {
			return errStopToken
		}
		// Get the operation from the jump table and validate the stack to ensure there are
		// enough stack items available to perform the operation.
		op = OpCode(code[pc])
		operation := table[op]
		cost = operation.constantGas // For tracing
		if err = stackBounds(frame.Stack, operation); err != nil {
			return err
		}
		if !frame.UseGas(cost) {
			return ErrOutOfGas
		}

		var memorySize uint64
		if operation.dynamicGas != nil {
			// All ops with a dynamic memory usage also has a dynamic gas cost.
			// calculate the new memory size and expand the memory to fit
			// the operation
			// Memory check needs to be done prior to evaluating the dynamic gas portion,
			// to detect calculation overflows
			if operation.memorySize != nil {
				memSize, overflow := operation.memorySize(frame.Stack)
				if overflow {
					return ErrGasUintOverflow
				}
				// memory is expanded in words of 32 bytes. Gas
				// is also calculated in words.
				if memorySize, overflow = math.SafeMul(toWordSize(memSize), 32); overflow {
					return ErrGasUintOverflow
				}
			}
			// Consume the gas and return an error if not enough gas is available.
			// cost is explicitly set so that the capture state defer method can get the proper cost
			var dynamicCost uint64
			dynamicCost, err = operation.dynamicGas(evm, frame, memorySize)
			cost += dynamicCost // for tracing
			if err != nil {
				return err
			}
			if !frame.UseGas(dynamicCost) {
				return ErrOutOfGas
			}
		}
		// Do tracing before memory expansion
		if debug {
			evm.Config.Tracer.CaptureState(pc, op, gasCopy, cost, frame, frame.Depth, nil)
			logged = true
		}
		if memorySize > 0 {
			frame.Memory.Resize(memorySize)
		}

		// execute the operation
		var res []byte
		res, err = operation.execute(&pc, evm, frame)
		steps++
		if err != nil {
			switch {
			case err == errSuspend:
				pc += uint64(1 + operation.immediate)
			case err == errStopToken, errors.Is(err, ErrExecutionReverted):
				frame.Output = res
			}
			return err
		}
		if operation.jumps {
			// Relative jumps and function calls may switch the code section.
			code = frame.code()
		} else {
			pc += uint64(1 + operation.immediate)
		}
	}
}
