/*
Package evm implements the Entropy Virtual Machine.

The evm package implements one EVM, a byte code VM. The BC (Byte Code) VM loops
over a set of bytes and executes them according to the set of rules defined
in the Entropy yellow paper.

Nested calls and creates do not recurse on the Go stack. The EVM owns an
explicit slice of frames; a CALL or CREATE suspends the running frame, pushes
a child, and folds the child's result back into its parent once the child
halts. Every frame runs against an immutable gas schedule chosen when the
EVM is constructed.

Two code formats are understood: legacy bytecode, analysed once for jump
destinations, and the object format (a 0xEF00 container with typed code
sections and a data section), validated once when it is loaded.
*/
package evm
