package evm

import (
	"sync"

	"github.com/entropyio/evmcore/config"
	"github.com/holiman/uint256"
)

var stackPool = sync.Pool{
	New: func() interface{} {
		return &Stack{data: make([]uint256.Int, 0, 16)}
	},
}

// Stack is an object for basic stack operations. Items popped to the stack are
// expected to be changed and modified. stack does not take care of adding newly
// initialised objects.
//
// The exported methods check the 1024 item bound and the current length and
// leave the stack untouched on failure. The unexported ones are used by the
// interpreter after the jump table bounds have been verified.
type Stack struct {
	data []uint256.Int
}

func newstack() *Stack {
	return stackPool.Get().(*Stack)
}

func returnStack(s *Stack) {
	s.data = s.data[:0]
	stackPool.Put(s)
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return newstack()
}

// Data returns the underlying uint256.Int array, bottom first.
func (st *Stack) Data() []uint256.Int {
	return st.data
}

// Len returns the number of items on the stack.
func (st *Stack) Len() int {
	return len(st.data)
}

// Push places d on top of the stack.
func (st *Stack) Push(d *uint256.Int) error {
	if uint64(len(st.data)) >= config.StackLimit {
		return ErrStackOverflow
	}
	st.data = append(st.data, *d)
	return nil
}

// Pop removes and returns the top item.
func (st *Stack) Pop() (uint256.Int, error) {
	if len(st.data) == 0 {
		return uint256.Int{}, ErrStackUnderflow
	}
	return st.pop(), nil
}

// Peek returns the item at depth, where depth 0 is the top.
func (st *Stack) Peek(depth int) (*uint256.Int, error) {
	if depth < 0 || depth >= len(st.data) {
		return nil, ErrStackUnderflow
	}
	return st.Back(depth), nil
}

// Set overwrites the item at depth, where depth 0 is the top.
func (st *Stack) Set(depth int, v *uint256.Int) error {
	if depth < 0 || depth >= len(st.data) {
		return ErrStackUnderflow
	}
	*st.Back(depth) = *v
	return nil
}

// Swap exchanges the top item with the item at depth. depth must be lower
// than Len; the caller validates it.
func (st *Stack) Swap(depth int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-depth] = st.data[top-depth], st.data[top]
}

// Back returns the n'th item in stack
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[len(st.data)-n-1]
}

func (st *Stack) push(d *uint256.Int) {
	// NOTE push limit (1024) is checked in baseCheck
	st.data = append(st.data, *d)
}

func (st *Stack) pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

func (st *Stack) peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// dup copies the item at depth n-1 onto the top.
func (st *Stack) dup(n int) {
	st.push(&st.data[len(st.data)-n])
}

// ReturnStack is the call stack of object format functions.
type ReturnStack struct {
	data []returnContext
}

type returnContext struct {
	section     uint64
	pc          uint64
	stackHeight int
}

func (rs *ReturnStack) push(rc returnContext) {
	rs.data = append(rs.data, rc)
}

func (rs *ReturnStack) pop() (returnContext, bool) {
	if len(rs.data) == 0 {
		return returnContext{}, false
	}
	rc := rs.data[len(rs.data)-1]
	rs.data = rs.data[:len(rs.data)-1]
	return rc, true
}

// Len returns the number of active function calls.
func (rs *ReturnStack) Len() int {
	return len(rs.data)
}
