// Package evaluator implements the lambda tree-walking interpreter.
package evaluator

import (
	"fmt"
	"strconv"

	"github.com/thomasrohde/lambda/pkg/ast"
)

// Value is the interface for all lambda runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	value() // sealed marker
}

// Int is a signed 64-bit integer value.
type Int struct {
	Value int64
}

func (Int) value() {}

// Bool is a boolean value.
type Bool struct {
	Value bool
}

func (Bool) value() {}

// Function is a user-defined function or lambda together with the
// environment captured at definition time. Name is empty for lambdas.
// Functions compare by identity, so they are always handled by pointer.
type Function struct {
	Name   string
	Params []string
	Body   ast.Node
	Env    *Env
}

func (*Function) value() {}

// Empty is the result of a statement that produces nothing: an empty block,
// or an if without else whose condition was false.
type Empty struct{}

func (Empty) value() {}

// ReturnSignal wraps the value of a return statement while it travels up
// through enclosing blocks to the nearest call boundary.
type ReturnSignal struct {
	Value Value
}

func (ReturnSignal) value() {}

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return Int{Value: n}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewEmpty creates the empty value.
func NewEmpty() Value {
	return Empty{}
}

// Truthiness returns the boolean interpretation of a value.
// Zero, false and Empty are falsy; functions are truthy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case Bool:
		return val.Value
	case Int:
		return val.Value != 0
	case *Function:
		return true
	case ReturnSignal:
		return Truthiness(val.Value)
	default:
		return false
	}
}

// Equal reports whether two values are equal. Values of different kinds
// are never equal; functions are equal only to themselves.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av.Value == bv.Value
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	case *Function:
		bv, ok := b.(*Function)
		return ok && av == bv
	case Empty:
		_, ok := b.(Empty)
		return ok
	}
	return false
}

// Inspect renders a value for display.
func Inspect(v Value) string {
	switch val := v.(type) {
	case nil:
		return "none"
	case Int:
		return strconv.FormatInt(val.Value, 10)
	case Bool:
		if val.Value {
			return "true"
		}
		return "false"
	case *Function:
		if val.Name == "" {
			return fmt.Sprintf("<lambda/%d>", len(val.Params))
		}
		return fmt.Sprintf("<function %s/%d>", val.Name, len(val.Params))
	case Empty:
		return "none"
	case ReturnSignal:
		return Inspect(val.Value)
	}
	return fmt.Sprintf("%v", v)
}

// typeNameOf returns the user-facing kind name of a value.
func typeNameOf(v Value) string {
	switch v.(type) {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case *Function:
		return "function"
	case Empty:
		return "none"
	case ReturnSignal:
		return "return"
	default:
		return "unknown"
	}
}
