// Package gmlerr formats compiler and VM errors with source context: the
// offending line, a caret under the column, and (for runtime errors) the
// active call stack at the moment of failure.
package gmlerr

import (
	"fmt"
	"strings"

	"github.com/gmlscript/gmlscript/internal/lexer"
)

// Kind classifies a compile-time diagnostic.
type Kind int

const (
	Lexical Kind = iota
	Syntax
	Semantic
	Analysis
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Syntax:
		return "syntax"
	case Semantic:
		return "semantic"
	case Analysis:
		return "analysis"
	default:
		return "error"
	}
}

// CompileError is a single diagnostic produced during build(); compilation
// never halts on one, so error_sink collects many of these.
type CompileError struct {
	Kind    Kind
	Message string
	Span    lexer.Span
	Source  string // the source text of Span.Unit, for pretty-printing
}

func (e *CompileError) Error() string { return e.Format(false) }

// Format renders the diagnostic with a source line and caret, in the style
// of a terminal compiler error.
func (e *CompileError) Format(color bool) string {
	line, col := lexer.Position(e.Source, e.Span.Start)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s error in %s:%d:%d: %s\n", e.Kind, e.Span.Unit, line, col, e.Message)
	if srcLine := sourceLine(e.Source, line); srcLine != "" {
		prefix := fmt.Sprintf("%4d | ", line)
		sb.WriteString(prefix)
		sb.WriteString(srcLine)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+col-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
	}
	return sb.String()
}

func sourceLine(src string, line int) string {
	if src == "" {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// RuntimeKind classifies a VM-level error.
type RuntimeKind int

const (
	TypeMismatch RuntimeKind = iota
	DivisionByZero
	UndefinedMember
	ArrayBounds
	InvalidEntity
	WrongArgCount
	UnknownFunction
)

func (k RuntimeKind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case DivisionByZero:
		return "division by zero"
	case UndefinedMember:
		return "undefined member"
	case ArrayBounds:
		return "array index out of bounds"
	case InvalidEntity:
		return "invalid entity"
	case WrongArgCount:
		return "wrong argument count"
	case UnknownFunction:
		return "unknown function"
	default:
		return "runtime error"
	}
}

// Frame is one entry of a RuntimeError's call stack: the function that was
// executing and the span its instruction pointer resolved to.
type Frame struct {
	FuncName string
	Span     lexer.Span
}

// RuntimeError is raised by the VM and unwinds the current
// Thread.Execute call. It always carries a non-empty Stack (§8 invariant 5).
type RuntimeError struct {
	Kind    RuntimeKind
	Message string
	Stack   []Frame
	Source  func(unit string) string
}

func (e *RuntimeError) Error() string { return e.Format(false) }

// Format renders the error plus a resolved call stack, most recent frame
// first.
func (e *RuntimeError) Format(color bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "runtime error: %s: %s\n", e.Kind, e.Message)
	for _, f := range e.Stack {
		line, col := 0, 0
		if e.Source != nil {
			if src := e.Source(f.Span.Unit); src != "" {
				line, col = lexer.Position(src, f.Span.Start)
			}
		}
		fmt.Fprintf(&sb, "  at %s (%s:%d:%d)\n", f.FuncName, f.Span.Unit, line, col)
	}
	return sb.String()
}
