// Package jscheck validates client script text before it is injected into a
// page.
package jscheck

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// ErrSyntax is returned when the source does not parse as expected.
var ErrSyntax = errors.New("jscheck: syntax error")

// Script reports whether src compiles as a standalone script.
func Script(name, src string) error {
	if _, err := goja.Compile(name, src, false); err != nil {
		return fmt.Errorf("%w in %s: %v", ErrSyntax, name, err)
	}
	return nil
}

// Expression reports whether src is exactly one expression, such as a
// function literal used as an event handler.
func Expression(name, src string) error {
	prog, err := parser.ParseFile(nil, name, "(\n"+src+"\n);", 0)
	if err != nil {
		return fmt.Errorf("%w in %s: %v", ErrSyntax, name, err)
	}
	if len(prog.Body) != 1 {
		return fmt.Errorf("%w in %s: expected a single expression, found %d statements", ErrSyntax, name, len(prog.Body))
	}
	if _, ok := prog.Body[0].(*ast.ExpressionStatement); !ok {
		return fmt.Errorf("%w in %s: expected an expression", ErrSyntax, name)
	}
	return nil
}
