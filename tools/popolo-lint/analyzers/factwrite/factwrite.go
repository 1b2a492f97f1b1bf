// Package factwrite reports dated facts written around the overlap resolver.
//
// Identifiers, other names, memberships and ownerships must be stored through
// the reconcile stores, which check the new period against every fact in its
// bucket. A direct Save* call elsewhere can leave two overlapping facts.
package factwrite

import (
	"go/ast"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports fact writes outside stores.go.
var Analyzer = &analysis.Analyzer{
	Name:     "factwrite",
	Doc:      "reports dated facts saved without going through the reconcile stores",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// Directive marks a reviewed write on the same or the previous line.
const Directive = "//factwrite:ok"

var factWrites = map[string]bool{
	"SaveIdentifier": true,
	"SaveOtherName":  true,
	"SaveMembership": true,
	"SaveOwnership":  true,
}

// storeFile is the file allowed to write facts directly.
const storeFile = "stores.go"

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	allowed := make(map[string]map[int]bool)
	for _, f := range pass.Files {
		name := pass.Fset.Position(f.Pos()).Filename
		lines := make(map[int]bool)
		for _, group := range f.Comments {
			for _, c := range group.List {
				if strings.HasPrefix(c.Text, Directive) {
					line := pass.Fset.Position(c.Pos()).Line
					lines[line] = true
					lines[line+1] = true
				}
			}
		}
		allowed[name] = lines
	}

	inspect.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || !factWrites[sel.Sel.Name] {
			return
		}

		pos := pass.Fset.Position(call.Pos())
		if filepath.Base(pos.Filename) == storeFile || allowed[pos.Filename][pos.Line] {
			return
		}

		pass.Reportf(call.Pos(), "%s bypasses the overlap resolver; write facts through a reconcile store", sel.Sel.Name)
	})

	return nil, nil
}
