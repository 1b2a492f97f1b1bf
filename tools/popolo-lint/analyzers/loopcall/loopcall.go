// Package loopcall detects single-item calls inside loops when the receiver
// also offers a batch variant.
package loopcall

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports x.M(...) inside a loop when x also has MBatch, such as
// Embed and EmbedBatch on an embedder or Save and SaveBatch on the name index.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "detects calls inside loops that have a Batch variant on the same receiver",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// closures run later, not once per iteration
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			if batch, ok := batchVariant(pass, sel); ok {
				pass.Reportf(call.Pos(), "%s called inside loop, use %s", sel.Sel.Name, batch)
			}
			return true
		})
	})

	return nil, nil
}

// batchVariant returns the name of the Batch sibling of the selected method.
func batchVariant(pass *analysis.Pass, sel *ast.SelectorExpr) (string, bool) {
	selection, ok := pass.TypesInfo.Selections[sel]
	if !ok || selection.Kind() != types.MethodVal {
		return "", false
	}

	name := sel.Sel.Name + "Batch"
	obj, _, _ := types.LookupFieldOrMethod(selection.Recv(), true, pass.Pkg, name)
	if _, isFunc := obj.(*types.Func); !isFunc {
		return "", false
	}
	return name, true
}
