// Package analyzers provides all custom static analyzers for popolo-core.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/popolo-core/tools/popolo-lint/analyzers/factwrite"
	"github.com/ersonp/popolo-core/tools/popolo-lint/analyzers/loopcall"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		factwrite.Analyzer,
		loopcall.Analyzer,
	}
}
