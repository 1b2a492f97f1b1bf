// popolo-lint checks popolo-core for fact writes that skip reconciliation
// and for index calls that should be batched.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/popolo-core/tools/popolo-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
