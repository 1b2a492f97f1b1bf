package factwrite_test

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"

	"github.com/ersonp/popolo-core/tools/popolo-lint/analyzers/factwrite"
)

func TestAnalyzer(t *testing.T) {
	testdata := analysistest.TestData()
	analysistest.Run(t, testdata, factwrite.Analyzer, "a")
}
