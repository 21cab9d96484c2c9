package noosexit

import (
	"testing"

	"golang.org/x/tools/go/analysis/analysistest"
)

// Test runs the noosexit Analyzer against test data using analysistest.
// Only the direct call inside main.main is reported.
func Test(t *testing.T) {
	analysistest.Run(t, analysistest.TestData(), Analyzer, "a")
}
