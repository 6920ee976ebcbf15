// Package testutil provides trial fixtures for tests of packages built on
// the calculator.
//
//	func TestSomething(t *testing.T) {
//	    in := testutil.TrialTable(t, testutil.Reference, testutil.Large)
//	    res, err := testutil.Calculator(t).Run(ctx, in)
//	}
package testutil
