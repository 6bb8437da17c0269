package testutil

import "testing"

// Given, When, and Then wrap t.Run so scenario tests read as behaviour:
//
//	testutil.Given(t, "a photo-only submission", func(t *testing.T) {
//		testutil.Then(t, "the reverse search runs first", ...)
//	})
func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Given "+desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("When "+desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	t.Run("Then "+desc, fn)
}
