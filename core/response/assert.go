package response

import (
	"fmt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tHelper interface {
	Helper()
}

// StatusEquals reports whether r has the given status code.
// A nil response never matches.
func StatusEquals(r Raw, code int) bool {
	return r != nil && r.StatusCode() == code
}

// AssertStatus checks the status code of r and reports a mismatch on t.
func AssertStatus(t assert.TestingT, r Raw, code int, msgAndArgs ...any) bool {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if r == nil {
		return assert.Fail(t, "Expected a response, got nil", msgAndArgs...)
	}
	if StatusEquals(r, code) {
		return true
	}
	return assert.Fail(t, fmt.Sprintf(
		"Mismatch in status code for response: %d != %d\nResponse status: %s",
		r.StatusCode(), code, r.Status(),
	), msgAndArgs...)
}

// RequireStatus is like AssertStatus but stops the test on mismatch.
func RequireStatus(t require.TestingT, r Raw, code int, msgAndArgs ...any) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	if AssertStatus(t, r, code, msgAndArgs...) {
		return
	}
	t.FailNow()
}
