// Package response gives tests a uniform view of HTTP responses regardless of
// whether they came from an in-process handler or a live server.
//
// Any type implementing Raw can be wrapped. Wrap adds a JSON accessor unless
// the type already has one, in which case the user-defined accessor wins:
//
//	res := response.Wrap(raw)
//	v, err := res.JSON()
//
// Status assertions read like testify and print the code pair on mismatch:
//
//	response.AssertStatus(t, res, http.StatusOK)
//	// Mismatch in status code for response: 404 != 200
//	// Response status: 404 Not Found
package response
