package client

import "net/http"

const (
	MimeJSON  = "application/json"
	MimeJSONP = "application/json-p"
	MimeHTML  = "text/html"
)

// AcceptMimetype returns an Accept header for m.
func AcceptMimetype(m string) http.Header {
	return http.Header{"Accept": []string{m}}
}

func AcceptJSON() http.Header {
	return AcceptMimetype(MimeJSON)
}

func AcceptJSONP() http.Header {
	return AcceptMimetype(MimeJSONP)
}

// AcceptAny returns both wildcard forms, "*" and "*/*". Handlers should treat
// them alike; iterate over the result in a table test.
func AcceptAny() []http.Header {
	return []http.Header{AcceptMimetype("*"), AcceptMimetype("*/*")}
}

// Mimetypes returns the content types a typical endpoint negotiates between.
func Mimetypes() []string {
	return []string{MimeJSON, MimeHTML}
}
