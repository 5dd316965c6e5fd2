package mcp

import "net/http"

// bearerTransport injects an Authorization: Bearer header into every
// outgoing request. The request is cloned so the shared base transport
// never sees a mutated original.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(req)
}
