package transport

import (
	"net/http"
)

// Authenticator applies marketplace credentials to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth implements no authentication.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {}

// BearerAuth implements OAuth Bearer token authentication (Yandex Market).
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// HeaderAuth implements custom header authentication.
type HeaderAuth struct {
	Header string
	Value  string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request) {
	req.Header.Set(a.Header, a.Value)
}

// SellerAuth implements Ozon seller authentication: a client id and an API
// key sent as separate headers.
type SellerAuth struct {
	ClientID string
	APIKey   string
}

// Apply implements the Authenticator interface for SellerAuth.
func (a *SellerAuth) Apply(req *http.Request) {
	req.Header.Set("Client-Id", a.ClientID)
	req.Header.Set("Api-Key", a.APIKey)
}
