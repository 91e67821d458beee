package auth

import (
	"fmt"
	"net/http"
)

// BearerAuth sends an OAuth access token obtained elsewhere. Nothing here
// refreshes it; an expired token surfaces as a 401 from the fetcher.
type BearerAuth struct {
	Token string
}

func NewBearerAuth(token string) *BearerAuth {
	return &BearerAuth{Token: token}
}

func (b *BearerAuth) ApplyAuth(req *http.Request) error {
	if b.Token == "" {
		return fmt.Errorf("%w: bearer token is empty", ErrMissingCredentials)
	}
	req.Header.Set("Authorization", "Bearer "+b.Token)
	return nil
}

// String never includes the token.
func (b *BearerAuth) String() string {
	return "BearerAuth(token: [REDACTED])"
}
