package pagination

import "github.com/saturnines/nexus-smapi/pkg/transport/rest"

// DefaultTokenParam is the query parameter carrying the continuation token.
const DefaultTokenParam = "pageToken"

// TokenPager handles continuation-token pagination.
type TokenPager struct {
	Base       rest.Spec
	TokenParam string

	nextToken string
	first     bool
	pages     int
}

// NewTokenPager builds a TokenPager. An empty tokenParam means "pageToken".
func NewTokenPager(base rest.Spec, tokenParam string) *TokenPager {
	if tokenParam == "" {
		tokenParam = DefaultTokenParam
	}
	return &TokenPager{
		Base:       base,
		TokenParam: tokenParam,
		first:      true,
	}
}

// Next returns the spec for the next page, or false when there are no more pages.
// Every returned spec is a fresh copy of Base.
func (p *TokenPager) Next() (rest.Spec, bool) {
	// If this is not the first call, and nextToken is empty, we're done.
	if !p.first && p.nextToken == "" {
		return rest.Spec{}, false
	}

	spec := p.Base.Clone()
	if !p.first {
		spec.Params[p.TokenParam] = p.nextToken
	}

	p.first = false
	p.pages++
	return spec, true
}

// Update stores the token for the next page. An empty token ends pagination.
func (p *TokenPager) Update(token string) {
	p.nextToken = token
}

// Pages reports how many page specs have been handed out.
func (p *TokenPager) Pages() int {
	return p.pages
}
