package pagination

import "github.com/saturnines/nexus-smapi/pkg/transport/rest"

// Pager drives one pagination strategy.
type Pager interface {
	// Next returns the spec for the next page, or false once paging is done.
	Next() (rest.Spec, bool)
	// Update records the continuation token returned by the last page.
	Update(token string)
}
