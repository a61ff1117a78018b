package watchlist

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultLimit is the page size requested when a query sets none.
const DefaultLimit = 100

// LookupQuery selects watchlist records. Blank fields are not sent.
// Fuzzy is a matching-mode hint; nil leaves the provider default.
type LookupQuery struct {
	Name    string
	Country string
	Limit   int
	Fuzzy   *bool
}

// WithFuzzy returns a copy of q with the fuzzy hint set.
func (q LookupQuery) WithFuzzy(fuzzy bool) LookupQuery {
	q.Fuzzy = &fuzzy
	return q
}

func (q LookupQuery) values(defaultLimit int) url.Values {
	v := url.Values{}
	if name := strings.TrimSpace(q.Name); name != "" {
		v.Set("name", name)
	}
	if country := strings.TrimSpace(q.Country); country != "" {
		v.Set("country", country)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	v.Set("limit", strconv.Itoa(limit))
	if q.Fuzzy != nil {
		v.Set("fuzzy", strconv.FormatBool(*q.Fuzzy))
	}
	return v
}
