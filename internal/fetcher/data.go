package fetcher

import "net/url"

// FetchParam is everything a single fetch attempt needs beyond the HTTP
// client itself.
type FetchParam struct {
	TargetURL url.URL
	UserAgent string
	Category  string
	Depth     int
}

func NewFetchParam(targetURL url.URL, userAgent, category string, depth int) FetchParam {
	return FetchParam{
		TargetURL: targetURL,
		UserAgent: userAgent,
		Category:  category,
		Depth:     depth,
	}
}
