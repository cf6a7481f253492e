package validate

import (
	"net/url"
	"time"

	"github.com/boltoncivic/crawlctl/internal/coverage"
	"github.com/boltoncivic/crawlctl/internal/model"
)

// LogDropped reports a dropped record's field errors as one parsing_error
// CrawlError per failing field, against sourceURL, matching the schema's
// failure action. kind is a short label such as "spending_record" used as
// the coverage action attribute.
func LogDropped(recorder coverage.Recorder, category, sourceURL, kind string, errs []FieldError) {
	if recorder == nil || len(errs) == 0 {
		return
	}
	domain := hostOf(sourceURL)
	for _, fe := range errs {
		recorder.RecordError(
			coverage.ErrorRecord{
				PackageName: "validate",
				Action:      "validate:" + kind,
				Cause:       coverage.CauseContentInvalid,
				ErrorString: fe.Reason,
				ObservedAt:  time.Now(),
				Attrs: []coverage.Attribute{
					coverage.NewAttr(coverage.AttrURL, sourceURL),
					coverage.NewAttr(coverage.AttrField, fe.Field),
				},
			},
			domain, category, model.ErrorParsing, sourceURL,
		)
	}
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
