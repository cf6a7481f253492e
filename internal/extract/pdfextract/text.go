package pdfextract

import (
	"bytes"
	"fmt"
	"strings"

	rpdf "rsc.io/pdf"
)

// extractPages reads content as a PDF and returns one text string per page.
// A corrupt or unsupported PDF trips a panic deep inside rsc.io/pdf often
// enough in the wild that it is recovered here rather than left to crash
// the worker that called Extract.
func extractPages(content []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
			pages = nil
		}
	}()

	reader, err := rpdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, err
	}

	pages = make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		var b strings.Builder
		for _, fragment := range page.Content().Text {
			b.WriteString(fragment.S)
			b.WriteString(" ")
		}
		pages = append(pages, b.String())
	}
	return pages, nil
}
