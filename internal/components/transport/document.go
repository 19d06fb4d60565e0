package transport

import (
	"bytes"
	"context"
	"fmt"

	"trendlens-backend/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Document is a Page over static HTML.
type Document struct {
	doc *goquery.Document
}

func NewDocument(body []byte) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return Document{}, fmt.Errorf("parse html: %w", err)
	}
	return Document{doc: doc}, nil
}

func (d Document) Find(_ context.Context, selector string) (texts []string, err error) {
	// cascadia panics on some malformed selectors instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("find %q: %v", selector, r)
		}
	}()
	return htmlutil.SelectionTexts(d.doc.Find(selector)), nil
}
