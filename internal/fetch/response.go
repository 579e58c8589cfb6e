package fetch

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/lepinkainen/ratingsync/internal/errors"
)

// Response is a fully read 2xx response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
	FromCache  bool
}

// JSON decodes the body into target.
func (r *Response) JSON(target any) error {
	if err := json.Unmarshal(r.Body, target); err != nil {
		return errors.NewParseError(r.URL, err)
	}
	return nil
}

// Document parses the body as HTML.
func (r *Response) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, errors.NewParseError(r.URL, err)
	}
	return doc, nil
}
