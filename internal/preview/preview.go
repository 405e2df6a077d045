// Package preview fetches a homework's assignment PDF and summarises it
// for inline display.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/abelbrown/postexplorer/internal/fetch"
	"github.com/abelbrown/postexplorer/internal/post"
	"github.com/abelbrown/postexplorer/internal/trigger"
)

// DefaultURLTemplate locates an assignment PDF by homework number.
const DefaultURLTemplate = "https://berkeley-cs182.github.io/fa25/assets/assignments/hw%s.pdf"

var digits = regexp.MustCompile(`\d+`)

// HomeworkURL fills the first digit run of hw into template. Homeworks
// with no number, or "Unknown", have no PDF.
func HomeworkURL(template, hw string) string {
	hw = strings.TrimSpace(hw)
	if hw == "" || hw == post.Unknown {
		return ""
	}
	n := digits.FindString(hw)
	if n == "" {
		return ""
	}
	if template == "" {
		template = DefaultURLTemplate
	}
	return fmt.Sprintf(template, n)
}

// ErrNotPDF means the URL answered with something other than a PDF.
var ErrNotPDF = errors.New("response is not a PDF")

// Document is what the preview pane shows.
type Document struct {
	URL   string
	Title string
	Pages int
	Size  int
}

// Fetcher downloads PDFs through a rate-limited HTTP client.
type Fetcher struct {
	f *fetch.Fetcher
}

// NewFetcher allows one request per interval.
func NewFetcher(timeout, every time.Duration) *Fetcher {
	return &Fetcher{f: fetch.NewFetcher(timeout).WithRateLimit(every).WithMaxBytes(32 << 20)}
}

// NewFetcherWith wraps an existing fetch.Fetcher.
func NewFetcherWith(f *fetch.Fetcher) *Fetcher {
	return &Fetcher{f: f}
}

var (
	pageObj  = regexp.MustCompile(`/Type\s*/Page\b`)
	titleObj = regexp.MustCompile(`/Title\s*\(([^)]*)\)`)
)

// Fetch downloads url and inspects it.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Document, error) {
	resp, err := f.f.Get(ctx, url)
	if err != nil {
		return Document{}, err
	}
	if !bytes.HasPrefix(resp.Body, []byte("%PDF-")) {
		return Document{}, fmt.Errorf("%s (%s): %w", url, resp.ContentType, ErrNotPDF)
	}
	return Inspect(url, resp.Body), nil
}

// Inspect counts page objects and reads the document title, if any.
// Compressed object streams hide their pages; such files report 0 pages.
func Inspect(url string, data []byte) Document {
	doc := Document{URL: url, Size: len(data)}
	doc.Pages = len(pageObj.FindAll(data, -1))
	if m := titleObj.FindSubmatch(data); m != nil {
		doc.Title = strings.TrimSpace(string(m[1]))
	}
	return doc
}

// Status is the preview pane state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

// Pane tracks the one preview that may be showing. Opening a new preview
// invalidates the previous request; late results carry a stale token and
// are dropped by Resolve.
type Pane struct {
	seq    trigger.Sequence
	token  trigger.Token
	Status Status
	URL    string
	Doc    Document
	Err    error
}

// Open starts loading url and returns the request token.
func (p *Pane) Open(url string) trigger.Token {
	p.token = p.seq.Next()
	p.Status = StatusLoading
	p.URL = url
	p.Doc = Document{}
	p.Err = nil
	return p.token
}

// Resolve records a result. It reports false for a stale token.
func (p *Pane) Resolve(t trigger.Token, doc Document, err error) bool {
	if !p.seq.Current(t) {
		return false
	}
	if err != nil {
		p.Status = StatusFailed
		p.Err = err
		return true
	}
	p.Status = StatusReady
	p.Doc = doc
	return true
}

// Close hides the pane and abandons any request in flight.
func (p *Pane) Close() {
	p.seq.Invalidate()
	p.Status = StatusIdle
	p.URL = ""
	p.Doc = Document{}
	p.Err = nil
}
