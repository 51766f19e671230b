package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dghubble/sling"
	"golang.org/x/net/html/charset"

	"github.com/pfrederiksen/vols1365/internal/client"
	"github.com/pfrederiksen/vols1365/internal/logger"
	"github.com/pfrederiksen/vols1365/internal/retry"
)

// DetailURL is the program detail page scraped for headcounts.
const DetailURL = "https://www.1365.go.kr/vols/P9210/partcptn/timeCptn.do"

// Scraper fetches program detail pages and extracts headcounts.
type Scraper struct {
	client  *client.Client
	policy  retry.Policy
	baseURL string
}

// New creates a Scraper that sends requests through c and retries transient
// failures per policy.
func New(c *client.Client, policy retry.Policy) *Scraper {
	return &Scraper{
		client:  c,
		policy:  policy,
		baseURL: DetailURL,
	}
}

// WithBaseURL returns a copy of s that fetches detail pages from base.
func (s *Scraper) WithBaseURL(base string) *Scraper {
	cp := *s
	cp.baseURL = base
	return &cp
}

// detailQuery is the detail page query string.
type detailQuery struct {
	Type string `url:"type"`
	ID   string `url:"progrmRegistNo"`
}

func (s *Scraper) newRequest(id string) (*http.Request, error) {
	return sling.New().Get(s.baseURL).QueryStruct(detailQuery{Type: "show", ID: id}).Request()
}

// PageURL returns the detail page URL for a program ID.
func (s *Scraper) PageURL(id string) string {
	req, err := s.newRequest(id)
	if err != nil {
		return ""
	}
	return req.URL.String()
}

// FetchCounts downloads the detail page for id and extracts its headcounts.
// A 4xx page yields empty counts without error. Exhausted retries and
// transport failures are returned.
func (s *Scraper) FetchCounts(ctx context.Context, id string) (Counts, error) {
	req, err := s.newRequest(id)
	if err != nil {
		return Counts{}, fmt.Errorf("building detail request %s: %w", id, err)
	}

	var resp *client.Response
	err = retry.Do(ctx, "detail:"+id, s.policy, func(ctx context.Context) error {
		var err error
		resp, err = s.client.Do(ctx, req)
		return err
	})
	logger.IncrCounter("detail.fetches")
	if err != nil {
		var se *client.StatusError
		if errors.As(err, &se) && !se.Retriable() {
			logger.Debug("detail page unavailable", logger.Fields{"id": id, "status": se.StatusCode})
			return Counts{}, nil
		}
		logger.IncrCounter("detail.failures")
		return Counts{}, fmt.Errorf("fetching detail %s: %w", id, err)
	}

	r, err := charset.NewReader(bytes.NewReader(resp.Body), resp.ContentType())
	if err != nil {
		return Counts{}, fmt.Errorf("decoding detail %s: %w", id, err)
	}

	counts, err := extractFrom(r)
	if err != nil {
		return Counts{}, fmt.Errorf("parsing detail %s: %w", id, err)
	}
	return counts, nil
}
