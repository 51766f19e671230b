package collector

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/go-querystring/query"

	"github.com/pfrederiksen/vols1365/internal/client"
	"github.com/pfrederiksen/vols1365/internal/envelope"
	"github.com/pfrederiksen/vols1365/internal/logger"
	"github.com/pfrederiksen/vols1365/internal/retry"
	"github.com/pfrederiksen/vols1365/internal/storage"
)

// ListURL is the 1365 keyword search endpoint of the volunteer listing API.
const ListURL = "http://openapi.1365.go.kr/openapi/service/rest/VolunteerPartcptnService/getVltrSearchWordList"

// PageFetcher fetches and decodes one listing page. strategy names the rung
// for logs and dumps.
type PageFetcher interface {
	FetchPage(ctx context.Context, strategy string, q Query) (*envelope.Page, error)
}

// ListAPI is the PageFetcher backed by the 1365 listing endpoint.
type ListAPI struct {
	client     *client.Client
	policy     retry.Policy
	serviceKey string
	baseURL    string
	dumper     *storage.Dumper
}

// NewListAPI creates a ListAPI. serviceKey is sent verbatim since portal keys
// are issued already URL-encoded. dumper may be nil.
func NewListAPI(c *client.Client, policy retry.Policy, serviceKey string, dumper *storage.Dumper) *ListAPI {
	return &ListAPI{
		client:     c,
		policy:     policy,
		serviceKey: serviceKey,
		baseURL:    ListURL,
		dumper:     dumper,
	}
}

// WithBaseURL returns a copy of a that calls base instead of ListURL.
func (a *ListAPI) WithBaseURL(base string) *ListAPI {
	cp := *a
	cp.baseURL = base
	return &cp
}

// PageURL builds the request URL for q.
func (a *ListAPI) PageURL(q Query) (string, error) {
	values, err := query.Values(q)
	if err != nil {
		return "", fmt.Errorf("encoding query: %w", err)
	}
	return a.baseURL + "?ServiceKey=" + a.serviceKey + "&" + values.Encode(), nil
}

// FetchPage implements PageFetcher.
//
// Responses with HTTP >= 400, bodies that are neither JSON nor XML, and page 1
// responses without items are dumped for inspection.
func (a *ListAPI) FetchPage(ctx context.Context, strategy string, q Query) (*envelope.Page, error) {
	if q.Type == "" {
		q.Type = "json"
	}
	u, err := a.PageURL(q)
	if err != nil {
		return nil, err
	}

	var resp *client.Response
	err = retry.Do(ctx, "list:"+strategy+":p"+strconv.Itoa(q.PageNo), a.policy, func(ctx context.Context) error {
		var err error
		resp, err = a.client.Get(ctx, u)
		return err
	})
	if err != nil {
		var se *client.StatusError
		if errors.As(err, &se) && resp != nil {
			a.dumper.Dump(fmt.Sprintf("list_%s_p%d.txt", strategy, q.PageNo), resp.Body)
		}
		return nil, fmt.Errorf("fetching %s page %d: %w", strategy, q.PageNo, err)
	}

	page, err := envelope.Decode(resp.Body, resp.ContentType())
	if err != nil {
		var de *envelope.DecodeError
		if errors.As(err, &de) {
			path := a.dumper.Dump("unknown_body.txt", resp.Body)
			logger.Warn("undecodable listing body", logger.Fields{
				"strategy": strategy,
				"page":     q.PageNo,
				"dump":     path,
				"preview":  envelope.Preview(resp.Body, 200),
			})
		}
		return nil, fmt.Errorf("decoding %s page %d: %w", strategy, q.PageNo, err)
	}

	if q.PageNo == 1 && len(page.Items) == 0 {
		a.dumper.Dump(fmt.Sprintf("page1_zero_%s.txt", strategy), resp.Body)
	}
	return page, nil
}
