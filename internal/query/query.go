// Package query drives the EventQuery lifecycle against the DataWave
// web service: create, paged next, close.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/dwvctl/dwv/internal/client"
	"github.com/dwvctl/dwv/internal/results"
)

const createEndpoint = "/DataWave/Query/EventQuery/create.json"

// Next-page polling is throttled so draining a large result set does
// not hammer the web service.
const (
	nextPagesPerSecond = 5
	nextBurst          = 1
)

// Params carries everything the create endpoint needs.
type Params struct {
	Name             string
	Query            string
	Auths            string
	ColumnVisibility string
	PageSize         int
	Begin            string
	End              string
}

// DefaultParams returns the parameter defaults used when a flag is not
// supplied. Begin and End span all of time.
func DefaultParams() Params {
	return Params{
		Name:             "test-query",
		ColumnVisibility: "N/A",
		PageSize:         5,
		Begin:            "19700101",
		End:              "20990101",
	}
}

// Form encodes the parameters the way the create endpoint expects.
func (p Params) Form() url.Values {
	return url.Values{
		"queryName":        {p.Name},
		"columnVisibility": {p.ColumnVisibility},
		"pagesize":         {strconv.Itoa(p.PageSize)},
		"begin":            {p.Begin},
		"end":              {p.End},
		"query":            {p.Query},
		"auths":            {p.Auths},
		"query.syntax":     {"JEXL"},
	}
}

// Connection is one open query against the service. It is not safe for
// concurrent use; a query is a single server-side cursor.
type Connection struct {
	client   *client.Client
	params   Params
	logger   *zap.Logger
	limiter  *rate.Limiter
	id       string
	open     bool
	returned int
}

// NewConnection prepares a query connection. Open must be called before
// Next or Close.
func NewConnection(c *client.Client, params Params, logger *zap.Logger) *Connection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Connection{
		client:  c,
		params:  params,
		logger:  logger.Named("query"),
		limiter: rate.NewLimiter(nextPagesPerSecond, nextBurst),
	}
}

// ID returns the server-assigned query id, empty until Open succeeds.
func (q *Connection) ID() string {
	return q.id
}

// Returned is the running total of events the service has handed back.
func (q *Connection) Returned() int {
	return q.returned
}

func (q *Connection) nextEndpoint() string {
	return fmt.Sprintf("/DataWave/Query/%s/next.json", q.id)
}

func (q *Connection) closeEndpoint() string {
	return fmt.Sprintf("/DataWave/Query/%s/close.json", q.id)
}

// Open creates the query on the server and records its id.
func (q *Connection) Open(ctx context.Context) error {
	q.logger.Info("creating query",
		zap.String("name", q.params.Name),
		zap.String("query", q.params.Query),
		zap.String("auths", q.params.Auths))

	resp, err := q.client.PostForm(ctx, createEndpoint, q.params.Form())
	if err != nil {
		return err
	}
	if err := q.client.ExpectOK(resp); err != nil {
		return fmt.Errorf("creating query: %w", err)
	}

	created, err := decodeCreate(resp)
	if err != nil {
		return err
	}
	q.id = created
	q.open = true
	q.logger.Debug("query created", zap.String("id", q.id))
	return nil
}

// Next returns the next page of results, or nil when the query is
// exhausted. The service signals exhaustion with a non-200 status on
// the next endpoint.
func (q *Connection) Next(ctx context.Context) (*results.Response, error) {
	if !q.open {
		return nil, fmt.Errorf("query has not been opened")
	}
	if err := q.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := q.client.Get(ctx, q.nextEndpoint())
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			q.logger.Debug("next returned non-200, ending query",
				zap.Int("status", resp.StatusCode))
		}
		return nil, nil
	}
	defer resp.Body.Close()

	page, err := results.Decode(resp.Body)
	if err != nil {
		return nil, err
	}
	q.returned += page.ReturnedEvents
	return page, nil
}

// Drain walks every remaining page and returns the flattened records in
// event order.
func (q *Connection) Drain(ctx context.Context) ([]results.Record, error) {
	var records []results.Record
	for {
		page, err := q.Next(ctx)
		if err != nil {
			return nil, err
		}
		if page == nil {
			return records, nil
		}
		parsed, err := results.Parse(page)
		if err != nil {
			return nil, err
		}
		records = append(records, parsed...)
	}
}

// Close releases the server-side query. Safe to call after a failed
// Open, where it does nothing.
func (q *Connection) Close(ctx context.Context) error {
	if !q.open {
		return nil
	}
	q.open = false

	resp, err := q.client.Get(ctx, q.closeEndpoint())
	if err != nil {
		return err
	}
	resp.Body.Close()

	if q.returned > 0 {
		q.logger.Info("query closed", zap.Int("total_results", q.returned))
	} else {
		q.logger.Info("query closed, no results found")
	}
	return nil
}

type createResponse struct {
	Result *string `json:"Result"`
}

func decodeCreate(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var created createResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}
	if created.Result == nil || *created.Result == "" {
		return "", fmt.Errorf("create response missing Result query id")
	}
	return *created.Result, nil
}
