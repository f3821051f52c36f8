package localdata

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingAuthKey    = errors.New("개방 API 인증키가 설정되지 않았습니다")
	ErrUnknownFacility   = errors.New("알 수 없는 의료기관 유형입니다")
	ErrProviderRejected  = errors.New("개방 API가 요청을 거부했습니다")
	ErrMalformedResponse = errors.New("개방 API 응답을 해석할 수 없습니다")
)

// Config represents the localdata.go.kr open-data API client configuration.
type Config struct {
	// BaseURL is the openDataApi endpoint
	BaseURL string

	// AuthKey is the issued API credential
	AuthKey string

	// PageSize is the per-page row count requested from the provider
	PageSize int

	// MaxPages caps pagination per query as a runaway guard
	MaxPages int

	// PageDelay is slept between page requests to respect rate limits
	PageDelay time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required")
	}
	if c.AuthKey == "" {
		return ErrMissingAuthKey
	}
	return nil
}

// Client is an HTTP client for the government facility open-data API.
// Responses arrive as XML or JSON depending on provider mood; both are handled.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new open-data API client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.PageSize <= 0 {
		config.PageSize = 500
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 20
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// FetchByLicenseDate fetches all rows of the given facility type whose
// license date falls within [from, to] (YYYYMMDD, inclusive).
func (c *Client) FetchByLicenseDate(ctx context.Context, facilityType, from, to string) ([]RawFacility, error) {
	serviceID, ok := ServiceIDs[facilityType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFacility, facilityType)
	}

	params := url.Values{}
	params.Set("opnSvcId", serviceID)
	params.Set("bgnYmd", from)
	params.Set("endYmd", to)

	return c.fetchPaginated(ctx, params)
}

// FetchByLastModified fetches all rows of the given facility type whose
// provider-side last-modified timestamp falls within [from, to] (YYYYMMDD).
// Newly licensed facilities often surface here days before the license-date
// index catches up, so ingestion queries both and merges.
func (c *Client) FetchByLastModified(ctx context.Context, facilityType, from, to string) ([]RawFacility, error) {
	serviceID, ok := ServiceIDs[facilityType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFacility, facilityType)
	}

	params := url.Values{}
	params.Set("opnSvcId", serviceID)
	params.Set("lastModTsBgn", from)
	params.Set("lastModTsEnd", to)

	return c.fetchPaginated(ctx, params)
}

// fetchPaginated walks pages until a short page signals exhaustion,
// or MaxPages is reached.
func (c *Client) fetchPaginated(ctx context.Context, params url.Values) ([]RawFacility, error) {
	var all []RawFacility

	for pageIndex := 1; pageIndex <= c.config.MaxPages; pageIndex++ {
		if pageIndex > 1 && c.config.PageDelay > 0 {
			select {
			case <-time.After(c.config.PageDelay):
			case <-ctx.Done():
				return all, ctx.Err()
			}
		}

		rows, err := c.fetchPage(ctx, params, pageIndex)
		if err != nil {
			return all, err
		}

		all = append(all, rows...)

		// Short or empty page means the provider ran out of rows.
		if len(rows) < c.config.PageSize {
			break
		}
	}

	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, params url.Values, pageIndex int) ([]RawFacility, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("authKey", c.config.AuthKey)
	q.Set("pageSize", strconv.Itoa(c.config.PageSize))
	q.Set("pageIndex", strconv.Itoa(pageIndex))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call open-data API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("open-data API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if strings.Contains(contentType, "xml") {
		return parseXMLRows(body)
	}
	return parseJSONRows(body)
}

func parseXMLRows(body []byte) ([]RawFacility, error) {
	var resp xmlResponse
	if err := xml.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	rows := make([]RawFacility, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		rows = append(rows, row.toRaw())
	}
	return rows, nil
}

func parseJSONRows(body []byte) ([]RawFacility, error) {
	resp, err := parseJSONBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	code := resp.Result.Header.Process.Code
	if code != "" && code != "00" && code != "000" {
		return nil, fmt.Errorf("%w: %s %s", ErrProviderRejected, code, resp.Result.Header.Process.Message)
	}

	return resp.rows(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
