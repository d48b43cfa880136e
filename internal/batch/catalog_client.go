package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// CatalogCourse is one course entry of the catalog feed
type CatalogCourse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Instructor    string `json:"instructor"`
	Thumbnail     string `json:"thumbnail"`
	Price         int64  `json:"price"`
	JobCategoryID int64  `json:"jobCategoryId"`
}

type catalogPage struct {
	Courses []CatalogCourse `json:"courses"`
}

// CatalogClient reads the paged JSON course catalog
type CatalogClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalogClient creates a client for the catalog at baseURL
func NewCatalogClient(baseURL string, requestTimeout time.Duration) *CatalogClient {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &CatalogClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// FetchPage returns the courses on one catalog page. Pages start at 1; an empty slice means
// the catalog is exhausted.
func (c *CatalogClient) FetchPage(ctx context.Context, page int) ([]CatalogCourse, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog page %d returned status %d", page, resp.StatusCode)
	}

	var body catalogPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode catalog page %d: %w", page, err)
	}
	return body.Courses, nil
}
