package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/utils"
)

// userAgents is rotated per request to vary the client fingerprint.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Version/17.4 Safari/605.1.15 AppleWebKit/605.1.15 (KHTML, like Gecko)",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// HTTPProvider talks to the trends widget API. Responses carry an XSSI
// prefix before the JSON body; anything that is not JSON after stripping it
// is treated as a soft block.
type HTTPProvider struct {
	httpClient *http.Client
	baseURL    string

	mu      sync.Mutex
	uaIndex int
}

func NewHTTPProvider(cfg config.TrendsConfig) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &HTTPProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

// nextUserAgent rotates through the fingerprint pool.
func (p *HTTPProvider) nextUserAgent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ua := userAgents[p.uaIndex%len(userAgents)]
	p.uaIndex++
	return ua
}

// doRequest executes one GET against the widget API and returns the JSON
// body with the XSSI prefix stripped. Block classification happens here,
// once, at the transport boundary.
func (p *HTTPProvider) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s?%s", p.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", p.nextUserAgent())
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if looksLikeMarkup(body) {
		return nil, utils.NewBlockedError(
			fmt.Sprintf("HTML response with status %d from %s", resp.StatusCode, path), nil)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, utils.NewBlockedError(fmt.Sprintf("rate limited on %s", path), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}

	stripped := stripXSSIPrefix(body)
	if !json.Valid(stripped) {
		return nil, utils.NewBlockedError(fmt.Sprintf("response from %s is not valid JSON", path), nil)
	}
	return stripped, nil
}

// looksLikeMarkup detects an HTML error or challenge page disguised as a
// success.
func looksLikeMarkup(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	lower := strings.ToLower(trimmed)
	return strings.HasPrefix(lower, "<html") ||
		strings.HasPrefix(lower, "<!doctype") ||
		strings.HasPrefix(trimmed, "<")
}

// stripXSSIPrefix removes the `)]}'` guard the widget API prepends.
func stripXSSIPrefix(body []byte) []byte {
	s := string(body)
	if idx := strings.IndexAny(s, "{["); idx > 0 {
		prefix := strings.TrimSpace(s[:idx])
		if strings.HasPrefix(prefix, ")]}'") || strings.HasPrefix(prefix, ")]}") {
			return []byte(s[idx:])
		}
	}
	return body
}

type exploreResponse struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

// explore registers the query and returns the widget token plus the opaque
// request payload for the given widget id.
func (p *HTTPProvider) explore(ctx context.Context, keyword, geo, timeRange, widgetID string) (string, json.RawMessage, error) {
	exploreReq := map[string]interface{}{
		"comparisonItem": []map[string]string{
			{"keyword": keyword, "geo": geo, "time": timeRange},
		},
		"category": 0,
		"property": "",
	}
	payload, err := json.Marshal(exploreReq)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal explore request: %w", err)
	}

	params := url.Values{}
	params.Set("hl", "en-US")
	params.Set("tz", "360")
	params.Set("req", string(payload))

	body, err := p.doRequest(ctx, "/explore", params)
	if err != nil {
		return "", nil, err
	}

	var parsed exploreResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil, utils.NewBlockedError("explore response did not parse as JSON", err)
	}

	for _, w := range parsed.Widgets {
		if w.ID == widgetID {
			return w.Token, w.Request, nil
		}
	}
	return "", nil, fmt.Errorf("widget %s not present in explore response", widgetID)
}

type multilineResponse struct {
	Default struct {
		TimelineData []struct {
			Time  string `json:"time"`
			Value []int  `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// InterestOverTime fetches the daily interest series for keyword in region.
func (p *HTTPProvider) InterestOverTime(ctx context.Context, keyword, region string, start, end time.Time) ([]models.TimeSeriesPoint, error) {
	timeRange := fmt.Sprintf("%s %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	token, request, err := p.explore(ctx, keyword, region, timeRange, "TIMESERIES")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("hl", "en-US")
	params.Set("tz", "360")
	params.Set("token", token)
	params.Set("req", string(request))

	body, err := p.doRequest(ctx, "/widgetdata/multiline", params)
	if err != nil {
		return nil, err
	}

	var parsed multilineResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, utils.NewBlockedError("timeline response did not parse as JSON", err)
	}

	points := make([]models.TimeSeriesPoint, 0, len(parsed.Default.TimelineData))
	for _, item := range parsed.Default.TimelineData {
		if len(item.Value) == 0 {
			continue
		}
		ts, err := parseUnixSeconds(item.Time)
		if err != nil {
			continue
		}
		points = append(points, models.TimeSeriesPoint{
			Date:  ts.UTC().Format("2006-01-02"),
			Value: item.Value[0],
		})
	}
	return points, nil
}

type comparedGeoResponse struct {
	Default struct {
		GeoMapData []struct {
			GeoCode string `json:"geoCode"`
			Value   []int  `json:"value"`
		} `json:"geoMapData"`
	} `json:"default"`
}

// InterestByRegion fetches worldwide region comparison for the last 12
// months and keeps only the supported region set.
func (p *HTTPProvider) InterestByRegion(ctx context.Context, keyword string) ([]models.RegionScore, error) {
	token, request, err := p.explore(ctx, keyword, "", "today 12-m", "GEO_MAP")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("hl", "en-US")
	params.Set("tz", "360")
	params.Set("token", token)
	params.Set("req", string(request))

	body, err := p.doRequest(ctx, "/widgetdata/comparedgeo", params)
	if err != nil {
		return nil, err
	}

	var parsed comparedGeoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, utils.NewBlockedError("geo response did not parse as JSON", err)
	}

	supported := make(map[string]bool, len(SupportedRegions))
	for _, code := range SupportedRegions {
		supported[code] = true
	}

	scores := make([]models.RegionScore, 0, len(SupportedRegions))
	for _, item := range parsed.Default.GeoMapData {
		if !supported[item.GeoCode] || len(item.Value) == 0 {
			continue
		}
		scores = append(scores, models.RegionScore{
			RegionCode: item.GeoCode,
			Value:      item.Value[0],
		})
	}
	sortRegionScores(scores)
	return scores, nil
}

func parseUnixSeconds(value string) (time.Time, error) {
	var secs int64
	if _, err := fmt.Sscanf(value, "%d", &secs); err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0), nil
}
