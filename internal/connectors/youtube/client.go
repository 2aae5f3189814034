// Package youtube fetches video search results and statistics for the
// engagement/intent signal. This upstream is independent of the trends
// source and may be called concurrently with it.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/utils"
)

// maxIDsPerCall is the API limit for a batched statistics request.
const maxIDsPerCall = 50

// maxLookbackDays bounds the publishedAfter window to 5 years.
const maxLookbackDays = 1825

// FetchResult carries the raw statistics plus the query string actually
// sent upstream.
type FetchResult struct {
	Stats     []models.VideoStats
	QueryUsed string
}

type Client struct {
	httpClient *http.Client
	cfg        config.YouTubeConfig
	logger     *logrus.Logger
}

func NewClient(cfg config.YouTubeConfig, logger *logrus.Logger) *Client {
	if cfg.APIKey == "" {
		logger.Warn("YouTube API key not set, video features disabled")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
		logger:     logger,
	}
}

// FetchComplete searches for videos matching keyword and loads statistics
// for each result.
func (c *Client) FetchComplete(ctx context.Context, keyword, region, lang string, windowDays, maxResults int) (*FetchResult, error) {
	if c.cfg.APIKey == "" {
		return nil, utils.NewValidationError("youtube api key is not configured")
	}

	ids, err := c.searchVideos(ctx, keyword, region, lang, windowDays, maxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &FetchResult{QueryUsed: keyword}, nil
	}

	stats, err := c.videoDetails(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &FetchResult{Stats: stats, QueryUsed: keyword}, nil
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

// searchVideos returns matching video ids ordered by view count. The region
// filter is off by default: the upstream region signal proved unreliable and
// is applied only when explicitly enabled.
func (c *Client) searchVideos(ctx context.Context, keyword, region, lang string, windowDays, maxResults int) ([]string, error) {
	if windowDays > maxLookbackDays {
		windowDays = maxLookbackDays
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > maxIDsPerCall {
		maxResults = maxIDsPerCall
	}

	publishedAfter := time.Now().UTC().AddDate(0, 0, -windowDays).Truncate(time.Second)

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", keyword)
	params.Set("type", "video")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("publishedAfter", publishedAfter.Format("2006-01-02T15:04:05Z"))
	params.Set("relevanceLanguage", strings.ToLower(lang))
	params.Set("order", "viewCount")
	params.Set("key", c.cfg.APIKey)
	if c.cfg.FilterByRegion {
		params.Set("regionCode", strings.ToUpper(region))
	}

	c.logger.WithFields(logrus.Fields{
		"keyword":     keyword,
		"region":      region,
		"window_days": windowDays,
		"max_results": maxResults,
	}).Info("Searching videos")

	body, err := c.doGet(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	return ids, nil
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// videoDetails loads statistics in batches of at most 50 ids per request.
func (c *Client) videoDetails(ctx context.Context, ids []string) ([]models.VideoStats, error) {
	var stats []models.VideoStats

	for start := 0; start < len(ids); start += maxIDsPerCall {
		end := start + maxIDsPerCall
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		params.Set("part", "snippet,statistics,contentDetails")
		params.Set("id", strings.Join(ids[start:end], ","))
		params.Set("key", c.cfg.APIKey)

		body, err := c.doGet(ctx, "/videos", params)
		if err != nil {
			return nil, err
		}

		var parsed videosResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse videos response: %w", err)
		}

		for _, item := range parsed.Items {
			stats = append(stats, models.VideoStats{
				VideoID:      item.ID,
				Title:        item.Snippet.Title,
				ChannelTitle: item.Snippet.ChannelTitle,
				PublishedAt:  item.Snippet.PublishedAt,
				Duration:     item.ContentDetails.Duration,
				Views:        parseCount(item.Statistics.ViewCount),
				Likes:        parseCount(item.Statistics.LikeCount),
				Comments:     parseCount(item.Statistics.CommentCount),
			})
		}
	}
	return stats, nil
}

func (c *Client) doGet(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s%s?%s", strings.TrimSuffix(c.cfg.BaseURL, "/"), path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read youtube response: %w", err)
	}

	if resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("youtube api quota exceeded or invalid api key")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube returned status %d", resp.StatusCode)
	}
	return body, nil
}

func parseCount(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
