// Package marketplace talks to the affiliate product API: signed gateway
// calls for competitor product queries and the authoritative category tree.
package marketplace

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/utils"
)

// StructuralError marks a failure of the channel itself: wrong method name,
// missing permission, bad credentials. Callers disable the channel instead
// of retrying.
type StructuralError struct {
	Message string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("marketplace channel unusable: %s", e.Message)
}

// IsStructuralError reports whether err is a StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// structuralMarkers are the API error fragments that mean the channel is
// permanently unusable for this process.
var structuralMarkers = []string{"invalid method", "method not found", "no permission", "unauthorized"}

// ProductQueryParams are the normalized inputs of a competitor query.
type ProductQueryParams struct {
	Keywords       string
	ShipToCountry  string
	TargetCurrency string
	TargetLanguage string
	PageNo         int
	PageSize       int
}

type cachedResult struct {
	result   *models.ProductQueryResult
	cachedAt time.Time
}

// Client is the signed affiliate API client. Responses are cached in memory
// for the configured TTL to spare the request quota.
type Client struct {
	httpClient *http.Client
	cfg        config.MarketplaceConfig
	logger     *logrus.Logger

	mu    sync.Mutex
	cache map[string]cachedResult

	now func() time.Time
}

func NewClient(cfg config.MarketplaceConfig, logger *logrus.Logger) *Client {
	if cfg.AppKey == "" || cfg.AppSecret == "" {
		logger.Warn("Marketplace credentials missing, product queries will fail")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cfg:        cfg,
		logger:     logger,
		cache:      make(map[string]cachedResult),
		now:        time.Now,
	}
}

type productQueryResponse struct {
	Response struct {
		RespResult struct {
			Result struct {
				TotalRecordCount int `json:"total_record_count"`
				Products         struct {
					Product []rawProduct `json:"product"`
				} `json:"products"`
			} `json:"result"`
		} `json:"resp_result"`
	} `json:"aliexpress_affiliate_product_query_response"`
}

type rawProduct struct {
	ProductID            json.Number `json:"product_id"`
	ProductTitle         string      `json:"product_title"`
	SalePrice            string      `json:"sale_price"`
	Discount             string      `json:"discount"`
	EvaluateRate         string      `json:"evaluate_rate"`
	LatestVolume         json.Number `json:"lastest_volume"`
	ProductDetailURL     string      `json:"product_detail_url"`
	ShopID               json.Number `json:"shop_id"`
	ShopURL              string      `json:"shop_url"`
	PromotionLink        string      `json:"promotion_link"`
	CategoryID           json.Number `json:"category_id"`
	FirstLevelCategoryID json.Number `json:"first_level_category_id"`
}

// ProductQuery runs one competitor product search, normalized and sorted by
// sales volume upstream.
func (c *Client) ProductQuery(ctx context.Context, params ProductQueryParams) (*models.ProductQueryResult, error) {
	if c.cfg.AppKey == "" || c.cfg.AppSecret == "" {
		return nil, utils.NewValidationError("marketplace credentials are not configured")
	}

	cacheKey := fmt.Sprintf("%s|%s|%s|%s|%d|%d",
		params.Keywords, params.ShipToCountry, params.TargetCurrency,
		params.TargetLanguage, params.PageNo, params.PageSize)
	if cached, ok := c.cacheGet(cacheKey); ok {
		cached.CacheHit = true
		return cached, nil
	}

	business := map[string]string{
		"keywords":        params.Keywords,
		"ship_to_country": params.ShipToCountry,
		"target_currency": params.TargetCurrency,
		"target_language": params.TargetLanguage,
		"page_no":         strconv.Itoa(params.PageNo),
		"page_size":       strconv.Itoa(params.PageSize),
		"sort":            "LAST_VOLUME_DESC",
		"fields":          "product_id,product_title,sale_price,discount,evaluate_rate,lastest_volume,product_detail_url,shop_id,shop_url,promotion_link,category_id,first_level_category_id",
	}
	if c.cfg.TrackingID != "" {
		business["tracking_id"] = c.cfg.TrackingID
	}

	body, err := c.callAPI(ctx, c.cfg.BaseURL, "aliexpress.affiliate.product.query", business)
	if err != nil {
		return nil, err
	}

	var parsed productQueryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse product query response: %w", err)
	}

	result := &models.ProductQueryResult{
		Paging: models.Paging{
			Page:     params.PageNo,
			PageSize: params.PageSize,
			Total:    parsed.Response.RespResult.Result.TotalRecordCount,
		},
	}
	for _, raw := range parsed.Response.RespResult.Result.Products.Product {
		result.Competitors = append(result.Competitors, normalizeProduct(raw))
	}

	c.cacheSet(cacheKey, result)
	return result, nil
}

// normalizeProduct converts one raw listing. sell_score = round(volume *
// rate) where rate is the evaluate percentage as a fraction.
func normalizeProduct(raw rawProduct) models.Competitor {
	volume, _ := raw.LatestVolume.Int64()
	rate := parseRate(raw.EvaluateRate)

	sellScore := rate.Mul(decimal.NewFromInt(volume)).Round(0).IntPart()

	categoryID := raw.CategoryID.String()
	if categoryID == "" || categoryID == "0" {
		categoryID = raw.FirstLevelCategoryID.String()
	}

	salePrice, err := decimal.NewFromString(strings.TrimSpace(raw.SalePrice))
	if err != nil {
		salePrice = decimal.Zero
	}

	return models.Competitor{
		ProductID:            raw.ProductID.String(),
		ProductTitle:         raw.ProductTitle,
		SalePrice:            salePrice,
		Discount:             raw.Discount,
		EvaluateRate:         parseRatePercent(raw.EvaluateRate),
		LatestVolume:         volume,
		ProductDetailURL:     raw.ProductDetailURL,
		ShopID:               raw.ShopID.String(),
		ShopURL:              raw.ShopURL,
		PromotionLink:        raw.PromotionLink,
		CategoryID:           categoryID,
		FirstLevelCategoryID: raw.FirstLevelCategoryID.String(),
		SellScore:            sellScore,
		Confidence:           models.ConfidenceUnknown,
	}
}

// parseRate turns "95.5%" into 0.955. Values already below 1 pass through.
func parseRate(value string) decimal.Decimal {
	s := strings.TrimSpace(strings.ReplaceAll(value, "%", ""))
	num, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if num.GreaterThan(decimal.NewFromInt(1)) {
		return num.Div(decimal.NewFromInt(100))
	}
	return num
}

// parseRatePercent keeps the percentage form for display.
func parseRatePercent(value string) decimal.Decimal {
	s := strings.TrimSpace(strings.ReplaceAll(value, "%", ""))
	num, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return num
}

// callAPI executes one signed gateway call and unwraps error_response
// payloads, classifying structural failures.
func (c *Client) callAPI(ctx context.Context, endpoint, method string, business map[string]string) ([]byte, error) {
	params := map[string]string{
		"method":      method,
		"app_key":     c.cfg.AppKey,
		"sign_method": "md5",
		"timestamp":   strconv.FormatInt(c.now().Unix(), 10),
		"v":           "2.0",
		"format":      "json",
	}
	for k, v := range business {
		params[k] = v
	}
	params["sign"] = c.sign(params)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": endpoint,
	}).Debug("Marketplace API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("marketplace request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read marketplace response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("marketplace returned status %d", resp.StatusCode)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("marketplace response is not valid JSON: %w", err)
	}
	if rawErr, ok := envelope["error_response"]; ok {
		var apiErr struct {
			Msg    string `json:"msg"`
			SubMsg string `json:"sub_msg"`
		}
		_ = json.Unmarshal(rawErr, &apiErr)
		msg := apiErr.SubMsg
		if msg == "" {
			msg = apiErr.Msg
		}
		if msg == "" {
			msg = "marketplace API error"
		}
		lower := strings.ToLower(msg)
		for _, marker := range structuralMarkers {
			if strings.Contains(lower, marker) {
				return nil, &StructuralError{Message: msg}
			}
		}
		return nil, fmt.Errorf("marketplace API error: %s", msg)
	}

	return body, nil
}

// sign computes the MD5 request signature: secret + sorted(key+value) +
// secret, uppercase hex.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(c.cfg.AppSecret)
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteString(params[k])
	}
	sb.WriteString(c.cfg.AppSecret)

	return strings.ToUpper(fmt.Sprintf("%x", md5.Sum([]byte(sb.String()))))
}

func (c *Client) cacheGet(key string) (*models.ProductQueryResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[key]
	if !ok || c.now().Sub(entry.cachedAt) >= c.cfg.CacheTTL {
		return nil, false
	}
	clone := *entry.result
	return &clone, true
}

func (c *Client) cacheSet(key string, result *models.ProductQueryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cachedResult{result: result, cachedAt: c.now()}
}
