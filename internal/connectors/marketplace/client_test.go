package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendsight/trendsight-go/internal/config"
	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/utils"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testClient(baseURL string) *Client {
	return NewClient(config.MarketplaceConfig{
		AppKey:    "test-key",
		AppSecret: "test-secret",
		BaseURL:   baseURL,
		CacheTTL:  time.Hour,
	}, quietLogger())
}

func TestSignFormat(t *testing.T) {
	c := testClient("http://unused")

	params := map[string]string{"method": "x", "app_key": "k", "timestamp": "1"}
	sig := c.sign(params)

	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{32}$`), sig)
	assert.Equal(t, sig, c.sign(params), "same params must sign identically")

	params["timestamp"] = "2"
	assert.NotEqual(t, sig, c.sign(params))
}

func TestSignDependsOnSecret(t *testing.T) {
	a := testClient("http://unused")
	b := NewClient(config.MarketplaceConfig{AppKey: "test-key", AppSecret: "other"}, quietLogger())

	params := map[string]string{"method": "x"}
	assert.NotEqual(t, a.sign(params), b.sign(params))
}

func TestParseRate(t *testing.T) {
	assert.True(t, parseRate("95.5%").Equal(decimal.RequireFromString("0.955")))
	assert.True(t, parseRate("95.5").Equal(decimal.RequireFromString("0.955")))
	assert.True(t, parseRate("0.8").Equal(decimal.RequireFromString("0.8")))
	assert.True(t, parseRate("garbage").IsZero())
	assert.True(t, parseRate("").IsZero())
}

func TestNormalizeProductSellScore(t *testing.T) {
	raw := rawProduct{
		ProductID:            json.Number("12345"),
		ProductTitle:         "Cargador USB-C 65W",
		SalePrice:            "19.99",
		EvaluateRate:         "95.0%",
		LatestVolume:         json.Number("200"),
		CategoryID:           json.Number("0"),
		FirstLevelCategoryID: json.Number("44"),
	}

	item := normalizeProduct(raw)

	// round(0.95 * 200)
	assert.Equal(t, int64(190), item.SellScore)
	assert.Equal(t, "12345", item.ProductID)
	// category_id of 0 falls back to the first-level id.
	assert.Equal(t, "44", item.CategoryID)
	assert.True(t, item.SalePrice.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, item.EvaluateRate.Equal(decimal.RequireFromString("95.0")))
	assert.Equal(t, models.ConfidenceUnknown, item.Confidence)
}

func TestNormalizeProductBadPrice(t *testing.T) {
	item := normalizeProduct(rawProduct{SalePrice: "n/a"})
	assert.True(t, item.SalePrice.IsZero())
}

func TestProductQueryMissingCredentials(t *testing.T) {
	c := NewClient(config.MarketplaceConfig{}, quietLogger())

	_, err := c.ProductQuery(context.Background(), ProductQueryParams{Keywords: "cargador"})
	require.Error(t, err)
	var valErr *utils.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestProductQueryStructuralError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error_response":{"msg":"error","sub_msg":"Invalid method or not found"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.ProductQuery(context.Background(), ProductQueryParams{Keywords: "cargador", PageNo: 1, PageSize: 10})

	require.Error(t, err)
	assert.True(t, IsStructuralError(err))
}

func TestProductQueryOrdinaryAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error_response":{"msg":"rate limit exceeded"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	_, err := c.ProductQuery(context.Background(), ProductQueryParams{Keywords: "cargador", PageNo: 1, PageSize: 10})

	require.Error(t, err)
	assert.False(t, IsStructuralError(err))
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestProductQuerySuccessAndCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "aliexpress.affiliate.product.query", r.Form.Get("method"))
		assert.Equal(t, "LAST_VOLUME_DESC", r.Form.Get("sort"))
		assert.NotEmpty(t, r.Form.Get("sign"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"aliexpress_affiliate_product_query_response": {
				"resp_result": {
					"result": {
						"total_record_count": 1,
						"products": {
							"product": [{
								"product_id": 999,
								"product_title": "Cargador",
								"sale_price": "9.99",
								"evaluate_rate": "90.0%",
								"lastest_volume": 100,
								"category_id": 7
							}]
						}
					}
				}
			}
		}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	params := ProductQueryParams{Keywords: "cargador", ShipToCountry: "MX", PageNo: 1, PageSize: 10}

	first, err := c.ProductQuery(context.Background(), params)
	require.NoError(t, err)
	require.Len(t, first.Competitors, 1)
	assert.Equal(t, int64(90), first.Competitors[0].SellScore)
	assert.Equal(t, 1, first.Paging.Total)
	assert.False(t, first.CacheHit)

	second, err := c.ProductQuery(context.Background(), params)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, 1, hits, "second query must be served from cache")
}

func TestFetchCategoryTree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "aliexpress.affiliate.category.get", r.Form.Get("method"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"aliexpress_affiliate_category_get_response": {
				"resp_result": {
					"result": {
						"categories": {
							"category": [
								{"category_id": 1, "category_name": "Electronics", "parent_category_id": 0},
								{"category_id": 7, "category_name": "Chargers", "parent_category_id": 1}
							]
						}
					}
				}
			}
		}`))
	}))
	defer server.Close()

	c := testClient(server.URL)
	nodes, err := c.FetchCategoryTree(context.Background())
	require.NoError(t, err)

	require.Len(t, nodes, 2)
	// Root parent id 0 normalizes to empty.
	assert.Equal(t, models.CategoryNode{ID: "1", Name: "Electronics", ParentID: ""}, nodes[0])
	assert.Equal(t, models.CategoryNode{ID: "7", Name: "Chargers", ParentID: "1"}, nodes[1])
}
