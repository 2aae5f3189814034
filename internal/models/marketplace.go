package models

import "github.com/shopspring/decimal"

// Competitor is a normalized marketplace product listing.
type Competitor struct {
	ProductID            string          `json:"product_id"`
	ProductTitle         string          `json:"product_title"`
	SalePrice            decimal.Decimal `json:"sale_price"`
	Discount             string          `json:"discount"`
	EvaluateRate         decimal.Decimal `json:"evaluate_rate"`
	LatestVolume         int64           `json:"latest_volume"`
	ProductDetailURL     string          `json:"product_detail_url"`
	ShopID               string          `json:"shop_id"`
	ShopURL              string          `json:"shop_url"`
	PromotionLink        string          `json:"promotion_link"`
	CategoryID           string          `json:"category_id"`
	FirstLevelCategoryID string          `json:"first_level_category_id"`
	SellScore            int64           `json:"sell_score"`

	// Enrichment from the taxonomy resolver.
	CategoryName string     `json:"category_name"`
	CategoryPath string     `json:"category_path"`
	Confidence   Confidence `json:"category_resolution_confidence"`
}

// Paging describes one page of marketplace results.
type Paging struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}

// ProductQueryResult is the normalized output of a competitor product query.
type ProductQueryResult struct {
	Paging      Paging       `json:"paging"`
	Competitors []Competitor `json:"competitors"`
	CacheHit    bool         `json:"cache_hit,omitempty"`
}
