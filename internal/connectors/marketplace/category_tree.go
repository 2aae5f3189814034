package marketplace

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/trendsight/trendsight-go/internal/models"
	"github.com/trendsight/trendsight-go/internal/utils"
)

type categoryTreeResponse struct {
	Response struct {
		RespResult struct {
			Result struct {
				Categories struct {
					Category []rawCategory `json:"category"`
				} `json:"categories"`
			} `json:"result"`
		} `json:"resp_result"`
	} `json:"aliexpress_affiliate_category_get_response"`
}

type rawCategory struct {
	CategoryID       json.Number `json:"category_id"`
	CategoryName     string      `json:"category_name"`
	ParentCategoryID json.Number `json:"parent_category_id"`
}

// FetchCategoryTree retrieves the full authoritative category tree as flat
// (id, name, parent_id) records in a single call.
func (c *Client) FetchCategoryTree(ctx context.Context) ([]models.CategoryNode, error) {
	if c.cfg.AppKey == "" || c.cfg.AppSecret == "" {
		return nil, utils.NewValidationError("marketplace credentials are not configured")
	}

	body, err := c.callAPI(ctx, c.cfg.BaseURL, "aliexpress.affiliate.category.get", map[string]string{})
	if err != nil {
		return nil, err
	}

	var parsed categoryTreeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse category tree response: %w", err)
	}

	raw := parsed.Response.RespResult.Result.Categories.Category
	nodes := make([]models.CategoryNode, 0, len(raw))
	for _, item := range raw {
		id := item.CategoryID.String()
		if id == "" {
			continue
		}
		parentID := item.ParentCategoryID.String()
		if parentID == "0" {
			parentID = ""
		}
		nodes = append(nodes, models.CategoryNode{
			ID:       id,
			Name:     item.CategoryName,
			ParentID: parentID,
		})
	}

	c.logger.WithField("categories", len(nodes)).Info("Fetched authoritative category tree")
	return nodes, nil
}

// IsStructuralError satisfies the taxonomy resolver's TreeProvider contract.
func (c *Client) IsStructuralError(err error) bool {
	return IsStructuralError(err)
}
