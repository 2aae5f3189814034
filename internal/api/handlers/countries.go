package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trendsight/trendsight-go/internal/config"
)

// countryNames maps the supported region codes to display names.
var countryNames = map[string]string{
	"MX": "México",
	"CR": "Costa Rica",
	"ES": "España",
}

type Country struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type CountriesHandler struct {
	cfg *config.Config
}

func NewCountriesHandler(cfg *config.Config) *CountriesHandler {
	return &CountriesHandler{cfg: cfg}
}

// List handles GET /api/v1/countries.
func (h *CountriesHandler) List(c *gin.Context) {
	countries := make([]Country, 0, len(h.cfg.Server.SupportedRegions))
	for _, code := range h.cfg.Server.SupportedRegions {
		name := countryNames[code]
		if name == "" {
			name = code
		}
		countries = append(countries, Country{Code: code, Name: name})
	}
	c.JSON(http.StatusOK, gin.H{"countries": countries})
}
