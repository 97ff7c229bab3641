package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/karimsaleh/freshbasket-backend/api/responses"
	"github.com/karimsaleh/freshbasket-backend/internal/products"
	"github.com/karimsaleh/freshbasket-backend/pkg/db/models"
	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
	pkgerrors "github.com/karimsaleh/freshbasket-backend/pkg/errors"
	"github.com/karimsaleh/freshbasket-backend/pkg/logger"
)

// ProductsList returns the active catalog, optionally filtered by category.
func ProductsList(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products repository unavailable"))
			return
		}

		query := r.URL.Query()
		limit, _ := strconv.Atoi(query.Get("limit"))
		offset, _ := strconv.Atoi(query.Get("offset"))

		list, err := repo.ListActive(r.Context(), query.Get("category"), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]productResponse, 0, len(list))
		for i := range list {
			out = append(out, newProductResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// ProductGet returns a single product, active or not.
func ProductGet(repo *products.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products repository unavailable"))
			return
		}

		id, err := pathUUID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := repo.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(product))
	}
}

type productResponse struct {
	ID                 uuid.UUID           `json:"id"`
	SKU                string              `json:"sku"`
	Name               string              `json:"name"`
	NameAr             string              `json:"name_ar"`
	Description        string              `json:"description"`
	Category           string              `json:"category"`
	Images             []string            `json:"images"`
	SellingMethod      enums.SellingMethod `json:"selling_method"`
	Price              decimal.Decimal     `json:"price"`
	Currency           enums.Currency      `json:"currency"`
	WeightUnit         *enums.WeightUnit   `json:"weight_unit,omitempty"`
	FixedWeightOptions []float64           `json:"fixed_weight_options,omitempty"`
	MinWeightKg        *float64            `json:"min_weight_kg,omitempty"`
	MaxWeightKg        *float64            `json:"max_weight_kg,omitempty"`
	IsActive           bool                `json:"is_active"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func newProductResponse(p *models.Product) productResponse {
	return productResponse{
		ID:                 p.ID,
		SKU:                p.SKU,
		Name:               p.Name,
		NameAr:             derefString(p.NameAr),
		Description:        derefString(p.Description),
		Category:           p.Category,
		Images:             []string(p.Images),
		SellingMethod:      p.SellingMethod,
		Price:              p.Price,
		Currency:           p.Currency,
		WeightUnit:         p.WeightUnit,
		FixedWeightOptions: []float64(p.FixedWeightOptions),
		MinWeightKg:        p.MinWeightKg,
		MaxWeightKg:        p.MaxWeightKg,
		IsActive:           p.IsActive,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
