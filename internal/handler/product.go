package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shoply/catalog-api/internal/middleware"
	"github.com/shoply/catalog-api/internal/model"
	"github.com/shoply/catalog-api/internal/repository"
)

// ProductStore is the catalog surface the product endpoints need.
type ProductStore interface {
	Create(ctx context.Context, p repository.CreateProductParams) (model.Product, error)
	GetByID(ctx context.Context, id uint64) (model.Product, error)
	List(ctx context.Context, limit, offset int) ([]model.Product, int, error)
	ListByUser(ctx context.Context, userID uint64) ([]model.Product, error)
	Update(ctx context.Context, id, userID uint64, p repository.UpdateProductParams) (model.Product, error)
	Delete(ctx context.Context, id, userID uint64) error
}

var _ ProductStore = (*repository.ProductRepo)(nil)

// ProductHandler serves the catalog CRUD endpoints.  Reads are public;
// writes require a bearer token and enforce ownership.
type ProductHandler struct {
	Products ProductStore
}

func NewProductHandler(p ProductStore) *ProductHandler { return &ProductHandler{Products: p} }

type createProductReq struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	ImageURL    string   `json:"imageUrl"`
}
type updateProductReq struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	ImageURL    *string  `json:"imageUrl"`
}

type productPart struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProductPart(p model.Product) productPart {
	return productPart{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Create inserts a product owned by the authenticated user.
func (h *ProductHandler) Create(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || len(req.Name) > 255 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required (max 255 chars)"})
	}

	params := repository.CreateProductParams{
		UserID:      uid,
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if req.Price != nil && *req.Price > 0 {
		params.Price = *req.Price
	}
	if req.Stock != nil && *req.Stock > 0 {
		params.Stock = *req.Stock
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Create(ctx, params)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"product": toProductPart(p)})
}

// GetByID returns one product.
func (h *ProductHandler) GetByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"product": toProductPart(p)})
}

// List returns one page of the catalog with the total count.  Malformed
// paging values fall back to the defaults rather than failing.
func (h *ProductHandler) List(c echo.Context) error {
	limit := parseNonNegativeInt(c.QueryParam("limit"), 10)
	if limit < 1 {
		limit = 1
	}
	offset := parseNonNegativeInt(c.QueryParam("offset"), 0)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, total, err := h.Products.List(ctx, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	parts := make([]productPart, 0, len(products))
	for _, p := range products {
		parts = append(parts, toProductPart(p))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"products": parts,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// Mine returns every product owned by the authenticated user.
func (h *ProductHandler) Mine(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	products, err := h.Products.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	parts := make([]productPart, 0, len(products))
	for _, p := range products {
		parts = append(parts, toProductPart(p))
	}
	return c.JSON(http.StatusOK, echo.Map{"products": parts})
}

// Update applies a partial update to an owned product.
func (h *ProductHandler) Update(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req updateProductReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name != nil && (*req.Name == "" || len(*req.Name) > 255) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required (max 255 chars)"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.Update(ctx, id, uid, repository.UpdateProductParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update product failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"product": toProductPart(p)})
}

// Delete removes an owned product.
func (h *ProductHandler) Delete(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Products.Delete(ctx, id, uid); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete product failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

// parseNonNegativeInt parses a decimal query value, returning def for
// empty, malformed or negative input.
func parseNonNegativeInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
