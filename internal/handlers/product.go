package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/hmtran/clothes-shop/internal/cache"
	"github.com/hmtran/clothes-shop/internal/events"
	"github.com/hmtran/clothes-shop/internal/logging"
	"github.com/hmtran/clothes-shop/internal/models"
	"github.com/hmtran/clothes-shop/internal/service/search"
	"github.com/hmtran/clothes-shop/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	Cache    *cache.ProductCache
	ES       *elasticsearch.Client
	ESIndex  string
}

type productRequest struct {
	Name          string  `json:"name"  validate:"required"`
	Description   string  `json:"description"`
	Brand         string  `json:"brand"`
	Price         float64 `json:"price" validate:"gte=0"`
	PriceDiscount float64 `json:"price_discount" validate:"gte=0"`
	CategoryID    uint    `json:"category_id" validate:"required"`
	Slug          string  `json:"slug"  validate:"required"`
}

type sizeRequest struct {
	Size  string `json:"size" validate:"required"`
	Stock uint   `json:"stock"`
}

type variantRequest struct {
	Color  string        `json:"color" validate:"required"`
	Images []string      `json:"images"`
	Sizes  []sizeRequest `json:"sizes" validate:"dive"`
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Product{}).Select("products.*")
	if category := c.QueryParam("category"); category != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", category)
	}
	if term := strings.TrimSpace(c.QueryParam("q")); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(products.name) LIKE ? OR LOWER(products.brand) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var items []models.Product
	if err := q.Preload("Variants.Sizes").
		Order("products.id ASC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	for i := range items {
		items[i].ComputeStock()
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	ctx := c.Request().Context()
	var cached models.Product
	if h.Cache.Get(ctx, uint(id), &cached) {
		return c.JSON(http.StatusOK, cached)
	}

	product, err := h.loadProduct(uint(id))
	if err != nil {
		return err
	}

	h.Cache.Set(ctx, product.ID, product)
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetBySlug(c echo.Context) error {
	slug := c.Param("slug")

	var product models.Product
	if err := h.DB.Preload("Variants.Sizes").Where("slug = ?", slug).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	product.ComputeStock()
	return c.JSON(http.StatusOK, &product)
}

func (h *ProductHandler) ListByCategory(c echo.Context) error {
	name := c.Param("name")

	var products []models.Product
	err := h.DB.Preload("Variants.Sizes").Select("products.*").
		Joins("JOIN categories ON categories.id = products.category_id").
		Where("categories.name = ? OR categories.slug = ?", name, name).
		Order("products.id ASC").
		Find(&products).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	for i := range products {
		products[i].ComputeStock()
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var category models.Category
	if err := h.DB.First(&category, req.CategoryID).Error; err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown category")
	}
	var clash models.Product
	if err := h.DB.Where("slug = ?", req.Slug).First(&clash).Error; err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "slug already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	product := models.Product{
		Name:          req.Name,
		Description:   req.Description,
		Brand:         req.Brand,
		Price:         req.Price,
		PriceDiscount: req.PriceDiscount,
		CategoryID:    req.CategoryID,
		Slug:          req.Slug,
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create product")
	}

	h.afterWrite(c, &product, "product_created")
	return c.JSON(http.StatusCreated, &product)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var clash models.Product
	if err := h.DB.Where("slug = ? AND id <> ?", req.Slug, product.ID).First(&clash).Error; err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "slug already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Brand = req.Brand
	product.Price = req.Price
	product.PriceDiscount = req.PriceDiscount
	product.CategoryID = req.CategoryID
	product.Slug = req.Slug
	if err := h.DB.Save(&product).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update product")
	}

	h.afterWrite(c, &product, "product_updated")
	return c.JSON(http.StatusOK, &product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("variant_id IN (?)",
			tx.Model(&models.Variant{}).Select("id").Where("product_id = ?", product.ID),
		).Delete(&models.Size{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Variant{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete product")
	}

	ctx := c.Request().Context()
	h.Cache.Invalidate(ctx, product.ID)
	if h.ES != nil {
		if err := search.DeleteProduct(ctx, h.ES, h.ESIndex, product.ID); err != nil {
			logging.FromContext(ctx).Error("search deindex error", "product_id", product.ID, "error", err)
		}
	}
	h.publish(c, map[string]any{"type": "product_deleted", "productID": product.ID})

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) ListVariants(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var variants []models.Variant
	if err := h.DB.Preload("Sizes").Where("product_id = ?", id).Order("id ASC").Find(&variants).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, variants)
}

func (h *ProductHandler) CreateVariant(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var req variantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	variant := models.Variant{
		ProductID: product.ID,
		Color:     req.Color,
		Images:    req.Images,
	}
	for _, s := range req.Sizes {
		variant.Sizes = append(variant.Sizes, models.Size{Size: s.Size, Stock: s.Stock})
	}
	if err := h.DB.Create(&variant).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create variant")
	}

	h.afterWrite(c, &product, "product_updated")
	return c.JSON(http.StatusCreated, &variant)
}

// UpdateVariant replaces the variant's color, images and size rows wholesale.
func (h *ProductHandler) UpdateVariant(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var variant models.Variant
	if err := h.DB.First(&variant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "variant not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var req variantRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		variant.Color = req.Color
		variant.Images = req.Images
		if err := tx.Save(&variant).Error; err != nil {
			return err
		}
		if err := tx.Where("variant_id = ?", variant.ID).Delete(&models.Size{}).Error; err != nil {
			return err
		}
		for _, s := range req.Sizes {
			row := models.Size{VariantID: variant.ID, Size: s.Size, Stock: s.Stock}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update variant")
	}

	if err := h.DB.Preload("Sizes").First(&variant, variant.ID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if product, err := h.loadProduct(variant.ProductID); err == nil {
		h.afterWrite(c, product, "product_updated")
	}
	return c.JSON(http.StatusOK, &variant)
}

func (h *ProductHandler) DeleteVariant(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var variant models.Variant
	if err := h.DB.First(&variant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "variant not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("variant_id = ?", variant.ID).Delete(&models.Size{}).Error; err != nil {
			return err
		}
		return tx.Delete(&variant).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete variant")
	}

	if product, err := h.loadProduct(variant.ProductID); err == nil {
		h.afterWrite(c, product, "product_updated")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) loadProduct(id uint) (*models.Product, error) {
	var product models.Product
	if err := h.DB.Preload("Variants.Sizes").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	product.ComputeStock()
	return &product, nil
}

// afterWrite keeps the cache, the search index and the event stream in step
// with a catalog write. Index and stream failures are logged, not returned.
func (h *ProductHandler) afterWrite(c echo.Context, product *models.Product, eventType string) {
	ctx := c.Request().Context()
	h.Cache.Invalidate(ctx, product.ID)
	if h.ES != nil {
		if err := search.IndexProduct(ctx, h.ES, h.ESIndex, product); err != nil {
			logging.FromContext(ctx).Error("search index error", "product_id", product.ID, "error", err)
		}
	}
	h.publish(c, map[string]any{
		"type":      eventType,
		"productID": product.ID,
		"name":      product.Name,
	})
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
