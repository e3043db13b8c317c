package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hmtran/clothes-shop/internal/models"
)

func TestProductListPagination(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &ProductHandler{DB: db}
	cat := seedCategory(t, db, "Shirts", "shirts")
	for i := range 12 {
		seedProduct(t, db, cat.ID, fmt.Sprintf("Shirt %d", i), fmt.Sprintf("shirt-%d", i), 1)
	}

	c, rec := newRequest(e, http.MethodGet, "/api/products?page=2&size=10", "")
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Page       int   `json:"page"`
			Total      int64 `json:"total"`
			TotalPages int64 `json:"total_pages"`
			HasPrev    bool  `json:"has_prev"`
			HasNext    bool  `json:"has_next"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.Equal(t, 2, body.Meta.Page)
	require.EqualValues(t, 12, body.Meta.Total)
	require.EqualValues(t, 2, body.Meta.TotalPages)
	require.True(t, body.Meta.HasPrev)
	require.False(t, body.Meta.HasNext)
}

func TestProductListFilters(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &ProductHandler{DB: db}
	shirts := seedCategory(t, db, "Shirts", "shirts")
	pants := seedCategory(t, db, "Pants", "pants")
	seedProduct(t, db, shirts.ID, "Linen Shirt", "linen-shirt", 1)
	seedProduct(t, db, pants.ID, "Wool Trousers", "wool-trousers", 1)

	c, rec := newRequest(e, http.MethodGet, "/api/products?category=pants", "")
	require.NoError(t, h.List(c))
	require.Contains(t, rec.Body.String(), "wool-trousers")
	require.NotContains(t, rec.Body.String(), "linen-shirt")

	c, rec = newRequest(e, http.MethodGet, "/api/products?q=LINEN", "")
	require.NoError(t, h.List(c))
	require.Contains(t, rec.Body.String(), "linen-shirt")
	require.NotContains(t, rec.Body.String(), "wool-trousers")
}

func TestProductGetComputesStock(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &ProductHandler{DB: db}
	cat := seedCategory(t, db, "Shirts", "shirts")
	p := models.Product{
		Name:       "Linen Shirt",
		Price:      100,
		CategoryID: cat.ID,
		Slug:       "linen-shirt",
		Variants: []models.Variant{
			{Color: "white", Sizes: []models.Size{{Size: "M", Stock: 3}, {Size: "L", Stock: 2}}},
			{Color: "black", Sizes: []models.Size{{Size: "M", Stock: 4}}},
		},
	}
	require.NoError(t, db.Create(&p).Error)

	c, rec := newRequest(e, http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, uint(9), got.Stock)
	require.Len(t, got.Variants, 2)
}

func TestProductGetBySlug(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &ProductHandler{DB: db}
	cat := seedCategory(t, db, "Shirts", "shirts")
	seedProduct(t, db, cat.ID, "Linen Shirt", "linen-shirt", 5)

	c, rec := newRequest(e, http.MethodGet, "/", "")
	c.SetParamNames("slug")
	c.SetParamValues("linen-shirt")
	require.NoError(t, h.GetBySlug(c))
	require.Contains(t, rec.Body.String(), `"stock":5`)

	c, _ = newRequest(e, http.MethodGet, "/", "")
	c.SetParamNames("slug")
	c.SetParamValues("no-such-thing")
	err := h.GetBySlug(c)
	require.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestProductCreateValidatesCategoryAndSlug(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &ProductHandler{DB: db}
	cat := seedCategory(t, db, "Shirts", "shirts")

	c, _ := newRequest(e, http.MethodPost, "/api/products",
		`{"name":"Shirt","price":100,"category_id":99,"slug":"shirt"}`)
	err := h.Create(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	body := fmt.Sprintf(`{"name":"Shirt","price":100,"category_id":%d,"slug":"shirt"}`, cat.ID)
	c, rec := newRequest(e, http.MethodPost, "/api/products", body)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, _ = newRequest(e, http.MethodPost, "/api/products", body)
	err = h.Create(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestProductUpdate(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &ProductHandler{DB: db}
	cat := seedCategory(t, db, "Shirts", "shirts")
	p := seedProduct(t, db, cat.ID, "Linen Shirt", "linen-shirt", 5)

	body := fmt.Sprintf(`{"name":"Linen Shirt v2","price":120,"price_discount":99,"category_id":%d,"slug":"linen-shirt"}`, cat.ID)
	c, rec := newRequest(e, http.MethodPut, "/", body)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Update(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	require.Equal(t, "Linen Shirt v2", reloaded.Name)
	require.InDelta(t, 99.0, reloaded.PriceDiscount, 1e-9)
}

func TestProductDeleteRemovesVariants(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &ProductHandler{DB: db}
	cat := seedCategory(t, db, "Shirts", "shirts")
	p := seedProduct(t, db, cat.ID, "Linen Shirt", "linen-shirt", 5)

	c, rec := newRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var variants, sizes int64
	require.NoError(t, db.Model(&models.Variant{}).Where("product_id = ?", p.ID).Count(&variants).Error)
	require.NoError(t, db.Model(&models.Size{}).Count(&sizes).Error)
	require.Zero(t, variants)
	require.Zero(t, sizes)
}

func TestVariantCreateAndReplace(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &ProductHandler{DB: db}
	cat := seedCategory(t, db, "Shirts", "shirts")
	p := seedProduct(t, db, cat.ID, "Linen Shirt", "linen-shirt", 5)

	c, rec := newRequest(e, http.MethodPost, "/",
		`{"color":"navy","images":["https://cdn.example.com/navy.jpg"],"sizes":[{"size":"S","stock":2},{"size":"M","stock":3}]}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(p.ID))
	require.NoError(t, h.CreateVariant(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Variant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Sizes, 2)

	// Replacing swaps the whole size list.
	c, rec = newRequest(e, http.MethodPut, "/",
		`{"color":"navy","images":[],"sizes":[{"size":"XL","stock":7}]}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(created.ID))
	require.NoError(t, h.UpdateVariant(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var sizes []models.Size
	require.NoError(t, db.Where("variant_id = ?", created.ID).Find(&sizes).Error)
	require.Len(t, sizes, 1)
	require.Equal(t, "XL", sizes[0].Size)
	require.Equal(t, uint(7), sizes[0].Stock)
}

func TestVariantDelete(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &ProductHandler{DB: db}
	cat := seedCategory(t, db, "Shirts", "shirts")
	p := seedProduct(t, db, cat.ID, "Linen Shirt", "linen-shirt", 5)

	var variant models.Variant
	require.NoError(t, db.Where("product_id = ?", p.ID).First(&variant).Error)

	c, rec := newRequest(e, http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(variant.ID))
	require.NoError(t, h.DeleteVariant(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var sizes int64
	require.NoError(t, db.Model(&models.Size{}).Where("variant_id = ?", variant.ID).Count(&sizes).Error)
	require.Zero(t, sizes)
}

func TestVariantImagesRoundTrip(t *testing.T) {
	db := newTestDB(t)
	cat := seedCategory(t, db, "Shirts", "shirts")
	p := seedProduct(t, db, cat.ID, "Linen Shirt", "linen-shirt", 5)

	var variant models.Variant
	require.NoError(t, db.Where("product_id = ?", p.ID).First(&variant).Error)
	require.Equal(t, []string{"https://cdn.example.com/a.jpg"}, []string(variant.Images))
}
