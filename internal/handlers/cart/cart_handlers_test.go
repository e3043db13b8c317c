package cart

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hmtran/clothes-shop/internal/config"
	"github.com/hmtran/clothes-shop/internal/models"
)

type testValidator struct{ v *validator.Validate }

func (t *testValidator) Validate(i interface{}) error { return t.v.Struct(i) }

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	return e
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, stock uint) models.Product {
	t.Helper()
	cat := models.Category{Name: "Shirts", Slug: "shirts"}
	require.NoError(t, db.Create(&cat).Error)

	p := models.Product{
		Name:       "Linen Shirt",
		Price:      100,
		CategoryID: cat.ID,
		Slug:       "linen-shirt",
		Variants: []models.Variant{{
			Color: "white",
			Sizes: []models.Size{{Size: "M", Stock: stock}},
		}},
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func doJSON(e *echo.Echo, method, target, body string, userID uint) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("userID", userID)
	c.Set("role", "user")
	return c, rec
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	return he.Code
}

func TestAddToCartCreatesLine(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, 5)

	c, rec := doJSON(e, http.MethodPost, "/api/cart",
		`{"product_id":1,"color":"white","size":"M","quantity":2}`, 1)
	require.NoError(t, h.AddToCart(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var line models.CartItem
	require.NoError(t, db.Where("user_id = ? AND product_id = ?", 1, p.ID).First(&line).Error)
	require.Equal(t, uint(2), line.Quantity)
}

func TestAddToCartMergesSameLine(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, 5)

	for range 2 {
		c, _ := doJSON(e, http.MethodPost, "/api/cart",
			`{"product_id":1,"color":"white","size":"M","quantity":2}`, 1)
		require.NoError(t, h.AddToCart(c))
	}

	var lines []models.CartItem
	require.NoError(t, db.Where("user_id = ? AND product_id = ?", 1, p.ID).Find(&lines).Error)
	require.Len(t, lines, 1)
	require.Equal(t, uint(4), lines[0].Quantity)
}

func TestAddToCartRejectsOverStock(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &CartHandler{DB: db}
	seedProduct(t, db, 3)

	c, _ := doJSON(e, http.MethodPost, "/api/cart",
		`{"product_id":1,"color":"white","size":"M","quantity":4}`, 1)
	err := h.AddToCart(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	// Merging past the stock line is rejected too.
	c, _ = doJSON(e, http.MethodPost, "/api/cart",
		`{"product_id":1,"color":"white","size":"M","quantity":2}`, 1)
	require.NoError(t, h.AddToCart(c))
	c, _ = doJSON(e, http.MethodPost, "/api/cart",
		`{"product_id":1,"color":"white","size":"M","quantity":2}`, 1)
	err = h.AddToCart(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestAddToCartUnknownVariant(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &CartHandler{DB: db}
	seedProduct(t, db, 3)

	c, _ := doJSON(e, http.MethodPost, "/api/cart",
		`{"product_id":1,"color":"black","size":"M","quantity":1}`, 1)
	err := h.AddToCart(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))
}

func TestUpdateQuantityRechecksStock(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, 5)

	line := models.CartItem{UserID: 1, ProductID: p.ID, Color: "white", Size: "M", Quantity: 1}
	require.NoError(t, db.Create(&line).Error)

	c, rec := doJSON(e, http.MethodPut, "/", `{"quantity":5}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateQuantity(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, _ = doJSON(e, http.MethodPut, "/", `{"quantity":6}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.UpdateQuantity(c)
	require.Equal(t, http.StatusBadRequest, httpStatus(t, err))

	var reloaded models.CartItem
	require.NoError(t, db.First(&reloaded, line.ID).Error)
	require.Equal(t, uint(5), reloaded.Quantity)
}

func TestUpdateQuantityOtherUsersLine(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, 5)

	line := models.CartItem{UserID: 2, ProductID: p.ID, Color: "white", Size: "M", Quantity: 1}
	require.NoError(t, db.Create(&line).Error)

	c, _ := doJSON(e, http.MethodPut, "/", `{"quantity":2}`, 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.UpdateQuantity(c)
	require.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestDeleteFromCart(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, 5)

	line := models.CartItem{UserID: 1, ProductID: p.ID, Color: "white", Size: "M", Quantity: 1}
	require.NoError(t, db.Create(&line).Error)

	c, rec := doJSON(e, http.MethodDelete, "/", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteFromCart(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	c, _ = doJSON(e, http.MethodDelete, "/", "", 1)
	c.SetParamNames("id")
	c.SetParamValues("1")
	err := h.DeleteFromCart(c)
	require.Equal(t, http.StatusNotFound, httpStatus(t, err))
}

func TestClearCart(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, 5)

	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Color: "white", Size: "M", Quantity: 1}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: 2, ProductID: p.ID, Color: "white", Size: "M", Quantity: 1}).Error)

	c, rec := doJSON(e, http.MethodDelete, "/api/cart", "", 1)
	require.NoError(t, h.ClearCart(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var mine, theirs int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 1).Count(&mine).Error)
	require.NoError(t, db.Model(&models.CartItem{}).Where("user_id = ?", 2).Count(&theirs).Error)
	require.Zero(t, mine)
	require.EqualValues(t, 1, theirs)
}

func TestGetCartReturnsOwnLines(t *testing.T) {
	db := newTestDB(t)
	e := newEcho()
	h := &CartHandler{DB: db}
	p := seedProduct(t, db, 5)

	require.NoError(t, db.Create(&models.CartItem{UserID: 1, ProductID: p.ID, Color: "white", Size: "M", Quantity: 2}).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: 2, ProductID: p.ID, Color: "white", Size: "M", Quantity: 1}).Error)

	c, rec := doJSON(e, http.MethodGet, "/api/cart", "", 1)
	require.NoError(t, h.GetCart(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"quantity":2`)
	require.NotContains(t, rec.Body.String(), `"user_id":2`)
}
