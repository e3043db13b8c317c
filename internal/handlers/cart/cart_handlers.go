package cart

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/hmtran/clothes-shop/internal/events"
	"github.com/hmtran/clothes-shop/internal/handlers"
	"github.com/hmtran/clothes-shop/internal/models"
)

type CartHandler struct {
	DB        *gorm.DB
	Producer  *events.Producer
	JWTSecret []byte
}

type addRequest struct {
	ProductID uint   `json:"product_id" validate:"required"`
	Color     string `json:"color"      validate:"required"`
	Size      string `json:"size"       validate:"required"`
	Quantity  uint   `json:"quantity"   validate:"required,gt=0"`
}

type quantityRequest struct {
	Quantity uint `json:"quantity" validate:"required,gt=0"`
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, items)
}

// AddToCart merges repeat adds of the same product/color/size into one line.
// The merged quantity is held to the per-size stock on hand.
func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	var req addRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	size, err := h.findSize(req.ProductID, req.Color, req.Size)
	if err != nil {
		return err
	}

	var line models.CartItem
	err = h.DB.Where("user_id = ? AND product_id = ? AND color = ? AND size = ?",
		userID, req.ProductID, req.Color, req.Size).First(&line).Error
	switch {
	case err == nil:
		if line.Quantity+req.Quantity > size.Stock {
			return echo.NewHTTPError(http.StatusBadRequest, "not enough stock")
		}
		line.Quantity += req.Quantity
		if err := h.DB.Save(&line).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if req.Quantity > size.Stock {
			return echo.NewHTTPError(http.StatusBadRequest, "not enough stock")
		}
		line = models.CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			Color:     req.Color,
			Size:      req.Size,
			Quantity:  req.Quantity,
		}
		if err := h.DB.Create(&line).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "cannot add to cart")
		}
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	h.publish(c, userID, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  req.Quantity,
	})
	return c.JSON(http.StatusOK, line)
}

// UpdateQuantity sets an absolute quantity on a cart line, re-checking stock.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}
	lineID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var line models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", lineID, userID).First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "cart item not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	size, err := h.findSize(line.ProductID, line.Color, line.Size)
	if err != nil {
		return err
	}
	if req.Quantity > size.Stock {
		return echo.NewHTTPError(http.StatusBadRequest, "not enough stock")
	}

	line.Quantity = req.Quantity
	if err := h.DB.Save(&line).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update cart")
	}
	return c.JSON(http.StatusOK, line)
}

func (h *CartHandler) DeleteFromCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}
	lineID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	res := h.DB.Where("id = ? AND user_id = ?", lineID, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if res.RowsAffected == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "cart item not found")
	}

	h.publish(c, userID, map[string]any{
		"type":   "cart_item_removed",
		"userID": userID,
		"lineID": lineID,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := handlers.GetID(c, h.JWTSecret)
	if err != nil {
		return err
	}

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c.NoContent(http.StatusNoContent)
}
