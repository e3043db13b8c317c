package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/hmtran/clothes-shop/internal/logging"
	"github.com/hmtran/clothes-shop/internal/models"
)

// findSize resolves the per-size stock row a cart line points at.
func (h *CartHandler) findSize(productID uint, color, size string) (*models.Size, error) {
	var row models.Size
	err := h.DB.Select("sizes.*").
		Joins("JOIN variants ON variants.id = sizes.variant_id").
		Where("variants.product_id = ? AND variants.color = ? AND sizes.size = ?", productID, color, size).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "no such product variant")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return &row, nil
}

func (h *CartHandler) publish(c echo.Context, userID uint, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(userID), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
