package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/hmtran/clothes-shop/internal/models"
	"github.com/hmtran/clothes-shop/internal/util"
)

type UserHandler struct {
	DB        *gorm.DB
	JWTSecret []byte
}

type userUpdateRequest struct {
	Email    string `json:"email"  validate:"omitempty,email"`
	FullName string `json:"full_name"`
	Gender   string `json:"gender"`
	Phone    string `json:"phone"`
	Status   string `json:"status"`
}

type addressRequest struct {
	Street    string `json:"street" validate:"required"`
	City      string `json:"city"`
	District  string `json:"district"`
	Ward      string `json:"ward"`
	Country   string `json:"country"`
	IsDefault bool   `json:"is_default"`
}

func (h *UserHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var users []models.User
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": users,
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

func (h *UserHandler) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !IsSelfOrAdmin(c, h.JWTSecret, uint(id)) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var user models.User
	if err := h.DB.Preload("Addresses").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c.JSON(http.StatusOK, user)
}

// Update edits the profile fields; username, password and role are managed
// elsewhere. Status changes are admin only.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !IsSelfOrAdmin(c, h.JWTSecret, uint(id)) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var req userUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if req.Email != "" && req.Email != user.Email {
		var clash models.User
		if err := h.DB.Where("email = ? AND id <> ?", req.Email, user.ID).First(&clash).Error; err == nil {
			return echo.NewHTTPError(http.StatusBadRequest, "email already exists")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusInternalServerError, "db error")
		}
		user.Email = req.Email
	}
	user.FullName = req.FullName
	user.Gender = req.Gender
	user.Phone = req.Phone
	if req.Status != "" {
		if GetRole(c, h.JWTSecret) != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "only admins can change status")
		}
		user.Status = req.Status
	}

	if err := h.DB.Save(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update user")
	}
	return c.JSON(http.StatusOK, user)
}

// Delete removes a user and everything hanging off it in one transaction.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id IN (?)",
			tx.Model(&models.Order{}).Select("id").Where("user_id = ?", user.ID),
		).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Order{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Address{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete user")
	}
	return c.NoContent(http.StatusNoContent)
}

// AddAddress appends a shipping address; marking it default clears the flag
// on the user's other addresses.
func (h *UserHandler) AddAddress(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !IsSelfOrAdmin(c, h.JWTSecret, uint(id)) {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}

	var req addressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "db error")
	}

	address := models.Address{
		UserID:    user.ID,
		Street:    req.Street,
		City:      req.City,
		District:  req.District,
		Ward:      req.Ward,
		Country:   req.Country,
		IsDefault: req.IsDefault,
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.Address{}).
				Where("user_id = ?", user.ID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(&address).Error
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot add address")
	}
	return c.JSON(http.StatusCreated, address)
}
