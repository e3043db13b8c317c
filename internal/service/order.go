package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/hmtran/clothes-shop/internal/models"
)

var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNotCancellable    = errors.New("only pending orders can be cancelled")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
)

type OrderService struct {
	DB *gorm.DB
}

type ShippingInfo struct {
	FullName      string `json:"full_name"      validate:"required"`
	Email         string `json:"email"          validate:"omitempty,email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"        validate:"required"`
	City          string `json:"city"`
	Note          string `json:"note"`
	PaymentMethod string `json:"payment_method"`
}

// EffectivePrice is the per-unit price an order line is charged: the
// discount price when one is set and differs from the list price.
func EffectivePrice(p *models.Product) float64 {
	if p.PriceDiscount > 0 && p.PriceDiscount != p.Price {
		return p.PriceDiscount
	}
	return p.Price
}

// PlaceOrder converts the user's cart into an order in one transaction:
// snapshot prices into order items, decrement the per-size stock each line
// holds, then clear the cart. Any failure rolls the whole thing back.
//
// Two concurrent placements from the same cart can both pass the empty-cart
// check; that duplicate-submission race is accepted and not locked against.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uint, info ShippingInfo) (*models.Order, error) {
	var order models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", userID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		var total float64
		orderItems := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			var p models.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: id %d", ErrProductNotFound, it.ProductID)
				}
				return err
			}

			price := EffectivePrice(&p)
			total += price * float64(it.Quantity)
			orderItems = append(orderItems, models.OrderItem{
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     price,
				Size:      it.Size,
				Color:     it.Color,
			})

			if err := decrementStock(tx, it); err != nil {
				return err
			}
		}

		order = models.Order{
			UserID:        userID,
			FullName:      info.FullName,
			Email:         info.Email,
			Phone:         info.Phone,
			Address:       info.Address,
			City:          info.City,
			Note:          info.Note,
			PaymentMethod: info.PaymentMethod,
			Status:        models.OrderStatusPending,
			TotalAmount:   total,
			Items:         orderItems,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder flips a pending order to cancelled and gives the per-size
// stock back to the same rows placement took it from. Anything past pending
// is rejected, so a second cancel fails.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		if order.Status != models.OrderStatusPending {
			return ErrNotCancellable
		}

		for _, it := range order.Items {
			// Size rows deleted since placement have nothing to restore into.
			res := tx.Model(&models.Size{}).
				Where("variant_id IN (?)",
					tx.Model(&models.Variant{}).Select("id").
						Where("product_id = ? AND color = ?", it.ProductID, it.Color)).
				Where("size = ?", it.Size).
				Update("stock", gorm.Expr("stock + ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
		}

		order.Status = models.OrderStatusCancelled
		return tx.Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func decrementStock(tx *gorm.DB, it models.CartItem) error {
	var size models.Size
	err := tx.Select("sizes.*").
		Joins("JOIN variants ON variants.id = sizes.variant_id").
		Where("variants.product_id = ? AND variants.color = ? AND sizes.size = ?", it.ProductID, it.Color, it.Size).
		First(&size).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %d has no %s/%s variant", ErrProductNotFound, it.ProductID, it.Color, it.Size)
		}
		return err
	}
	if size.Stock < it.Quantity {
		return fmt.Errorf("%w: product %d %s/%s has %d left", ErrInsufficientStock, it.ProductID, it.Color, it.Size, size.Stock)
	}
	return tx.Model(&models.Size{}).
		Where("id = ?", size.ID).
		Update("stock", gorm.Expr("stock - ?", it.Quantity)).Error
}
