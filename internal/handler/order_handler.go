package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tazehal/batching-engine/internal/domain"
)

type OrderService interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, *domain.Batch, error)
	Cancel(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}

type OrderHandler struct {
	service OrderService
}

func NewOrderHandler(service OrderService) (*OrderHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("order service is required")
	}
	return &OrderHandler{service: service}, nil
}

func RegisterOrderRoutes(router fiber.Router, service OrderService) error {
	h, err := NewOrderHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/orders", h.CreateOrder)
	v1.Get("/orders/:id", h.GetOrder)
	v1.Post("/orders/:id/cancel", h.CancelOrder)

	return nil
}

type createOrderRequest struct {
	CustomerID string             `json:"customerId"`
	Items      []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	Product  string  `json:"product"`
	Category *string `json:"category,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Rate     float64 `json:"rate"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	BatchID       string              `json:"batchId"`
	BatchNumber   string              `json:"batchNumber,omitempty"`
	CustomerID    string              `json:"customerId"`
	Status        string              `json:"status"`
	Items         []orderItemResponse `json:"items"`
	TotalAmount   float64             `json:"totalAmount"`
	BillNumber    *string             `json:"billNumber,omitempty"`
	BillGenerated bool                `json:"billGenerated"`
	CreatedAt     time.Time           `json:"createdAt,omitempty"`
	UpdatedAt     time.Time           `json:"updatedAt,omitempty"`
}

type orderItemResponse struct {
	Product  string  `json:"product"`
	Category *string `json:"category,omitempty"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Rate     float64 `json:"rate"`
	Amount   float64 `json:"amount"`
}

func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	order := requestToDomainOrder(req)

	created, batch, err := h.service.Create(c.UserContext(), &order)
	if err != nil {
		return toHTTPError(err)
	}

	resp := toOrderResponse(created)
	resp.BatchNumber = batch.BatchNumber

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	order, err := h.service.GetOrder(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toOrderResponse(order))
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	order, err := h.service.Cancel(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toOrderResponse(order))
}

func requestToDomainOrder(req createOrderRequest) domain.Order {
	order := domain.Order{
		CustomerID: strings.TrimSpace(req.CustomerID),
	}

	for _, item := range req.Items {
		quantity := item.Quantity
		rate := item.Rate
		order.Items = append(order.Items, domain.OrderItem{
			Product:  strings.TrimSpace(item.Product),
			Category: item.Category,
			Quantity: quantity,
			Unit:     strings.TrimSpace(item.Unit),
			Rate:     rate,
			Amount:   quantity * rate,
		})
	}

	return order
}

func toOrderResponse(o *domain.Order) orderResponse {
	if o == nil {
		return orderResponse{}
	}

	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			Product:  item.Product,
			Category: item.Category,
			Quantity: item.Quantity,
			Unit:     item.Unit,
			Rate:     item.Rate,
			Amount:   item.Amount,
		})
	}

	return orderResponse{
		ID:            o.ID,
		BatchID:       o.BatchID,
		CustomerID:    o.CustomerID,
		Status:        o.Status.String(),
		Items:         items,
		TotalAmount:   o.TotalAmount(),
		BillNumber:    o.BillNumber,
		BillGenerated: o.BillGenerated,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrStateConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
