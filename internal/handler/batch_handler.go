package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tazehal/batching-engine/internal/domain"
	"github.com/tazehal/batching-engine/internal/service"
)

type BatchService interface {
	GetBatch(ctx context.Context, id string) (*domain.Batch, error)
	Confirm(ctx context.Context, batchID string, actor *string, generateBills bool) (*service.ConfirmResult, error)
}

type BatchHandler struct {
	service BatchService
}

func NewBatchHandler(service BatchService) (*BatchHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("batch service is required")
	}
	return &BatchHandler{service: service}, nil
}

func RegisterBatchRoutes(router fiber.Router, service BatchService) error {
	h, err := NewBatchHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/batches/:id", h.GetBatch)
	v1.Post("/batches/:id/confirm", h.ConfirmBatch)

	return nil
}

type confirmBatchRequest struct {
	ActorID *string `json:"actorId"`
	// GenerateBills defaults to true when the body omits it.
	GenerateBills *bool `json:"generateBills"`
}

type batchResponse struct {
	ID              string     `json:"id"`
	BatchNumber     string     `json:"batchNumber"`
	Date            string     `json:"date"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	CutoffTime      time.Time  `json:"cutoffTime"`
	AutoConfirmTime *time.Time `json:"autoConfirmTime,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmedAt,omitempty"`
	ConfirmedBy     *string    `json:"confirmedBy,omitempty"`
	OrderCount      int        `json:"orderCount"`
	CreatedAt       time.Time  `json:"createdAt,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt,omitempty"`
}

type confirmBatchResponse struct {
	Batch           batchResponse       `json:"batch"`
	OrdersConfirmed int64               `json:"ordersConfirmed"`
	BillsGenerated  int                 `json:"billsGenerated"`
	BillErrors      []service.BillError `json:"billErrors,omitempty"`
}

func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	batch, err := h.service.GetBatch(c.UserContext(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toBatchResponse(batch))
}

func (h *BatchHandler) ConfirmBatch(c *fiber.Ctx) error {
	var req confirmBatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	actor := req.ActorID
	if actor != nil && strings.TrimSpace(*actor) == "" {
		actor = nil
	}
	generateBills := req.GenerateBills == nil || *req.GenerateBills

	id := strings.TrimSpace(c.Params("id"))
	result, err := h.service.Confirm(c.UserContext(), id, actor, generateBills)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(confirmBatchResponse{
		Batch:           toBatchResponse(result.Batch),
		OrdersConfirmed: result.OrdersConfirmed,
		BillsGenerated:  result.BillsGenerated,
		BillErrors:      result.BillErrors,
	})
}

func toBatchResponse(b *domain.Batch) batchResponse {
	if b == nil {
		return batchResponse{}
	}

	return batchResponse{
		ID:              b.ID,
		BatchNumber:     b.BatchNumber,
		Date:            b.Date.Format("2006-01-02"),
		Type:            b.Type.String(),
		Status:          b.Status.String(),
		CutoffTime:      b.CutoffTime,
		AutoConfirmTime: b.AutoConfirmTime,
		ConfirmedAt:     b.ConfirmedAt,
		ConfirmedBy:     b.ConfirmedBy,
		OrderCount:      b.OrderCount,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}
