package service

import (
	"context"
	"time"

	"github.com/tazehal/batching-engine/internal/domain"
	"github.com/tazehal/batching-engine/internal/render"
)

type fakeBatchRepo struct {
	findOrCreateFn     func(ctx context.Context, w domain.BatchWindow) (*domain.Batch, error)
	getByIDFn          func(ctx context.Context, id string) (*domain.Batch, error)
	findOpenByWindowFn func(ctx context.Context, date time.Time, bt domain.BatchType) (*domain.Batch, error)
	incrementFn        func(ctx context.Context, id string, delta int) error
	confirmFn          func(ctx context.Context, id string, actorID *string, at time.Time) (*domain.Batch, error)
	expireFn           func(ctx context.Context, cutoffBefore time.Time) ([]domain.Batch, error)
}

func (f *fakeBatchRepo) FindOrCreate(ctx context.Context, w domain.BatchWindow) (*domain.Batch, error) {
	return f.findOrCreateFn(ctx, w)
}

func (f *fakeBatchRepo) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeBatchRepo) FindOpenByWindow(ctx context.Context, date time.Time, bt domain.BatchType) (*domain.Batch, error) {
	return f.findOpenByWindowFn(ctx, date, bt)
}

func (f *fakeBatchRepo) IncrementOrderCount(ctx context.Context, id string, delta int) error {
	return f.incrementFn(ctx, id, delta)
}

func (f *fakeBatchRepo) Confirm(ctx context.Context, id string, actorID *string, at time.Time) (*domain.Batch, error) {
	return f.confirmFn(ctx, id, actorID, at)
}

func (f *fakeBatchRepo) ExpireOpenBefore(ctx context.Context, cutoffBefore time.Time) ([]domain.Batch, error) {
	return f.expireFn(ctx, cutoffBefore)
}

type fakeOrderRepo struct {
	createFn                func(ctx context.Context, o *domain.Order) error
	getByIDFn               func(ctx context.Context, id string) (*domain.Order, error)
	listByBatchFn           func(ctx context.Context, batchID string) ([]domain.Order, error)
	listPendingByBatchFn    func(ctx context.Context, batchID string) ([]domain.Order, error)
	confirmPendingFn        func(ctx context.Context, batchID string) (int64, error)
	cancelPendingFn         func(ctx context.Context, id string) (*domain.Order, error)
	setBillNumberIfAbsentFn func(ctx context.Context, id string, billNumber string) (bool, error)
	markBillGeneratedFn     func(ctx context.Context, id string) error
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	return f.createFn(ctx, o)
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return f.getByIDFn(ctx, id)
}

func (f *fakeOrderRepo) ListByBatch(ctx context.Context, batchID string) ([]domain.Order, error) {
	return f.listByBatchFn(ctx, batchID)
}

func (f *fakeOrderRepo) ListPendingByBatch(ctx context.Context, batchID string) ([]domain.Order, error) {
	return f.listPendingByBatchFn(ctx, batchID)
}

func (f *fakeOrderRepo) ConfirmPendingByBatch(ctx context.Context, batchID string) (int64, error) {
	return f.confirmPendingFn(ctx, batchID)
}

func (f *fakeOrderRepo) CancelPending(ctx context.Context, id string) (*domain.Order, error) {
	return f.cancelPendingFn(ctx, id)
}

func (f *fakeOrderRepo) SetBillNumberIfAbsent(ctx context.Context, id string, billNumber string) (bool, error) {
	return f.setBillNumberIfAbsentFn(ctx, id, billNumber)
}

func (f *fakeOrderRepo) MarkBillGenerated(ctx context.Context, id string) error {
	return f.markBillGeneratedFn(ctx, id)
}

type fakeCounterRepo struct {
	nextSequenceFn func(ctx context.Context, name string) (int64, error)
}

func (f *fakeCounterRepo) NextSequence(ctx context.Context, name string) (int64, error) {
	return f.nextSequenceFn(ctx, name)
}

type fakeRenderer struct {
	renderFn func(ctx context.Context, bill render.BillData) ([]byte, error)
}

func (f *fakeRenderer) RenderDeliveryBill(ctx context.Context, bill render.BillData) ([]byte, error) {
	return f.renderFn(ctx, bill)
}

type fakeBillGenerator struct {
	generateFn func(ctx context.Context, batch *domain.Batch) (BillingReport, error)
}

func (f *fakeBillGenerator) GenerateForBatch(ctx context.Context, batch *domain.Batch) (BillingReport, error) {
	return f.generateFn(ctx, batch)
}

type recordedAlert struct {
	event  string
	fields map[string]string
}

type recordingNotifier struct {
	alerts []recordedAlert
}

func (n *recordingNotifier) Alert(_ context.Context, event string, _ error, fields map[string]string) {
	n.alerts = append(n.alerts, recordedAlert{event: event, fields: fields})
}

func strPtr(s string) *string { return &s }
