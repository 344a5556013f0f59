package glossameta

import (
	"context"

	"github.com/kailas-cloud/glossameta/internal/domain/category"
	"github.com/kailas-cloud/glossameta/internal/domain/geo"
	filteruc "github.com/kailas-cloud/glossameta/internal/usecase/filter"
)

// --- sessionUseCase mock ---

type mockSessionUC struct {
	createFn      func(ctx context.Context) (filteruc.Result, error)
	getFn         func(ctx context.Context, id string) (filteruc.Result, error)
	deleteFn      func(ctx context.Context, id string) error
	addValueFn    func(ctx context.Context, id, key string, v category.Value) (filteruc.Result, error)
	removeValueFn func(ctx context.Context, id, key string, v category.Value) (filteruc.Result, error)
	setRangeFn    func(ctx context.Context, id, key string, lo, hi int) (filteruc.Result, error)
	clearFn       func(ctx context.Context, id, key string) (filteruc.Result, error)
	resetFn       func(ctx context.Context, id, key string) (filteruc.Result, error)
	selectAreaFn  func(ctx context.Context, id string, area geo.Area) (filteruc.Result, error)
}

func (m *mockSessionUC) CreateSession(ctx context.Context) (filteruc.Result, error) {
	return m.createFn(ctx)
}

func (m *mockSessionUC) Session(ctx context.Context, id string) (filteruc.Result, error) {
	return m.getFn(ctx, id)
}

func (m *mockSessionUC) DeleteSession(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSessionUC) AddValue(
	ctx context.Context, id, key string, v category.Value,
) (filteruc.Result, error) {
	return m.addValueFn(ctx, id, key, v)
}

func (m *mockSessionUC) RemoveValue(
	ctx context.Context, id, key string, v category.Value,
) (filteruc.Result, error) {
	return m.removeValueFn(ctx, id, key, v)
}

func (m *mockSessionUC) SetRange(ctx context.Context, id, key string, lo, hi int) (filteruc.Result, error) {
	return m.setRangeFn(ctx, id, key, lo, hi)
}

func (m *mockSessionUC) ClearCategory(ctx context.Context, id, key string) (filteruc.Result, error) {
	return m.clearFn(ctx, id, key)
}

func (m *mockSessionUC) ResetCategory(ctx context.Context, id, key string) (filteruc.Result, error) {
	return m.resetFn(ctx, id, key)
}

func (m *mockSessionUC) SelectArea(ctx context.Context, id string, area geo.Area) (filteruc.Result, error) {
	return m.selectAreaFn(ctx, id, area)
}
