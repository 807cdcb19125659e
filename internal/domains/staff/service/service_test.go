package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"clinicsched/config"
	"clinicsched/infras/otel/mocks"
	staffMocks "clinicsched/internal/domains/staff/mocks"
	"clinicsched/internal/domains/staff/model"
	"clinicsched/internal/domains/staff/model/dto"
	"clinicsched/internal/domains/staff/service"
	cacheMocks "clinicsched/shared/cache/mocks"
	"clinicsched/shared/constant"
	gDto "clinicsched/shared/dto"
	"clinicsched/shared/failure"
)

func newStaffService(t *testing.T) (service.Staff, *staffMocks.MockStaff, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := staffMocks.NewMockStaff(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, cfg, mockCache, mockOtel)

	return svc, mockRepo, mockCache
}

func TestStaffService_Create(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		svc, mockRepo, mockCache := newStaffService(t)

		var inserted model.Staff

		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, staff model.Staff) error {
				inserted = staff

				return nil
			})

		mockCache.EXPECT().
			Clear(gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
		result, err := svc.Create(ctx, dto.CreateStaffRequest{
			FullName: "Dr. Lan",
			Role:     "DOCTOR",
			Email:    "lan@clinic.vn",
		})

		assert.NoError(t, err)
		assert.NotEmpty(t, result.ID)
		assert.Equal(t, "Dr. Lan", result.FullName)
		assert.Equal(t, "DOCTOR", result.Role)
		assert.True(t, result.Active)
		assert.True(t, inserted.Active)
		assert.Equal(t, "admin-1", inserted.CreatedBy)
	})

	t.Run("insert failure", func(t *testing.T) {
		svc, mockRepo, _ := newStaffService(t)

		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			Return(errors.New("database error"))

		_, err := svc.Create(context.Background(), dto.CreateStaffRequest{
			FullName: "Dr. Lan",
			Role:     "DOCTOR",
		})

		assert.Error(t, err)
	})
}

func TestStaffService_GetAll(t *testing.T) {
	svc, mockRepo, mockCache := newStaffService(t)

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss")).
		Times(2)

	mockRepo.EXPECT().
		Count(gomock.Any(), gomock.Any()).
		Return(2, nil)

	mockRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Staff{
			{ID: "staff-1", FullName: "Dr. Lan", Role: "DOCTOR", Active: true},
			{ID: "staff-2", FullName: "Nurse Mai", Role: "NURSE", Active: true},
		}, nil)

	mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	result, err := svc.GetAll(context.Background(), gDto.QueryParams{Page: 1, Limit: 10}, gDto.FilterGroup{})

	assert.NoError(t, err)
	assert.Len(t, result.Staff, 2)
	assert.Equal(t, 2, result.TotalData)
	assert.Equal(t, 1, result.TotalPage)
}

func TestStaffService_Get(t *testing.T) {
	t.Run("cache hit", func(t *testing.T) {
		svc, _, mockCache := newStaffService(t)

		mockCache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, value any) error {
				res, ok := value.(*dto.StaffResponse)
				if !ok {
					return errors.New("unexpected cache target")
				}

				res.ID = "staff-1"
				res.FullName = "Dr. Lan"

				return nil
			})

		result, err := svc.Get(context.Background(), "staff-1")

		assert.NoError(t, err)
		assert.Equal(t, "Dr. Lan", result.FullName)
	})

	t.Run("cache miss then found", func(t *testing.T) {
		svc, mockRepo, mockCache := newStaffService(t)

		mockCache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("cache miss"))

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Staff{ID: "staff-1", FullName: "Dr. Lan", Role: "DOCTOR", Active: true}, nil)

		mockCache.EXPECT().
			Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		result, err := svc.Get(context.Background(), "staff-1")

		assert.NoError(t, err)
		assert.Equal(t, "staff-1", result.ID)
	})

	t.Run("not found", func(t *testing.T) {
		svc, mockRepo, mockCache := newStaffService(t)

		mockCache.EXPECT().
			Get(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("cache miss"))

		mockRepo.EXPECT().
			Get(gomock.Any(), gomock.Any()).
			Return(model.Staff{}, nil)

		_, err := svc.Get(context.Background(), "missing")

		assert.Error(t, err)
		assert.True(t, failure.IsNotFound(err))
	})
}

func TestStaffService_Update(t *testing.T) {
	t.Run("successful update", func(t *testing.T) {
		svc, mockRepo, mockCache := newStaffService(t)

		mockRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		mockRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		mockCache.EXPECT().
			Delete(gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()
		mockCache.EXPECT().
			Clear(gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		err := svc.Update(context.Background(), dto.UpdateStaffRequest{FullName: "Dr. Lan Pham"}, "staff-1")

		assert.NoError(t, err)
	})

	t.Run("not found", func(t *testing.T) {
		svc, mockRepo, _ := newStaffService(t)

		mockRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := svc.Update(context.Background(), dto.UpdateStaffRequest{FullName: "Dr. Lan Pham"}, "missing")

		assert.Error(t, err)
		assert.True(t, failure.IsNotFound(err))
	})
}

func TestStaffService_Delete(t *testing.T) {
	t.Run("deactivates instead of removing", func(t *testing.T) {
		svc, mockRepo, mockCache := newStaffService(t)

		mockRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(true, nil)

		var updatedFields map[string]any

		mockRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				updatedFields = fields

				return nil
			})

		mockCache.EXPECT().
			Delete(gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()
		mockCache.EXPECT().
			Clear(gomock.Any(), gomock.Any()).
			Return(nil).
			AnyTimes()

		ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
		err := svc.Delete(ctx, "staff-1")

		assert.NoError(t, err)
		assert.Equal(t, false, updatedFields[model.FieldActive])
		assert.Equal(t, "admin-1", updatedFields[constant.FieldModifiedBy])
	})

	t.Run("not found", func(t *testing.T) {
		svc, mockRepo, _ := newStaffService(t)

		mockRepo.EXPECT().
			Exist(gomock.Any(), gomock.Any()).
			Return(false, nil)

		err := svc.Delete(context.Background(), "missing")

		assert.Error(t, err)
		assert.True(t, failure.IsNotFound(err))
	})
}
