package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"clinicsched/config"
	"clinicsched/infras/otel/mocks"
	bookingMocks "clinicsched/internal/domains/booking/mocks"
	"clinicsched/internal/domains/booking/model"
	"clinicsched/internal/domains/booking/model/dto"
	"clinicsched/internal/domains/booking/service"
	scheduleMocks "clinicsched/internal/domains/schedule/mocks"
	slotModel "clinicsched/internal/domains/schedule/model"
	cacheMocks "clinicsched/shared/cache/mocks"
	"clinicsched/shared/constant"
	"clinicsched/shared/failure"
	"clinicsched/shared/timezone"
)

func newBookingService(t *testing.T) (service.Booking, *bookingMocks.MockBooking, *scheduleMocks.MockSlot, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := bookingMocks.NewMockBooking(ctrl)
	mockSlotRepo := scheduleMocks.NewMockSlot(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	svc := service.New(mockRepo, mockSlotRepo, cfg, mockCache, mockOtel)

	return svc, mockRepo, mockSlotRepo, mockCache
}

func tomorrow() string {
	return timezone.Now().AddDate(0, 0, 1).Format(constant.DateOnlyFormat)
}

func yesterday() string {
	return timezone.Now().AddDate(0, 0, -1).Format(constant.DateOnlyFormat)
}

func TestBookingService_Book(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateBookingRequest
		setupMock func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache)
		wantErr   bool
		checkErr  func(t *testing.T, err error)
	}{
		{
			name: "successful booking",
			req: dto.CreateBookingRequest{
				StaffID:     "staff-1",
				SlotDate:    tomorrow(),
				TimeSlot:    "08:00",
				PatientID:   "patient-1",
				PatientName: "Nguyen Van A",
			},
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				slotRepo.EXPECT().
					AdmitPatient(gomock.Any(), "staff-1", gomock.Any(), "08:00").
					Return(true, nil)

				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(nil)

				cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "slot is full",
			req: dto.CreateBookingRequest{
				StaffID:  "staff-1",
				SlotDate: tomorrow(),
				TimeSlot: "08:00",
			},
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				slotRepo.EXPECT().
					AdmitPatient(gomock.Any(), "staff-1", gomock.Any(), "08:00").
					Return(false, nil)

				slotRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(true, nil)
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.True(t, failure.IsCapacity(err))
			},
		},
		{
			name: "slot not found",
			req: dto.CreateBookingRequest{
				StaffID:  "staff-1",
				SlotDate: tomorrow(),
				TimeSlot: "08:00",
			},
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				slotRepo.EXPECT().
					AdmitPatient(gomock.Any(), "staff-1", gomock.Any(), "08:00").
					Return(false, nil)

				slotRepo.EXPECT().
					Exist(gomock.Any(), gomock.Any()).
					Return(false, nil)
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.True(t, failure.IsNotFound(err))
			},
		},
		{
			name: "insert failure releases the admission",
			req: dto.CreateBookingRequest{
				StaffID:  "staff-1",
				SlotDate: tomorrow(),
				TimeSlot: "08:00",
			},
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				slotRepo.EXPECT().
					AdmitPatient(gomock.Any(), "staff-1", gomock.Any(), "08:00").
					Return(true, nil)

				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))

				slotRepo.EXPECT().
					ReleasePatient(gomock.Any(), "staff-1", gomock.Any(), "08:00").
					Return(true, nil)
			},
			wantErr: true,
		},
		{
			name: "invalid time slot",
			req: dto.CreateBookingRequest{
				StaffID:  "staff-1",
				SlotDate: tomorrow(),
				TimeSlot: "12:00",
			},
			setupMock: func(*bookingMocks.MockBooking, *scheduleMocks.MockSlot, *cacheMocks.MockRedisCache) {},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockSlotRepo, mockCache := newBookingService(t)
			tt.setupMock(mockRepo, mockSlotRepo, mockCache)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "reception-1")
			result, err := svc.Book(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.checkErr != nil {
					tt.checkErr(t, err)
				}

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, model.StatusActive, result.Status)
			assert.Equal(t, "Đang hoạt động", result.StatusLabel)
		})
	}
}

func TestBookingService_Cancel(t *testing.T) {
	futureDay, _ := timezone.Parse(constant.DateOnlyFormat, tomorrow())
	pastDay, _ := timezone.Parse(constant.DateOnlyFormat, yesterday())

	tests := []struct {
		name          string
		setupMock     func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache)
		wantErr       bool
		checkErr      func(t *testing.T, err error)
		wantCancelled bool
		wantReason    bool
	}{
		{
			name: "active booking is cancelled and capacity released",
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{
						ID:        "booking-1",
						StaffID:   "staff-1",
						SlotDate:  futureDay,
						TimeSlot:  "08:00",
						PatientID: "patient-1",
						Status:    model.StatusActive,
					}, nil)

				repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil)

				slotRepo.EXPECT().
					ReleasePatient(gomock.Any(), "staff-1", futureDay, "08:00").
					Return(true, nil)

				cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
			wantCancelled: true,
		},
		{
			name: "release matching no slot row surfaces the drift",
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{
						ID:        "booking-1",
						StaffID:   "staff-1",
						SlotDate:  futureDay,
						TimeSlot:  "08:00",
						PatientID: "patient-1",
						Status:    model.StatusActive,
					}, nil)

				slotRepo.EXPECT().
					ReleasePatient(gomock.Any(), "staff-1", futureDay, "08:00").
					Return(false, nil)
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.Equal(t, http.StatusInternalServerError, failure.GetCode(err))
			},
		},
		{
			name: "status update failure restores the released capacity",
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{
						ID:        "booking-1",
						StaffID:   "staff-1",
						SlotDate:  futureDay,
						TimeSlot:  "08:00",
						PatientID: "patient-1",
						Status:    model.StatusActive,
					}, nil)

				slotRepo.EXPECT().
					ReleasePatient(gomock.Any(), "staff-1", futureDay, "08:00").
					Return(true, nil)

				repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))

				slotRepo.EXPECT().
					AdmitPatient(gomock.Any(), "staff-1", futureDay, "08:00").
					Return(true, nil)
			},
			wantErr: true,
		},
		{
			name: "past booking cannot be cancelled",
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{
						ID:        "booking-1",
						StaffID:   "staff-1",
						SlotDate:  pastDay,
						TimeSlot:  "08:00",
						PatientID: "patient-1",
						Status:    model.StatusActive,
					}, nil)
			},
			wantErr: true,
		},
		{
			name: "already cancelled reports nothing to cancel",
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{
						ID:        "booking-1",
						StaffID:   "staff-1",
						SlotDate:  futureDay,
						PatientID: "patient-1",
						Status:    model.StatusCancelled,
					}, nil)
			},
			wantCancelled: false,
			wantReason:    true,
		},
		{
			name: "placeholder reports nothing to cancel",
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{
						ID:       "booking-1",
						StaffID:  "staff-1",
						SlotDate: futureDay,
						Status:   model.StatusActive,
					}, nil)
			},
			wantCancelled: false,
			wantReason:    true,
		},
		{
			name: "booking not found",
			setupMock: func(repo *bookingMocks.MockBooking, slotRepo *scheduleMocks.MockSlot, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockSlotRepo, mockCache := newBookingService(t)
			tt.setupMock(mockRepo, mockSlotRepo, mockCache)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "reception-1")
			result, err := svc.Cancel(ctx, "booking-1")

			if tt.wantErr {
				assert.Error(t, err)
				if tt.checkErr != nil {
					tt.checkErr(t, err)
				}

				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.wantCancelled, result.Cancelled)

			if tt.wantReason {
				assert.NotEmpty(t, result.Reason)
			}
		})
	}
}

func TestBookingService_DeletePlaceholder(t *testing.T) {
	futureDay, _ := timezone.Parse(constant.DateOnlyFormat, tomorrow())

	tests := []struct {
		name      string
		setupMock func(repo *bookingMocks.MockBooking, cache *cacheMocks.MockRedisCache)
		wantErr   bool
		checkErr  func(t *testing.T, err error)
	}{
		{
			name: "placeholder is deleted",
			setupMock: func(repo *bookingMocks.MockBooking, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{
						ID:       "booking-1",
						StaffID:  "staff-1",
						SlotDate: futureDay,
						Status:   model.StatusActive,
					}, nil)

				repo.EXPECT().
					Delete(gomock.Any(), gomock.Any()).
					Return(nil)

				cache.EXPECT().
					Clear(gomock.Any(), gomock.Any()).
					Return(nil).
					AnyTimes()
			},
		},
		{
			name: "booking with a patient is refused",
			setupMock: func(repo *bookingMocks.MockBooking, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{
						ID:        "booking-1",
						StaffID:   "staff-1",
						SlotDate:  futureDay,
						PatientID: "patient-1",
						Status:    model.StatusActive,
					}, nil)
			},
			wantErr: true,
			checkErr: func(t *testing.T, err error) {
				assert.True(t, failure.IsCapacity(err))
			},
		},
		{
			name: "booking not found",
			setupMock: func(repo *bookingMocks.MockBooking, cache *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Booking{}, nil)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, _, mockCache := newBookingService(t)
			tt.setupMock(mockRepo, mockCache)

			err := svc.DeletePlaceholder(context.Background(), "booking-1")

			if tt.wantErr {
				assert.Error(t, err)
				if tt.checkErr != nil {
					tt.checkErr(t, err)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookingService_SubSlots(t *testing.T) {
	date := tomorrow()
	day, _ := timezone.Parse(constant.DateOnlyFormat, date)

	svc, mockRepo, mockSlotRepo, mockCache := newBookingService(t)

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))

	mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	mockSlotRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(slotModel.Slot{
			ID:          "slot-1",
			StaffID:     "staff-1",
			SlotDate:    day,
			TimeSlot:    "08:00",
			MaxPatients: 5,
		}, nil)

	mockRepo.EXPECT().
		GetBySubSlotKey(gomock.Any(), "staff-1", day, "08:00").
		Return([]model.Booking{
			{
				ID:          "booking-1",
				PatientID:   "patient-1",
				PatientName: "Nguyen Van A",
				Status:      model.StatusActive,
			},
			{
				ID:     "booking-2",
				Status: model.StatusCancelled,
			},
		}, nil)

	result, err := svc.SubSlots(context.Background(), "staff-1", date, "08:00")

	assert.NoError(t, err)
	// One live booking on a ceiling of five leaves four usable units;
	// the cancelled row stays listed as history.
	assert.Len(t, result.SubSlots, 6)

	first := result.SubSlots[0]
	assert.Equal(t, 1, first.SlotNumber)
	assert.Equal(t, "booking-1", first.BookingID)
	assert.Equal(t, "Đang hoạt động", first.StatusLabel)
	assert.True(t, first.CanCancel)
	assert.False(t, first.CanDelete)

	second := result.SubSlots[1]
	assert.Equal(t, model.StatusCancelled, second.Status)
	assert.Equal(t, "Đã hủy", second.StatusLabel)
	assert.False(t, second.CanCancel)
	assert.True(t, second.CanDelete)

	for i := 2; i < 6; i++ {
		padded := result.SubSlots[i]
		assert.Equal(t, i+1, padded.SlotNumber)
		assert.Empty(t, padded.BookingID)
		assert.Equal(t, model.StatusEmpty, padded.Status)
		assert.Equal(t, "Trống", padded.StatusLabel)
		assert.False(t, padded.CanCancel)
		assert.False(t, padded.CanDelete)
	}
}

func TestBookingService_SubSlots_CacheHit(t *testing.T) {
	svc, _, _, mockCache := newBookingService(t)

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, value any) error {
			res, _ := value.(*dto.SubSlotsResponse)
			res.StaffID = "staff-1"
			res.SubSlots = []dto.SubSlotView{{SlotNumber: 1, Status: model.StatusEmpty}}

			return nil
		})

	result, err := svc.SubSlots(context.Background(), "staff-1", tomorrow(), "08:00")

	assert.NoError(t, err)
	assert.Equal(t, "staff-1", result.StaffID)
	assert.Len(t, result.SubSlots, 1)
}

func TestBookingService_SubSlots_CancelledHistoryKeepsCapacityVisible(t *testing.T) {
	date := tomorrow()
	day, _ := timezone.Parse(constant.DateOnlyFormat, date)

	svc, mockRepo, mockSlotRepo, mockCache := newBookingService(t)

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))

	mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	mockSlotRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(slotModel.Slot{ID: "slot-1", MaxPatients: 2}, nil)

	// Two cancel-and-rebook cycles: the row count exceeds the ceiling
	// but only one unit is live.
	mockRepo.EXPECT().
		GetBySubSlotKey(gomock.Any(), "staff-1", day, "08:00").
		Return([]model.Booking{
			{ID: "booking-1", PatientID: "patient-1", Status: model.StatusCancelled},
			{ID: "booking-2", PatientID: "patient-2", Status: model.StatusCancelled},
			{ID: "booking-3", PatientID: "patient-3", Status: model.StatusActive},
		}, nil)

	result, err := svc.SubSlots(context.Background(), "staff-1", date, "08:00")

	assert.NoError(t, err)
	assert.Len(t, result.SubSlots, 4)

	last := result.SubSlots[3]
	assert.Equal(t, 4, last.SlotNumber)
	assert.Equal(t, model.StatusEmpty, last.Status)
	assert.Equal(t, "Trống", last.StatusLabel)
}

func TestBookingService_SubSlots_PastDayNotCancellable(t *testing.T) {
	date := yesterday()
	day, _ := timezone.Parse(constant.DateOnlyFormat, date)

	svc, mockRepo, mockSlotRepo, mockCache := newBookingService(t)

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))

	mockCache.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	mockSlotRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(slotModel.Slot{ID: "slot-1", MaxPatients: 2}, nil)

	mockRepo.EXPECT().
		GetBySubSlotKey(gomock.Any(), "staff-1", day, "08:00").
		Return([]model.Booking{
			{
				ID:        "booking-1",
				PatientID: "patient-1",
				Status:    model.StatusActive,
			},
		}, nil)

	result, err := svc.SubSlots(context.Background(), "staff-1", date, "08:00")

	assert.NoError(t, err)
	assert.Len(t, result.SubSlots, 2)
	assert.False(t, result.SubSlots[0].CanCancel)
}

func TestBookingService_SubSlots_SlotNotFound(t *testing.T) {
	svc, _, mockSlotRepo, mockCache := newBookingService(t)

	mockCache.EXPECT().
		Get(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("cache miss"))

	mockSlotRepo.EXPECT().
		Get(gomock.Any(), gomock.Any()).
		Return(slotModel.Slot{}, nil)

	_, err := svc.SubSlots(context.Background(), "staff-1", tomorrow(), "08:00")

	assert.Error(t, err)
	assert.True(t, failure.IsNotFound(err))
}
