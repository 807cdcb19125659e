package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicsched/config"
	"clinicsched/infras/otel"
	"clinicsched/internal/domains/booking/model"
	"clinicsched/internal/domains/booking/model/dto"
	"clinicsched/internal/domains/booking/repository"
	slotModel "clinicsched/internal/domains/schedule/model"
	slotRepo "clinicsched/internal/domains/schedule/repository"
	"clinicsched/shared"
	"clinicsched/shared/cache"
	"clinicsched/shared/constant"
	gDto "clinicsched/shared/dto"
	"clinicsched/shared/failure"
	"clinicsched/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheSubSlots = "booking:subslots"
)

// errSlotOutOfSync marks a cancellation whose capacity release matched
// no slot row: the booking's (staff, date, time slot) key points at
// nothing, so occupancy has drifted from the live bookings.
var errSlotOutOfSync = errors.New("slot occupancy does not match its bookings")

type Booking interface {
	Book(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Cancel(ctx context.Context, id string) (dto.CancelBookingResponse, error)
	DeletePlaceholder(ctx context.Context, id string) error
	SubSlots(ctx context.Context, staffID, date, timeSlot string) (dto.SubSlotsResponse, error)
}

type serviceImpl struct {
	repo     repository.Booking
	slotRepo slotRepo.Slot
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(repo repository.Booking, slotRepo slotRepo.Slot, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Booking {
	return &serviceImpl{
		repo:     repo,
		slotRepo: slotRepo,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

// Book admits a patient into the (staff, date, time slot) triple. The
// occupancy increment is conditional on remaining capacity, so two
// concurrent bookings cannot overshoot the ceiling: the loser sees a
// "slot full" capacity failure.
func (s *serviceImpl) Book(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Book")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	date, err := req.ParseDate()
	if err != nil {
		return res, failure.Validation(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if !slotModel.IsValidTimeSlot(req.TimeSlot) {
		return res, failure.Validation(fmt.Sprintf("time slot %q is not a valid consultation start time", req.TimeSlot)) //nolint:wrapcheck
	}

	admitted, err := s.slotRepo.AdmitPatient(ctx, req.StaffID, date, req.TimeSlot)
	if err != nil {
		log.Error().Err(err).Msg("failed to admit patient into slot")

		return res, fmt.Errorf("failed to admit patient into slot: %w", err)
	}

	if !admitted {
		exist, existErr := s.slotRepo.Exist(ctx, s.slotFilter(req.StaffID, date, req.TimeSlot))
		if existErr != nil {
			log.Error().Err(existErr).Msg("failed to check slot existence")

			return res, fmt.Errorf("failed to check slot existence: %w", existErr)
		}

		if !exist {
			return res, failure.NotFound("slot not found") //nolint:wrapcheck
		}

		return res, failure.Capacity("slot is full") //nolint:wrapcheck
	}

	booking := req.ToModel(date, user)

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		// Roll the admission back so the slot does not leak capacity.
		released, releaseErr := s.slotRepo.ReleasePatient(ctx, req.StaffID, date, req.TimeSlot)
		if releaseErr != nil {
			log.Error().Err(releaseErr).Msg("failed to release slot after booking insert failure")
		} else if !released {
			log.Error().
				Str("staffID", req.StaffID).
				Str("slotDate", req.SlotDate).
				Str("timeSlot", req.TimeSlot).
				Msg("rollback release matched no slot row")
		}

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	res.FromModel(booking)

	s.invalidateSubSlots(ctx, req.StaffID, req.SlotDate, req.TimeSlot)

	return res, nil
}

// Cancel marks a booking cancelled and releases its capacity unit.
// Past-dated bookings are out of window and never cancellable; virtual
// or already-cancelled entries report "nothing to cancel" without
// error.
func (s *serviceImpl) Cancel(ctx context.Context, id string) (res dto.CancelBookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") //nolint:wrapcheck
	}

	if booking.Status == model.StatusCancelled || booking.IsPlaceholder() {
		return dto.CancelBookingResponse{
			Cancelled: false,
			Reason:    "nothing to cancel",
		}, nil
	}

	if isPastDate(booking.SlotDate) {
		return res, failure.Validation("past bookings cannot be cancelled") //nolint:wrapcheck
	}

	// Release before flipping the status: a zero-row release means no
	// slot row matches the booking's key, and cancelling anyway would
	// leave the drift invisible.
	released, err := s.slotRepo.ReleasePatient(ctx, booking.StaffID, booking.SlotDate, booking.TimeSlot)
	if err != nil {
		log.Error().Err(err).Msg("failed to release slot capacity for cancellation")

		return res, fmt.Errorf("failed to release slot capacity: %w", err)
	}

	if !released {
		log.Error().
			Str("bookingID", booking.ID).
			Str("staffID", booking.StaffID).
			Str("timeSlot", booking.TimeSlot).
			Msg("capacity release matched no slot row")

		return res, failure.InternalError(errSlotOutOfSync) //nolint:wrapcheck
	}

	updatedFields := map[string]any{
		model.FieldStatus:        model.StatusCancelled,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: user,
	}

	if err = s.repo.Update(ctx, updatedFields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to cancel booking")

		// Restore the unit released above so occupancy stays aligned
		// with the still-active booking.
		if readmitted, admitErr := s.slotRepo.AdmitPatient(ctx, booking.StaffID, booking.SlotDate, booking.TimeSlot); admitErr != nil || !readmitted {
			log.Error().Err(admitErr).Msg("failed to restore slot capacity after cancellation failure")
		}

		return res, fmt.Errorf("failed to cancel booking: %w", err)
	}

	s.invalidateSubSlots(ctx, booking.StaffID, booking.SlotDate.Format(constant.DateOnlyFormat), booking.TimeSlot)

	return dto.CancelBookingResponse{Cancelled: true}, nil
}

// DeletePlaceholder hard-removes a reserved capacity row. Only rows
// without a patient attached qualify: this shrinks capacity, it never
// discharges anyone.
func (s *serviceImpl) DeletePlaceholder(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DeletePlaceholder")
	defer scope.End()
	defer scope.TraceIfError(err)

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return failure.NotFound("booking not found") //nolint:wrapcheck
	}

	if !booking.IsPlaceholder() {
		return failure.Capacity("booking has a patient attached, cancel it instead") //nolint:wrapcheck
	}

	if err = s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete placeholder booking")

		return fmt.Errorf("failed to delete placeholder booking: %w", err)
	}

	s.invalidateSubSlots(ctx, booking.StaffID, booking.SlotDate.Format(constant.DateOnlyFormat), booking.TimeSlot)

	return nil
}

// SubSlots renders the capacity view of one (staff, date, time slot)
// triple: persisted bookings in creation order, padded with EMPTY
// placeholders. Cancelled rows stay listed as history and the padding
// is derived from live occupancy, so the view always offers the slot's
// full ceiling of usable units even after cancel-and-rebook cycles.
func (s *serviceImpl) SubSlots(ctx context.Context, staffID, date, timeSlot string) (res dto.SubSlotsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SubSlots")
	defer scope.End()
	defer scope.TraceIfError(err)

	day, err := timezone.Parse(constant.DateOnlyFormat, date)
	if err != nil {
		return res, failure.Validation(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if !slotModel.IsValidTimeSlot(timeSlot) {
		return res, failure.Validation(fmt.Sprintf("time slot %q is not a valid consultation start time", timeSlot)) //nolint:wrapcheck
	}

	cacheKey := shared.BuildCacheKey(cacheSubSlots, staffID, day.Format(constant.DateOnlyFormat), timeSlot)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for sub-slots")

		return res, nil
	}

	slot, err := s.slotRepo.Get(ctx, s.slotFilter(staffID, day, timeSlot))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot for sub-slot view")

		return res, fmt.Errorf("failed to get slot for sub-slot view: %w", err)
	}

	if slot.ID == constant.Empty {
		return res, failure.NotFound("slot not found") //nolint:wrapcheck
	}

	bookings, err := s.repo.GetBySubSlotKey(ctx, staffID, day, timeSlot)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings for sub-slot view")

		return res, fmt.Errorf("failed to get bookings for sub-slot view: %w", err)
	}

	past := isPastDate(day)
	occupied := 0

	views := make([]dto.SubSlotView, 0, len(bookings)+slot.MaxPatients)

	for i, booking := range bookings {
		if booking.Status != model.StatusCancelled {
			occupied++
		}

		views = append(views, dto.SubSlotView{
			SlotNumber:  i + 1,
			BookingID:   booking.ID,
			PatientName: booking.PatientName,
			Status:      booking.Status,
			StatusLabel: dto.StatusLabel(booking.Status),
			CanCancel:   booking.Status == model.StatusActive && !booking.IsPlaceholder() && !past,
			CanDelete:   booking.IsPlaceholder(),
		})
	}

	// Cancelled rows freed their capacity units, so the EMPTY padding
	// counts against live occupancy, not row count.
	for free := slot.MaxPatients - occupied; free > 0; free-- {
		views = append(views, dto.SubSlotView{
			SlotNumber:  len(views) + 1,
			Status:      model.StatusEmpty,
			StatusLabel: dto.StatusLabel(model.StatusEmpty),
		})
	}

	res = dto.SubSlotsResponse{
		StaffID:  staffID,
		SlotDate: day.Format(constant.DateOnlyFormat),
		TimeSlot: timeSlot,
		SubSlots: views,
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save sub-slots to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) slotFilter(staffID string, date time.Time, timeSlot string) gDto.FilterGroup {
	filter := shared.FilterByStaffAndDate(
		staffID,
		date.Format(constant.DateOnlyFormat),
		slotModel.FieldStaffID,
		slotModel.FieldSlotDate,
		slotModel.TableName,
	)
	filter.Filters = append(filter.Filters, gDto.Filter{
		Field:    slotModel.FieldTimeSlot,
		Value:    timeSlot,
		Operator: gDto.FilterOperatorEq,
		Table:    slotModel.TableName,
	})

	return filter
}

func (s *serviceImpl) invalidateSubSlots(ctx context.Context, staffID, date, timeSlot string) {
	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, shared.BuildCacheKey(cacheSubSlots, staffID, date, timeSlot))
	}()
}

// isPastDate compares calendar days in the clinic timezone: a booking
// dated before today is out of the cancellation window.
func isPastDate(date time.Time) bool {
	now := timezone.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())

	return day.Before(today)
}
