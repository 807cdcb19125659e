package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"clinicsched/config"
	"clinicsched/infras/otel"
	"clinicsched/infras/s3"
	"clinicsched/internal/domains/schedule/model"
	"clinicsched/internal/domains/schedule/model/dto"
	"clinicsched/internal/domains/schedule/repository"
	staffModel "clinicsched/internal/domains/staff/model"
	staffRepo "clinicsched/internal/domains/staff/repository"
	"clinicsched/shared"
	"clinicsched/shared/cache"
	"clinicsched/shared/constant"
	gDto "clinicsched/shared/dto"
	"clinicsched/shared/failure"
	"clinicsched/shared/timezone"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetSlot     = "slot:get"
	cacheGetAllSlots = "slot:gets"
	cacheCountSlots  = "slot:count"
)

// exportDirectory is the bucket prefix for day-schedule CSV reports.
const exportDirectory = "reports"

type Schedule interface {
	Create(ctx context.Context, req dto.CreateScheduleRequest) (dto.CreateScheduleResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetSlotsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	Get(ctx context.Context, id string) (dto.SlotResponse, error)
	Update(ctx context.Context, req dto.UpdateScheduleRequest, id string) error
	RequestDelete(ctx context.Context, id string) (dto.DeleteScheduleResponse, error)
	DaySummary(ctx context.Context, staffID string, date string) (dto.DaySummaryResponse, error)
	Export(ctx context.Context, staffID string, date string) (dto.ExportScheduleResponse, error)
}

type serviceImpl struct {
	repo      repository.Slot
	staffRepo staffRepo.Staff
	cfg       *config.Config
	cache     cache.RedisCache
	otel      otel.Otel
	s3        s3.S3
}

func New(repo repository.Slot, staffRepo staffRepo.Staff, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Schedule {
	return &serviceImpl{
		repo:      repo,
		staffRepo: staffRepo,
		cfg:       cfg,
		cache:     cache,
		otel:      otel,
		s3:        s3,
	}
}

// Create inserts a slot for the requested date and, when repeat_weeks
// is set, for the same weekday in each of the following weeks. The
// requested date must be free; repeat dates that collide with an
// existing schedule are skipped and reported, not fatal.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateScheduleRequest) (res dto.CreateScheduleResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	date, err := req.ParseDate()
	if err != nil {
		log.Error().Err(err).Str("slotDate", req.SlotDate).Msg("failed to parse schedule date")

		return res, failure.Validation(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	if model.IsOffDay(date) {
		return res, failure.Validation("schedules cannot be created on Sunday") //nolint:wrapcheck
	}

	if !model.IsValidTimeSlot(req.TimeSlot) {
		return res, failure.Validation(fmt.Sprintf("time slot %q is not a valid consultation start time", req.TimeSlot)) //nolint:wrapcheck
	}

	staff, err := s.staffRepo.Get(ctx, shared.FilterByID(req.StaffID, staffModel.FieldID, staffModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve staff member")

		return res, fmt.Errorf("failed to resolve staff member: %w", err)
	}

	if staff.ID == constant.Empty {
		return res, failure.NotFound("staff member not found") //nolint:wrapcheck
	}

	if !staff.Active {
		return res, failure.Validation("staff member is inactive") //nolint:wrapcheck
	}

	conflict, err := s.hasConflict(ctx, req.StaffID, date)
	if err != nil {
		return res, err
	}

	if conflict {
		return res, failure.Conflict("a schedule already exists for this staff member and date") //nolint:wrapcheck
	}

	slots := []model.Slot{req.ToModel(date, staff.FullName, staff.Role, user, s.cfg.Schedule.DefaultMaxPatients)}

	var skipped []time.Time

	for week := 1; week <= req.RepeatWeeks; week++ {
		repeatDate := date.AddDate(0, 0, week*constant.DaysPerWeek)

		conflict, err := s.hasConflict(ctx, req.StaffID, repeatDate)
		if err != nil {
			return res, err
		}

		if conflict {
			skipped = append(skipped, repeatDate)

			continue
		}

		slots = append(slots, req.ToModel(repeatDate, staff.FullName, staff.Role, user, s.cfg.Schedule.DefaultMaxPatients))
	}

	if err = s.repo.InsertBulk(ctx, slots); err != nil {
		log.Error().Err(err).Msg("failed to create schedule")

		return res, fmt.Errorf("failed to create schedule: %w", err)
	}

	res.FromModels(slots, skipped)

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllSlots)
		shared.InvalidateCaches(c, s.cache, cacheCountSlots)
	}()

	return res, nil
}

func (s *serviceImpl) hasConflict(ctx context.Context, staffID string, date time.Time) (bool, error) {
	filter := shared.FilterByStaffAndDate(
		staffID,
		date.Format(constant.DateOnlyFormat),
		model.FieldStaffID,
		model.FieldSlotDate,
		model.TableName,
	)
	filter.Filters = append(filter.Filters, gDto.Filter{
		Field:    model.FieldStatus,
		Value:    model.StatusCancelled,
		Operator: gDto.FilterOperatorNotEq,
		Table:    model.TableName,
	})

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check schedule conflict")

		return false, fmt.Errorf("failed to check schedule conflict: %w", err)
	}

	return exist, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetSlotsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllSlots, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for slots")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count slots")

		return res, fmt.Errorf("failed to count slots: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get slots")

		return res, fmt.Errorf("failed to get slots: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save slots to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountSlots, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for slot count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count slots")

		return res, fmt.Errorf("failed to count slots: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save slot count to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.SlotResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetSlot, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for slot")

		return res, nil
	}

	slot, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot")

		return res, fmt.Errorf("failed to get slot: %w", err)
	}

	if slot.ID == constant.Empty {
		return res, failure.NotFound("slot not found") //nolint:wrapcheck
	}

	res.FromModel(slot)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save slot to cache")
		}
	}()

	return res, nil
}

// Update applies the room (and optional time) change to every slot the
// staff member holds on that date. Occupancy does not gate updates: a
// booked day can still move rooms, unlike deletion.
func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateScheduleRequest, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Update")
	defer scope.End()
	defer scope.TraceIfError(err)

	if req.TimeSlot != "" && !model.IsValidTimeSlot(req.TimeSlot) {
		return failure.Validation(fmt.Sprintf("time slot %q is not a valid consultation start time", req.TimeSlot)) //nolint:wrapcheck
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	slot, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot for update")

		return fmt.Errorf("failed to get slot for update: %w", err)
	}

	if slot.ID == constant.Empty {
		return failure.NotFound("slot not found") //nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, user)

	if _, err = s.repo.UpdateByStaffAndDate(ctx, slot.StaffID, slot.SlotDate, updatedFields); err != nil {
		log.Error().Err(err).Msg("failed to update schedule")

		return fmt.Errorf("failed to update schedule: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetSlot, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete slot from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllSlots)
		shared.InvalidateCaches(c, s.cache, cacheCountSlots)
	}()

	return nil
}

// RequestDelete removes the staff member's whole day when no patient is
// booked on the clicked slot. An occupied slot refuses deletion as a
// normal outcome: the caller switches to per-booking cancellation.
func (s *serviceImpl) RequestDelete(ctx context.Context, id string) (res dto.DeleteScheduleResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".RequestDelete")
	defer scope.End()
	defer scope.TraceIfError(err)

	slot, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot for deletion")

		return res, fmt.Errorf("failed to get slot for deletion: %w", err)
	}

	if slot.ID == constant.Empty {
		return res, failure.NotFound("slot not found") //nolint:wrapcheck
	}

	if slot.IsOccupied() {
		scope.AddEvent("deletion refused: slot occupied")

		return dto.DeleteScheduleResponse{
			Deleted: false,
			Reason:  "slot has booked patients, manage bookings individually",
		}, nil
	}

	deleted, err := s.repo.DeleteByStaffAndDate(ctx, slot.StaffID, slot.SlotDate)
	if err != nil {
		log.Error().Err(err).Msg("failed to delete schedule")

		return res, fmt.Errorf("failed to delete schedule: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetSlot, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete slot from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllSlots)
		shared.InvalidateCaches(c, s.cache, cacheCountSlots)
	}()

	return dto.DeleteScheduleResponse{
		Deleted:      true,
		DeletedSlots: deleted,
	}, nil
}

// DaySummary aggregates slot occupancy for one staff member's day.
func (s *serviceImpl) DaySummary(ctx context.Context, staffID string, date string) (res dto.DaySummaryResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".DaySummary")
	defer scope.End()
	defer scope.TraceIfError(err)

	day, err := timezone.Parse(constant.DateOnlyFormat, date)
	if err != nil {
		return res, failure.Validation(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	filter := shared.FilterByStaffAndDate(
		staffID,
		day.Format(constant.DateOnlyFormat),
		model.FieldStaffID,
		model.FieldSlotDate,
		model.TableName,
	)

	models, err := s.repo.GetAll(ctx, gDto.QueryParams{}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get slots for day summary")

		return res, fmt.Errorf("failed to get slots for day summary: %w", err)
	}

	res.FromModels(staffID, day, models)

	return res, nil
}

// Export renders one staff member's day as a CSV report, uploads it to
// the clinic bucket and returns the public URL. Re-exporting the same
// day overwrites the previous report.
func (s *serviceImpl) Export(ctx context.Context, staffID string, date string) (res dto.ExportScheduleResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Export")
	defer scope.End()
	defer scope.TraceIfError(err)

	day, err := timezone.Parse(constant.DateOnlyFormat, date)
	if err != nil {
		return res, failure.Validation(fmt.Sprintf("invalid date format: %v", err)) //nolint:wrapcheck
	}

	filter := shared.FilterByStaffAndDate(
		staffID,
		day.Format(constant.DateOnlyFormat),
		model.FieldStaffID,
		model.FieldSlotDate,
		model.TableName,
	)

	models, err := s.repo.GetAll(ctx, gDto.QueryParams{}, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get slots for export")

		return res, fmt.Errorf("failed to get slots for export: %w", err)
	}

	if len(models) == 0 {
		return res, failure.NotFound("no schedule found for this staff member and date") //nolint:wrapcheck
	}

	var buf bytes.Buffer

	writer := csv.NewWriter(&buf)

	_ = writer.Write([]string{"time_slot", "room_code", "status", "current_patients", "max_patients", "note"})

	for _, slot := range models {
		_ = writer.Write([]string{
			slot.TimeSlot,
			slot.RoomCode,
			slot.Status,
			strconv.Itoa(slot.CurrentPatients),
			strconv.Itoa(slot.MaxPatients),
			slot.Note,
		})
	}

	writer.Flush()

	if err = writer.Error(); err != nil {
		return res, fmt.Errorf("failed to render schedule report: %w", err)
	}

	fileName := fmt.Sprintf("schedule_%s_%s.csv", staffID, day.Format(constant.DateOnlyFormat))

	url, err := s.s3.Upload(ctx, exportDirectory, fileName, constant.ContentTypeCSV, buf.Bytes())
	if err != nil {
		log.Error().Err(err).Msg("failed to upload schedule report")

		return res, fmt.Errorf("failed to upload schedule report: %w", err)
	}

	return dto.ExportScheduleResponse{
		URL:       url,
		SlotCount: len(models),
	}, nil
}
