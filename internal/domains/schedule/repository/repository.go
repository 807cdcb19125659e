package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicsched/infras/otel"
	"clinicsched/infras/postgres"
	bookingModel "clinicsched/internal/domains/booking/model"
	"clinicsched/internal/domains/schedule/model"
	"clinicsched/shared/constant"
	gDto "clinicsched/shared/dto"
	"clinicsched/shared/failure"
	gRepo "clinicsched/shared/repository"
	"clinicsched/shared/timezone"

	"github.com/lib/pq"
)

type Slot interface {
	Insert(ctx context.Context, model model.Slot) error
	InsertBulk(ctx context.Context, models []model.Slot) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Slot, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Slot, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	UpdateByStaffAndDate(ctx context.Context, staffID string, date time.Time, fields map[string]any) (int64, error)
	DeleteByStaffAndDate(ctx context.Context, staffID string, date time.Time) (int64, error)
	AdmitPatient(ctx context.Context, staffID string, date time.Time, timeSlot string) (bool, error)
	ReleasePatient(ctx context.Context, staffID string, date time.Time, timeSlot string) (bool, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Slot]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Slot {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Slot](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// Insert maps the partial unique index on (staff_id, slot_date) to the
// duplicate-schedule failure, closing the check-then-act race between
// concurrent creates.
func (repo *repositoryImpl) Insert(ctx context.Context, mod model.Slot) error {
	err := repo.Repository.Insert(ctx, mod)

	return conflictFromUniqueViolation(err)
}

func (repo *repositoryImpl) InsertBulk(ctx context.Context, models []model.Slot) error {
	err := repo.Repository.InsertBulk(ctx, models)

	return conflictFromUniqueViolation(err)
}

// UpdateByStaffAndDate cascades field changes to every slot the staff
// member holds on that date. The whole day moves together, and a
// time-slot change re-keys the day's bookings in the same transaction:
// bookings address their slot by (staff_id, slot_date, time_slot), so
// leaving them behind would detach them from the capacity accounting.
func (repo *repositoryImpl) UpdateByStaffAndDate(ctx context.Context, staffID string, date time.Time, fields map[string]any) (int64, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".slot.UpdateByStaffAndDate")
	defer scope.End()

	setClause := ""
	args := map[string]any{
		"cascade_staff_id":  staffID,
		"cascade_slot_date": date.Format(constant.DateOnlyFormat),
	}

	for col, value := range fields {
		if setClause != "" {
			setClause += ", "
		}

		setClause += fmt.Sprintf("%s = :%s", col, col)
		args[col] = value
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = :cascade_staff_id AND %s = :cascade_slot_date",
		model.TableName, setClause, model.FieldStaffID, model.FieldSlotDate,
	)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to begin cascade transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.NamedExecContext(ctx, query, args)
	if err != nil {
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to update slots by staff and date: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if _, ok := fields[model.FieldTimeSlot]; ok {
		bookingSet := fmt.Sprintf("%s = :%s", bookingModel.FieldTimeSlot, model.FieldTimeSlot)

		for _, col := range []string{constant.FieldModifiedAt, constant.FieldModifiedBy} {
			if _, present := fields[col]; present {
				bookingSet += fmt.Sprintf(", %s = :%s", col, col)
			}
		}

		bookingQuery := fmt.Sprintf(
			"UPDATE %s SET %s WHERE %s = :cascade_staff_id AND %s = :cascade_slot_date",
			bookingModel.TableName, bookingSet, bookingModel.FieldStaffID, bookingModel.FieldSlotDate,
		)

		if _, err = tx.NamedExecContext(ctx, bookingQuery, args); err != nil {
			scope.TraceError(err)

			return 0, fmt.Errorf("failed to re-key bookings for moved time slot: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to commit cascade transaction: %w", err)
	}

	return affected, nil
}

// DeleteByStaffAndDate removes every slot for the staff+date pair. The
// caller is responsible for the occupancy guard; an empty day's slots
// are fungible and removed together.
func (repo *repositoryImpl) DeleteByStaffAndDate(ctx context.Context, staffID string, date time.Time) (int64, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".slot.DeleteByStaffAndDate")
	defer scope.End()

	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = :staff_id AND %s = :slot_date",
		model.TableName, model.FieldStaffID, model.FieldSlotDate,
	)

	affected, err := repo.ExecNamed(ctx, query, map[string]any{
		"staff_id":  staffID,
		"slot_date": date.Format(constant.DateOnlyFormat),
	})
	if err != nil {
		scope.TraceError(err)

		return 0, err
	}

	return affected, nil
}

// AdmitPatient increments the occupancy of the (staff, date, time)
// triple only while it is below capacity. A false return with no error
// means the guard did not match: the slot is full or absent.
func (repo *repositoryImpl) AdmitPatient(ctx context.Context, staffID string, date time.Time, timeSlot string) (bool, error) {
	return repo.adjustOccupancy(ctx, staffID, date, timeSlot, +1)
}

// ReleasePatient decrements occupancy, floored at zero, after a booking
// cancellation frees its capacity unit.
func (repo *repositoryImpl) ReleasePatient(ctx context.Context, staffID string, date time.Time, timeSlot string) (bool, error) {
	return repo.adjustOccupancy(ctx, staffID, date, timeSlot, -1)
}

func (repo *repositoryImpl) adjustOccupancy(ctx context.Context, staffID string, date time.Time, timeSlot string, delta int) (bool, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".slot.adjustOccupancy")
	defer scope.End()

	guard := fmt.Sprintf("%s < %s", model.FieldCurrentPatients, model.FieldMaxPatients)
	if delta < 0 {
		guard = model.FieldCurrentPatients + " > 0"
	}

	query := fmt.Sprintf(
		"UPDATE %s SET %s = %s + :delta, %s = :modified_at WHERE %s = :staff_id AND %s = :slot_date AND %s = :time_slot AND %s",
		model.TableName,
		model.FieldCurrentPatients, model.FieldCurrentPatients,
		constant.FieldModifiedAt,
		model.FieldStaffID, model.FieldSlotDate, model.FieldTimeSlot,
		guard,
	)

	affected, err := repo.ExecNamed(ctx, query, map[string]any{
		"delta":       delta,
		"modified_at": timezone.Now(),
		"staff_id":    staffID,
		"slot_date":   date.Format(constant.DateOnlyFormat),
		"time_slot":   timeSlot,
	})
	if err != nil {
		scope.TraceError(err)

		return false, err
	}

	return affected > 0, nil
}

func conflictFromUniqueViolation(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeUniqueViolation {
		return failure.Conflict("a schedule already exists for this staff member and date") //nolint:wrapcheck
	}

	return err
}
