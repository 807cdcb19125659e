package schedule

import (
	"net/http"

	"clinicsched/infras/otel"
	"clinicsched/internal/domains/schedule/model"
	"clinicsched/internal/domains/schedule/model/dto"
	"clinicsched/internal/domains/schedule/service"
	"clinicsched/shared/constant"
	gDto "clinicsched/shared/dto"
	"clinicsched/shared/validator"
	"clinicsched/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

const requestParamRole = "role"

type Handler struct {
	service service.Schedule
	otel    otel.Otel
}

func New(service service.Schedule, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/schedules", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateSchedule)
		routerGroup.Get("/", handler.GetSchedules)
		routerGroup.Get("/summary", handler.GetDaySummary)
		routerGroup.Post("/export", handler.ExportSchedule)
		routerGroup.Get("/{id}", handler.GetScheduleByID)
		routerGroup.Patch("/{id}", handler.UpdateSchedule)
		routerGroup.Delete("/{id}", handler.DeleteSchedule)
	})
}

// CreateSchedule creates a consultation slot, optionally repeated weekly.
// @Summary Create a new schedule
// @Description Create a consultation slot for a staff member, repeating weekly when requested. Repeat dates that conflict with an existing schedule are skipped and reported.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param request body dto.CreateScheduleRequest true "Create Schedule Request"
// @Success 201 {object} response.Data[dto.CreateScheduleResponse] "Created slots and skipped dates"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/schedules [post]
// @Security BearerAuth
func (handler *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateSchedule")
	defer scope.End()

	req := dto.CreateScheduleRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	schedule, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create schedule")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Schedule created successfully by user " + user)

	response.WithJSON(w, http.StatusCreated, schedule)
}

// GetSchedules retrieves slots based on query parameters.
// @Summary Get all schedules
// @Description Retrieve consultation slots with optional filtering and pagination.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param staff_id query string false "Filter by staff ID"
// @Param role query string false "Filter by staff role (DOCTOR, NURSE)"
// @Param status query string false "Filter by status (AVAILABLE, ON_LEAVE, CANCELLED)"
// @Param slot_date query string false "Filter by slot date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.GetSlotsResponse] "List of slots"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/schedules [get]
func (handler *Handler) GetSchedules(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSchedules")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	staffID := r.URL.Query().Get(model.FieldStaffID)
	role := r.URL.Query().Get(requestParamRole)
	status := r.URL.Query().Get(model.FieldStatus)
	slotDate := r.URL.Query().Get(model.FieldSlotDate)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if staffID != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStaffID,
			Operator: gDto.FilterOperatorEq,
			Value:    staffID,
			Table:    model.TableName,
		})
	}

	if role != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStaffRole,
			Operator: gDto.FilterOperatorEq,
			Value:    role,
			Table:    model.TableName,
		})
	}

	if status != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    status,
			Table:    model.TableName,
		})
	}

	if slotDate != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldSlotDate,
			Operator: gDto.FilterOperatorEq,
			Value:    slotDate,
			Table:    model.TableName,
		})
	}

	slots, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get schedules")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Schedules retrieved successfully")

	response.WithJSON(w, http.StatusOK, slots)
}

// GetDaySummary aggregates one staff member's day.
// @Summary Get a day summary for a staff member
// @Description Aggregate slot count, booked patients and total capacity for a staff member on a date.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param staff_id query string true "Staff ID"
// @Param slot_date query string true "Slot date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.DaySummaryResponse] "Day summary"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/schedules/summary [get]
func (handler *Handler) GetDaySummary(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetDaySummary")
	defer scope.End()

	staffID := r.URL.Query().Get(model.FieldStaffID)
	slotDate := r.URL.Query().Get(model.FieldSlotDate)

	summary, err := handler.service.DaySummary(ctx, staffID, slotDate)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get day summary")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Day summary retrieved successfully")

	response.WithJSON(w, http.StatusOK, summary)
}

// ExportSchedule uploads a CSV report of a staff member's day.
// @Summary Export a day schedule as CSV
// @Description Render a staff member's day as a CSV report, upload it to object storage and return the public URL.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param staff_id query string true "Staff ID"
// @Param slot_date query string true "Slot date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[dto.ExportScheduleResponse] "Report URL"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/schedules/export [post]
// @Security BearerAuth
func (handler *Handler) ExportSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ExportSchedule")
	defer scope.End()

	staffID := r.URL.Query().Get(model.FieldStaffID)
	slotDate := r.URL.Query().Get(model.FieldSlotDate)

	report, err := handler.service.Export(ctx, staffID, slotDate)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to export schedule")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Schedule exported successfully by user " + user)

	response.WithJSON(w, http.StatusOK, report)
}

// GetScheduleByID retrieves a slot by its ID.
// @Summary Get a schedule by ID
// @Description Retrieve a consultation slot by its unique identifier.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Data[dto.SlotResponse] "Slot details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/schedules/{id} [get]
func (handler *Handler) GetScheduleByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetScheduleByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	slot, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get schedule by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Schedule retrieved successfully")

	response.WithJSON(w, http.StatusOK, slot)
}

// UpdateSchedule re-rooms a staff member's day.
// @Summary Update a schedule by ID
// @Description Update the room (and optionally time) of a slot. The change cascades to every slot the staff member holds on that date.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Param request body dto.UpdateScheduleRequest true "Update Schedule Request"
// @Success 200 {object} response.Message "Schedule updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/schedules/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateSchedule")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateScheduleRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update schedule")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Schedule updated successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Schedule updated successfully")
}

// DeleteSchedule requests deletion of a staff member's day.
// @Summary Request deletion of a schedule by ID
// @Description Delete the staff member's whole day when the slot holds no bookings. An occupied slot refuses deletion with a reason instead of an error.
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Slot ID"
// @Success 200 {object} response.Data[dto.DeleteScheduleResponse] "Deletion outcome"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/schedules/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteSchedule")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	outcome, err := handler.service.RequestDelete(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete schedule")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Schedule deletion processed for user " + user)

	response.WithJSON(w, http.StatusOK, outcome)
}
