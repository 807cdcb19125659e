package booking

import (
	"net/http"

	"clinicsched/infras/otel"
	"clinicsched/internal/domains/booking/model"
	"clinicsched/internal/domains/booking/model/dto"
	"clinicsched/internal/domains/booking/service"
	"clinicsched/shared/constant"
	"clinicsched/shared/validator"
	"clinicsched/transport/http/response"

	"github.com/go-chi/chi/v5"

	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/subslots", handler.GetSubSlots)
		routerGroup.Post("/{id}/cancel", handler.CancelBooking)
		routerGroup.Delete("/{id}", handler.DeleteBooking)
	})
}

// CreateBooking admits a patient into a consultation slot.
// @Summary Create a new booking
// @Description Book a patient into a slot. Fails with 422 when the slot is at capacity.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.BookingResponse] "Booking created"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
// @Security BearerAuth
func (handler *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	booking, err := handler.service.Book(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking created successfully by user " + user)

	response.WithJSON(w, http.StatusCreated, booking)
}

// GetSubSlots renders the capacity view of a slot.
// @Summary Get the sub-slot view of a slot
// @Description Retrieve the per-patient capacity units of a (staff, date, time slot) triple, padded with EMPTY placeholders up to the slot's ceiling.
// @Tags Booking
// @Accept json
// @Produce json
// @Param staff_id query string true "Staff ID"
// @Param slot_date query string true "Slot date (YYYY-MM-DD)"
// @Param time_slot query string true "Time slot (HH:MM)"
// @Success 200 {object} response.Data[dto.SubSlotsResponse] "Sub-slot view"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/subslots [get]
func (handler *Handler) GetSubSlots(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSubSlots")
	defer scope.End()

	staffID := r.URL.Query().Get(model.FieldStaffID)
	slotDate := r.URL.Query().Get(model.FieldSlotDate)
	timeSlot := r.URL.Query().Get(model.FieldTimeSlot)

	subSlots, err := handler.service.SubSlots(ctx, staffID, slotDate, timeSlot)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get sub-slots")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Sub-slots retrieved successfully")

	response.WithJSON(w, http.StatusOK, subSlots)
}

// CancelBooking cancels a booking and releases its capacity.
// @Summary Cancel a booking by ID
// @Description Cancel an active booking, freeing one capacity unit on its slot. Past-dated bookings cannot be cancelled; cancelling an already-cancelled or empty entry reports "nothing to cancel".
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.CancelBookingResponse] "Cancellation outcome"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	outcome, err := handler.service.Cancel(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel booking")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking cancellation processed for user " + user)

	response.WithJSON(w, http.StatusOK, outcome)
}

// DeleteBooking removes a placeholder booking.
// @Summary Delete a placeholder booking by ID
// @Description Hard-delete a reserved capacity row without a patient attached. Bookings with a patient must be cancelled instead.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Message "Booking deleted successfully"
// @Failure 404 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.DeletePlaceholder(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete booking")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking deleted successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Booking deleted successfully")
}
