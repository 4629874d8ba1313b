package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/trip-reservation/internal/repository"
	"github.com/iliyamo/trip-reservation/internal/service"
)

// BookingHandler exposes the passenger-facing booking endpoints: hold
// creation, hold status polling and reservation lookup by booking
// reference.  The endpoints are anonymous; abuse is bounded by the
// rate limiter applied in the router.
type BookingHandler struct {
	svc *service.BookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{svc: svc}
}

// CreateHold handles POST /v1/trips/:id/holds.  It starts a booking
// attempt: the seats and passenger details are stored as a hold with a
// TTL, and a payment intent scoped to the hold is created at the
// gateway.  The response carries the client secret the browser needs
// to complete the payment, and the expiry after which the attempt is
// abandoned.
func (h *BookingHandler) CreateHold(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var body struct {
		PickupStopID   uint64   `json:"pickup_stop_id"`
		DropoffStopID  uint64   `json:"dropoff_stop_id"`
		PassengerName  string   `json:"passenger_name"`
		PassengerEmail string   `json:"passenger_email"`
		PassengerPhone string   `json:"passenger_phone"`
		SeatNumbers    []string `json:"seat_numbers"`
		BagCount       uint32   `json:"bag_count"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	res, err := h.svc.CreateHold(c.Request().Context(), service.CreateHoldInput{
		TripID:         tripID,
		PickupStopID:   body.PickupStopID,
		DropoffStopID:  body.DropoffStopID,
		PassengerName:  body.PassengerName,
		PassengerEmail: body.PassengerEmail,
		PassengerPhone: body.PassengerPhone,
		Seats:          body.SeatNumbers,
		BagCount:       body.BagCount,
	})
	if err != nil {
		var ve *service.ValidationError
		switch {
		case errors.As(err, &ve):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Reason})
		case errors.Is(err, repository.ErrTripNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "trip not found"})
		case errors.Is(err, service.ErrGatewayUnavailable):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment could not be initiated, please try again"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create hold"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"hold_id":       res.Hold.ID,
		"booking_ref":   res.Hold.BookingRef,
		"total_cents":   res.Hold.TotalCents,
		"client_secret": res.ClientSecret,
		"expires_at":    res.Hold.ExpiresAt.Format(time.RFC3339),
		"seat_numbers":  res.Hold.Seats,
	})
}

// GetHold handles GET /v1/holds/:id.  It returns the hold while the
// attempt is pending.  Once the hold is gone – finalized or expired –
// this endpoint answers 404 for both cases alike; a finalized booking
// is visible through GET /v1/reservations/:ref instead.
func (h *BookingHandler) GetHold(c echo.Context) error {
	holdID := c.Param("id")
	if holdID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold id"})
	}
	hold, err := h.svc.GetHold(c.Request().Context(), holdID)
	if err != nil {
		if errors.Is(err, repository.ErrHoldNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "hold not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch hold"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hold_id":      hold.ID,
		"trip_id":      hold.TripID,
		"booking_ref":  hold.BookingRef,
		"seat_numbers": hold.Seats,
		"bag_count":    hold.BagCount,
		"total_cents":  hold.TotalCents,
		"status":       hold.Status,
		"expires_at":   hold.ExpiresAt.Format(time.RFC3339),
	})
}

// GetReservation handles GET /v1/reservations/:ref.  It returns a
// committed reservation by its booking reference, which is the code
// the passenger keeps after paying.
func (h *BookingHandler) GetReservation(c echo.Context) error {
	ref := c.Param("ref")
	if ref == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking reference"})
	}
	detail, err := h.svc.GetReservationByRef(c.Request().Context(), ref)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	res := detail.Reservation
	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id":  res.ID,
		"booking_ref":     res.BookingRef,
		"trip_id":         res.TripID,
		"pickup_stop_id":  res.PickupStopID,
		"dropoff_stop_id": res.DropoffStopID,
		"passenger_name":  res.PassengerName,
		"seat_numbers":    detail.Seats,
		"bag_count":       res.BagCount,
		"segment_cents":   res.SegmentCents,
		"luggage_cents":   res.LuggageCents,
		"total_cents":     res.TotalCents,
		"status":          res.Status,
		"created_at":      res.CreatedAt.UTC().Format(time.RFC3339),
	})
}
