// README: Ride handlers for the three creation paths and lifecycle actions.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"glide/internal/modules/ride"
	"glide/internal/types"
)

type RideHandler struct {
	rides *ride.Service
}

func NewRideHandler(svc *ride.Service) *RideHandler {
	return &RideHandler{rides: svc}
}

// Coordinates deliberately carry no required binding: zero is a valid
// coordinate, and range checks belong to the service.
type tripReq struct {
	PickupLat  float64 `json:"pickup_lat"`
	PickupLng  float64 `json:"pickup_lng"`
	DropoffLat float64 `json:"dropoff_lat"`
	DropoffLng float64 `json:"dropoff_lng"`
}

type scheduledReq struct {
	tripReq
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type offlineReq struct {
	tripReq
	PairingCode string `json:"pairing_code" binding:"required"`
}

type rideResponse struct {
	ID            types.ID   `json:"id"`
	Code          string     `json:"code"`
	RiderID       types.ID   `json:"rider_id"`
	DriverID      *types.ID  `json:"driver_id,omitempty"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	Fare          float64    `json:"fare"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
}

type rideDetailResponse struct {
	rideResponse
	RiderName  string  `json:"rider_name"`
	DriverName *string `json:"driver_name,omitempty"`
}

func toRideResponse(r *ride.Ride) rideResponse {
	return rideResponse{
		ID:            r.ID,
		Code:          r.Code,
		RiderID:       r.RiderID,
		DriverID:      r.DriverID,
		Type:          string(r.Type),
		Status:        string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
		Fare:          r.Fare,
		ScheduledAt:   r.ScheduledAt,
	}
}

func toDetailResponse(d *ride.Detail) rideDetailResponse {
	return rideDetailResponse{
		rideResponse: toRideResponse(&d.Ride),
		RiderName:    d.RiderName,
		DriverName:   d.DriverName,
	}
}

func (h *RideHandler) CreateOnline(c *gin.Context) {
	riderID, ok := callerID(c)
	if !ok {
		return
	}
	var req tripReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.rides.CreateOnline(c.Request.Context(), ride.CreateOnlineCommand{
		RiderID: riderID,
		Pickup:  types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff: types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDetailResponse(d))
}

func (h *RideHandler) CreateScheduled(c *gin.Context) {
	riderID, ok := callerID(c)
	if !ok {
		return
	}
	var req scheduledReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.rides.CreateScheduled(c.Request.Context(), ride.CreateScheduledCommand{
		RiderID:     riderID,
		Pickup:      types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:     types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDetailResponse(d))
}

func (h *RideHandler) CreateOffline(c *gin.Context) {
	riderID, ok := callerID(c)
	if !ok {
		return
	}
	var req offlineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.rides.CreateOffline(c.Request.Context(), ride.CreateOfflineCommand{
		RiderID:     riderID,
		PairingCode: req.PairingCode,
		Pickup:      types.Point{Lat: req.PickupLat, Lng: req.PickupLng},
		Dropoff:     types.Point{Lat: req.DropoffLat, Lng: req.DropoffLng},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDetailResponse(d))
}

func (h *RideHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing ride id")
		return
	}
	d, err := h.rides.GetByID(c.Request.Context(), types.ID(id))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDetailResponse(d))
}

func (h *RideHandler) Accept(c *gin.Context) {
	h.driverAction(c, func(rideID, driverID types.ID) (*ride.Ride, error) {
		return h.rides.Accept(c.Request.Context(), ride.AcceptCommand{RideID: rideID, DriverID: driverID})
	})
}

func (h *RideHandler) Start(c *gin.Context) {
	h.driverAction(c, func(rideID, driverID types.ID) (*ride.Ride, error) {
		return h.rides.Start(c.Request.Context(), ride.StartCommand{RideID: rideID, DriverID: driverID})
	})
}

func (h *RideHandler) Complete(c *gin.Context) {
	h.driverAction(c, func(rideID, driverID types.ID) (*ride.Ride, error) {
		return h.rides.Complete(c.Request.Context(), ride.CompleteCommand{RideID: rideID, DriverID: driverID})
	})
}

func (h *RideHandler) CancelByDriver(c *gin.Context) {
	h.driverAction(c, func(rideID, driverID types.ID) (*ride.Ride, error) {
		return h.rides.CancelByDriver(c.Request.Context(), ride.DriverCancelCommand{RideID: rideID, DriverID: driverID})
	})
}

func (h *RideHandler) CancelByRider(c *gin.Context) {
	riderID, ok := callerID(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing ride id")
		return
	}
	r, err := h.rides.CancelByRider(c.Request.Context(), ride.RiderCancelCommand{
		RideID:  types.ID(id),
		RiderID: riderID,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideResponse(r))
}

func (h *RideHandler) driverAction(c *gin.Context, action func(rideID, driverID types.ID) (*ride.Ride, error)) {
	driverID, ok := callerID(c)
	if !ok {
		return
	}
	id := c.Param("id")
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing ride id")
		return
	}
	r, err := action(types.ID(id), driverID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRideResponse(r))
}
