// README: Driver handlers for availability, location reports, and pairing codes.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"glide/internal/modules/driver"
	"glide/internal/modules/pairing"
	"glide/internal/types"
)

type DriverHandler struct {
	drivers  *driver.Service
	pairings *pairing.Service
	// defaultRadiusKm applies to nearby queries that omit radius_km; it is
	// the same radius the matcher uses.
	defaultRadiusKm float64
}

func NewDriverHandler(drivers *driver.Service, pairings *pairing.Service, defaultRadiusKm float64) *DriverHandler {
	return &DriverHandler{drivers: drivers, pairings: pairings, defaultRadiusKm: defaultRadiusKm}
}

type statusReq struct {
	Online *bool `json:"online" binding:"required"`
}

type locationReq struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type driverResponse struct {
	UserID     types.ID   `json:"user_id"`
	Online     bool       `json:"online"`
	Lat        *float64   `json:"lat,omitempty"`
	Lng        *float64   `json:"lng,omitempty"`
	LastPingAt *time.Time `json:"last_ping_at,omitempty"`
}

func toDriverResponse(d *driver.Driver) driverResponse {
	resp := driverResponse{UserID: d.UserID, Online: d.Online, LastPingAt: d.LastPingAt}
	if d.Location != nil {
		resp.Lat = &d.Location.Lat
		resp.Lng = &d.Location.Lng
	}
	return resp
}

func (h *DriverHandler) UpdateStatus(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Online == nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.drivers.UpdateStatus(c.Request.Context(), driver.UpdateStatusCommand{
		UserID: userID,
		Online: *req.Online,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDriverResponse(d))
}

func (h *DriverHandler) UpdateLocation(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	d, err := h.drivers.UpdateLocation(c.Request.Context(), driver.UpdateLocationCommand{
		UserID:   userID,
		Position: types.Point{Lat: req.Lat, Lng: req.Lng},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDriverResponse(d))
}

func (h *DriverHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lng, err2 := strconv.ParseFloat(c.Query("lng"), 64)
	if err1 != nil || err2 != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	radiusKm := h.defaultRadiusKm
	if v := c.Query("radius_km"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid radius_km")
			return
		}
		radiusKm = r
	}
	ids, err := h.drivers.Nearby(c.Request.Context(), types.Point{Lat: lat, Lng: lng}, radiusKm)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"driver_ids": ids})
}

func (h *DriverHandler) GeneratePairing(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	p, err := h.pairings.Generate(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":       p.Code,
		"expires_at": p.ExpiresAt,
	})
}
