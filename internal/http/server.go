// README: Route registration; delegates to module services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"glide/internal/config"
	"glide/internal/http/handlers"
	"glide/internal/http/middleware"
	"glide/internal/modules/driver"
	"glide/internal/modules/pairing"
	"glide/internal/modules/ride"
)

type ServerDeps struct {
	Rides    *ride.Service
	Drivers  *driver.Service
	Pairings *pairing.Service
	Dispatch config.DispatchConfig
	Log      *slog.Logger
}

func NewRouter(deps ServerDeps) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(deps.Log), middleware.Logging(deps.Log))

	rideHandler := handlers.NewRideHandler(deps.Rides)
	driverHandler := handlers.NewDriverHandler(deps.Drivers, deps.Pairings, deps.Dispatch.NearbyRadiusKm)

	v1 := r.Group("/v1")
	{
		v1.POST("/rides/online", rideHandler.CreateOnline)
		v1.POST("/rides/scheduled", rideHandler.CreateScheduled)
		v1.POST("/rides/offline", rideHandler.CreateOffline)
		v1.GET("/rides/:id", rideHandler.Get)
		v1.POST("/rides/:id/accept", rideHandler.Accept)
		v1.POST("/rides/:id/start", rideHandler.Start)
		v1.POST("/rides/:id/complete", rideHandler.Complete)
		v1.POST("/rides/:id/cancel", rideHandler.CancelByRider)
		v1.POST("/rides/:id/cancel-by-driver", rideHandler.CancelByDriver)

		v1.PUT("/drivers/status", driverHandler.UpdateStatus)
		v1.PUT("/drivers/location", driverHandler.UpdateLocation)
		v1.GET("/drivers/nearby", driverHandler.Nearby)
		v1.POST("/drivers/pairings", driverHandler.GeneratePairing)
	}

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
