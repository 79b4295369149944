package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/FuatYavas/ParkVision/internal/api/handler"
	"github.com/FuatYavas/ParkVision/internal/api/middleware"
	"github.com/FuatYavas/ParkVision/internal/realtime"
	"github.com/FuatYavas/ParkVision/internal/service"
)

type Services struct {
	Auth        *service.AuthService
	User        *service.UserService
	Parking     *service.ParkingService
	Reservation *service.ReservationService
	Detection   *service.DetectionService
	Report      *service.ReportService
	Dashboard   *service.DashboardService
	Vision      *service.VisionService
}

func SetupRouter(svc Services, authMw *middleware.AuthMiddleware, hub *realtime.Hub) *gin.Engine {
	// gin.Default installs Logger and Recovery.
	r := gin.Default()

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": hub.ClientCount()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Realtime viewer connections carry no credentials; they only receive.
	wsHandler := handler.NewWebSocketHandler(hub)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(svc.Auth)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		userH := handler.NewUserHandler(svc.User)
		userRoutes := v1.Group("/users/me")
		{
			userRoutes.GET("", userH.GetProfile)
			userRoutes.PUT("", userH.UpdateProfile)
			userRoutes.PUT("/password", userH.ChangePassword)
			userRoutes.POST("/vehicles", userH.RegisterVehicle)
			userRoutes.GET("/vehicles", userH.ListVehicles)
			userRoutes.PUT("/vehicles/:id", userH.UpdateVehicle)
			userRoutes.DELETE("/vehicles/:id", userH.DeleteVehicle)
		}

		lotH := handler.NewParkingLotHandler(svc.Parking)
		lotRoutes := v1.Group("/parking-lots")
		{
			lotRoutes.POST("", authMw.AuthorizeRole(middleware.RoleAdmin), lotH.CreateLot)
			lotRoutes.GET("", lotH.GetAllLots)
			lotRoutes.GET("/:id", lotH.GetLotByID)
			lotRoutes.PUT("/:id", authMw.AuthorizeRole(middleware.RoleAdmin), lotH.UpdateLot)
			lotRoutes.DELETE("/:id", authMw.AuthorizeRole(middleware.RoleAdmin), lotH.DeleteLot)
			lotRoutes.GET("/:id/occupancy", lotH.GetLotOccupancy)
			lotRoutes.GET("/:id/spots", lotH.GetSpotsByLot)
			lotRoutes.POST("/:id/spots", authMw.AuthorizeRole(middleware.RoleAdmin), lotH.CreateSpot)
			lotRoutes.POST("/:id/spots/provision", authMw.AuthorizeRole(middleware.RoleAdmin), lotH.ProvisionSpots)
		}

		spotH := handler.NewParkingSpotHandler(svc.Parking)
		spotRoutes := v1.Group("/parking-spots")
		{
			spotRoutes.GET("/:spot_id", spotH.GetSpotByID)
			spotRoutes.PUT("/:spot_id/status", authMw.AuthorizeRole(middleware.RoleAdmin), spotH.SetSpotStatus)
			spotRoutes.DELETE("/:spot_id", authMw.AuthorizeRole(middleware.RoleAdmin), spotH.DeleteSpot)
		}

		reservationH := handler.NewReservationHandler(svc.Reservation)
		reservationRoutes := v1.Group("/reservations")
		{
			reservationRoutes.POST("", reservationH.Create)
			reservationRoutes.GET("", reservationH.ListMine)
			reservationRoutes.GET("/all", authMw.AuthorizeRole(middleware.RoleAdmin), reservationH.ListAll)
			reservationRoutes.GET("/validate/:code", reservationH.ValidateCode)
			reservationRoutes.GET("/:id", reservationH.GetByID)
			reservationRoutes.DELETE("/:id", reservationH.Cancel)
		}

		cvH := handler.NewCVHandler(svc.Detection, svc.Vision)
		cvRoutes := v1.Group("/cv")
		cvRoutes.Use(authMw.AuthorizeRole(middleware.RoleAdmin, "pipeline"))
		{
			cvRoutes.PUT("/parking-lots/:id/status", cvH.UpdateLotStatus)
			cvRoutes.PUT("/parking-spots/:spot_id/status", cvH.UpdateSpotStatus)
			cvRoutes.POST("/events", cvH.PublishEvent)
			cvRoutes.GET("/parking-lots/:id/detections", cvH.GetDetections)
			cvRoutes.POST("/classify-frame", cvH.ClassifyFrame)
		}

		reportH := handler.NewReportHandler(svc.Report)
		reportRoutes := v1.Group("/reports")
		{
			reportRoutes.POST("", reportH.Submit)
			reportRoutes.GET("", authMw.AuthorizeRole(middleware.RoleAdmin), reportH.List)
			reportRoutes.PUT("/:id/verify", authMw.AuthorizeRole(middleware.RoleAdmin), reportH.Verify)
		}

		dashboardH := handler.NewDashboardHandler(svc.Dashboard)
		dashboardRoutes := v1.Group("/dashboard")
		dashboardRoutes.Use(authMw.AuthorizeRole(middleware.RoleAdmin))
		{
			dashboardRoutes.GET("/stats", dashboardH.Stats)
			dashboardRoutes.GET("/lots", dashboardH.LiveLots)
			dashboardRoutes.GET("/export", dashboardH.ExportOccupancy)
		}
	}
	return r
}
