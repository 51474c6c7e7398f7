package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/config"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	router *gin.Engine
}

func NewRouter(
	cfg *config.HTTP,
	tokenService ports.TokenService,
	metricsHandler http.Handler,
	flowHandler *FlowHandler,
	userHandler *UserHandler,
	paymentHandler *PaymentHandler,
	bikeHandler *BikeHandler,
	batteryHandler *BatteryHandler,
	companyHandler *CompanyHandler,
	adminHandler *AdminHandler,
) (*Router, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigins},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics
	router.GET("/metrics", gin.WrapH(metricsHandler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := AuthMiddleware(tokenService)
	adminOnly := RequireRole(domain.Admin)

	flows := router.Group("/flows")
	flows.Use(auth)
	{
		flows.POST("/assign", flowHandler.Assign)
		flows.POST("/swap", flowHandler.Swap)
		flows.POST("/return", flowHandler.Return)
	}

	users := router.Group("/users")
	users.Use(auth)
	{
		users.GET("", userHandler.ListUsers)
		users.POST("", userHandler.CreateUser)
		users.GET("/pending", userHandler.ListPendingDues)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateUser)
		users.DELETE("/:id", adminOnly, userHandler.DeleteUser)
		users.POST("/:id/block", userHandler.BlockUser)
		users.POST("/:id/unblock", userHandler.UnblockUser)
		users.PUT("/:id/call", userHandler.SetCall)
		users.GET("/:id/swaps", userHandler.ListUserSwaps)
		users.GET("/:id/dues", paymentHandler.GetDues)
		users.GET("/:id/payments", paymentHandler.ListPayments)
		users.POST("/:id/payments", paymentHandler.RecordPayment)
		users.PUT("/:id/payments", paymentHandler.EditPayments)
	}

	bikes := router.Group("/bikes")
	bikes.Use(auth)
	{
		bikes.GET("", bikeHandler.ListBikes)
		bikes.POST("", bikeHandler.CreateBike)
		bikes.GET("/available", bikeHandler.ListAvailableBikes)
		bikes.GET("/:id", bikeHandler.GetBike)
		bikes.PUT("/:id", bikeHandler.UpdateBike)
		bikes.DELETE("/:id", adminOnly, bikeHandler.DeleteBike)
	}

	batteries := router.Group("/batteries")
	batteries.Use(auth)
	{
		batteries.GET("", batteryHandler.ListBatteries)
		batteries.POST("", batteryHandler.CreateBattery)
		batteries.GET("/available", batteryHandler.ListAvailableBatteries)
		batteries.GET("/:id", batteryHandler.GetBattery)
		batteries.PUT("/:id", batteryHandler.UpdateBattery)
		batteries.DELETE("/:id", adminOnly, batteryHandler.DeleteBattery)
	}

	companies := router.Group("/companies")
	companies.Use(auth)
	{
		companies.GET("", companyHandler.ListCompanies)
		companies.POST("", companyHandler.CreateCompany)
		companies.GET("/:id", companyHandler.GetCompany)
		companies.PUT("/:id", companyHandler.UpdateCompany)
		companies.DELETE("/:id", adminOnly, companyHandler.DeleteCompany)
	}

	router.GET("/swaps", auth, userHandler.ListSwaps)

	counters := router.Group("/counters")
	counters.Use(auth)
	{
		counters.GET("/today", adminHandler.GetTodayCounter)
		counters.GET("/:date", adminHandler.GetCounter)
		counters.POST("/:date/recount", adminOnly, adminHandler.RecountDay)
	}

	admin := router.Group("/admin")
	admin.Use(auth, adminOnly)
	{
		admin.POST("/reconcile", adminHandler.Reconcile)
	}

	return &Router{router: router}, nil
}

func (r *Router) Engine() *gin.Engine {
	return r.router
}
