// Package server exposes the trip ledger over HTTP with gin.
package server

import (
	"github.com/gin-gonic/gin"

	"tripledger/internal/auth"
	"tripledger/internal/service"
)

// Handler bundles the services the HTTP layer dispatches to.
type Handler struct {
	trips *service.TripService
	auth  *service.AuthService
}

// NewRouter builds the gin engine with all routes and middleware wired.
func NewRouter(trips *service.TripService, authSvc *service.AuthService, jwtManager *auth.JWTManager) *gin.Engine {
	h := &Handler{trips: trips, auth: authSvc}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), Metrics())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", metricsHandler())

	api := router.Group("/api/v1")

	api.POST("/auth/register", h.register)
	api.POST("/auth/login", h.login)

	protected := api.Group("", RequireAuth(jwtManager))
	{
		protected.GET("/trips", h.listTrips)
		protected.POST("/trips", h.createTrip)
		protected.GET("/trips/:id", h.getTrip)
		protected.DELETE("/trips/:id", h.deleteTrip)

		protected.GET("/trips/:id/members", h.listMembers)
		protected.POST("/trips/:id/members", h.addMember)
		protected.DELETE("/trips/:id/members/:memberID", h.removeMember)

		protected.GET("/trips/:id/expenses", h.listExpenses)
		protected.POST("/trips/:id/expenses", h.addExpense)
		protected.PUT("/expenses/:id", h.updateExpense)
		protected.DELETE("/expenses/:id", h.deleteExpense)

		protected.GET("/trips/:id/settlements", h.listSettlements)
		protected.POST("/trips/:id/settlements", h.recordSettlement)
		protected.DELETE("/trips/:id/settlements/:settlementID", h.deleteSettlement)

		protected.GET("/trips/:id/report", h.settlementReport)
	}

	return router
}
