package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plotbid/plotbid/pkg/auth"
)

// SetupRouter configures all routes. When signer is nil the service runs
// without an identity provider: protected routes stay open and every bid is
// anonymous.
func SetupRouter(handler *Handler, signer *auth.Signer) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger())

	requireAuth := passthrough()
	optionalAuth := passthrough()
	if signer != nil {
		requireAuth = auth.RequireAuth(signer)
		optionalAuth = auth.OptionalAuth(signer)
	}

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	apiGroup := router.Group("/api")
	{
		props := apiGroup.Group("/properties")
		{
			props.GET("", handler.ListProperties)
			props.GET("/:id", handler.GetProperty)
			props.GET("/:id/bids", handler.GetPropertyBids)
			props.POST("", requireAuth, handler.CreateProperty)
			props.PUT("/:id", requireAuth, handler.UpdateProperty)
			props.DELETE("/:id", requireAuth, handler.DeleteProperty)
		}

		bidsGroup := apiGroup.Group("/bids")
		{
			bidsGroup.POST("", optionalAuth, handler.SubmitBid)
			bidsGroup.GET("", requireAuth, handler.GetAllBids)
			bidsGroup.POST("/:id/:action", requireAuth, handler.BidAction)
		}

		apiGroup.GET("/users/:id/bids", requireAuth, handler.GetUserBids)
		apiGroup.POST("/predict-price", handler.PredictPrice)
	}

	return router
}

func passthrough() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}
