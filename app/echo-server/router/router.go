package router

import (
	"laptopVision/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetupAuthRoutes(api *echo.Group, handler *rest.UserHandler, authRequired echo.MiddlewareFunc) {
	auth := api.Group("/auth")

	auth.POST("/send-code", handler.SendVerificationCode)
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)
	auth.POST("/refresh", handler.RefreshToken)
	auth.POST("/forgot-password", handler.ForgotPassword)
	auth.POST("/reset-password", handler.ResetPassword)

	auth.POST("/logout", handler.Logout, authRequired)
}

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	users := api.Group("/users", authRequired)

	users.GET("/me", handler.Profile)
	users.PUT("/me", handler.UpdateProfile)
	users.PUT("/me/password", handler.UpdatePassword)
	users.PUT("/me/photo", handler.UpdateProfilePicture)

	users.GET("/blocked", handler.ListBlockedUsers, adminOnly)
	users.PUT("/:id/block", handler.BlockUser, adminOnly)
	users.PUT("/:id/unblock", handler.UnblockUser, adminOnly)
	users.DELETE("/:id", handler.DeleteUser, adminOnly)
}

func SetupProductRoutes(api *echo.Group, handler *rest.ProductHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	products := api.Group("/products")

	products.GET("", handler.ListProducts)
	products.GET("/:id", handler.GetProduct)

	products.POST("", handler.CreateProduct, authRequired, adminOnly)
	products.PUT("/:id", handler.UpdateProduct, authRequired, adminOnly)
	products.DELETE("/:id", handler.DeleteProduct, authRequired, adminOnly)
}

func SetOrdersRoutes(api *echo.Group, handler *rest.OrdersHandler, authRequired echo.MiddlewareFunc, adminOnly echo.MiddlewareFunc) {
	orders := api.Group("/orders", authRequired)

	orders.POST("", handler.CreateOrder)
	orders.GET("", handler.ListMyOrders)
	orders.GET("/all", handler.ListAllOrders, adminOnly)
	orders.GET("/:id", handler.GetOrder)
	orders.PUT("/:id/status", handler.UpdateStatus, adminOnly)
	orders.PUT("/:id/cancel", handler.CancelOrder)
}

func SetPaymentsRoutes(api *echo.Group, handler *rest.PaymentsHandler, authRequired echo.MiddlewareFunc) {
	payments := api.Group("/payments")

	payments.POST("/init/:orderID", handler.InitiateSession, authRequired)
	payments.POST("/cod/:orderID", handler.ConfirmCOD, authRequired)

	// Gateway redirect targets; the processor hits these with either verb.
	payments.GET("/success/:orderID", handler.PaymentSuccess)
	payments.POST("/success/:orderID", handler.PaymentSuccess)
	payments.GET("/fail/:orderID", handler.PaymentFail)
	payments.POST("/fail/:orderID", handler.PaymentFail)
	payments.GET("/cancel/:orderID", handler.PaymentCancel)
	payments.POST("/cancel/:orderID", handler.PaymentCancel)
}

func SetupReviewRoutes(api *echo.Group, handler *rest.ReviewHandler, authRequired echo.MiddlewareFunc) {
	reviews := api.Group("/reviews")

	reviews.GET("/product/:productID", handler.ProductReviews)

	reviews.POST("", handler.AddReview, authRequired)
	reviews.GET("/me", handler.MyReviews, authRequired)
	reviews.PUT("/:id", handler.EditReview, authRequired)
	reviews.DELETE("/:id", handler.RemoveReview, authRequired)
}
