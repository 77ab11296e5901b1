package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/yashrajoria/bms-storefront/controllers"
	"github.com/yashrajoria/bms-storefront/middleware"
)

func RegisterRoutes(r *gin.Engine, ctrl *controllers.BFFController, auth *middleware.Authenticator) {
	r.GET("/health", ctrl.Health)

	// Public routes - no auth required
	public := r.Group("/bff")
	{
		public.POST("/auth/login", ctrl.Login)
		public.POST("/auth/register", ctrl.Register)

		// Catalog pages
		public.GET("/products", ctrl.Products)
		public.GET("/products/:id", ctrl.ProductByID)
	}

	// Protected routes - require authentication
	protected := r.Group("/bff")
	protected.Use(auth.JWTAuth())
	{
		protected.GET("/users/me", ctrl.Me)

		// Cart page
		protected.GET("/cart", ctrl.Cart)
		protected.POST("/cart", ctrl.AddToCart)
		protected.PUT("/cart/:id", ctrl.UpdateCartItem)
		protected.DELETE("/cart/:id", ctrl.RemoveCartItem)

		// Checkout
		protected.GET("/checkout/quote", ctrl.Quote)
		protected.POST("/checkout", ctrl.Checkout)

		// Orders page
		protected.GET("/orders", ctrl.MyOrders)
		protected.GET("/orders/:id", ctrl.OrderByID)
		protected.PUT("/orders/:id/complete", ctrl.CompleteOrder)
		protected.PUT("/orders/:id/cancel", ctrl.CancelOrder)

		// Unpaid orders and payments
		protected.GET("/unpaid-orders", ctrl.ListUnpaid)
		protected.PUT("/unpaid-orders/:order_id", ctrl.PutUnpaid)
		protected.DELETE("/unpaid-orders/:order_id", ctrl.DeleteUnpaid)
		protected.POST("/payments/:order_id/attempts", ctrl.BeginPayment)
		protected.POST("/payments/attempts/:attempt_id/outcome", ctrl.PaymentOutcome)
	}

	admin := r.Group("/bff/admin")
	admin.Use(auth.JWTAuth(), middleware.RequireAdmin())
	{
		admin.GET("/dashboard", ctrl.Dashboard)
		admin.GET("/orders", ctrl.AdminOrders)
		admin.GET("/orders/paid", ctrl.AdminPaidOrders)
		admin.GET("/users", ctrl.AdminUsers)
		admin.GET("/profile", ctrl.AdminProfile)
		admin.PUT("/profile", ctrl.UpdateAdminProfile)
		admin.POST("/products", ctrl.CreateProduct)
		admin.PUT("/products/:id", ctrl.UpdateProduct)
		admin.DELETE("/products/:id", ctrl.DeleteProduct)
	}
}
