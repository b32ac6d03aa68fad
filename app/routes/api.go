// Package routes wires the HTTP surface: every endpoint, its name and
// the middleware guarding it.
package routes

import (
	"net/http"

	"github.com/rajatverma/kirana/app/controllers"
	"github.com/rajatverma/kirana/config"
	"github.com/rajatverma/kirana/pkg/i18n"
	"github.com/rajatverma/kirana/pkg/middleware"
	"github.com/rajatverma/kirana/pkg/rbac"
	"github.com/rajatverma/kirana/pkg/response"
	"github.com/rajatverma/kirana/pkg/router"
)

// Controllers bundles every controller the route table needs.
type Controllers struct {
	Auth     *controllers.AuthController
	Category *controllers.CategoryController
	Product  *controllers.ProductController
	Order    *controllers.OrderController
}

// Register mounts all API routes on r under the configured prefix.
func Register(r *router.Router, c Controllers) {
	r.Get("/health", "health", func(w http.ResponseWriter, req *http.Request) {
		response.SuccessMessage(w, i18n.T(req.Context(), "healthy"), nil)
	})

	api := r.Group(config.APIPrefix())

	auth := api.Group("/auth")
	auth.Post("/register", "auth.register", c.Auth.Register)
	auth.Post("/login", "auth.login", c.Auth.Login)
	auth.Get("/profile", "auth.profile", c.Auth.Profile, middleware.Auth)
	auth.Put("/profile", "auth.profile.update", c.Auth.UpdateProfile, middleware.Auth)

	categories := api.Group("/categories")
	categories.Get("/", "categories.list", c.Category.List)
	categories.Post("/", "categories.create", c.Category.Create, middleware.Auth, rbac.AdminOnly)

	products := api.Group("/products")
	products.Get("/", "products.list", c.Product.List)
	products.Get("/{id}", "products.get", c.Product.Get)
	products.Post("/", "products.create", c.Product.Create, middleware.Auth, rbac.AdminOnly)
	products.Post("/upload", "products.upload", c.Product.UploadImages, middleware.Auth, rbac.AdminOnly)
	products.Put("/{id}", "products.update", c.Product.Update, middleware.Auth, rbac.AdminOnly)
	products.Delete("/{id}", "products.delete", c.Product.Delete, middleware.Auth, rbac.AdminOnly)

	orders := api.Group("/orders", middleware.Auth)
	orders.Post("/", "orders.create", c.Order.Create, rbac.UserAndAdmin)
	orders.Get("/", "orders.list", c.Order.List)
	orders.Get("/{id}", "orders.get", c.Order.Get, rbac.UserAndAdmin)
	orders.Delete("/{id}", "orders.delete", c.Order.Delete, rbac.AdminOnly)
	orders.Patch("/{id}/change-status", "orders.changeStatus", c.Order.ChangeStatus, rbac.AdminOnly)
	orders.Patch("/{id}/cancel-order", "orders.cancel", c.Order.Cancel, rbac.UserOnly)
}
