package controllers

import (
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rajatverma/kirana/app/services"
	"github.com/rajatverma/kirana/pkg/bind"
	"github.com/rajatverma/kirana/pkg/i18n"
	"github.com/rajatverma/kirana/pkg/response"
	"github.com/rajatverma/kirana/pkg/router"
)

// OrderController exposes the order endpoints.
type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

type createOrderInput struct {
	OrderItems []services.OrderItemInput `json:"orderItems"`
}

// Create handles POST /orders.
func (c *OrderController) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var in createOrderInput
	if _, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := c.orders.Create(r.Context(), caller, in.OrderItems)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, i18n.T(r.Context(), "orderCreatedSuccessfully"), order)
}

// List handles GET /orders?page=&limit=&search=. Admins see every
// order; everyone else sees only their own.
func (c *OrderController) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	q := services.ListOrdersQuery{Search: r.URL.Query().Get("search")}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	orders, pagination, err := c.orders.List(r.Context(), caller, q)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Paginated(w, orders, pagination)
}

// Get handles GET /orders/{id}.
func (c *OrderController) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := primitive.ObjectIDFromHex(router.Param(r, "id"))
	if err != nil {
		response.NotFound(w, i18n.T(r.Context(), "orderNotFound"))
		return
	}

	order, err := c.orders.Get(r.Context(), caller, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, order)
}

// Delete handles DELETE /orders/{id}.
func (c *OrderController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(router.Param(r, "id"))
	if err != nil {
		response.NotFound(w, i18n.T(r.Context(), "orderNotFound"))
		return
	}

	if err := c.orders.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	response.SuccessMessage(w, i18n.T(r.Context(), "orderDeletedSuccessfully"), nil)
}

type changeStatusInput struct {
	Status string `json:"status"`
}

// ChangeStatus handles PATCH /orders/{id}/change-status.
func (c *OrderController) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(router.Param(r, "id"))
	if err != nil {
		response.NotFound(w, i18n.T(r.Context(), "orderNotFound"))
		return
	}

	var in changeStatusInput
	if _, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := c.orders.ChangeStatus(r.Context(), id, in.Status)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.SuccessMessage(w, i18n.T(r.Context(), "orderStatusUpdatedSuccessfully"), order)
}

// Cancel handles PATCH /orders/{id}/cancel-order.
func (c *OrderController) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(r)
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	id, err := primitive.ObjectIDFromHex(router.Param(r, "id"))
	if err != nil {
		response.NotFound(w, i18n.T(r.Context(), "orderNotFound"))
		return
	}

	order, err := c.orders.Cancel(r.Context(), caller, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.SuccessMessage(w, i18n.T(r.Context(), "orderCancelledSuccessfully"), order)
}
