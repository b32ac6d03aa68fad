package services

import (
	"context"
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rajatverma/kirana/app/models"
	"github.com/rajatverma/kirana/app/repositories"
	"github.com/rajatverma/kirana/pkg/logger"
	"github.com/rajatverma/kirana/pkg/metrics"
	"github.com/rajatverma/kirana/pkg/response"
)

// Identity is the authenticated caller, extracted from the JWT by the
// auth middleware and passed explicitly into every workflow.
type Identity struct {
	ID   primitive.ObjectID
	Role string
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool { return id.Role == models.RoleAdmin }

// ProductStore is the slice of the product repository the order workflow
// needs. The concrete Mongo repository satisfies it; tests use fakes.
type ProductStore interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (bool, error)
	IncrementStock(ctx context.Context, id primitive.ObjectID, qty int) error
}

// OrderStore is the order persistence surface of the workflow.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	FindPage(ctx context.Context, filter repositories.OrderFilter, page, limit int) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (models.Order, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// UserStore is the identity lookup the workflow uses to enrich orders.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// OrderItemInput is one requested line of a new order. Quantity is a
// float so a fractional value can be rejected explicitly rather than
// silently truncated by JSON decoding.
type OrderItemInput struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
}

// ListOrdersQuery is the parsed query string of the listing endpoint.
type ListOrdersQuery struct {
	Page   int
	Limit  int
	Search string
}

// OrderService implements the order placement, listing, status and
// cancellation workflows.
type OrderService struct {
	orders   OrderStore
	products ProductStore
	users    UserStore
}

func NewOrderService(orders OrderStore, products ProductStore, users UserStore) *OrderService {
	return &OrderService{orders: orders, products: products, users: users}
}

// Create places an order for the caller. Every line item is validated
// before any state changes; stock is taken with per-product conditional
// decrements, and any partial progress is compensated when a later item
// comes up short, so either the whole order commits or nothing moves.
func (s *OrderService) Create(ctx context.Context, caller Identity, items []OrderItemInput) (*models.PopulatedOrder, error) {
	ids, err := validateOrderItems(items)
	if err != nil {
		return nil, err
	}

	products, ferr := s.products.FindByIDs(ctx, ids)
	if ferr != nil {
		return nil, internalError(ferr)
	}
	if len(products) != len(ids) {
		return nil, newError(KindNotFound, "productsNotFound")
	}

	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	// Pre-check against the fetched snapshot so an obviously short
	// request fails before any write.
	for i, item := range items {
		product := byID[ids[i]]
		qty := int(item.Quantity)
		if product.CountInStock < qty {
			return nil, insufficientStock(product, qty)
		}
	}

	// Take stock with conditional decrements. A failed decrement means a
	// concurrent order won the race; roll back what was already taken.
	taken := make([]models.OrderItem, 0, len(items))
	for i, item := range items {
		product := byID[ids[i]]
		qty := int(item.Quantity)

		ok, derr := s.products.DecrementStock(ctx, product.ID, qty)
		if derr == nil && !ok {
			derr = errShort
		}
		if derr != nil {
			s.restock(ctx, taken)
			if errors.Is(derr, errShort) {
				metrics.StockRejections.Inc()
				fresh, _ := s.products.FindByIDs(ctx, []primitive.ObjectID{product.ID})
				if len(fresh) == 1 {
					product = fresh[0]
				}
				return nil, insufficientStock(product, qty)
			}
			return nil, internalError(derr)
		}

		taken = append(taken, models.OrderItem{
			Product:  product.ID,
			Quantity: qty,
			Price:    product.Price, // price snapshot at order time
		})
	}

	total := 0.0
	for _, item := range taken {
		total += item.Price * float64(item.Quantity)
	}

	order := models.Order{
		User:       caller.ID,
		OrderItems: taken,
		TotalPrice: total,
		Status:     models.StatusPending,
		Date:       time.Now().UTC(),
	}
	if err := s.orders.Insert(ctx, &order); err != nil {
		s.restock(ctx, taken)
		return nil, internalError(err)
	}

	metrics.OrdersCreated.Inc()
	logger.WithCtx(ctx).Info("order created",
		"order_id", order.ID.Hex(),
		"user_id", caller.ID.Hex(),
		"items", len(taken),
		"total", total,
	)

	return s.populate(ctx, order)
}

var errShort = errors.New("stock decrement did not match")

// restock compensates already-taken quantities after a mid-flight failure.
func (s *OrderService) restock(ctx context.Context, taken []models.OrderItem) {
	for _, item := range taken {
		if err := s.products.IncrementStock(ctx, item.Product, item.Quantity); err != nil {
			logger.WithCtx(ctx).Error("restock failed",
				"product_id", item.Product.Hex(),
				"quantity", item.Quantity,
				"error", err.Error(),
			)
		}
	}
}

func insufficientStock(product models.Product, requested int) *Error {
	return newError(KindConflict, "insufficientStock").
		withDetail("productName", product.Title).
		withDetail("availableStock", product.CountInStock).
		withDetail("requestedQuantity", requested)
}

// validateOrderItems rejects the request before any store access: empty
// list, missing fields, malformed ObjectID, or a non-positive or
// fractional quantity.
func validateOrderItems(items []OrderItemInput) ([]primitive.ObjectID, *Error) {
	if len(items) == 0 {
		return nil, newError(KindValidation, "orderItemsRequired")
	}

	ids := make([]primitive.ObjectID, len(items))
	for i, item := range items {
		if item.Product == "" || item.Quantity == 0 {
			return nil, newError(KindValidation, "orderItemsValidation")
		}

		id, err := primitive.ObjectIDFromHex(item.Product)
		if err != nil {
			return nil, newError(KindValidation, "invalidProductId").
				withDetail("invalidId", item.Product)
		}

		if item.Quantity < 1 {
			return nil, newError(KindValidation, "quantityMustBeAtLeast1")
		}
		if item.Quantity != math.Trunc(item.Quantity) {
			return nil, newError(KindValidation, "quantityMustBeInteger")
		}

		ids[i] = id
	}
	return ids, nil
}

// List returns one page of orders. Non-admin callers only ever see their
// own; admins see everything. Search matches the status field.
func (s *OrderService) List(ctx context.Context, caller Identity, q ListOrdersQuery) ([]models.Order, response.Pagination, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}

	filter := repositories.OrderFilter{Search: q.Search}
	if !caller.IsAdmin() {
		filter.User = caller.ID
	}

	orders, total, err := s.orders.FindPage(ctx, filter, q.Page, q.Limit)
	if err != nil {
		return nil, response.Pagination{}, internalError(err)
	}

	pagination := response.Pagination{
		CurrentPage: q.Page,
		TotalPages:  int(math.Ceil(float64(total) / float64(q.Limit))),
		TotalOrders: total,
		Limit:       q.Limit,
	}
	return orders, pagination, nil
}

// Get returns one order, enriched, enforcing ownership for non-admins.
func (s *OrderService) Get(ctx context.Context, caller Identity, id primitive.ObjectID) (*models.PopulatedOrder, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(KindNotFound, "orderNotFound")
	}
	if err != nil {
		return nil, internalError(err)
	}

	if !caller.IsAdmin() && order.User != caller.ID {
		return nil, newError(KindForbidden, "accessDeniedOwnOrdersOnly")
	}

	return s.populate(ctx, order)
}

// Delete removes an order. The admin gate runs at the route; a missing
// order is a plain 404 here.
func (s *OrderService) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.orders.Delete(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return newError(KindNotFound, "orderNotFound")
	}
	if err != nil {
		return internalError(err)
	}
	return nil
}

// ChangeStatus sets an order's status to any member of the enumerated
// set. No transition graph is enforced beyond the membership check.
func (s *OrderService) ChangeStatus(ctx context.Context, id primitive.ObjectID, status string) (models.Order, error) {
	if status == "" {
		return models.Order{}, newError(KindValidation, "statusRequired")
	}
	if !models.ValidStatus(status) {
		return models.Order{}, newError(KindValidation, "invalidStatus")
	}

	order, err := s.orders.UpdateStatus(ctx, id, status)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Order{}, newError(KindNotFound, "orderNotFound")
	}
	if err != nil {
		return models.Order{}, internalError(err)
	}
	return order, nil
}

// Cancel transitions the caller's own order to cancelled and restores
// every line item's quantity exactly once. Already-cancelled orders and
// shipped/delivered orders are rejected with distinct errors.
func (s *OrderService) Cancel(ctx context.Context, caller Identity, id primitive.ObjectID) (models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return models.Order{}, newError(KindNotFound, "orderNotFound")
	}
	if err != nil {
		return models.Order{}, internalError(err)
	}

	if order.User != caller.ID {
		return models.Order{}, newError(KindForbidden, "accessDeniedOwnOrdersOnly")
	}

	if order.Status == models.StatusCancelled {
		return models.Order{}, newError(KindConflict, "orderAlreadyCancelled")
	}
	if !order.CanCancel() {
		return models.Order{}, newError(KindConflict, "cannotCancelOrder")
	}

	updated, err := s.orders.UpdateStatus(ctx, id, models.StatusCancelled)
	if err != nil {
		return models.Order{}, internalError(err)
	}

	for _, item := range order.OrderItems {
		if err := s.products.IncrementStock(ctx, item.Product, item.Quantity); err != nil {
			logger.WithCtx(ctx).Error("stock restore failed",
				"order_id", id.Hex(),
				"product_id", item.Product.Hex(),
				"error", err.Error(),
			)
		}
	}

	metrics.OrdersCancelled.Inc()
	return updated, nil
}

// populate enriches an order with its user profile and current product
// summaries, mirroring what the API returns from create and get.
func (s *OrderService) populate(ctx context.Context, order models.Order) (*models.PopulatedOrder, error) {
	user, err := s.users.FindByID(ctx, order.User)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, internalError(err)
	}

	ids := make([]primitive.ObjectID, len(order.OrderItems))
	for i, item := range order.OrderItems {
		ids[i] = item.Product
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internalError(err)
	}
	byID := make(map[primitive.ObjectID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	populated := &models.PopulatedOrder{
		ID:         order.ID,
		User:       user.Profile(),
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
		Date:       order.Date,
	}
	for _, item := range order.OrderItems {
		populated.OrderItems = append(populated.OrderItems, models.PopulatedOrderItem{
			Product:  byID[item.Product].Summary(),
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}
	return populated, nil
}
