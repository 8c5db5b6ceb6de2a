package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/middleware"
	"backend/internal/models"
	"backend/internal/orders"
	"backend/internal/store"
)

type CreateOrderRequest struct {
	ServiceName    string `json:"serviceName" binding:"required"`
	PackageDetails string `json:"packageDetails" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	PaymentMethod  string `json:"paymentMethod" binding:"required"`
	SenderPhone    string `json:"senderPhone" binding:"required"`
	TrxID          string `json:"trxId" binding:"required"`
}

type OrderDetailsRequest struct {
	ClientDocLink      string `json:"clientDocLink"`
	ClientPageLink     string `json:"clientPageLink"`
	ClientEmail        string `json:"clientEmail"`
	ClientWhatsapp     string `json:"clientWhatsapp"`
	ClientRequirements string `json:"clientRequirements"`
}

type ApproveOrderRequest struct {
	AdminContactLink string `json:"adminContactLink"`
}

type ActivateOrderRequest struct {
	Deadline time.Time `json:"deadline" binding:"required"`
}

type RequestInfoRequest struct {
	Message string `json:"message" binding:"required"`
}

// OrderView is an order decorated with its derived lifecycle phase and,
// once activated, the running plan status.
type OrderView struct {
	models.Order
	Phase string       `json:"phase"`
	Plan  *orders.Plan `json:"plan,omitempty"`
}

func orderView(o models.Order, now time.Time) OrderView {
	view := OrderView{Order: o, Phase: orders.PhaseOf(o).Kind.String()}
	if o.Status == orders.StatusApproved && o.StartDate != nil {
		plan := orders.PlanStatus(o, now)
		view.Plan = &plan
	}
	return view
}

// CreateOrder records a new purchase in the pending state.
func CreateOrder(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ORDERS")

		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		claims, _ := middleware.SessionClaims(c)

		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		order, err := orders.NewOrder(
			claims.Name,
			claims.Phone,
			strings.TrimSpace(req.ServiceName),
			strings.TrimSpace(req.PackageDetails),
			strings.TrimSpace(req.Amount),
			strings.TrimSpace(req.PaymentMethod),
			strings.TrimSpace(req.SenderPhone),
			strings.TrimSpace(req.TrxID),
			time.Now(),
		)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "ORDERS", err.Error())
			return
		}
		order.UserID = userID

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		id, err := st.InsertOrder(ctx, order)
		if err != nil {
			log.Println("[ORDERS] [ERROR] insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, "ORDERS", err.Error())
			return
		}
		order.ID = id

		log.Println("[ORDERS] [INFO] order created:", id.Hex(), order.ServiceName)
		c.JSON(http.StatusCreated, orderView(order, time.Now()))
	}
}

// ListOrders returns the caller's orders, or every order for an admin.
func ListOrders(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ORDERS")

		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var owner *primitive.ObjectID
		if middleware.Role(c) != models.RoleAdmin {
			owner = &userID
		}

		list := st.ListOrders(c.Request.Context(), owner)
		now := time.Now()
		views := make([]OrderView, 0, len(list))
		for _, o := range list {
			views = append(views, orderView(o, now))
		}
		c.JSON(http.StatusOK, gin.H{"orders": views})
	}
}

// SubmitOrderDetails records the customer's onboarding details for an
// approved order. Only the order's owner may submit.
func SubmitOrderDetails(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ORDERS")

		userID, ok := middleware.UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req OrderDetailsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		applyTransition(c, st, func(o models.Order) (orders.Update, error) {
			if o.UserID != userID {
				return orders.Update{}, errNotOwner
			}
			return orders.SubmitDetails(o, orders.Details{
				DocLink:      strings.TrimSpace(req.ClientDocLink),
				PageLink:     strings.TrimSpace(req.ClientPageLink),
				Email:        strings.TrimSpace(req.ClientEmail),
				Whatsapp:     strings.TrimSpace(req.ClientWhatsapp),
				Requirements: strings.TrimSpace(req.ClientRequirements),
			})
		})
	}
}

// ApproveOrder moves a pending order to approved. Top-up orders activate
// immediately and skip the onboarding exchange.
func ApproveOrder(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ORDERS")

		var req ApproveOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		applyTransition(c, st, func(o models.Order) (orders.Update, error) {
			return orders.Approve(o, strings.TrimSpace(req.AdminContactLink), time.Now())
		})
	}
}

func RejectOrder(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ORDERS")

		applyTransition(c, st, func(o models.Order) (orders.Update, error) {
			return orders.Reject(o)
		})
	}
}

// ActivateOrder starts the service clock on an order whose details are in
// review.
func ActivateOrder(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ORDERS")

		var req ActivateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		applyTransition(c, st, func(o models.Order) (orders.Update, error) {
			return orders.Activate(o, req.Deadline, time.Now())
		})
	}
}

// RequestOrderInfo sends the customer back to the details form with an
// admin note. Previously submitted values stay on the order as prefill.
func RequestOrderInfo(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ORDERS")

		var req RequestInfoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		applyTransition(c, st, func(o models.Order) (orders.Update, error) {
			return orders.RequestInfo(o, strings.TrimSpace(req.Message))
		})
	}
}

func CompleteOrder(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ORDERS")

		applyTransition(c, st, func(o models.Order) (orders.Update, error) {
			return orders.Complete(o)
		})
	}
}

var errNotOwner = errors.New("not the order owner")

// applyTransition runs the read-decide-write cycle for one order mutation.
// The write is guarded by the revision read, so a concurrent change turns
// into a 409 for the caller to retry against fresh state.
func applyTransition(c *gin.Context, st *store.Store, decide func(models.Order) (orders.Update, error)) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondWithError(c, http.StatusBadRequest, "ORDERS", "invalid order id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	order, err := st.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, "ORDERS", "order not found")
			return
		}
		log.Println("[ORDERS] [ERROR] fetch failed:", err)
		respondWithError(c, http.StatusInternalServerError, "ORDERS", err.Error())
		return
	}

	upd, err := decide(*order)
	if err != nil {
		if errors.Is(err, errNotOwner) {
			respondWithError(c, http.StatusForbidden, "ORDERS", "forbidden")
			return
		}
		if orders.IsGuardError(err) {
			respondWithError(c, http.StatusBadRequest, "ORDERS", err.Error())
			return
		}
		respondWithError(c, http.StatusInternalServerError, "ORDERS", err.Error())
		return
	}

	if err := st.ApplyOrderUpdate(ctx, id, order.Rev, upd); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondWithError(c, http.StatusConflict, "ORDERS", "order was modified concurrently, retry")
			return
		}
		log.Println("[ORDERS] [ERROR] update failed:", err)
		respondWithError(c, http.StatusInternalServerError, "ORDERS", err.Error())
		return
	}

	updated, err := st.GetOrder(ctx, id)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"message": "order updated"})
		return
	}
	c.JSON(http.StatusOK, orderView(*updated, time.Now()))
}
