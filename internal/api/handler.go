package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"procurement-service/internal/models"
	"procurement-service/internal/pricelist"
	"procurement-service/internal/service"
	"procurement-service/internal/store"
	"procurement-service/internal/util"
)

// Notifier publishes notification events for the background mailer. The
// Kafka event publisher satisfies this.
type Notifier interface {
	PublishUserRegistered(ctx context.Context, userID int64, email, token string) error
	PublishOrderConfirmed(ctx context.Context, event models.OrderConfirmedEvent) error
	PublishOperatorNotice(ctx context.Context, event models.OperatorNoticeEvent) error
}

type Handler struct {
	auth     *service.AuthService
	contacts *service.ContactService
	partner  *service.PartnerService
	basket   *service.BasketService
	orders   *service.OrderService
	catalog  *service.CatalogService
	notifier Notifier
	logger   *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(
	auth *service.AuthService,
	contacts *service.ContactService,
	partner *service.PartnerService,
	basket *service.BasketService,
	orders *service.OrderService,
	catalog *service.CatalogService,
	notifier Notifier,
) *Handler {
	return &Handler{
		auth:     auth,
		contacts: contacts,
		partner:  partner,
		basket:   basket,
		orders:   orders,
		catalog:  catalog,
		notifier: notifier,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes configures all API routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(metricsMiddleware())

	router.GET("/health", h.health)
	router.GET("/ready", h.ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		user := v1.Group("/user")
		{
			user.POST("/register", h.register)
			user.POST("/register/confirm", h.confirmAccount)
			user.POST("/login", h.login)
			user.GET("/details", h.requireAuth(), h.details)
			user.PATCH("/details", h.requireAuth(), h.updateDetails)

			contact := user.Group("/contact", h.requireAuth())
			{
				contact.GET("", h.listContacts)
				contact.POST("", h.createContact)
				contact.PUT("/:id", h.updateContact)
				contact.DELETE("/:id", h.deleteContact)
			}
		}

		partner := v1.Group("/partner", h.requireAuth(), h.requireShop())
		{
			partner.POST("/update/url", h.importFromURL)
			partner.POST("/update/file", h.importFromFile)
			partner.GET("/state/:id", h.partnerState)
			partner.PATCH("/state/:id", h.setPartnerState)
			partner.GET("/orders", h.partnerOrders)
		}

		v1.GET("/categories", h.categories)
		v1.GET("/shops", h.shops)
		v1.GET("/products", h.products)

		basket := v1.Group("/basket", h.requireAuth())
		{
			basket.GET("", h.getBasket)
			basket.POST("", h.addToBasket)
			basket.PUT("", h.addToBasket)
			basket.DELETE("", h.clearBasket)
		}

		order := v1.Group("/order", h.requireAuth())
		{
			order.GET("", h.listOrders)
			order.POST("/confirm", h.confirmOrder)
		}
	}
}

// Response envelope. Every endpoint answers with status Success or Failure
// plus endpoint-specific fields.
func success(c *gin.Context, code int, extra gin.H) {
	body := gin.H{"status": "Success"}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(code, body)
}

func failure(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "Failure", "error": message})
}

// failWith maps service errors onto HTTP statuses.
func (h *Handler) failWith(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		failure(c, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrEmailTaken):
		failure(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		failure(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrOrderNotOwned),
		errors.Is(err, service.ErrContactNotOwned),
		errors.Is(err, service.ErrShopNotOwned):
		failure(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidUserType),
		errors.Is(err, service.ErrUnknownListing),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrEmptyBatch),
		errors.Is(err, service.ErrBasketEmpty),
		errors.Is(err, service.ErrWrongOrderState),
		errors.Is(err, service.ErrBadFileName),
		errors.Is(err, pricelist.ErrMalformed):
		failure(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err), zap.String("path", c.FullPath()))
		failure(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}

	user, token, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		h.failWith(c, err)
		return
	}

	// Publish is best effort; the account exists either way and the token
	// can be re-requested by an operator.
	if err := h.notifier.PublishUserRegistered(c.Request.Context(), user.ID, user.Email, token); err != nil {
		h.logger.Error("failed to publish registration event",
			zap.Int64("user_id", user.ID), zap.Error(err))
	}

	success(c, http.StatusCreated, gin.H{
		"id":      user.ID,
		"message": "account created, confirmation required",
		"token":   token,
	})
}

func (h *Handler) confirmAccount(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ConfirmAccount(c.Request.Context(), req.Email, req.Token); err != nil {
		h.failWith(c, err)
		return
	}
	success(c, http.StatusOK, nil)
}

func (h *Handler) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.failWith(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{"token": token})
}

func (h *Handler) details(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, user)
}

func (h *Handler) updateDetails(c *gin.Context) {
	var upd service.DetailsUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.auth.UpdateDetails(c.Request.Context(), currentUser(c).ID, upd)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) listContacts(c *gin.Context) {
	contacts, err := h.contacts.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *Handler) createContact(c *gin.Context) {
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}
	if contact.City == "" || contact.Street == "" || contact.Phone == "" {
		failure(c, http.StatusBadRequest, "city, street and phone are required")
		return
	}

	if err := h.contacts.Create(c.Request.Context(), currentUser(c).ID, &contact); err != nil {
		h.failWith(c, err)
		return
	}
	success(c, http.StatusCreated, gin.H{"id": contact.ID})
}

func (h *Handler) updateContact(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		failure(c, http.StatusBadRequest, "invalid contact id")
		return
	}

	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}
	contact.ID = id

	if err := h.contacts.Update(c.Request.Context(), currentUser(c).ID, &contact); err != nil {
		h.failWith(c, err)
		return
	}
	success(c, http.StatusOK, nil)
}

func (h *Handler) deleteContact(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		failure(c, http.StatusBadRequest, "invalid contact id")
		return
	}

	if err := h.contacts.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		h.failWith(c, err)
		return
	}
	success(c, http.StatusOK, nil)
}

func (h *Handler) importFromURL(c *gin.Context) {
	var req struct {
		URL string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.partner.ImportFromURL(c.Request.Context(), currentUser(c).ID, req.URL)
	if err != nil {
		h.failWith(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{
		"shop":       result.Shop,
		"categories": result.Categories,
		"goods":      result.Goods,
	})
}

func (h *Handler) importFromFile(c *gin.Context) {
	var req struct {
		Filename string `json:"filename" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.partner.ImportFromFile(c.Request.Context(), currentUser(c).ID, req.Filename)
	if err != nil {
		h.failWith(c, err)
		return
	}
	success(c, http.StatusOK, gin.H{
		"shop":       result.Shop,
		"categories": result.Categories,
		"goods":      result.Goods,
	})
}

func (h *Handler) partnerState(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		failure(c, http.StatusBadRequest, "invalid shop id")
		return
	}

	shop, err := h.partner.GetState(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

func (h *Handler) setPartnerState(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		failure(c, http.StatusBadRequest, "invalid shop id")
		return
	}

	var req struct {
		State *bool `json:"state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}

	shop, err := h.partner.SetState(c.Request.Context(), currentUser(c).ID, id, *req.State)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, shop)
}

func (h *Handler) partnerOrders(c *gin.Context) {
	orders, err := h.partner.Orders(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) categories(c *gin.Context) {
	categories, err := h.catalog.Categories(c.Request.Context())
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) shops(c *gin.Context) {
	shops, err := h.catalog.Shops(c.Request.Context())
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, shops)
}

func (h *Handler) products(c *gin.Context) {
	shopID, err := queryID(c, "shop_id")
	if err != nil {
		failure(c, http.StatusBadRequest, "invalid shop_id")
		return
	}
	categoryID, err := queryID(c, "category_id")
	if err != nil {
		failure(c, http.StatusBadRequest, "invalid category_id")
		return
	}

	listings, err := h.catalog.Search(c.Request.Context(), shopID, categoryID)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (h *Handler) getBasket(c *gin.Context) {
	basket, err := h.basket.Get(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, basket)
}

func (h *Handler) addToBasket(c *gin.Context) {
	var req struct {
		Items []service.BasketItemRequest `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}

	basket, err := h.basket.AddItems(c.Request.Context(), currentUser(c).ID, req.Items)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, basket)
}

func (h *Handler) clearBasket(c *gin.Context) {
	if err := h.basket.Clear(c.Request.Context(), currentUser(c).ID); err != nil {
		h.failWith(c, err)
		return
	}
	success(c, http.StatusOK, nil)
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.failWith(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) confirmOrder(c *gin.Context) {
	var req struct {
		OrderID   int64 `json:"id" binding:"required"`
		ContactID int64 `json:"contact" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		failure(c, http.StatusBadRequest, err.Error())
		return
	}

	user := currentUser(c)
	result, err := h.orders.Confirm(c.Request.Context(), user, req.OrderID, req.ContactID)
	if err != nil {
		h.failWith(c, err)
		return
	}

	// Notifications are best effort; the order is placed either way.
	ctx := c.Request.Context()
	if err := h.notifier.PublishOrderConfirmed(ctx, result.BuyerEvent); err != nil {
		h.logger.Error("failed to publish order event",
			zap.Int64("order_id", result.OrderID), zap.Error(err))
	}
	if err := h.notifier.PublishOperatorNotice(ctx, result.OperatorEvent); err != nil {
		h.logger.Error("failed to publish operator event",
			zap.Int64("order_id", result.OrderID), zap.Error(err))
	}

	success(c, http.StatusOK, gin.H{
		"id":        result.OrderID,
		"total_sum": result.Total,
	})
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func queryID(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
