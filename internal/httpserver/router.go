package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jewelry-storefront/internal/api"
	"jewelry-storefront/internal/domain"
	usersvc "jewelry-storefront/internal/service/user"
)

type ProductService interface {
	List(ctx context.Context, filter domain.ProductFilter) (domain.Page[domain.Product], error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Batch(ctx context.Context, ids []string) ([]domain.Product, error)
	Search(ctx context.Context, term string) ([]domain.Product, error)
	FreshDrops(ctx context.Context) ([]domain.Product, error)
	Colors(ctx context.Context, productID string) ([]domain.ProductColor, error)
	ByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
}

type CategoryService interface {
	List(ctx context.Context, filter domain.CategoryFilter) (domain.Page[domain.Category], error)
	Get(ctx context.Context, id string) (*domain.Category, error)
}

type CartService interface {
	Get(ctx context.Context, userID string) ([]domain.CartLine, error)
	Add(ctx context.Context, userID string, in domain.AddToCartInput) ([]domain.CartLine, error)
	Update(ctx context.Context, userID string, in domain.UpdateCartInput) ([]domain.CartLine, error)
	Remove(ctx context.Context, userID, itemID string) ([]domain.CartLine, error)
}

type AddressService interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Create(ctx context.Context, userID string, in domain.AddressInput) (*domain.Address, error)
	Update(ctx context.Context, userID, id string, in domain.AddressInput) (*domain.Address, error)
	Delete(ctx context.Context, userID, id string) error
}

type OrderService interface {
	List(ctx context.Context, userID string) ([]domain.Order, error)
	Place(ctx context.Context, userID, addressID string) (*domain.Order, error)
	Delete(ctx context.Context, userID, id string) error
	UpdateStatus(ctx context.Context, userID, id string, status domain.OrderStatus) (*domain.Order, error)
}

type UserService interface {
	Signup(ctx context.Context, in usersvc.SignupInput) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	Logout(ctx context.Context, token string) error
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	ForgotPassword(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code, newPassword string) error
}

// Deps holds the services the router dispatches to.
type Deps struct {
	ProductSvc  ProductService
	CategorySvc CategoryService
	CartSvc     CartService
	AddressSvc  AddressService
	OrderSvc    OrderService
	UserSvc     UserService
}

func (d Deps) validate() error {
	switch {
	case d.ProductSvc == nil:
		return errors.New("product service is required")
	case d.CategorySvc == nil:
		return errors.New("category service is required")
	case d.CartSvc == nil:
		return errors.New("cart service is required")
	case d.AddressSvc == nil:
		return errors.New("address service is required")
	case d.OrderSvc == nil:
		return errors.New("order service is required")
	case d.UserSvc == nil:
		return errors.New("user service is required")
	}
	return nil
}

type handler struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the API. checks back /readyz.
func buildRouter(logger *zap.Logger, checks []ReadinessCheck, deps Deps, corsOrigins []string) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	h := &handler{deps: deps, logger: logger}

	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestLogger(logger), recovery(logger), cors.New(corsConfig(corsOrigins)))

	router.GET("/healthz", healthHandler(time.Now()))
	router.GET("/readyz", readyHandler(logger, checks))

	router.GET("/allproducts", h.listProducts)
	router.GET("/product/getcolors/:id", h.productColors)

	public := router.Group("/api")
	public.GET("/singleproduct/:id", h.getProduct)
	public.POST("/products/batch", h.batchProducts)
	public.GET("/products/search", h.searchProducts)
	public.GET("/freshdrops", h.freshDrops)
	public.GET("/category/getcategory", h.listCategories)
	public.GET("/category/getcategory/:id", h.getCategory)
	public.GET("/category/products/category/:id", h.categoryProducts)

	public.POST("/signup", h.signup)
	public.POST("/signin", h.signin)
	public.POST("/signout", h.signout)
	public.POST("/user/forgotpassword", h.forgotPassword)
	public.POST("/user/verifyCode", h.verifyCode)

	private := router.Group("/api", authMiddleware(deps.UserSvc))
	private.GET("/getcart", h.getCart)
	private.POST("/addcart", h.addCart)
	private.PUT("/updatecart", h.updateCart)
	private.DELETE("/deletecartitem", h.deleteCartItem)

	private.GET("/address/getUseraddress", h.listAddresses)
	private.POST("/address/add", h.addAddress)
	private.PUT("/address/update/:id", h.updateAddress)
	private.DELETE("/address/delete/:id", h.deleteAddress)

	private.GET("/order/getorders", h.listOrders)
	private.POST("/order/addorder", h.placeOrder)
	private.DELETE("/order/deleteorder/:id", h.deleteOrder)
	private.PUT("/order/updateorder/:id", h.updateOrder)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "route not found"})
	})

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{api.TotalCountHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}

func recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Message: "internal error"})
	})
}

type ctxKey string

const userCtxKey ctxKey = "user"

// authMiddleware resolves the bearer token to a user or answers 401.
func authMiddleware(users UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Message: "missing bearer token"})
			return
		}
		u, err := users.LookupByToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, usersvc.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid or expired token"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to resolve token"})
			return
		}
		ctx := context.WithValue(c.Request.Context(), userCtxKey, u)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

func currentUser(c *gin.Context) *domain.User {
	u, _ := c.Request.Context().Value(userCtxKey).(*domain.User)
	return u
}
