package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/chronostore/internal/auth"
	"github.com/fekuna/chronostore/internal/catalog"
	"github.com/fekuna/chronostore/internal/currency"
	"github.com/fekuna/chronostore/internal/logger"
	"github.com/fekuna/chronostore/internal/metrics"
	"github.com/fekuna/chronostore/internal/model"
	"github.com/fekuna/chronostore/internal/settings"
	"github.com/fekuna/chronostore/internal/shopper"
	"github.com/fekuna/chronostore/internal/shopper/dto"
	"github.com/fekuna/chronostore/internal/statistics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Catalog    catalog.UseCase
	Shopper    shopper.UseCase
	Settings   settings.UseCase
	Statistics *statistics.Aggregator
	Currency   *currency.Converter
	Resolver   *auth.Resolver
	Metrics    *metrics.Registry
	Logger     logger.ZapLogger
	// Health reports whether the backing services are reachable. Optional.
	Health func(ctx context.Context) error
}

type Server struct {
	router *gin.Engine
	srv    *http.Server
	deps   Deps
}

func NewServer(deps Deps) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Logger), deps.Resolver.GinMiddleware())

	s := &Server{router: router, deps: deps}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/health", s.healthCheck)
		api.GET("/settings", s.publicSettings)

		api.GET("/catalog", s.listCatalog)
		api.GET("/catalog/:id", s.getProduct)

		api.GET("/cart", s.getCart)
		api.POST("/cart/items", s.addToCart)
		api.PUT("/cart/items/:id", s.setCartQuantity)
		api.DELETE("/cart/items/:id", s.removeFromCart)
		api.DELETE("/cart", s.clearCart)

		api.GET("/favorites", s.listFavorites)
		api.POST("/favorites/:id", s.toggleFavorite)
		api.GET("/recent", s.listRecent)

		api.POST("/checkout", s.checkout)
	}

	admin := api.Group("/admin", auth.AdminOnly())
	{
		admin.GET("/statistics", s.statistics)
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func requestLogger(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	if s.deps.Health != nil {
		if err := s.deps.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "chronostore"})
}

func (s *Server) publicSettings(c *gin.Context) {
	st := s.deps.Settings.Get(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"store_name": st.StoreName,
		"logo":       st.Logo,
		"currency":   st.Currency,
		"contact":    st.Contact,
		"payments":   st.Payments,
		"currencies": s.deps.Currency.Codes(),
	})
}

// productView adds prices rendered in the shopper's display currency.
type productView struct {
	model.Product
	DisplayPrice    string `json:"display_price"`
	DisplayOldPrice string `json:"display_old_price,omitempty"`
	Discount        int    `json:"discount_percent,omitempty"`
}

func (s *Server) view(c *gin.Context, p model.Product) productView {
	code := c.Query("currency")
	if code == "" {
		code = s.deps.Settings.Get(c.Request.Context()).Currency
	}
	price := float64(p.Price)
	v := productView{
		Product:      p,
		DisplayPrice: s.deps.Currency.Format(&price, code),
		Discount:     p.DiscountPercent(),
	}
	if p.OldPrice != nil {
		old := float64(*p.OldPrice)
		v.DisplayOldPrice = s.deps.Currency.Format(&old, code)
	}
	return v
}

func (s *Server) views(c *gin.Context, products []model.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, s.view(c, p))
	}
	return out
}

func (s *Server) listCatalog(c *gin.Context) {
	q := catalog.Query{
		Selection: catalog.Selection{},
		Sort:      catalog.SortKey(c.Query("sort")),
		Search:    c.Query("q"),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "page_size"),
	}
	for _, attr := range catalog.Attributes {
		if values := splitValues(c.QueryArray(string(attr))); len(values) > 0 {
			q.Selection[attr] = values
		}
	}

	res, err := s.deps.Catalog.List(c.Request.Context(), q)
	if err != nil {
		s.internalError(c, "failed to list catalog", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": s.views(c, res.Products),
		"total":    res.Total,
		"facets":   res.Facets,
	})
}

func (s *Server) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p, err := s.deps.Catalog.Get(ctx, id)
	if err != nil {
		s.internalError(c, "failed to get product", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err := s.deps.Shopper.RecordView(ctx, auth.FromContext(ctx).OwnerID(), id); err != nil {
		s.deps.Logger.Warn("failed to record product view", zap.Int64("product_id", id), zap.Error(err))
	}
	c.JSON(http.StatusOK, s.view(c, *p))
}

func (s *Server) getCart(c *gin.Context) {
	ctx := c.Request.Context()
	v, err := s.deps.Shopper.Cart(ctx, auth.FromContext(ctx).OwnerID())
	s.respond(c, v, err)
}

func (s *Server) addToCart(c *gin.Context) {
	var input dto.CartLineInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	ctx := c.Request.Context()
	v, err := s.deps.Shopper.AddToCart(ctx, auth.FromContext(ctx).OwnerID(), input.ProductID, input.Quantity)
	s.respond(c, v, err)
}

func (s *Server) setCartQuantity(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	v, err := s.deps.Shopper.SetQuantity(ctx, auth.FromContext(ctx).OwnerID(), id, input.Quantity)
	s.respond(c, v, err)
}

func (s *Server) removeFromCart(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	v, err := s.deps.Shopper.RemoveFromCart(ctx, auth.FromContext(ctx).OwnerID(), id)
	s.respond(c, v, err)
}

func (s *Server) clearCart(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.deps.Shopper.ClearCart(ctx, auth.FromContext(ctx).OwnerID()); err != nil {
		s.respond(c, nil, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listFavorites(c *gin.Context) {
	ctx := c.Request.Context()
	products, err := s.deps.Shopper.Favorites(ctx, auth.FromContext(ctx).OwnerID())
	if err != nil {
		s.respond(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": s.views(c, products)})
}

func (s *Server) toggleFavorite(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	added, err := s.deps.Shopper.ToggleFavorite(ctx, auth.FromContext(ctx).OwnerID(), id)
	s.respond(c, gin.H{"product_id": id, "favorite": added}, err)
}

func (s *Server) listRecent(c *gin.Context) {
	ctx := c.Request.Context()
	products, err := s.deps.Shopper.RecentlyViewed(ctx, auth.FromContext(ctx).OwnerID())
	if err != nil {
		s.respond(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": s.views(c, products)})
}

func (s *Server) checkout(c *gin.Context) {
	var input dto.CheckoutInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	order, err := s.deps.Shopper.Checkout(ctx, auth.FromContext(ctx).OwnerID(), &input)
	if err != nil {
		s.respond(c, nil, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) statistics(c *gin.Context) {
	snap, err := s.deps.Statistics.GetStatistics(c.Request.Context())
	if err != nil {
		s.internalError(c, "failed to compute statistics", err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) respond(c *gin.Context, body any, err error) {
	if err == nil {
		c.JSON(http.StatusOK, body)
		return
	}
	switch {
	case errors.Is(err, shopper.ErrProductUnavailable):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, shopper.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, shopper.ErrNoOwner),
		errors.Is(err, shopper.ErrInvalidQuantity),
		errors.Is(err, shopper.ErrEmptyCart),
		errors.Is(err, shopper.ErrPaymentDisabled),
		errors.Is(err, model.ErrInvalidOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.internalError(c, "request failed", err)
	}
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.deps.Logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

// splitValues accepts both ?brand=a&brand=b and ?brand=a,b.
func splitValues(raw []string) []string {
	var out []string
	for _, r := range raw {
		for _, v := range strings.Split(r, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}
