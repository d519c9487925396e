package mockapi

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/gateway"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// ErrorResponse はバックエンド互換のエラー形（ゲートウェイがmessageを拾う）
type ErrorResponse struct {
	Message string `json:"message"`
}

type Config struct {
	AdminEmail    string
	AdminPassword string
	JWTSecret     string
}

// Server は開発・テスト用のローカル偽バックエンド。
// 本物と同じREST面をインメモリで実装する。再起動で消える。
type Server struct {
	e *echo.Echo

	adminEmail string
	adminHash  []byte
	secret     []byte

	mu          sync.Mutex
	products    map[string]model.Product
	orders      map[string]model.Order
	orderSeq    []string          // 一覧の並び用（作成順）
	idempotency map[string]string // Idempotency-Key → 注文ID
}

func New(cfg Config) (*Server, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s := &Server{
		adminEmail:  cfg.AdminEmail,
		adminHash:   hash,
		secret:      []byte(cfg.JWTSecret),
		products:    map[string]model.Product{},
		orders:      map[string]model.Order{},
		idempotency: map[string]string{},
	}

	// 初期カタログは組み込みのモックデータを流用
	for _, p := range gateway.MockProducts {
		s.products[p.ID] = p
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	g := e.Group("/api")
	g.GET("/products", s.listProducts)
	g.POST("/products", s.createProduct)
	g.DELETE("/products/:id", s.deleteProduct)
	g.GET("/orders", s.listOrders)
	g.GET("/orders/:id", s.getOrder)
	g.POST("/orders", s.createOrder)
	g.PUT("/orders/:id", s.updateOrder)
	g.PATCH("/orders/:id/status", s.updateOrderStatus)
	g.POST("/admin/login", s.login)

	s.e = e
	return s, nil
}

// Handler はhttptest用
func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

// Authorizationヘッダーのトークンを検証する。"Bearer x" も裸のトークンも受ける。
func (s *Server) requireAuth(c echo.Context) error {
	raw := c.Request().Header.Get("Authorization")
	raw = strings.TrimPrefix(raw, "Bearer ")
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	return nil
}

func (s *Server) listProducts(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createProduct(c echo.Context) error {
	if err := s.requireAuth(c); err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	name := c.FormValue("name")
	price, err := strconv.ParseInt(c.FormValue("price"), 10, 64)
	if err != nil || price <= 0 || strings.TrimSpace(name) == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "name and positive price are required"})
	}

	imageURL := ""
	if fh, err := c.FormFile("image"); err == nil {
		// 画像は保存しない。ファイル名だけ残す。
		imageURL = "/uploads/" + fh.Filename
	}

	p := model.Product{
		ID:       uuid.NewString(),
		Name:     name,
		Price:    price,
		ImageURL: imageURL,
	}

	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()

	return c.JSON(http.StatusCreated, p)
}

func (s *Server) deleteProduct(c echo.Context) error {
	if err := s.requireAuth(c); err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	id := c.Param("id")

	s.mu.Lock()
	_, ok := s.products[id]
	delete(s.products, id)
	s.mu.Unlock()

	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "product not found"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listOrders(c echo.Context) error {
	if err := s.requireAuth(c); err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Order, 0, len(s.orderSeq))
	for _, id := range s.orderSeq {
		out = append(out, s.orders[id])
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getOrder(c echo.Context) error {
	s.mu.Lock()
	o, ok := s.orders[c.Param("id")]
	s.mu.Unlock()

	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "Order not found"})
	}
	return c.JSON(http.StatusOK, o)
}

type createOrderRequest struct {
	BuyerName       string            `json:"buyer_name"`
	BuyerContact    string            `json:"buyer_contact"`
	DeliveryAddress string            `json:"delivery_address"`
	Items           []model.OrderItem `json:"items"`
}

func (s *Server) createOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}
	if strings.TrimSpace(req.BuyerName) == "" || strings.TrimSpace(req.BuyerContact) == "" ||
		strings.TrimSpace(req.DeliveryAddress) == "" || len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "buyer_name, buyer_contact, delivery_address and items are required"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 同じIdempotency-Keyには同じ注文を返す
	key := c.Request().Header.Get("Idempotency-Key")
	if key != "" {
		if id, ok := s.idempotency[key]; ok {
			return c.JSON(http.StatusOK, s.orders[id])
		}
	}

	o := model.Order{
		ID:              uuid.NewString(),
		BuyerName:       req.BuyerName,
		BuyerContact:    req.BuyerContact,
		DeliveryAddress: req.DeliveryAddress,
		Items:           req.Items,
		Status:          model.OrderStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	s.orders[o.ID] = o
	s.orderSeq = append(s.orderSeq, o.ID)
	if key != "" {
		s.idempotency[key] = o.ID
	}

	return c.JSON(http.StatusCreated, o)
}

type updateStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

func (s *Server) updateOrder(c echo.Context) error {
	return s.applyStatus(c)
}

func (s *Server) updateOrderStatus(c echo.Context) error {
	return s.applyStatus(c)
}

// ステータス遷移はサーバー側で強制する
func (s *Server) applyStatus(c echo.Context) error {
	if err := s.requireAuth(c); err != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unauthorized"})
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}
	if !req.Status.Valid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid status"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[c.Param("id")]
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Message: "Order not found"})
	}
	if !model.CanTransition(o.Status, req.Status) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid status transition"})
	}

	o.Status = req.Status
	s.orders[o.ID] = o

	return c.JSON(http.StatusOK, o)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	if req.Email != s.adminEmail ||
		bcrypt.CompareHashAndPassword(s.adminHash, []byte(req.Password)) != nil {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid credentials"})
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  "admin",
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(12 * time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "token signing failed"})
	}

	return c.JSON(http.StatusOK, map[string]string{"token": signed})
}
