package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/client"
	"storefront/internal/domain/model"
	"storefront/internal/kvstore"

	"github.com/rs/zerolog"
)

// 保存キー（従来のlocalStorageのキー名をそのまま使う）
const (
	keyCartItems    = "cartItems"
	keyRecentOrders = "recentOrders"
	keyLastOrderID  = "lastOrderId"
)

// 直近注文の保持件数
const recentOrdersCap = 5

// 空のカートで注文しようとした
var ErrEmptyCart = errors.New("cart is empty")

// OrderPlacer は注文作成だけを切り出した依存。テストで差し替える。
type OrderPlacer interface {
	Create(ctx context.Context, in client.CreateOrderInput, idempotencyKey string) (model.Order, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// Store はカート明細と直近注文の持ち主。
// 変更のたびにKeyValueStoreへ保存し、起動時に読み戻す。
// 保存は2キーにまたがりトランザクション保証はない（どちらもキャッシュ扱い）。
type Store struct {
	orders OrderPlacer
	kv     kvstore.KeyValueStore
	clock  Clock
	idGen  IDGenerator
	logger zerolog.Logger

	mu     sync.Mutex
	lines  []model.CartLine
	recent []model.OrderSummary
}

func NewStore(ctx context.Context, orders OrderPlacer, kv kvstore.KeyValueStore, clock Clock, idGen IDGenerator, logger zerolog.Logger) *Store {
	s := &Store{
		orders: orders,
		kv:     kv,
		clock:  clock,
		idGen:  idGen,
		logger: logger.With().Str("component", "cart").Logger(),
	}
	s.rehydrate(ctx)
	return s
}

// 保存済み状態の読み戻し。壊れていたら空から始める。
func (s *Store) rehydrate(ctx context.Context) {
	if raw, err := s.kv.Get(ctx, keyCartItems); err == nil {
		if err := json.Unmarshal([]byte(raw), &s.lines); err != nil {
			s.logger.Warn().Err(err).Msg("discarding corrupt cart state")
			s.lines = nil
		}
	}

	if raw, err := s.kv.Get(ctx, keyRecentOrders); err == nil {
		if err := json.Unmarshal([]byte(raw), &s.recent); err != nil {
			s.logger.Warn().Err(err).Msg("discarding corrupt recent orders")
			s.recent = nil
		}
	}
	if len(s.recent) > recentOrdersCap {
		s.recent = s.recent[:recentOrdersCap]
	}

	// 読み戻しでも不変条件は守る（数量0以下の行は捨てる）
	valid := s.lines[:0]
	for _, l := range s.lines {
		if l.Quantity >= 1 {
			valid = append(valid, l)
		}
	}
	s.lines = valid
}

// 商品を1つ追加。既にあれば数量を+1。
func (s *Store) AddItem(ctx context.Context, p model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.lines {
		if s.lines[i].ProductID == p.ID {
			s.lines[i].Quantity++
			return s.persistLines(ctx)
		}
	}

	s.lines = append(s.lines, model.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
	})
	return s.persistLines(ctx)
}

// 行を削除。無ければ何もしない。
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(productID)
	return s.persistLines(ctx)
}

// 数量を置き換える。0以下は削除と同じ。
func (s *Store) SetQuantity(ctx context.Context, productID string, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity <= 0 {
		s.removeLocked(productID)
		return s.persistLines(ctx)
	}

	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			s.lines[i].Quantity = quantity
			break
		}
	}
	return s.persistLines(ctx)
}

// カートを空にする
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	return s.persistLines(ctx)
}

func (s *Store) removeLocked(productID string) {
	kept := s.lines[:0]
	for _, l := range s.lines {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	s.lines = kept
}

// 明細のコピーを返す
func (s *Store) Lines() []model.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// 数量の合計
func (s *Store) TotalItemCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, l := range s.lines {
		total += l.Quantity
	}
	return total
}

// 金額の合計。毎回計算し直す（キャッシュのずれを作らない）。
func (s *Store) TotalPrice() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalPriceLocked()
}

func (s *Store) totalPriceLocked() int64 {
	var total int64
	for _, l := range s.lines {
		total += l.Subtotal()
	}
	return total
}

// 直近注文のコピー（新しい順、最大5件）
func (s *Store) RecentOrders() []model.OrderSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.OrderSummary, len(s.recent))
	copy(out, s.recent)
	return out
}

// 最後に作成した注文のID。無ければ空文字。
func (s *Store) LastOrderID(ctx context.Context) (string, error) {
	id, err := s.kv.Get(ctx, keyLastOrderID)
	if errors.Is(err, kvstore.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load last order id: %w", err)
	}
	return id, nil
}

type CheckoutInput struct {
	BuyerName       string
	BuyerContact    string
	DeliveryAddress string
}

// Checkout は現在のカートで注文を作成する。
// 空のカートはネットワークを触らずに即失敗。
// 成功したら lastOrderId と直近注文を保存してカートを空にする。
// 失敗したらカートはそのまま残す（部分的な変更はしない）。
func (s *Store) Checkout(ctx context.Context, in CheckoutInput) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return "", ErrEmptyCart
	}

	items := make([]model.OrderItem, 0, len(s.lines))
	for _, l := range s.lines {
		items = append(items, model.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}

	order, err := s.orders.Create(ctx, client.CreateOrderInput{
		BuyerName:       in.BuyerName,
		BuyerContact:    in.BuyerContact,
		DeliveryAddress: in.DeliveryAddress,
		Items:           items,
	}, s.idGen.NewID())
	if err != nil {
		return "", err
	}

	status := order.Status
	if status == "" {
		status = model.OrderStatusPending
	}

	// 注文はもうサーバー側に存在するので、以降の保存失敗は警告どまり
	if err := s.kv.Set(ctx, keyLastOrderID, order.ID); err != nil {
		s.logger.Warn().Err(err).Msg("persist last order id failed")
	}

	summary := model.OrderSummary{
		OrderID:  order.ID,
		PlacedAt: s.clock.Now(),
		Total:    s.totalPriceLocked(),
		Status:   status,
	}
	s.recent = append([]model.OrderSummary{summary}, s.recent...)
	if len(s.recent) > recentOrdersCap {
		s.recent = s.recent[:recentOrdersCap]
	}
	if err := s.persistRecent(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("persist recent orders failed")
	}

	s.lines = nil
	if err := s.persistLines(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("persist cart failed")
	}

	return order.ID, nil
}

func (s *Store) persistLines(ctx context.Context) error {
	raw, err := json.Marshal(s.lines)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.kv.Set(ctx, keyCartItems, string(raw)); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

func (s *Store) persistRecent(ctx context.Context) error {
	raw, err := json.Marshal(s.recent)
	if err != nil {
		return fmt.Errorf("marshal recent orders: %w", err)
	}
	if err := s.kv.Set(ctx, keyRecentOrders, string(raw)); err != nil {
		return fmt.Errorf("persist recent orders: %w", err)
	}
	return nil
}
