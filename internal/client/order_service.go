package client

import (
	"context"
	"fmt"

	"storefront/internal/domain/model"
	"storefront/internal/gateway"
)

// OrderService は /orders まわりの型付きAPI
type OrderService struct {
	gw *gateway.Gateway
}

func NewOrderService(gw *gateway.Gateway) *OrderService {
	return &OrderService{gw: gw}
}

// POST /orders の入力
type CreateOrderInput struct {
	BuyerName       string            `json:"buyer_name"`
	BuyerContact    string            `json:"buyer_contact"`
	DeliveryAddress string            `json:"delivery_address"`
	Items           []model.OrderItem `json:"items"`
}

// 注文作成。idempotencyKeyを渡すと同じ注文の二重作成を防げる。
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput, idempotencyKey string) (model.Order, error) {
	opts := gateway.Options{}
	if idempotencyKey != "" {
		opts.Headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}

	res, err := s.gw.Post(ctx, "orders", in, opts)
	if err != nil {
		return model.Order{}, err
	}

	var o model.Order
	if err := res.Decode(&o); err != nil {
		return model.Order{}, fmt.Errorf("decode order: %w", err)
	}
	return o, nil
}

// 注文一覧（要認証）
func (s *OrderService) List(ctx context.Context, token string) ([]model.Order, error) {
	res, err := s.gw.Get(ctx, "orders", gateway.Options{Credentialed: true, Token: token})
	if err != nil {
		return nil, err
	}

	var orders []model.Order
	if err := res.Decode(&orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

// 注文1件の取得
func (s *OrderService) Get(ctx context.Context, orderID string) (model.Order, error) {
	res, err := s.gw.Get(ctx, "orders/"+orderID, gateway.Options{})
	if err != nil {
		return model.Order{}, err
	}

	var o model.Order
	if err := res.Decode(&o); err != nil {
		return model.Order{}, fmt.Errorf("decode order: %w", err)
	}
	return o, nil
}

// ステータス更新。PUT /orders/{id}。
// プロキシ経由だと更新系が落ちる環境があるため直アクセスで送る。
func (s *OrderService) UpdateStatus(ctx context.Context, token string, orderID string, status model.OrderStatus) (model.Order, error) {
	return s.updateStatus(ctx, token, "orders/"+orderID, false, status)
}

// ステータス更新の代替経路。PATCH /orders/{id}/status。
// PUTが拒否されたときの手動リトライ先。
func (s *OrderService) UpdateStatusAlt(ctx context.Context, token string, orderID string, status model.OrderStatus) (model.Order, error) {
	return s.updateStatus(ctx, token, "orders/"+orderID+"/status", true, status)
}

func (s *OrderService) updateStatus(ctx context.Context, token string, path string, patch bool, status model.OrderStatus) (model.Order, error) {
	payload := map[string]model.OrderStatus{"status": status}
	opts := gateway.Options{ForceDirect: true, Token: token}

	var (
		res *gateway.Result
		err error
	)
	if patch {
		res, err = s.gw.Patch(ctx, path, payload, opts)
	} else {
		res, err = s.gw.Put(ctx, path, payload, opts)
	}
	if err != nil {
		return model.Order{}, err
	}

	var o model.Order
	if err := res.Decode(&o); err != nil {
		return model.Order{}, fmt.Errorf("decode order: %w", err)
	}
	return o, nil
}
