package model

import "time"

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// 既知のステータスか
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// 終端ステータスか（これ以上遷移しない）
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ステータス遷移の可否。
// Pending → Processing → Shipped → Delivered の一方向。
// Cancelled は終端以外のどこからでも入れる。
// 遷移の判定はサーバー側の責務で、クライアントは結果を表示するだけ。
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return false
	}
	if from.Terminal() {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}

	next := map[OrderStatus]OrderStatus{
		OrderStatusPending:    OrderStatusProcessing,
		OrderStatusProcessing: OrderStatusShipped,
		OrderStatusShipped:    OrderStatusDelivered,
	}
	return next[from] == to
}

// 注文の明細（注文時点のスナップショット）
type OrderItem struct {
	ProductID string `json:"product"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

// 注文（サーバー所有。クライアントは status の読み取りと更新依頼のみ）
type Order struct {
	ID              string      `json:"id"`
	BuyerName       string      `json:"buyer_name"`
	BuyerContact    string      `json:"buyer_contact"`
	DeliveryAddress string      `json:"delivery_address"`
	Items           []OrderItem `json:"items"`
	Status          OrderStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}
