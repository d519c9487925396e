package model

import "time"

// 直近注文のスナップショット。
// 注文成功時に作成し、以後は変更しない（statusは作成時点の値のまま）。
type OrderSummary struct {
	OrderID  string      `json:"order_id"`
	PlacedAt time.Time   `json:"placed_at"`
	Total    int64       `json:"total"`
	Status   OrderStatus `json:"status"`
}
