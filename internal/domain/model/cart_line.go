package model

// カートの明細
// 1商品につき1行。数量は必ず1以上（0以下は行削除を意味する）。
// 単価は追加時点の価格を保存する。
type CartLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

// 明細の小計
func (l CartLine) Subtotal() int64 {
	return l.UnitPrice * l.Quantity
}
