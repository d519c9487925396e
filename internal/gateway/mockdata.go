package gateway

import (
	"time"

	"storefront/internal/domain/model"
)

// バックエンドに到達できないときの代替カタログ。
// 画面を空にしないための最後の手段で、注文には使えない。

var MockProducts = []model.Product{
	{ID: "mock1", Name: "Fresh Tomatoes", Price: 80, ImageURL: "https://images.unsplash.com/photo-1582284540020-8acbe03f4924"},
	{ID: "mock2", Name: "Organic Carrots", Price: 50, ImageURL: "https://images.unsplash.com/photo-1598170845058-32b9d6a5da37"},
	{ID: "mock3", Name: "Green Spinach", Price: 40, ImageURL: "https://images.unsplash.com/photo-1576045057995-568f588f82fb"},
	{ID: "mock4", Name: "Cauliflower", Price: 75, ImageURL: "https://images.unsplash.com/photo-1568584711075-3d021a7c3ca3"},
	{ID: "mock5", Name: "Bell Peppers", Price: 90, ImageURL: "https://images.unsplash.com/photo-1563565375-f3fdfdbefa83"},
	{ID: "mock6", Name: "Fresh Cucumber", Price: 45, ImageURL: "https://images.unsplash.com/photo-1604977042946-1eecc30f269e"},
	{ID: "mock7", Name: "Green Beans", Price: 60, ImageURL: "https://images.unsplash.com/photo-1567375698818-5a3e7b1002ee"},
	{ID: "mock8", Name: "Onions", Price: 35, ImageURL: "https://images.unsplash.com/photo-1620574387735-3624d75b2dbc"},
}

var MockOrders = []model.Order{
	{
		ID:              "order1",
		BuyerName:       "Demo User",
		BuyerContact:    "9876543210",
		DeliveryAddress: "123 Test Street, Demo City",
		Status:          model.OrderStatusDelivered,
		Items: []model.OrderItem{
			{ProductID: "mock1", Name: "Fresh Tomatoes", Price: 80, Quantity: 2},
			{ProductID: "mock2", Name: "Organic Carrots", Price: 50, Quantity: 1},
		},
		CreatedAt: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
	},
}
