package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"storefront/internal/cart"
	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/gateway"
	"storefront/internal/kvstore"
	"storefront/internal/mockapi"
	"storefront/internal/session"
	"storefront/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: storefront <command> [args]

  products                          list products
  product-add -name N -price P [-image F]   add a product (admin)
  product-delete <id>               delete a product (admin)
  cart show|add|rm|set|clear        manage the cart
  checkout -name N -contact C -address A    place an order
  orders                            list orders (admin)
  order <id>                        show one order
  order-status <id> <status> [-alt] update order status (admin)
  login -email E -password P        admin login
  logout                            forget the stored token
  ping                              probe backend connectivity
  serve-mock [-addr :9090]          run the local mock backend`)
}

func main() {
	// .envは任意
	_ = godotenv.Load()

	level := zerolog.WarnLevel
	if os.Getenv("DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load failed")
	}

	ctx := context.Background()

	// 偽バックエンドはストレージ不要なので先に処理する
	if os.Args[1] == "serve-mock" {
		serveMock(logger, os.Args[2:])
		return
	}

	kv, err := buildStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("state store init failed")
	}

	gw := gateway.New(cfg, logger)
	productsAPI := client.NewProductService(gw, true)
	ordersAPI := client.NewOrderService(gw)
	authAPI := client.NewAuthService(gw)
	sess := session.New(kv)
	cartStore := cart.NewStore(ctx, ordersAPI, kv, &realClock{}, &uuidGenerator{}, logger)

	switch os.Args[1] {
	case "products":
		runProducts(ctx, productsAPI)
	case "product-add":
		runProductAdd(ctx, productsAPI, sess, os.Args[2:])
	case "product-delete":
		runProductDelete(ctx, productsAPI, sess, os.Args[2:])
	case "cart":
		runCart(ctx, cartStore, productsAPI, os.Args[2:])
	case "checkout":
		runCheckout(ctx, cartStore, os.Args[2:])
	case "orders":
		runOrders(ctx, ordersAPI, sess)
	case "order":
		runOrder(ctx, ordersAPI, cartStore, os.Args[2:])
	case "order-status":
		runOrderStatus(ctx, ordersAPI, sess, os.Args[2:])
	case "login":
		runLogin(ctx, authAPI, sess, os.Args[2:])
	case "logout":
		fatalIf(sess.Clear(ctx))
		fmt.Println("logged out")
	case "ping":
		runPing(cfg)
	default:
		usage()
		os.Exit(2)
	}
}

// REDIS_ADDRがあればRedis、なければJSONファイル
func buildStore(cfg config.Config) (kvstore.KeyValueStore, error) {
	if cfg.RedisAddr != "" {
		return kvstore.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})), nil
	}
	return kvstore.NewFileStore(cfg.StateFile)
}

func fatalIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// 要認証コマンドのトークン取得。期限切れなら再ログインを促す。
func requireToken(ctx context.Context, sess *session.Session) string {
	tok, err := sess.Token(ctx)
	fatalIf(err)

	expired, err := sess.Expired(ctx, time.Now())
	fatalIf(err)
	if expired {
		fmt.Fprintln(os.Stderr, "error: stored token has expired, run 'storefront login' again")
		os.Exit(1)
	}
	return tok
}

func runProducts(ctx context.Context, api *client.ProductService) {
	products, err := api.List(ctx)
	fatalIf(err)

	if len(products) == 0 {
		fmt.Println("no products")
		return
	}
	for _, p := range products {
		fmt.Printf("%-36s  %-24s  %6d\n", p.ID, p.Name, p.Price)
	}
}

func runProductAdd(ctx context.Context, api *client.ProductService, sess *session.Session, args []string) {
	fs := flag.NewFlagSet("product-add", flag.ExitOnError)
	name := fs.String("name", "", "product name")
	price := fs.Int64("price", 0, "price")
	image := fs.String("image", "", "image file")
	_ = fs.Parse(args)

	fatalIf(validator.ValidateProductForm(*name, *price))

	in := client.CreateProductInput{Name: *name, Price: *price}
	if *image != "" {
		f, err := os.Open(*image)
		fatalIf(err)
		defer f.Close()
		in.Image = f
		in.ImageName = filepath.Base(*image)
	}

	p, err := api.Create(ctx, requireToken(ctx, sess), in)
	fatalIf(err)
	fmt.Printf("created product %s\n", p.ID)
}

func runProductDelete(ctx context.Context, api *client.ProductService, sess *session.Session, args []string) {
	if len(args) != 1 {
		fatalIf(fmt.Errorf("usage: product-delete <id>"))
	}
	fatalIf(api.Delete(ctx, requireToken(ctx, sess), args[0]))
	fmt.Println("deleted")
}

func runCart(ctx context.Context, store *cart.Store, api *client.ProductService, args []string) {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
		lines := store.Lines()
		if len(lines) == 0 {
			fmt.Println("cart is empty")
			return
		}
		for _, l := range lines {
			fmt.Printf("%-36s  %-24s  %4d x %6d = %8d\n", l.ProductID, l.Name, l.Quantity, l.UnitPrice, l.Subtotal())
		}
		fmt.Printf("items: %d  total: %d\n", store.TotalItemCount(), store.TotalPrice())

	case "add":
		if len(args) != 2 {
			fatalIf(fmt.Errorf("usage: cart add <productID>"))
		}
		// 商品一覧から名前と価格を引く
		products, err := api.List(ctx)
		fatalIf(err)
		for _, p := range products {
			if p.ID == args[1] {
				fatalIf(store.AddItem(ctx, p))
				fmt.Printf("added %s\n", p.Name)
				return
			}
		}
		fatalIf(fmt.Errorf("product %s not found", args[1]))

	case "rm":
		if len(args) != 2 {
			fatalIf(fmt.Errorf("usage: cart rm <productID>"))
		}
		fatalIf(store.RemoveItem(ctx, args[1]))
		fmt.Println("removed")

	case "set":
		if len(args) != 3 {
			fatalIf(fmt.Errorf("usage: cart set <productID> <quantity>"))
		}
		qty, err := strconv.ParseInt(args[2], 10, 64)
		fatalIf(err)
		fatalIf(store.SetQuantity(ctx, args[1], qty))
		fmt.Println("updated")

	case "clear":
		fatalIf(store.Clear(ctx))
		fmt.Println("cleared")

	default:
		fatalIf(fmt.Errorf("unknown cart subcommand %q", args[0]))
	}
}

func runCheckout(ctx context.Context, store *cart.Store, args []string) {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	name := fs.String("name", "", "buyer name")
	contact := fs.String("contact", "", "10-digit contact number")
	address := fs.String("address", "", "delivery address")
	_ = fs.Parse(args)

	// 検証エラーはネットワークに出る前に止める
	fatalIf(validator.ValidateOrderForm(*name, *contact, *address))

	orderID, err := store.Checkout(ctx, cart.CheckoutInput{
		BuyerName:       *name,
		BuyerContact:    *contact,
		DeliveryAddress: *address,
	})
	fatalIf(err)
	fmt.Printf("order placed: %s\n", orderID)
}

func runOrders(ctx context.Context, api *client.OrderService, sess *session.Session) {
	orders, err := api.List(ctx, requireToken(ctx, sess))
	fatalIf(err)

	for _, o := range orders {
		fmt.Printf("%-36s  %-20s  %-10s\n", o.ID, o.BuyerName, o.Status)
	}
}

func runOrder(ctx context.Context, api *client.OrderService, store *cart.Store, args []string) {
	id := ""
	if len(args) > 0 {
		id = args[0]
	} else {
		// 引数がなければ最後に作成した注文を見る
		last, err := store.LastOrderID(ctx)
		fatalIf(err)
		id = last
	}
	if id == "" {
		fatalIf(fmt.Errorf("usage: order <id>"))
	}

	o, err := api.Get(ctx, id)
	fatalIf(err)

	fmt.Printf("order %s  [%s]\n", o.ID, o.Status)
	fmt.Printf("buyer: %s (%s)\n", o.BuyerName, o.BuyerContact)
	fmt.Printf("address: %s\n", o.DeliveryAddress)
	var total int64
	for _, it := range o.Items {
		fmt.Printf("  %-24s  %4d x %6d\n", it.Name, it.Quantity, it.Price)
		total += it.Price * it.Quantity
	}
	fmt.Printf("total: %d\n", total)

	if recent := store.RecentOrders(); len(recent) > 0 {
		fmt.Println("recent orders:")
		for _, r := range recent {
			fmt.Printf("  %-36s  %s  %6d  %s\n", r.OrderID, r.PlacedAt.Format(time.RFC3339), r.Total, r.Status)
		}
	}
}

func runOrderStatus(ctx context.Context, api *client.OrderService, sess *session.Session, args []string) {
	fs := flag.NewFlagSet("order-status", flag.ExitOnError)
	alt := fs.Bool("alt", false, "use the alternate PATCH endpoint")
	_ = fs.Parse(args)
	rest := fs.Args()
	if len(rest) != 2 {
		fatalIf(fmt.Errorf("usage: order-status <id> <status> [-alt]"))
	}

	status := model.OrderStatus(rest[1])
	if !status.Valid() {
		fatalIf(fmt.Errorf("unknown status %q", rest[1]))
	}

	token := requireToken(ctx, sess)
	var (
		o   model.Order
		err error
	)
	if *alt {
		o, err = api.UpdateStatusAlt(ctx, token, rest[0], status)
	} else {
		o, err = api.UpdateStatus(ctx, token, rest[0], status)
		if err != nil {
			// 代替経路を案内する
			fmt.Fprintln(os.Stderr, "hint: retry with -alt to use the PATCH endpoint")
		}
	}
	fatalIf(err)
	fmt.Printf("order %s is now %s\n", o.ID, o.Status)
}

func runLogin(ctx context.Context, api *client.AuthService, sess *session.Session, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "admin email")
	password := fs.String("password", "", "admin password")
	_ = fs.Parse(args)

	fatalIf(validator.ValidateLoginForm(*email, *password))

	token, err := api.Login(ctx, *email, *password)
	fatalIf(err)
	fatalIf(sess.SetToken(ctx, token))
	fmt.Println("logged in")
}

// 接続確認。プロキシ経由と直アクセスの両方を試して結果を出す。
func runPing(cfg config.Config) {
	targets := []struct {
		name string
		url  string
	}{
		{"proxied", cfg.APIURL + "/products"},
		{"direct", cfg.DirectAPIURL + "/products"},
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	for _, t := range targets {
		resp, err := httpClient.Get(t.url)
		if err != nil {
			fmt.Printf("%-8s %-50s unreachable: %v\n", t.name, t.url, err)
			continue
		}
		fmt.Printf("%-8s %-50s %d %s\n", t.name, t.url, resp.StatusCode, resp.Header.Get("Content-Type"))
		resp.Body.Close()
	}
}

func serveMock(logger zerolog.Logger, args []string) {
	fs := flag.NewFlagSet("serve-mock", flag.ExitOnError)
	addr := fs.String("addr", ":9090", "listen address")
	_ = fs.Parse(args)

	email := os.Getenv("MOCK_ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	password := os.Getenv("MOCK_ADMIN_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	secret := os.Getenv("MOCK_JWT_SECRET")
	if secret == "" {
		secret = "dev_secret_change_me"
	}

	srv, err := mockapi.New(mockapi.Config{
		AdminEmail:    email,
		AdminPassword: password,
		JWTSecret:     secret,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("mock server init failed")
	}

	logger.Info().Str("addr", *addr).Str("admin", email).Msg("mock backend listening")
	if err := srv.Start(*addr); err != nil {
		logger.Fatal().Err(err).Msg("mock server stopped")
	}
}
