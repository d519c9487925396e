package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/gateway"
)

// ProductService は /products まわりの型付きAPI
type ProductService struct {
	gw *gateway.Gateway

	// 縮退時に組み込みカタログで置き換えるか
	mockFallback bool
}

func NewProductService(gw *gateway.Gateway, mockFallback bool) *ProductService {
	return &ProductService{gw: gw, mockFallback: mockFallback}
}

// 商品一覧。ゲートウェイが縮退した場合は設定に応じて代替カタログを返す。
func (s *ProductService) List(ctx context.Context) ([]model.Product, error) {
	res, err := s.gw.Get(ctx, "products", gateway.Options{})
	if err != nil {
		return nil, err
	}

	if res.Degraded && s.mockFallback {
		return gateway.MockProducts, nil
	}

	var products []model.Product
	if err := res.Decode(&products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

type CreateProductInput struct {
	Name  string
	Price int64

	// 画像は任意。ImageNameはmultipartのファイル名に使う。
	ImageName string
	Image     io.Reader
}

// 商品登録（multipart、要認証）
func (s *ProductService) Create(ctx context.Context, token string, in CreateProductInput) (model.Product, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("name", in.Name); err != nil {
		return model.Product{}, fmt.Errorf("build form: %w", err)
	}
	if err := w.WriteField("price", strconv.FormatInt(in.Price, 10)); err != nil {
		return model.Product{}, fmt.Errorf("build form: %w", err)
	}
	if in.Image != nil {
		fw, err := w.CreateFormFile("image", in.ImageName)
		if err != nil {
			return model.Product{}, fmt.Errorf("build form: %w", err)
		}
		if _, err := io.Copy(fw, in.Image); err != nil {
			return model.Product{}, fmt.Errorf("read image: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return model.Product{}, fmt.Errorf("build form: %w", err)
	}

	res, err := s.gw.Request(ctx, "products", gateway.Options{
		Method:       http.MethodPost,
		Credentialed: true,
		Token:        token,
		Body:         buf.Bytes(),
		ContentType:  w.FormDataContentType(),
	})
	if err != nil {
		return model.Product{}, err
	}

	var p model.Product
	if err := res.Decode(&p); err != nil {
		return model.Product{}, fmt.Errorf("decode product: %w", err)
	}
	return p, nil
}

// 商品削除（要認証。DELETEは常に直アクセスのベースを使う）
func (s *ProductService) Delete(ctx context.Context, token string, productID string) error {
	_, err := s.gw.Delete(ctx, "products/"+productID, gateway.Options{Token: token})
	return err
}
