package validator

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

// FieldErrors はフィールド名→メッセージ。
// 画面側は該当フィールドの横にそのまま出す。ネットワーク層には届かない。
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	ok := errors.As(err, &fe)
	return fe, ok
}

// 連絡先は10桁の数字
var contactRe = regexp.MustCompile(`^\d{10}$`)

// 注文フォームの入力を検証
func ValidateOrderForm(buyerName, buyerContact, deliveryAddress string) error {
	errs := FieldErrors{}

	if strings.TrimSpace(buyerName) == "" {
		errs["buyer_name"] = "Name is required"
	}

	contact := strings.TrimSpace(buyerContact)
	if contact == "" {
		errs["buyer_contact"] = "Contact number is required"
	} else if !contactRe.MatchString(contact) {
		errs["buyer_contact"] = "Please enter a valid 10-digit contact number"
	}

	if strings.TrimSpace(deliveryAddress) == "" {
		errs["delivery_address"] = "Delivery address is required"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// 商品フォームの入力を検証
func ValidateProductForm(name string, price int64) error {
	errs := FieldErrors{}

	if strings.TrimSpace(name) == "" {
		errs["name"] = "Product name is required"
	}
	if price <= 0 {
		errs["price"] = "Price must be a positive number"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ログインフォームの入力を検証
func ValidateLoginForm(email, password string) error {
	errs := FieldErrors{}

	if strings.TrimSpace(email) == "" {
		errs["email"] = "Email is required"
	}
	if password == "" {
		errs["password"] = "Password is required"
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
