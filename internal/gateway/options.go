package gateway

import "encoding/json"

// Options はリクエスト1回分の指定。
// 旧実装の動的なオプションバッグの置き換えで、全フィールドを明示する。
type Options struct {
	Method string // 省略時はGET

	ForceDirect  bool // プロキシを迂回して直アクセスのベースを使う
	Credentialed bool // 認証付きリクエスト（直アクセスのベースを使う）

	Token string // Authorizationヘッダーにそのまま入れる

	Headers map[string]string

	// ボディはどちらか片方。JSONはゲートウェイがエンコードする。
	// Bodyを使う場合（multipartなど）はContentTypeも呼び出し側が渡す。
	JSON        any
	Body        []byte
	ContentType string
}

// Result はリクエストの結果。
// BodyはJSONのバイト列（productsの補正適用後）か、生テキスト。
type Result struct {
	Status   int
	Body     []byte
	IsJSON   bool
	Degraded bool // products読み取りが失敗して空配列に縮退した
}

// BodyをJSONとしてデコードする
func (r *Result) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}
