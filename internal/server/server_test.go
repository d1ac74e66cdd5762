// internal/server/server_test.go
//
// 本檔為 server 層的整合測試 (Integration Test)。
// 以 httptest.Server 模擬完整 HTTP 流程，驗證 API 與頁面、錯誤代碼映射、
// 每次成功變更後狀態已寫入儲存層，以及登入旗標與冪等快取。
package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharmamusiicc/khanbank/internal/bank"
	"github.com/sharmamusiicc/khanbank/internal/session"
	"github.com/sharmamusiicc/khanbank/internal/storage"
)

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) NewID() string { return fmt.Sprintf("tx-%d", g.n.Add(1)) }

// testClock 為可前進的時鐘，供冪等快取過期測試使用。
type testClock struct{ offset atomic.Int64 }

func (c *testClock) now() time.Time {
	return time.Now().Add(time.Duration(c.offset.Load()))
}

func (c *testClock) advance(d time.Duration) { c.offset.Add(int64(d)) }

type testEnv struct {
	ts    *httptest.Server
	cli   *http.Client
	store *storage.Store
	kv    storage.Backend
	clock *testClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	kv := storage.NewMemoryBackend()
	ids := &seqIDs{}
	store := storage.NewStore(kv, ids, nil)
	svc := bank.NewService(store, bank.NewLedger(ids, nil, bank.DescriptionShared), logger)
	srv, err := NewServer(svc, session.NewGuard(store, logger), kv, time.Hour, logger)
	require.NoError(t, err)
	clock := &testClock{}
	srv.now = clock.now

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	cli := ts.Client()
	// 不自動跟隨導向，才能檢查 Location。
	cli.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }
	return &testEnv{ts: ts, cli: cli, store: store, kv: kv, clock: clock}
}

// doJSON 送出 JSON 請求並檢查狀態碼；out 非 nil 時解析回應。
func (e *testEnv) doJSON(t *testing.T, method, path string, body any, wantCode int, out any, headers ...string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := e.cli.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantCode, resp.StatusCode, "%s %s: %s", method, path, raw)
	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return resp
}

// page 取得頁面並回傳狀態碼、Location 與內文。
func (e *testEnv) page(t *testing.T, method, path string, form url.Values) (int, string, string) {
	t.Helper()
	var resp *http.Response
	var err error
	if method == http.MethodPost {
		resp, err = e.cli.PostForm(e.ts.URL+path, form)
	} else {
		resp, err = e.cli.Get(e.ts.URL + path)
	}
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get("Location"), string(raw)
}

func (e *testEnv) balances(t *testing.T) (checking, savings string) {
	t.Helper()
	st, err := e.store.Load(context.Background())
	require.NoError(t, err)
	return st.Accounts.Checking.Balance.String(), st.Accounts.Savings.Balance.String()
}

type transferResponse struct {
	Message  string           `json:"message"`
	Debit    bank.Transaction `json:"debit"`
	Credit   bank.Transaction `json:"credit"`
	Accounts map[string]struct {
		Balance decimal.Decimal `json:"balance"`
	} `json:"accounts"`
}

func TestAPIFlowPersists(t *testing.T) {
	e := newTestEnv(t)

	// 健康檢查不需登入
	var health map[string]string
	e.doJSON(t, "GET", "/api/v1/health", nil, 200, &health)
	assert.Equal(t, "ok", health["status"])

	// 未登入 → 401
	var errBody map[string]string
	e.doJSON(t, "GET", "/api/v1/dashboard", nil, 401, &errBody)
	assert.Equal(t, "login required", errBody["error"])

	e.doJSON(t, "POST", "/api/v1/session", nil, 200, nil)

	// 1️⃣ 總覽：種子資料
	var dash struct {
		User     bank.User `json:"user"`
		Accounts map[string]struct {
			Name          string          `json:"name"`
			AccountNumber string          `json:"accountNumber"`
			Balance       decimal.Decimal `json:"balance"`
		} `json:"accounts"`
		Recent []bank.LabeledTransaction `json:"recent"`
	}
	e.doJSON(t, "GET", "/api/v1/dashboard", nil, 200, &dash)
	assert.Equal(t, "Ravia", dash.User.FirstName)
	assert.Equal(t, "300000", dash.Accounts["checking"].Balance.String())
	assert.Equal(t, "****5678", dash.Accounts["savings"].AccountNumber)
	assert.Len(t, dash.Recent, 2)

	// 2️⃣ 轉帳 5000：checking → savings
	var tr transferResponse
	e.doJSON(t, "POST", "/api/v1/transfer", map[string]any{"from": "checking", "to": "savings", "amount": 5000}, 200, &tr)
	assert.Equal(t, "Successfully transferred $5,000.00!", tr.Message)
	assert.Equal(t, "Transfer to Savings", tr.Debit.Description)
	assert.Equal(t, "Transfer from Checking", tr.Credit.Description)
	assert.Equal(t, "295000", tr.Accounts["checking"].Balance.String())
	assert.Equal(t, "205000", tr.Accounts["savings"].Balance.String())

	// 已寫入儲存層
	c, s := e.balances(t)
	assert.Equal(t, "295000", c)
	assert.Equal(t, "205000", s)

	// 3️⃣ 錯誤情境：狀態不變
	cases := []struct {
		body map[string]any
		code int
		msg  string
	}{
		{map[string]any{"from": "checking", "to": "savings", "amount": 999999999}, 409, "Insufficient funds"},
		{map[string]any{"from": "checking", "to": "checking", "amount": 10}, 400, "Cannot transfer to the same account"},
		{map[string]any{"from": "", "to": "savings", "amount": 10}, 400, "Please select both accounts"},
		{map[string]any{"from": "checking", "to": "savings", "amount": "-1"}, 400, "Amount must be greater than 0"},
	}
	for _, tc := range cases {
		var body map[string]string
		e.doJSON(t, "POST", "/api/v1/transfer", tc.body, tc.code, &body)
		assert.Equal(t, tc.msg, body["error"])
	}
	c, s = e.balances(t)
	assert.Equal(t, "295000", c)
	assert.Equal(t, "205000", s)

	// JSON 格式錯誤 → 400
	req, _ := http.NewRequest("POST", e.ts.URL+"/api/v1/transfer", strings.NewReader("{bad json}"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.cli.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 400, resp.StatusCode)

	// 4️⃣ 單一帳戶：新到舊
	var acct struct {
		Name         string             `json:"name"`
		Transactions []bank.Transaction `json:"transactions"`
	}
	e.doJSON(t, "GET", "/api/v1/accounts/savings", nil, 200, &acct)
	assert.Equal(t, "Savings", acct.Name)
	require.Len(t, acct.Transactions, 2)
	assert.Equal(t, "Transfer from Checking", acct.Transactions[0].Description)
	e.doJSON(t, "GET", "/api/v1/accounts/brokerage", nil, 404, nil)

	// 5️⃣ 個人資料整批取代
	var upd struct {
		Message string    `json:"message"`
		User    bank.User `json:"user"`
	}
	e.doJSON(t, "PUT", "/api/v1/profile", bank.User{FirstName: "Nadia", Email: "nadia@example.com"}, 200, &upd)
	assert.Equal(t, "Profile updated successfully!", upd.Message)
	var u bank.User
	e.doJSON(t, "GET", "/api/v1/profile", nil, 200, &u)
	assert.Equal(t, bank.User{FirstName: "Nadia", Email: "nadia@example.com"}, u)

	// /api 與 /api/v1 指向同一組端點
	e.doJSON(t, "GET", "/api/profile", nil, 200, &u)
	assert.Equal(t, "Nadia", u.FirstName)

	// 6️⃣ 登出後 → 401，資料仍在
	e.doJSON(t, "DELETE", "/api/v1/session", nil, 200, nil)
	e.doJSON(t, "GET", "/api/v1/dashboard", nil, 401, nil)
	c, _ = e.balances(t)
	assert.Equal(t, "295000", c)
}

func TestIdempotentTransfer(t *testing.T) {
	e := newTestEnv(t)
	e.doJSON(t, "POST", "/api/v1/session", nil, 200, nil)

	body := map[string]any{"from": "checking", "to": "savings", "amount": "5000", "description": "rent"}

	var first, second transferResponse
	resp := e.doJSON(t, "POST", "/api/v1/transfer", body, 200, &first, "Idempotency-Key", "abc-123")
	assert.Empty(t, resp.Header.Get("X-Idempotency-Hit"))

	resp = e.doJSON(t, "POST", "/api/v1/transfer", body, 200, &second, "Idempotency-Key", "abc-123")
	assert.Equal(t, "true", resp.Header.Get("X-Idempotency-Hit"))
	assert.Equal(t, first.Debit.ID, second.Debit.ID)
	assert.Equal(t, "rent", second.Credit.Description)

	c, s := e.balances(t)
	assert.Equal(t, "295000", c)
	assert.Equal(t, "205000", s)

	// 不同的 key 視為新的請求
	e.doJSON(t, "POST", "/api/v1/transfer", body, 200, nil, "Idempotency-Key", "abc-124")
	c, _ = e.balances(t)
	assert.Equal(t, "290000", c)

	// 驗證失敗的回應同樣會被回放
	bad := map[string]any{"from": "checking", "to": "savings", "amount": 999999999}
	e.doJSON(t, "POST", "/api/v1/transfer", bad, 409, nil, "Idempotency-Key", "big")
	resp = e.doJSON(t, "POST", "/api/v1/transfer", bad, 409, nil, "Idempotency-Key", "big")
	assert.Equal(t, "true", resp.Header.Get("X-Idempotency-Hit"))
}

func TestIdempotencyEntriesExpire(t *testing.T) {
	e := newTestEnv(t)
	e.doJSON(t, "POST", "/api/v1/session", nil, 200, nil)

	body := map[string]any{"from": "checking", "to": "savings", "amount": "100"}
	e.doJSON(t, "POST", "/api/v1/transfer", body, 200, nil, "Idempotency-Key", "k1")
	resp := e.doJSON(t, "POST", "/api/v1/transfer", body, 200, nil, "Idempotency-Key", "k1")
	assert.Equal(t, "true", resp.Header.Get("X-Idempotency-Hit"))

	// 過期後同一個 key 重新執行，並以新的回應取代舊項目
	e.clock.advance(time.Hour + time.Second)
	resp = e.doJSON(t, "POST", "/api/v1/transfer", body, 200, nil, "Idempotency-Key", "k1")
	assert.Empty(t, resp.Header.Get("X-Idempotency-Hit"))
	c, _ := e.balances(t)
	assert.Equal(t, "299800", c)

	resp = e.doJSON(t, "POST", "/api/v1/transfer", body, 200, nil, "Idempotency-Key", "k1")
	assert.Equal(t, "true", resp.Header.Get("X-Idempotency-Hit"))

	sum := sha256.Sum256([]byte("k1"))
	raw, err := e.kv.Get(context.Background(), "idem:"+hex.EncodeToString(sum[:]))
	require.NoError(t, err)
	var cached cachedResponse
	require.NoError(t, json.Unmarshal(raw, &cached))
	assert.True(t, cached.Expires.After(e.clock.now()))
}

func TestTransferAmountInputs(t *testing.T) {
	e := newTestEnv(t)
	e.doJSON(t, "POST", "/api/v1/session", nil, 200, nil)

	// 表單：無法解析或不足一分的金額都視為 0
	forms := []struct {
		amount string
		code   int
		msg    string
	}{
		{"abc", 400, "Amount must be greater than 0"},
		{"", 400, "Amount must be greater than 0"},
		{"0.001", 400, "Amount must be greater than 0"},
		{"1e-200000000", 400, "Amount must be greater than 0"},
		{strings.Repeat("1", 40), 400, "Amount must be greater than 0"},
		{"1e200000000", 409, "Insufficient funds"},
	}
	for _, f := range forms {
		t.Run("form "+f.amount, func(t *testing.T) {
			form := url.Values{"fromAccount": {"checking"}, "toAccount": {"savings"}, "amount": {f.amount}}
			code, _, body := e.page(t, "POST", "/transfer", form)
			assert.Equal(t, f.code, code)
			assert.Contains(t, body, f.msg)
		})
	}

	// JSON：字串無法解析為數字時是請求格式錯誤
	apis := []struct {
		amount any
		code   int
		msg    string
	}{
		{"0.001", 400, "Amount must be greater than 0"},
		{"1e-200000000", 400, "Amount must be greater than 0"},
		{json.Number("1e-200000000"), 400, "Amount must be greater than 0"},
		{"1e200000000", 409, "Insufficient funds"},
		{json.Number("1e200000000"), 409, "Insufficient funds"},
		{"abc", 400, ""},
		{"", 400, ""},
	}
	for _, a := range apis {
		t.Run(fmt.Sprintf("api %v", a.amount), func(t *testing.T) {
			var body map[string]string
			e.doJSON(t, "POST", "/api/v1/transfer", map[string]any{"from": "checking", "to": "savings", "amount": a.amount}, a.code, &body)
			if a.msg != "" {
				assert.Equal(t, a.msg, body["error"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}

	c, s := e.balances(t)
	assert.Equal(t, "300000", c)
	assert.Equal(t, "200000", s)

	// 不足一分的部分四捨五入
	var tr transferResponse
	e.doJSON(t, "POST", "/api/v1/transfer", map[string]any{"from": "checking", "to": "savings", "amount": "12.345"}, 200, &tr)
	assert.Equal(t, "Successfully transferred $12.35!", tr.Message)
	assert.Equal(t, "12.35", tr.Debit.Amount.String())

	code, _, body := e.page(t, "POST", "/transfer", url.Values{"fromAccount": {"checking"}, "toAccount": {"savings"}, "amount": {"0.005"}})
	assert.Equal(t, 200, code)
	assert.Contains(t, body, "Successfully transferred $0.01!")

	c, s = e.balances(t)
	assert.Equal(t, "299987.64", c)
	assert.Equal(t, "200012.36", s)
}

func TestRequestID(t *testing.T) {
	e := newTestEnv(t)

	resp := e.doJSON(t, "GET", "/api/v1/health", nil, 200, nil)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = e.doJSON(t, "GET", "/api/v1/health", nil, 200, nil, "X-Request-ID", "req-42")
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
}

func TestPagesFlow(t *testing.T) {
	e := newTestEnv(t)

	// 未登入 → 導向入口頁
	code, loc, _ := e.page(t, "GET", "/dashboard", nil)
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/", loc)

	code, _, body := e.page(t, "GET", "/", nil)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `id="loginForm"`)

	code, loc, _ = e.page(t, "POST", "/login", url.Values{"username": {"ravia"}})
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/dashboard", loc)

	// 已登入時入口頁直接導向總覽
	code, loc, _ = e.page(t, "GET", "/", nil)
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/dashboard", loc)

	code, _, body = e.page(t, "GET", "/dashboard", nil)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `<span id="userName">Ravia</span>`)
	assert.Contains(t, body, "$300,000.00")
	assert.Contains(t, body, "$200,000.00")
	assert.Contains(t, body, "Initial Deposit")
	assert.Contains(t, body, `<form method="post" action="/logout"`)

	// 轉帳表單
	code, _, body = e.page(t, "GET", "/transfer", nil)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `id="transferForm"`)
	assert.NotContains(t, body, `id="transferMessage"`)

	form := url.Values{"fromAccount": {"checking"}, "toAccount": {"savings"}, "amount": {"5000"}}
	code, _, body = e.page(t, "POST", "/transfer", form)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, "Successfully transferred $5,000.00!")
	assert.Contains(t, body, "$295,000.00")
	assert.Contains(t, body, "$205,000.00")

	rejects := []struct {
		form url.Values
		code int
		msg  string
	}{
		{url.Values{"fromAccount": {"checking"}, "toAccount": {"checking"}, "amount": {"1"}}, 400, "Cannot transfer to the same account"},
		{url.Values{"toAccount": {"savings"}, "amount": {"1"}}, 400, "Please select both accounts"},
		{url.Values{"fromAccount": {"checking"}, "toAccount": {"savings"}, "amount": {"abc"}}, 400, "Amount must be greater than 0"},
		{url.Values{"fromAccount": {"savings"}, "toAccount": {"checking"}, "amount": {"999999999"}}, 409, "Insufficient funds"},
	}
	for _, r := range rejects {
		code, _, body = e.page(t, "POST", "/transfer", r.form)
		assert.Equal(t, r.code, code)
		assert.Contains(t, body, r.msg)
		assert.Contains(t, body, `class="message error"`)
	}
	c, s := e.balances(t)
	assert.Equal(t, "295000", c)
	assert.Equal(t, "205000", s)

	// 帳戶頁
	code, _, body = e.page(t, "GET", "/accounts/savings", nil)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `id="savingsTransactions"`)
	assert.Contains(t, body, "Transfer from Checking")
	assert.Less(t, strings.Index(body, "Transfer from Checking"), strings.Index(body, "Initial Deposit"))

	code, _, _ = e.page(t, "GET", "/accounts/brokerage", nil)
	assert.Equal(t, 404, code)

	// 個人資料
	code, _, body = e.page(t, "GET", "/profile", nil)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, `value="ravia.begum@khanbank.com"`)

	update := url.Values{
		"firstName": {"Nadia"}, "lastName": {"Rahman"}, "email": {"nadia@khanbank.com"},
		"phone": {""}, "address": {"1 Main St"},
	}
	code, _, body = e.page(t, "POST", "/profile", update)
	assert.Equal(t, 200, code)
	assert.Contains(t, body, "Profile updated successfully!")
	assert.Contains(t, body, `<h1 id="profileName">Nadia Rahman</h1>`)

	st, err := e.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bank.User{FirstName: "Nadia", LastName: "Rahman", Email: "nadia@khanbank.com", Address: "1 Main St"}, st.User)

	// 登出
	// 登出只接受 POST
	code, _, _ = e.page(t, "GET", "/logout", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _, _ = e.page(t, "GET", "/dashboard", nil)
	assert.Equal(t, 200, code)

	code, loc, _ = e.page(t, "POST", "/logout", nil)
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/", loc)
	code, loc, _ = e.page(t, "GET", "/transfer", nil)
	assert.Equal(t, http.StatusFound, code)
	assert.Equal(t, "/", loc)
}

func TestUnknownRoutes(t *testing.T) {
	e := newTestEnv(t)

	var body map[string]string
	e.doJSON(t, "GET", "/api/v1/nope", nil, 404, &body)
	assert.Equal(t, "not found", body["error"])

	code, _, _ := e.page(t, "GET", "/nope", nil)
	assert.Equal(t, 404, code)
}
