// internal/server/views.go
//
// HTML 頁面的模板載入與資料模型。每個頁面模板與 layout 組成獨立的模板集合，
// 以 "layout" 為進入點執行。
package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sharmamusiicc/khanbank/internal/bank"
	"github.com/sharmamusiicc/khanbank/internal/format"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = template.FuncMap{
	"currency": format.Currency,
	"date":     func(t time.Time) string { return format.Date(t, nil) },
	"signed": func(amount decimal.Decimal, typ bank.TxType) string {
		return format.Signed(amount, typ == bank.Credit)
	},
}

var pageNames = []string{"login", "dashboard", "account", "transfer", "profile", "notfound"}

// views 保存各頁面已解析的模板。
type views map[string]*template.Template

func loadViews() (views, error) {
	v := make(views, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.tmpl", "templates/"+name+".tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		v[name] = t
	}
	return v, nil
}

// render 先寫入緩衝區，模板出錯時不會送出半頁內容。
func (v views) render(c *gin.Context, code int, name string, data any) {
	t, ok := v[name]
	if !ok {
		c.String(http.StatusInternalServerError, "unknown page %q", name)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		c.Error(err)
		c.String(http.StatusInternalServerError, "template error")
		return
	}
	c.Data(code, "text/html; charset=utf-8", buf.Bytes())
}

// message 為頁面上的暫時訊息；Kind 為 "success" 或 "error"。
type message struct {
	Kind string
	Text string
}

type page struct {
	Title  string
	Active string
	Nav    bool
}

type dashboardPage struct {
	page
	FirstName string
	Checking  bank.Account
	Savings   bank.Account
	Recent    []bank.LabeledTransaction
}

type accountPage struct {
	page
	Key          bank.AccountKey
	Name         string
	Account      bank.Account
	Transactions []bank.Transaction
}

type transferForm struct {
	From, To, Amount, Description string
}

type transferPage struct {
	page
	Checking bank.Account
	Savings  bank.Account
	Keys     []bank.AccountKey
	Form     transferForm
	Message  *message
}

type profilePage struct {
	page
	User    bank.User
	Message *message
}
