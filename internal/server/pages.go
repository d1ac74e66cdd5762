package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sharmamusiicc/khanbank/internal/bank"
)

// entry 處理 GET /：已登入直接進入總覽，否則顯示登入頁。
func (s *Server) entry(c *gin.Context) {
	ok, err := s.guard.LoggedIn(c.Request.Context())
	if err != nil {
		s.pageErr(c, err)
		return
	}
	if ok {
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}
	s.views.render(c, http.StatusOK, "login", page{Title: "Sign in"})
}

// login 接受任何送出的表單，設定旗標後導向總覽。
func (s *Server) login(c *gin.Context) {
	if err := s.guard.Login(c.Request.Context()); err != nil {
		s.pageErr(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// logout 只接受 POST；導覽列的登出按鈕以表單送出。
func (s *Server) logout(c *gin.Context) {
	if err := s.guard.Logout(c.Request.Context()); err != nil {
		s.pageErr(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) dashboard(c *gin.Context) {
	st, err := s.svc.State(c.Request.Context())
	if err != nil {
		s.pageErr(c, err)
		return
	}
	s.views.render(c, http.StatusOK, "dashboard", dashboardPage{
		page:      page{Title: "Dashboard", Active: "dashboard", Nav: true},
		FirstName: st.User.FirstName,
		Checking:  st.Accounts.Checking,
		Savings:   st.Accounts.Savings,
		Recent:    bank.RecentTransactions(st, bank.DashboardLimit),
	})
}

func (s *Server) account(c *gin.Context) {
	key := bank.AccountKey(c.Param("key"))
	st, err := s.svc.State(c.Request.Context())
	if err != nil {
		s.pageErr(c, err)
		return
	}
	txs, err := bank.History(st, key)
	if err != nil {
		s.notFound(c)
		return
	}
	a, _ := st.Account(key)
	s.views.render(c, http.StatusOK, "account", accountPage{
		page:         page{Title: key.DisplayName(), Active: string(key), Nav: true},
		Key:          key,
		Name:         key.DisplayName(),
		Account:      *a,
		Transactions: txs,
	})
}

func (s *Server) showTransfer(c *gin.Context) {
	st, err := s.svc.State(c.Request.Context())
	if err != nil {
		s.pageErr(c, err)
		return
	}
	s.renderTransfer(c, http.StatusOK, st, transferForm{}, nil)
}

// submitTransfer 處理 POST /transfer。驗證失敗時保留使用者輸入並顯示錯誤；
// 成功時清空表單並顯示新的餘額。
func (s *Server) submitTransfer(c *gin.Context) {
	form := transferForm{
		From:        c.PostForm("fromAccount"),
		To:          c.PostForm("toAccount"),
		Amount:      c.PostForm("amount"),
		Description: c.PostForm("description"),
	}
	req := bank.TransferRequest{
		From:        bank.AccountKey(form.From),
		To:          bank.AccountKey(form.To),
		Amount:      parseAmount(form.Amount),
		Description: form.Description,
	}

	ctx := c.Request.Context()
	st, res, err := s.svc.Transfer(ctx, req)
	if err != nil {
		if !bank.IsValidation(err) {
			s.pageErr(c, err)
			return
		}
		cur, lerr := s.svc.State(ctx)
		if lerr != nil {
			s.pageErr(c, lerr)
			return
		}
		s.renderTransfer(c, statusFor(err), cur, form, &message{Kind: "error", Text: messageFor(err)})
		return
	}
	s.renderTransfer(c, http.StatusOK, st, transferForm{}, &message{Kind: "success", Text: transferredMessage(res.Debit.Amount)})
}

func (s *Server) renderTransfer(c *gin.Context, code int, st *bank.AppState, form transferForm, msg *message) {
	s.views.render(c, code, "transfer", transferPage{
		page:     page{Title: "Transfer", Active: "transfer", Nav: true},
		Checking: st.Accounts.Checking,
		Savings:  st.Accounts.Savings,
		Keys:     bank.AccountKeys,
		Form:     form,
		Message:  msg,
	})
}

func (s *Server) showProfile(c *gin.Context) {
	st, err := s.svc.State(c.Request.Context())
	if err != nil {
		s.pageErr(c, err)
		return
	}
	s.views.render(c, http.StatusOK, "profile", profilePage{
		page: page{Title: "Profile", Active: "profile", Nav: true},
		User: st.User,
	})
}

func (s *Server) submitProfile(c *gin.Context) {
	u := bank.User{
		FirstName: c.PostForm("firstName"),
		LastName:  c.PostForm("lastName"),
		Email:     c.PostForm("email"),
		Phone:     c.PostForm("phone"),
		Address:   c.PostForm("address"),
	}
	updated, err := s.svc.UpdateProfile(c.Request.Context(), u)
	if err != nil {
		s.pageErr(c, err)
		return
	}
	s.views.render(c, http.StatusOK, "profile", profilePage{
		page:    page{Title: "Profile", Active: "profile", Nav: true},
		User:    *updated,
		Message: &message{Kind: "success", Text: profileUpdatedMessage},
	})
}

func (s *Server) notFound(c *gin.Context) {
	s.views.render(c, http.StatusNotFound, "notfound", page{Title: "Not found", Nav: true})
}

func (s *Server) pageErr(c *gin.Context, err error) {
	s.log.Error("page failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
	c.String(http.StatusInternalServerError, messageFor(err))
}
