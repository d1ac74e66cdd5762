package bank

import (
	"time"

	"github.com/shopspring/decimal"
)

// DemoUser 為初次啟動時內建的使用者資料。
var DemoUser = User{
	FirstName: "Ravia",
	LastName:  "Begum",
	Email:     "ravia.begum@khanbank.com",
	Phone:     "(555) 123-4567",
	Address:   "123 Banking Street, Finance District, NY 10001",
}

// 開戶餘額與遮罩帳號。
var (
	CheckingOpening = decimal.NewFromInt(300000)
	SavingsOpening  = decimal.NewFromInt(200000)
)

const (
	CheckingNumber = "****1234"
	SavingsNumber  = "****5678"
)

// NewSeedState 建立初始狀態：兩個帳戶各含一筆等於開戶餘額的 "Initial Deposit" 入帳。
func NewSeedState(ids IDGenerator, now time.Time) *AppState {
	now = now.UTC()
	s := &AppState{User: DemoUser}
	s.Accounts.Checking = openAccount(ids, CheckingNumber, CheckingOpening, now)
	s.Accounts.Savings = openAccount(ids, SavingsNumber, SavingsOpening, now)
	return s
}

func openAccount(ids IDGenerator, number string, opening decimal.Decimal, now time.Time) Account {
	a := Account{Balance: decimal.Zero, AccountNumber: number, Transactions: []Transaction{}}
	a.append(Transaction{
		ID:          TxID(ids.NewID()),
		Type:        Credit,
		Description: "Initial Deposit",
		Amount:      opening,
		Date:        now,
	})
	return a
}
