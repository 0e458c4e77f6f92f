package http

import (
	"github.com/labstack/echo/v4"
)

// Routes groups the handlers and the middleware chains mounted by Register.
type Routes struct {
	Health       *Handler
	Wallets      *WalletHandler
	Loans        *LoanHandler
	Approvals    *ApprovalHandler
	Fundings     *FundingHandler
	Settlements  *SettlementHandler
	Transactions *TransactionHandler

	// Auth runs on every route except /health.
	Auth []echo.MiddlewareFunc
	// OTP runs additionally on /transactions*.
	OTP []echo.MiddlewareFunc
}

func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)

	api := e.Group("", r.Auth...)

	api.POST("/wallets", r.Wallets.Open)
	api.GET("/wallets/me", r.Wallets.Me)
	api.GET("/wallets/me/transactions", r.Wallets.History)

	api.POST("/loans", r.Loans.CreateLoan)
	api.GET("/loans/:loan_id", r.Loans.GetLoan)
	api.POST("/loans/:loan_id/approve", r.Approvals.ApproveLoan)
	api.POST("/loans/:loan_id/reject", r.Approvals.RejectLoan)
	api.POST("/loans/:loan_id/fundings", r.Fundings.FundLoan)
	api.GET("/loans/:loan_id/schedule", r.Fundings.Schedule)
	api.POST("/loans/:loan_id/schedule", r.Fundings.RegenerateSchedule)

	api.POST("/repayments/:repayment_id/settle", r.Settlements.Settle)

	tx := api.Group("/transactions", r.OTP...)
	tx.POST("", r.Transactions.Initiate)
	tx.POST("/:transaction_id/confirm", r.Transactions.Confirm)
	tx.DELETE("/:transaction_id", r.Transactions.Cancel)
}
