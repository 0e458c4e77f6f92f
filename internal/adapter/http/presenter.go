package http

import (
	"time"

	"p2plend/internal/usecase/funding"
	"p2plend/internal/usecase/loan"
	"p2plend/internal/usecase/otp"
	"p2plend/internal/usecase/schedule"
	"p2plend/internal/usecase/settlement"
	"p2plend/internal/usecase/wallet"
)

// Response views render every amount as a major-unit decimal string.

type walletView struct {
	WalletID  string    `json:"wallet_id"`
	OwnerID   string    `json:"owner_id"`
	Balance   string    `json:"balance"`
	Currency  string    `json:"currency"`
	UpdatedAt time.Time `json:"updated_at"`
}

type transactionView struct {
	TransactionID string    `json:"transaction_id"`
	WalletID      string    `json:"wallet_id"`
	Direction     string    `json:"direction"`
	Amount        string    `json:"amount"`
	BalanceBefore string    `json:"balance_before"`
	BalanceAfter  string    `json:"balance_after"`
	Tag           string    `json:"tag"`
	LoanID        string    `json:"loan_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type loanView struct {
	LoanID     string     `json:"loan_id"`
	BorrowerID string     `json:"borrower_id"`
	Requested  string     `json:"requested"`
	TermMonths int        `json:"term_months"`
	Rate       string     `json:"rate"`
	State      string     `json:"state"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type fundingView struct {
	FundingID   string    `json:"funding_id"`
	LoanID      string    `json:"loan_id"`
	LenderID    string    `json:"lender_id"`
	Amount      string    `json:"amount"`
	FundedTotal string    `json:"funded_total"`
	Remaining   string    `json:"remaining"`
	LoanState   string    `json:"loan_state"`
	CreatedAt   time.Time `json:"created_at"`
}

type installmentView struct {
	RepaymentID string     `json:"repayment_id"`
	Seq         int        `json:"seq"`
	DueDate     time.Time  `json:"due_date"`
	Principal   string     `json:"principal"`
	Interest    string     `json:"interest"`
	Total       string     `json:"total"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

type payoutView struct {
	LenderID string `json:"lender_id"`
	Amount   string `json:"amount"`
}

type settlementView struct {
	RepaymentID string       `json:"repayment_id"`
	LoanID      string       `json:"loan_id"`
	Due         string       `json:"due"`
	Payouts     []payoutView `json:"payouts"`
	PaidAt      time.Time    `json:"paid_at"`
}

type initiateView struct {
	TransactionID string    `json:"transaction_id"`
	Kind          string    `json:"kind"`
	Amount        string    `json:"amount"`
	Delivered     bool      `json:"delivered"`
	DeliveryError string    `json:"delivery_error,omitempty"`
	Code          string    `json:"code,omitempty"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type confirmView struct {
	Transaction transactionView `json:"transaction"`
	Balance     string          `json:"balance"`
}

func (a Amounts) wallet(d *wallet.WalletDTO) walletView {
	return walletView{
		WalletID:  d.WalletID,
		OwnerID:   d.OwnerID,
		Balance:   a.Format(d.Balance),
		Currency:  d.Currency,
		UpdatedAt: d.UpdatedAt,
	}
}

func (a Amounts) transaction(d *wallet.TransactionDTO) transactionView {
	return transactionView{
		TransactionID: d.TransactionID,
		WalletID:      d.WalletID,
		Direction:     d.Direction,
		Amount:        a.Format(d.Amount),
		BalanceBefore: a.Format(d.BalanceBefore),
		BalanceAfter:  a.Format(d.BalanceAfter),
		Tag:           d.Tag,
		LoanID:        d.LoanID,
		CreatedAt:     d.CreatedAt,
	}
}

func (a Amounts) loan(d *loan.LoanDTO) loanView {
	return loanView{
		LoanID:     d.LoanID,
		BorrowerID: d.BorrowerID,
		Requested:  a.Format(d.Requested),
		TermMonths: d.TermMonths,
		Rate:       d.Rate.String(),
		State:      d.State,
		ApprovedAt: d.ApprovedAt,
		CreatedAt:  d.CreatedAt,
	}
}

func (a Amounts) funding(d *funding.FundingDTO) fundingView {
	return fundingView{
		FundingID:   d.FundingID,
		LoanID:      d.LoanID,
		LenderID:    d.LenderID,
		Amount:      a.Format(d.Amount),
		FundedTotal: a.Format(d.FundedTotal),
		Remaining:   a.Format(d.Remaining),
		LoanState:   d.LoanState,
		CreatedAt:   d.CreatedAt,
	}
}

func (a Amounts) schedule(ds []schedule.InstallmentDTO) []installmentView {
	out := make([]installmentView, 0, len(ds))
	for _, d := range ds {
		out = append(out, installmentView{
			RepaymentID: d.RepaymentID,
			Seq:         d.Seq,
			DueDate:     d.DueDate,
			Principal:   a.Format(d.Principal),
			Interest:    a.Format(d.Interest),
			Total:       a.Format(d.Total),
			Status:      d.Status,
			PaidAt:      d.PaidAt,
		})
	}
	return out
}

func (a Amounts) settlement(r *settlement.Result) settlementView {
	v := settlementView{
		RepaymentID: r.RepaymentID,
		LoanID:      r.LoanID,
		Due:         a.Format(r.Due),
		Payouts:     make([]payoutView, 0, len(r.Payouts)),
		PaidAt:      r.PaidAt,
	}
	for _, p := range r.Payouts {
		v.Payouts = append(v.Payouts, payoutView{LenderID: p.LenderID, Amount: a.Format(p.Amount)})
	}
	return v
}

func (a Amounts) initiate(r *otp.InitiateResult) initiateView {
	return initiateView{
		TransactionID: r.TransactionID,
		Kind:          r.Kind,
		Amount:        a.Format(r.Amount),
		Delivered:     r.Delivered,
		DeliveryError: r.DeliveryError,
		Code:          r.Code,
		ExpiresAt:     r.ExpiresAt,
	}
}

func (a Amounts) confirm(r *otp.ConfirmResult) confirmView {
	return confirmView{Transaction: a.transaction(r.Transaction), Balance: a.Format(r.Balance)}
}
