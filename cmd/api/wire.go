package main

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"p2plend/internal/adapter/notify"
	"p2plend/internal/adapter/pendingstore"
	"p2plend/internal/adapter/repository/sqlstore"
	"p2plend/internal/config"
	"p2plend/internal/domain/pending"
	"p2plend/internal/logger"
	"p2plend/internal/usecase/approval"
	"p2plend/internal/usecase/funding"
	"p2plend/internal/usecase/loan"
	"p2plend/internal/usecase/otp"
	"p2plend/internal/usecase/schedule"
	"p2plend/internal/usecase/settlement"
	"p2plend/internal/usecase/wallet"
	"p2plend/pkg/keylock"
	"p2plend/pkg/money"
)

type usecases struct {
	wallets     *wallet.Usecase
	loans       *loan.Usecase
	approvals   *approval.Usecase
	schedules   *schedule.Usecase
	fundings    *funding.Usecase
	settlements *settlement.Usecase
	otps        *otp.Usecase
}

func buildUsecases(cfg *config.Config, gdb *gorm.DB, rdb *redis.Client, log *zap.SugaredLogger) (*usecases, error) {
	p := cfg.Policy
	locks := keylock.New()
	tx := sqlstore.NewGormUoW(gdb)
	reads := tx.Repos()

	wallets := wallet.NewUsecase(reads.Wallets, tx, locks, p.Currency, log.Named("wallet"))
	schedules := schedule.NewUsecase(reads.Repayments, tx, locks, schedule.Policy{
		Count:    p.InstallmentCount,
		Interval: p.InstallmentInterval,
	}, log.Named("schedule"))

	otpPolicy, err := otpPolicy(p)
	if err != nil {
		return nil, err
	}
	sender, err := newSender(cfg, log)
	if err != nil {
		return nil, err
	}

	return &usecases{
		wallets:   wallets,
		loans:     loan.NewUsecase(reads.Loans, money.Amount(p.MinLoan), log.Named("loan")),
		approvals: approval.NewUsecase(tx, locks, log.Named("approval")),
		schedules: schedules,
		fundings:  funding.NewUsecase(reads.Wallets, tx, locks, schedules, log.Named("funding")),
		settlements: settlement.NewUsecase(settlement.Repos{
			Loans:      reads.Loans,
			Wallets:    reads.Wallets,
			Fundings:   reads.Fundings,
			Repayments: reads.Repayments,
		}, tx, locks, settlement.RemainderPolicy(p.RemainderPolicy), log.Named("settlement"), logger.Alert(log, "settlement.fatal")),
		otps: otp.NewUsecase(newPendingStore(cfg, rdb, log), wallets, sender, otpPolicy, log.Named("otp")),
	}, nil
}

func otpPolicy(p config.Policy) (otp.Policy, error) {
	patterns, err := p.ProviderPatterns()
	if err != nil {
		return otp.Policy{}, err
	}
	providers := make(map[string]otp.Provider, len(p.Providers))
	for name, pr := range p.Providers {
		providers[name] = otp.Provider{Kind: pr.Kind, Pattern: patterns[name]}
	}
	return otp.Policy{
		MinAmount:         money.Amount(p.MinTransaction),
		Providers:         providers,
		CodeLength:        p.OTPCodeLength,
		Expiry:            p.OTPExpiry,
		MaxAttempts:       p.OTPMaxAttempts,
		EchoCodeOnFailure: p.EchoCodeOnFailure,
	}, nil
}

func newPendingStore(cfg *config.Config, rdb *redis.Client, log *zap.SugaredLogger) pending.Store {
	if cfg.PendingStore == "memory" {
		return pendingstore.NewMemory()
	}
	return pendingstore.NewRedis(rdb, log.Named("pending"))
}

func newSender(cfg *config.Config, log *zap.SugaredLogger) (otp.Sender, error) {
	switch cfg.Notifier {
	case "log":
		return notify.NewLog(log.Named("notify")), nil
	case "sendgrid":
		return notify.NewSendGrid(cfg.SendGridAPIKey, cfg.SendGridFrom, ""), nil
	case "sms":
		return notify.NewSMSGateway(cfg.SMSGatewayURL, cfg.SMSGatewayKey), nil
	default:
		return nil, fmt.Errorf("unsupported notifier %q", cfg.Notifier)
	}
}

func idempotencyTTL(cfg *config.Config) time.Duration {
	return time.Duration(cfg.IdempTTLSecs) * time.Second
}
