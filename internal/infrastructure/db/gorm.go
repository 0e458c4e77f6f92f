package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"p2plend/internal/domain/approval"
	"p2plend/internal/domain/funding"
	"p2plend/internal/domain/loan"
	"p2plend/internal/domain/outbox"
	"p2plend/internal/domain/repayment"
	"p2plend/internal/domain/wallet"
)

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}
}

func OpenGorm(driver, dsn string, log *zap.SugaredLogger) (*gorm.DB, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}
	db, err := OpenGormWithDialector(d, driver == "sqlite")
	if err != nil {
		return nil, err
	}
	log.Infow("gorm: connected", "driver", driver)
	return db, nil
}

// OpenGormWithDialector opens and pings. singleConn pins the pool to one
// connection; an in-memory sqlite database does not outlive it.
func OpenGormWithDialector(d gorm.Dialector, singleConn bool) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	db, err := gorm.Open(d, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if singleConn {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(30)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates every ledger table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&loan.Loan{},
		&approval.Approval{},
		&wallet.Wallet{},
		&wallet.Transaction{},
		&funding.Funding{},
		&repayment.Repayment{},
		&outbox.Event{},
	)
}
