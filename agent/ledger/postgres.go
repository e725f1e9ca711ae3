package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
)

type PostgresConfig struct {
	DSN         string        `envconfig:"DSN" required:"true"`
	DialTimeout time.Duration `split_words:"true" default:"5s"`
}

type orderRow struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              string    `bun:"id,pk"`
	RecordedAt      time.Time `bun:"recorded_at,notnull"`
	CustomerID      string    `bun:"customer_id,notnull"`
	OriginalMessage string    `bun:"original_message,notnull"`
	QuantityKg      *float64  `bun:"quantity_kg"`
	DeliveryDay     *string   `bun:"delivery_day"`
	Address         *string   `bun:"address"`
	District        *string   `bun:"district"`
	PaymentMethod   *string   `bun:"payment_method"`
}

// PostgresLedger stores finalized orders in the orders table.
type PostgresLedger struct {
	db *bun.DB
}

var _ contractx.Ledger = (*PostgresLedger)(nil)

// NewPostgresLedger connects and creates the orders table when missing.
func NewPostgresLedger(ctx context.Context, cfg PostgresConfig) (*PostgresLedger, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	opts := []pgdriver.Option{pgdriver.WithDSN(dsn)}
	if cfg.DialTimeout > 0 {
		opts = append(opts, pgdriver.WithDialTimeout(cfg.DialTimeout))
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(opts...))
	db := bun.NewDB(sqldb, pgdialect.New())

	l := &PostgresLedger{db: db}
	if err := l.ensureTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func NewPostgresLedgerFromDB(db *bun.DB) (*PostgresLedger, error) {
	if db == nil {
		return nil, errors.New("bun db is required")
	}
	return &PostgresLedger{db: db}, nil
}

func (l *PostgresLedger) ensureTable(ctx context.Context) error {
	if _, err := l.db.NewCreateTable().
		Model((*orderRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create orders table: %w", err)
	}
	return nil
}

func (l *PostgresLedger) Append(ctx context.Context, entry contractx.LedgerEntry) error {
	row, err := toOrderRow(entry)
	if err != nil {
		return err
	}
	if _, err := l.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("%w: insert order %s: %v", contractx.ErrLedgerAppend, row.ID, err)
	}
	return nil
}

func (l *PostgresLedger) Close() error {
	return l.db.Close()
}

func toOrderRow(entry contractx.LedgerEntry) (*orderRow, error) {
	if strings.TrimSpace(entry.OrderID) == "" {
		return nil, fmt.Errorf("%w: order id is empty", contractx.ErrLedgerAppend)
	}
	form := entry.Form.Clone()
	return &orderRow{
		ID:              entry.OrderID,
		RecordedAt:      entry.RecordedAt.UTC(),
		CustomerID:      entry.CustomerID,
		OriginalMessage: entry.OriginalMessage,
		QuantityKg:      form.QuantityKg,
		DeliveryDay:     form.DeliveryDay,
		Address:         form.Address,
		District:        form.District,
		PaymentMethod:   form.PaymentMethod,
	}, nil
}
