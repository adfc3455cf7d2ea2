package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kpcalc/internal/engine"
	"kpcalc/pkg/redis"
)

// ErrNotFound возвращается, когда КП или настройки организации отсутствуют.
var ErrNotFound = errors.New("not found")

type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type Storage struct {
	db     *sqlx.DB
	redis  *redis.Client
	logger *zap.Logger
}

// Quote — сохраненное КП: шапка плюс позиции с плоской картой рассчитанных
// величин. Хранится результат движка, не промежуточные фазы.
type Quote struct {
	ID              int64           `db:"id"`
	OrgID           string          `db:"org_id"`
	SellerCompany   string          `db:"seller_company"`
	ClientName      string          `db:"client_name"`
	QuoteCurrency   string          `db:"quote_currency"`
	QuoteDate       time.Time       `db:"quote_date"`
	DeliveryDate    time.Time       `db:"delivery_date"`
	TotalSaleExVAT  decimal.Decimal `db:"total_sale_ex_vat"`
	TotalSaleIncVAT decimal.Decimal `db:"total_sale_inc_vat"`
	TotalProfit     decimal.Decimal `db:"total_profit"`
	CreatedAt       time.Time       `db:"created_at"`

	Products []QuoteProduct `db:"-"`
}

type QuoteProduct struct {
	ID         int64           `db:"id"`
	QuoteID    int64           `db:"quote_id"`
	Position   int             `db:"position"`
	SKU        string          `db:"sku"`
	Name       string          `db:"name"`
	Quantity   decimal.Decimal `db:"quantity"`
	SaleIncVAT decimal.Decimal `db:"sale_inc_vat"`
	ValuesJSON []byte          `db:"values_json"`
}

// Values распаковывает плоскую карту рассчитанных величин позиции.
func (p QuoteProduct) Values() (map[string]decimal.Decimal, error) {
	values := make(map[string]decimal.Decimal)
	if err := json.Unmarshal(p.ValuesJSON, &values); err != nil {
		return nil, fmt.Errorf("unmarshal product values: %w", err)
	}
	return values, nil
}

type adminSettingsRow struct {
	OrgID              string          `db:"org_id"`
	FXRiskPct          decimal.Decimal `db:"fx_risk_pct"`
	AgentCommissionPct decimal.Decimal `db:"agent_commission_pct"`
	DailyInterestRate  decimal.Decimal `db:"daily_interest_rate"`
}

func New(ctx context.Context, cfg Config, redisClient *redis.Client, logger *zap.Logger) (*Storage, error) {
	const operation = "storage.New"

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
	)

	var db *sqlx.DB
	var err error

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to PostgreSQL...")

	err = backoff.RetryNotify(
		func() error {
			db, err = sqlx.ConnectContext(ctx, "postgres", connStr)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err = db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		retryPolicy,
		func(err error, duration time.Duration) {
			logger.Warn("PostgreSQL connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Successfully connected to PostgreSQL")
	return &Storage{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}, nil
}

// AdminSettings возвращает три административные ставки организации.
// Чтение идет через redis; запись в БД инвалидирует кэш.
func (s *Storage) AdminSettings(ctx context.Context, orgID string) (engine.AdminSettings, error) {
	cacheKey := fmt.Sprintf("admin_settings:%s", orgID)

	var cached engine.AdminSettings
	if err := s.redis.GetJSON(ctx, cacheKey, &cached); err == nil {
		return cached, nil
	}

	const query = `
        SELECT org_id, fx_risk_pct, agent_commission_pct, daily_interest_rate
        FROM admin_settings
        WHERE org_id = $1
    `

	var row adminSettingsRow
	err := s.db.GetContext(ctx, &row, query, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return engine.AdminSettings{}, fmt.Errorf("admin settings for %s: %w", orgID, ErrNotFound)
		}
		return engine.AdminSettings{}, fmt.Errorf("failed to get admin settings: %w", err)
	}

	settings := engine.AdminSettings{
		FXRiskPct:          row.FXRiskPct,
		AgentCommissionPct: row.AgentCommissionPct,
		DailyInterestRate:  row.DailyInterestRate,
	}
	if err := s.redis.SetJSON(ctx, cacheKey, settings); err != nil {
		s.logger.Warn("Failed to cache admin settings", zap.Error(err))
	}
	return settings, nil
}

// SaveAdminSettings обновляет ставки организации и сбрасывает кэш.
func (s *Storage) SaveAdminSettings(ctx context.Context, orgID string, settings engine.AdminSettings) error {
	const query = `
        INSERT INTO admin_settings (org_id, fx_risk_pct, agent_commission_pct, daily_interest_rate, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (org_id) DO UPDATE SET
            fx_risk_pct = EXCLUDED.fx_risk_pct,
            agent_commission_pct = EXCLUDED.agent_commission_pct,
            daily_interest_rate = EXCLUDED.daily_interest_rate,
            updated_at = NOW()
    `

	_, err := s.db.ExecContext(ctx, query,
		orgID,
		settings.FXRiskPct,
		settings.AgentCommissionPct,
		settings.DailyInterestRate,
	)
	if err != nil {
		return fmt.Errorf("failed to save admin settings: %w", err)
	}

	if err := s.redis.Del(ctx, fmt.Sprintf("admin_settings:%s", orgID)); err != nil {
		s.logger.Warn("Failed to invalidate admin settings cache", zap.Error(err))
	}
	return nil
}

// SaveQuote сохраняет шапку КП и позиции в одной транзакции.
func (s *Storage) SaveQuote(ctx context.Context, quote Quote) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertQuote = `
        INSERT INTO quotes (
            org_id, seller_company, client_name, quote_currency,
            quote_date, delivery_date,
            total_sale_ex_vat, total_sale_inc_vat, total_profit, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
        RETURNING id
    `

	var quoteID int64
	err = tx.QueryRowContext(ctx, insertQuote,
		quote.OrgID,
		quote.SellerCompany,
		quote.ClientName,
		quote.QuoteCurrency,
		quote.QuoteDate,
		quote.DeliveryDate,
		quote.TotalSaleExVAT,
		quote.TotalSaleIncVAT,
		quote.TotalProfit,
	).Scan(&quoteID)
	if err != nil {
		return 0, fmt.Errorf("failed to save quote: %w", err)
	}

	const insertProduct = `
        INSERT INTO quote_products (quote_id, position, sku, name, quantity, sale_inc_vat, values_json)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	for i, p := range quote.Products {
		if _, err := tx.ExecContext(ctx, insertProduct,
			quoteID, i, p.SKU, p.Name, p.Quantity, p.SaleIncVAT, p.ValuesJSON,
		); err != nil {
			return 0, fmt.Errorf("failed to save quote product %s: %w", p.SKU, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return quoteID, nil
}

// QuoteByID возвращает КП с позициями в исходном порядке.
func (s *Storage) QuoteByID(ctx context.Context, id int64) (*Quote, error) {
	const quoteQuery = `SELECT * FROM quotes WHERE id = $1`

	var quote Quote
	err := s.db.GetContext(ctx, &quote, quoteQuery, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("quote %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	const productsQuery = `SELECT * FROM quote_products WHERE quote_id = $1 ORDER BY position`
	if err := s.db.SelectContext(ctx, &quote.Products, productsQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get quote products: %w", err)
	}
	return &quote, nil
}

// CachedRate читает дневной курс из redis.
func (s *Storage) CachedRate(ctx context.Context, charCode string) (decimal.Decimal, error) {
	var rate decimal.Decimal
	if err := s.redis.GetJSON(ctx, fmt.Sprintf("fx_rate:%s", charCode), &rate); err != nil {
		return decimal.Zero, err
	}
	return rate, nil
}

// CacheRate кладет дневной курс в redis до конца банковского дня.
func (s *Storage) CacheRate(ctx context.Context, charCode string, rate decimal.Decimal) error {
	return s.redis.SetJSON(ctx, fmt.Sprintf("fx_rate:%s", charCode), rate)
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB открывает доступ к соединению для миграций.
func (s *Storage) DB() *sql.DB {
	return s.db.DB
}
