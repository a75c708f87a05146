package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kirillm/dashboard-bot/internal/domain"
	"github.com/kirillm/dashboard-bot/internal/storage/repository"
)

// Переэкспорт типов репозиториев для вызывающего кода
type (
	PnLSnapshot  = repository.PnLSnapshot
	ActionRecord = repository.ActionRecord
)

// PostgresStorage является фасадом для работы с PostgreSQL через репозитории.
// Журнал необязателен для дашборда: его отключение не трогает опрос.
type PostgresStorage struct {
	db        *sql.DB
	snapshots *repository.SnapshotRepository
	actions   *repository.ActionRepository
}

func NewPostgresStorage(host string, port int, user, password, dbname, sslmode string, maxOpenConns, maxIdleConns int, connMaxLifetime time.Duration) (*PostgresStorage, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDatabaseConnection, err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDatabaseConnection, err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	storage := &PostgresStorage{
		db:        db,
		snapshots: repository.NewSnapshotRepository(db),
		actions:   repository.NewActionRepository(db),
	}

	if err := storage.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) migrate() error {
	migrations := []string{
		// История срезов аналитики
		`CREATE TABLE IF NOT EXISTS pnl_snapshots (
			id BIGSERIAL PRIMARY KEY,
			period VARCHAR(20) NOT NULL,
			total_trades INTEGER NOT NULL,
			winning_trades INTEGER NOT NULL,
			losing_trades INTEGER NOT NULL,
			total_profit_loss DECIMAL(20, 8) NOT NULL,
			total_pnl_pct DECIMAL(10, 4) NOT NULL,
			win_rate DECIMAL(10, 4),
			portfolio_value DECIMAL(20, 8) NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		// Журнал команд оператора
		`CREATE TABLE IF NOT EXISTS action_log (
			id BIGSERIAL PRIMARY KEY,
			action VARCHAR(50) NOT NULL,
			detail TEXT,
			success BOOLEAN NOT NULL,
			error TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pnl_snapshots_period ON pnl_snapshots(period)`,
		`CREATE INDEX IF NOT EXISTS idx_pnl_snapshots_created_at ON pnl_snapshots(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_action_log_created_at ON action_log(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// ==================== PNL SNAPSHOTS ====================

func (s *PostgresStorage) SavePnLSnapshot(snapshot *PnLSnapshot) error {
	return s.snapshots.Save(snapshot)
}

func (s *PostgresStorage) GetRecentSnapshots(period string, limit int) ([]PnLSnapshot, error) {
	return s.snapshots.GetRecent(period, limit)
}

// ==================== ACTION LOG ====================

func (s *PostgresStorage) SaveAction(rec *ActionRecord) error {
	return s.actions.Save(rec)
}

func (s *PostgresStorage) GetRecentActions(limit int) ([]ActionRecord, error) {
	return s.actions.GetRecent(limit)
}

// Close закрывает соединение с базой данных
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
