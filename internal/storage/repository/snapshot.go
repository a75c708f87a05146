package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// PnLSnapshot — один сохранённый срез аналитики
type PnLSnapshot struct {
	ID              int64
	Period          string
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	TotalProfitLoss float64
	TotalPnLPct     float64
	WinRate         *float64
	PortfolioValue  float64
	CreatedAt       time.Time
}

// SnapshotRepository управляет историей срезов аналитики
type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save сохраняет срез аналитики
func (r *SnapshotRepository) Save(s *PnLSnapshot) error {
	query := `
		INSERT INTO pnl_snapshots (period, total_trades, winning_trades, losing_trades,
			total_profit_loss, total_pnl_pct, win_rate, portfolio_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id`

	err := r.db.QueryRow(query,
		s.Period, s.TotalTrades, s.WinningTrades, s.LosingTrades,
		s.TotalProfitLoss, s.TotalPnLPct, s.WinRate, s.PortfolioValue,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to save pnl snapshot: %w", err)
	}
	return nil
}

// GetRecent возвращает последние срезы по периоду
func (r *SnapshotRepository) GetRecent(period string, limit int) ([]PnLSnapshot, error) {
	query := `
		SELECT id, period, total_trades, winning_trades, losing_trades,
			total_profit_loss, total_pnl_pct, win_rate, portfolio_value, created_at
		FROM pnl_snapshots
		WHERE period = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(query, period, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pnl snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []PnLSnapshot
	for rows.Next() {
		var s PnLSnapshot
		err := rows.Scan(&s.ID, &s.Period, &s.TotalTrades, &s.WinningTrades, &s.LosingTrades,
			&s.TotalProfitLoss, &s.TotalPnLPct, &s.WinRate, &s.PortfolioValue, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pnl snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
