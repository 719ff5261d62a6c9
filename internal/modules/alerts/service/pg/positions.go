package pg

import (
	"context"
	"fmt"

	"connector_runner/internal/models"
	"connector_runner/pkg/db"

	"github.com/bytedance/sonic"
)

// Positions implement db store
type Positions struct {
	db *db.PgTxManager
}

// NewPositions instance
func NewPositions(manager *db.PgTxManager) *Positions {
	return &Positions{
		db: manager,
	}
}

// PositionsWithAlerts loads new/open positions of started robots on the
// market tuple whose alerts map is non-empty.
func (p *Positions) PositionsWithAlerts(
	ctx context.Context,
	key models.MarketKey,
) (positions []models.RobotPosition, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("pg.PositionsWithAlerts: %w", err)
		}
	}()

	rows, err := p.db.Conn().Query(ctx, `
		SELECT rp.robot_id, rp.status, rp.alerts
		  FROM robot_positions rp
		  JOIN robots r ON rp.robot_id = r.id
		 WHERE rp.status IN ('new', 'open')
		   AND rp.alerts IS NOT NULL AND rp.alerts != '{}'
		   AND r.exchange = $1
		   AND r.asset = $2
		   AND r.currency = $3
		   AND r.timeframe = $4;`,
		key.Exchange, key.Asset, key.Currency, key.Timeframe,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			position models.RobotPosition
			raw      []byte
		)
		if err = rows.Scan(&position.RobotID, &position.Status, &raw); err != nil {
			return nil, err
		}
		if err = sonic.Unmarshal(raw, &position.Alerts); err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}
	return positions, rows.Err()
}
