// ./internal/state/snapshot_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/stablekit/stableswap/internal/types"
)

// SaveRebaseSnapshot inserts one post-rebase state row.
func SaveRebaseSnapshot(snap *types.RebaseSnapshot) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if snap == nil {
		return fmt.Errorf("snapshot is nil")
	}

	balances, err := json.Marshal(snap.Balances)
	if err != nil {
		return fmt.Errorf("failed to marshal balances: %w", err)
	}

	stmt := `
        INSERT INTO rebase_snapshots (
            rebased_at, balances, d, total_supply,
            fee_amount, yield_amount, buffer_amount, buffer_bad_debt
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`

	_, err = DB.Exec(stmt,
		snap.Timestamp, balances,
		snap.D.String(), snap.TotalSupply.String(),
		snap.FeeAmount.String(), snap.YieldAmount.String(),
		snap.BufferAmount.String(), snap.BufferBadDebt.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rebase snapshot: %w", err)
	}
	return nil
}

// LatestRebaseSnapshot returns the most recent snapshot, or sql.ErrNoRows
// when no rebase has been recorded yet.
func LatestRebaseSnapshot() (*types.RebaseSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	stmt := `
        SELECT rebased_at, balances, d, total_supply,
               fee_amount, yield_amount, buffer_amount, buffer_bad_debt
        FROM rebase_snapshots
        ORDER BY rebased_at DESC, snapshot_id DESC
        LIMIT 1;`

	var (
		snap            types.RebaseSnapshot
		balances        []byte
		d, total        string
		fee, yield      string
		buffer, badDebt string
	)
	err := DB.QueryRow(stmt).Scan(
		&snap.Timestamp, &balances, &d, &total,
		&fee, &yield, &buffer, &badDebt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load latest rebase snapshot: %w", err)
	}

	if err := json.Unmarshal(balances, &snap.Balances); err != nil {
		return nil, fmt.Errorf("failed to unmarshal balances: %w", err)
	}
	if snap.D, err = parseInt(d); err != nil {
		return nil, err
	}
	if snap.TotalSupply, err = parseInt(total); err != nil {
		return nil, err
	}
	if snap.FeeAmount, err = parseInt(fee); err != nil {
		return nil, err
	}
	if snap.YieldAmount, err = parseInt(yield); err != nil {
		return nil, err
	}
	if snap.BufferAmount, err = parseInt(buffer); err != nil {
		return nil, err
	}
	if snap.BufferBadDebt, err = parseInt(badDebt); err != nil {
		return nil, err
	}
	return &snap, nil
}
