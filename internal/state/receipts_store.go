// ./internal/state/receipts_store.go
package state

import (
	"encoding/json"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/stablekit/stableswap/internal/types"
)

// ReceiptStore adapts the receipts table to the router's Recorder interface.
type ReceiptStore struct{}

// RecordReceipt persists one settlement receipt.
func (ReceiptStore) RecordReceipt(receipt *types.SettlementReceipt) error {
	return SaveSettlementReceipt(receipt)
}

// SaveSettlementReceipt inserts a settlement receipt row.
func SaveSettlementReceipt(receipt *types.SettlementReceipt) error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	if receipt == nil {
		return fmt.Errorf("receipt is nil")
	}

	amountsIn, err := marshalAmounts(receipt.AmountsIn)
	if err != nil {
		return fmt.Errorf("failed to marshal amounts_in: %w", err)
	}
	amountsOut, err := marshalAmounts(receipt.AmountsOut)
	if err != nil {
		return fmt.Errorf("failed to marshal amounts_out: %w", err)
	}

	stmt := `
        INSERT INTO settlement_receipts (
            kind, account, settled_at, token_in, token_out,
            amounts_in, amounts_out, claim_delta, fee_charged, d, total_supply
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

	_, err = DB.Exec(stmt,
		string(receipt.Kind), receipt.Account, receipt.Timestamp,
		receipt.TokenIn, receipt.TokenOut,
		amountsIn, amountsOut,
		receipt.ClaimDelta.String(), receipt.FeeCharged.String(),
		receipt.D.String(), receipt.TotalSupply.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement receipt: %w", err)
	}
	return nil
}

// RecentReceipts returns up to limit receipts, newest first.
func RecentReceipts(limit int) ([]types.SettlementReceipt, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}

	stmt := `
        SELECT kind, account, settled_at, token_in, token_out,
               amounts_in, amounts_out, claim_delta, fee_charged, d, total_supply
        FROM settlement_receipts
        ORDER BY settled_at DESC, receipt_id DESC
        LIMIT $1;`

	rows, err := DB.Query(stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlement receipts: %w", err)
	}
	defer rows.Close()

	var receipts []types.SettlementReceipt
	for rows.Next() {
		var (
			r                    types.SettlementReceipt
			kind                 string
			amountsIn            []byte
			amountsOut           []byte
			claimDelta           string
			feeCharged, d, total string
		)
		if err := rows.Scan(
			&kind, &r.Account, &r.Timestamp, &r.TokenIn, &r.TokenOut,
			&amountsIn, &amountsOut, &claimDelta, &feeCharged, &d, &total,
		); err != nil {
			return nil, fmt.Errorf("failed to scan settlement receipt: %w", err)
		}
		r.Kind = types.SettlementKind(kind)
		if r.AmountsIn, err = unmarshalAmounts(amountsIn); err != nil {
			return nil, err
		}
		if r.AmountsOut, err = unmarshalAmounts(amountsOut); err != nil {
			return nil, err
		}
		if r.ClaimDelta, err = parseInt(claimDelta); err != nil {
			return nil, err
		}
		if r.FeeCharged, err = parseInt(feeCharged); err != nil {
			return nil, err
		}
		if r.D, err = parseInt(d); err != nil {
			return nil, err
		}
		if r.TotalSupply, err = parseInt(total); err != nil {
			return nil, err
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("settlement receipt rows failed: %w", err)
	}
	return receipts, nil
}

func marshalAmounts(amounts []sdkmath.Int) ([]byte, error) {
	if amounts == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(amounts)
}

func unmarshalAmounts(raw []byte) ([]sdkmath.Int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var amounts []sdkmath.Int
	if err := json.Unmarshal(raw, &amounts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal amounts: %w", err)
	}
	return amounts, nil
}

func parseInt(s string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to parse big integer %q", s)
	}
	return v, nil
}
