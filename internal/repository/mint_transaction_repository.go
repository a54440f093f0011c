package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/azizur-rahaman/skillflow-sub002/internal/models"
)

const defaultTransactionPageSize = 50

// MintTransactionRepository persists the history of mint attempts.
type MintTransactionRepository struct {
	db *sqlx.DB
}

// NewMintTransactionRepository constructs the repository.
func NewMintTransactionRepository(db *sqlx.DB) *MintTransactionRepository {
	return &MintTransactionRepository{db: db}
}

type mintTransactionRow struct {
	ID              string          `db:"id"`
	SessionID       string          `db:"session_id"`
	OwnerID         string          `db:"owner_id"`
	SkillID         string          `db:"skill_id"`
	Status          string          `db:"status"`
	Network         string          `db:"network"`
	WalletAddress   string          `db:"wallet_address"`
	Metadata        []byte          `db:"metadata"`
	IPFSHash        sql.NullString  `db:"ipfs_hash"`
	IPFSURL         sql.NullString  `db:"ipfs_url"`
	TransactionHash sql.NullString  `db:"transaction_hash"`
	BlockNumber     sql.NullInt64   `db:"block_number"`
	TokenID         sql.NullString  `db:"token_id"`
	ContractAddress sql.NullString  `db:"contract_address"`
	GasUsed         sql.NullInt64   `db:"gas_used"`
	GasPriceGwei    sql.NullFloat64 `db:"gas_price_gwei"`
	Error           sql.NullString  `db:"error"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

// Upsert records the latest state of a transaction.
func (r *MintTransactionRepository) Upsert(ctx context.Context, tx *models.MintingTransaction) error {
	row, err := newMintTransactionRow(tx)
	if err != nil {
		return err
	}
	const query = `INSERT INTO mint_transactions (id, session_id, owner_id, skill_id, status, network, wallet_address,
    metadata, ipfs_hash, ipfs_url, transaction_hash, block_number, token_id, contract_address, gas_used,
    gas_price_gwei, error, created_at, updated_at)
VALUES (:id, :session_id, :owner_id, :skill_id, :status, :network, :wallet_address, :metadata, :ipfs_hash,
    :ipfs_url, :transaction_hash, :block_number, :token_id, :contract_address, :gas_used, :gas_price_gwei,
    :error, :created_at, :updated_at)
ON CONFLICT (id)
DO UPDATE SET status = EXCLUDED.status, ipfs_hash = EXCLUDED.ipfs_hash, ipfs_url = EXCLUDED.ipfs_url,
              transaction_hash = EXCLUDED.transaction_hash, block_number = EXCLUDED.block_number,
              token_id = EXCLUDED.token_id, contract_address = EXCLUDED.contract_address,
              gas_used = EXCLUDED.gas_used, gas_price_gwei = EXCLUDED.gas_price_gwei,
              error = EXCLUDED.error, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("upsert mint transaction: %w", err)
	}
	return nil
}

// ListByOwner returns an owner's transactions, newest first.
func (r *MintTransactionRepository) ListByOwner(ctx context.Context, filter models.MintTransactionFilter) ([]models.MintingTransaction, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{filter.OwnerID}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTransactionPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT id, session_id, owner_id, skill_id, status, network, wallet_address, metadata,
       ipfs_hash, ipfs_url, transaction_hash, block_number, token_id, contract_address, gas_used,
       gas_price_gwei, error, created_at, updated_at
FROM mint_transactions WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), len(args)-1, len(args))

	var rows []mintTransactionRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list mint transactions: %w", err)
	}
	txs := make([]models.MintingTransaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.toModel()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func newMintTransactionRow(tx *models.MintingTransaction) (mintTransactionRow, error) {
	metadata, err := json.Marshal(tx.Metadata)
	if err != nil {
		return mintTransactionRow{}, fmt.Errorf("encode transaction metadata: %w", err)
	}
	row := mintTransactionRow{
		ID:              tx.ID,
		SessionID:       tx.SessionID,
		OwnerID:         tx.OwnerID,
		SkillID:         tx.Metadata.SkillID,
		Status:          string(tx.Status),
		Network:         tx.Network,
		WalletAddress:   tx.WalletAddress,
		Metadata:        metadata,
		IPFSHash:        nullString(tx.IPFSHash),
		IPFSURL:         nullString(tx.IPFSURL),
		TransactionHash: nullString(tx.TransactionHash),
		TokenID:         nullString(tx.TokenID),
		ContractAddress: nullString(tx.ContractAddress),
		Error:           nullString(tx.Error),
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
	if tx.BlockNumber != nil {
		row.BlockNumber = sql.NullInt64{Int64: int64(*tx.BlockNumber), Valid: true}
	}
	if tx.Gas != nil {
		row.GasUsed = sql.NullInt64{Int64: int64(tx.Gas.GasUsed), Valid: true}
		row.GasPriceGwei = sql.NullFloat64{Float64: tx.Gas.GasPriceGwei, Valid: true}
	}
	return row, nil
}

func (row mintTransactionRow) toModel() (models.MintingTransaction, error) {
	tx := models.MintingTransaction{
		ID:              row.ID,
		SessionID:       row.SessionID,
		OwnerID:         row.OwnerID,
		Status:          models.MintingStatus(row.Status),
		Network:         row.Network,
		WalletAddress:   row.WalletAddress,
		IPFSHash:        stringPtr(row.IPFSHash),
		IPFSURL:         stringPtr(row.IPFSURL),
		TransactionHash: stringPtr(row.TransactionHash),
		TokenID:         stringPtr(row.TokenID),
		ContractAddress: stringPtr(row.ContractAddress),
		Error:           stringPtr(row.Error),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Metadata, &tx.Metadata); err != nil {
		return models.MintingTransaction{}, fmt.Errorf("decode metadata for transaction %s: %w", row.ID, err)
	}
	if row.BlockNumber.Valid {
		block := uint64(row.BlockNumber.Int64)
		tx.BlockNumber = &block
	}
	if row.GasUsed.Valid {
		gas := models.GasMetrics{GasUsed: uint64(row.GasUsed.Int64)}
		if row.GasPriceGwei.Valid {
			gas.GasPriceGwei = row.GasPriceGwei.Float64
		}
		gas.TotalCostEth = float64(gas.GasUsed) * gas.GasPriceGwei / 1e9
		tx.Gas = &gas
	}
	return tx, nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
