package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forgo/mentora/api/internal/database"
	"github.com/forgo/mentora/api/internal/model"
)

// PayableRepository handles mentor payable ledger persistence. Like the
// service ledger, rows are append-only; settlement sets settlement fields
// exactly once and nothing else ever changes.
type PayableRepository struct {
	db database.Database
}

// NewPayableRepository creates a new payable repository
func NewPayableRepository(db database.Database) *PayableRepository {
	return &PayableRepository{db: db}
}

// FindByID returns a single payable row
func (r *PayableRepository) FindByID(ctx context.Context, id string) (*model.MentorPayableLedger, error) {
	query := `SELECT * FROM type::thing("mentor_payable_ledger", $id)`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	row := firstRow(result)
	if row == nil {
		return nil, database.ErrNotFound
	}
	return rowToPayable(row), nil
}

// FindByReferenceID returns all rows for a reference (original plus any
// adjustments), oldest first
func (r *PayableRepository) FindByReferenceID(ctx context.Context, referenceID string) ([]*model.MentorPayableLedger, error) {
	query := `
		SELECT * FROM mentor_payable_ledger
		WHERE reference_id = $reference_id
		ORDER BY created_at ASC
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"reference_id": referenceID})
	if err != nil {
		return nil, err
	}
	return rowsToPayables(result), nil
}

// FindUnsettledByMentor returns all unsettled rows for a mentor
func (r *PayableRepository) FindUnsettledByMentor(ctx context.Context, mentorID string) ([]*model.MentorPayableLedger, error) {
	query := `
		SELECT * FROM mentor_payable_ledger
		WHERE mentor_id = $mentor_id AND settled_at IS NONE
		ORDER BY created_at ASC
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"mentor_id": mentorID})
	if err != nil {
		return nil, err
	}
	return rowsToPayables(result), nil
}

// Save inserts a payable row
func (r *PayableRepository) Save(ctx context.Context, payable *model.MentorPayableLedger) error {
	query, vars := insertPayableStatement(payable)
	return r.db.Execute(ctx, query, vars)
}

// MarkSettled stamps settlement onto the given rows in one batch. Rows
// already settled are skipped by the guard condition rather than
// overwritten.
func (r *PayableRepository) MarkSettled(ctx context.Context, ids []string, settlementID string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	batch := database.NewAtomicBatch()
	for _, id := range ids {
		batch.Add(`
			UPDATE type::thing("mentor_payable_ledger", $id)
			SET settlement_id = $settlement_id, settled_at = $settled_at
			WHERE settled_at IS NONE
		`, map[string]interface{}{
			"id":            id,
			"settlement_id": settlementID,
			"settled_at":    at.UTC(),
		})
	}
	return batch.Execute(ctx, r.db)
}

func insertPayableStatement(payable *model.MentorPayableLedger) (string, map[string]interface{}) {
	props := payable.Props()
	query := `
		CREATE type::thing("mentor_payable_ledger", $id) CONTENT {
			reference_id: $reference_id,
			mentor_id: $mentor_id,
			student_id: $student_id,
			session_type_code: $session_type_code,
			price_amount: $price_amount,
			price_currency: $price_currency,
			amount: $amount,
			amount_currency: $amount_currency,
			original_id: $original_id,
			adjustment_reason: $adjustment_reason,
			settlement_id: $settlement_id,
			settled_at: $settled_at,
			created_at: $created_at,
			created_by: $created_by
		}
	`
	var settledAt interface{}
	if props.SettledAt != nil {
		settledAt = props.SettledAt.UTC()
	}
	vars := map[string]interface{}{
		"id":                props.ID,
		"reference_id":      props.ReferenceID,
		"mentor_id":         props.MentorID,
		"student_id":        props.StudentID,
		"session_type_code": props.SessionTypeCode,
		"price_amount":      props.Price.Amount.String(),
		"price_currency":    props.Price.Currency,
		"amount":            props.Amount.Amount.String(),
		"amount_currency":   props.Amount.Currency,
		"original_id":       props.OriginalID,
		"adjustment_reason": props.AdjustmentReason,
		"settlement_id":     props.SettlementID,
		"settled_at":        settledAt,
		"created_at":        props.CreatedAt,
		"created_by":        props.CreatedBy,
	}
	return query, vars
}

func rowsToPayables(result []interface{}) []*model.MentorPayableLedger {
	rows := extractQueryResults(result)
	payables := make([]*model.MentorPayableLedger, 0, len(rows))
	for _, row := range rows {
		payables = append(payables, rowToPayable(row))
	}
	return payables
}

func rowToPayable(row map[string]interface{}) *model.MentorPayableLedger {
	return model.ReconstructMentorPayable(model.MentorPayableProps{
		ID:               convertSurrealID(row["id"]),
		ReferenceID:      getString(row, "reference_id"),
		MentorID:         getString(row, "mentor_id"),
		StudentID:        getString(row, "student_id"),
		SessionTypeCode:  getString(row, "session_type_code"),
		Price:            rowToMoney(row, "price_amount", "price_currency"),
		Amount:           rowToMoney(row, "amount", "amount_currency"),
		OriginalID:       getString(row, "original_id"),
		AdjustmentReason: getString(row, "adjustment_reason"),
		SettlementID:     getString(row, "settlement_id"),
		SettledAt:        getTimePtr(row, "settled_at"),
		CreatedAt:        getTime(row, "created_at"),
		CreatedBy:        getString(row, "created_by"),
	})
}

func rowToMoney(row map[string]interface{}, amountKey, currencyKey string) model.Money {
	amount, err := decimal.NewFromString(getString(row, amountKey))
	if err != nil {
		amount = decimal.Zero
	}
	return model.Money{Amount: amount, Currency: getString(row, currencyKey)}
}
