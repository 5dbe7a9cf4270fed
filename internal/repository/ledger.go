package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/mentora/api/internal/database"
	"github.com/forgo/mentora/api/internal/model"
)

// ErrBalanceConflict indicates a concurrent writer changed the balance
// between the caller's read and the guarded insert. The caller should
// re-read the balance and retry the whole record operation.
var ErrBalanceConflict = errors.New("ledger balance changed concurrently")

// balanceConflictMarker is thrown inside the guarded batch so the conflict
// is distinguishable from other query failures
const balanceConflictMarker = "LEDGER_BALANCE_CONFLICT"

// LedgerSearchCriteria filters ledger history queries
type LedgerSearchCriteria struct {
	StudentID   string
	ServiceType string
	Type        model.LedgerType
	Source      model.LedgerSource
	Limit       int
	Offset      int
}

// LedgerRepository handles service ledger persistence. The table is
// append-only: there is no update or delete path.
type LedgerRepository struct {
	db database.Database
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db database.Database) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// FindByID returns a single ledger row
func (r *LedgerRepository) FindByID(ctx context.Context, id string) (*model.ServiceLedger, error) {
	query := `SELECT * FROM type::thing("service_ledger", $id)`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	row := firstRow(result)
	if row == nil {
		return nil, database.ErrNotFound
	}
	return rowToLedger(row), nil
}

// FindByStudentAndServiceType returns the full history for one entitlement,
// oldest first
func (r *LedgerRepository) FindByStudentAndServiceType(ctx context.Context, studentID, serviceType string) ([]*model.ServiceLedger, error) {
	query := `
		SELECT * FROM service_ledger
		WHERE student_id = $student_id AND service_type = $service_type
		ORDER BY created_at ASC
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{
		"student_id":   studentID,
		"service_type": serviceType,
	})
	if err != nil {
		return nil, err
	}
	return rowsToLedgers(result), nil
}

// FindLatestByStudentAndServiceType returns the most recent row for one
// entitlement, or database.ErrNotFound when the ledger is empty
func (r *LedgerRepository) FindLatestByStudentAndServiceType(ctx context.Context, studentID, serviceType string) (*model.ServiceLedger, error) {
	query := `
		SELECT * FROM service_ledger
		WHERE student_id = $student_id AND service_type = $service_type
		ORDER BY created_at DESC
		LIMIT 1
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{
		"student_id":   studentID,
		"service_type": serviceType,
	})
	if err != nil {
		return nil, err
	}
	row := firstRow(result)
	if row == nil {
		return nil, database.ErrNotFound
	}
	return rowToLedger(row), nil
}

// Search returns a filtered page of ledger rows plus the unpaged total
func (r *LedgerRepository) Search(ctx context.Context, criteria LedgerSearchCriteria) ([]*model.ServiceLedger, int, error) {
	conditions := make([]string, 0, 4)
	vars := map[string]interface{}{}

	if criteria.StudentID != "" {
		conditions = append(conditions, "student_id = $student_id")
		vars["student_id"] = criteria.StudentID
	}
	if criteria.ServiceType != "" {
		conditions = append(conditions, "service_type = $service_type")
		vars["service_type"] = criteria.ServiceType
	}
	if criteria.Type != "" {
		conditions = append(conditions, "type = $type")
		vars["type"] = string(criteria.Type)
	}
	if criteria.Source != "" {
		conditions = append(conditions, "source = $source")
		vars["source"] = string(criteria.Source)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	limit := criteria.Limit
	if limit <= 0 {
		limit = 50
	}
	vars["limit"] = limit
	vars["offset"] = criteria.Offset

	query := fmt.Sprintf(`
		SELECT * FROM service_ledger %s
		ORDER BY created_at DESC
		LIMIT $limit START $offset
	`, where)

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, 0, err
	}
	ledgers := rowsToLedgers(result)

	countQuery := fmt.Sprintf(`SELECT count() AS count FROM service_ledger %s GROUP ALL`, where)
	countResult, err := r.db.Query(ctx, countQuery, vars)
	if err != nil {
		return nil, 0, err
	}

	return ledgers, getCount(countResult), nil
}

// CalculateBalance returns the authoritative current balance for one
// entitlement: the balance_after of the latest row, or zero when no rows
// exist yet
func (r *LedgerRepository) CalculateBalance(ctx context.Context, studentID, serviceType string) (int, error) {
	latest, err := r.FindLatestByStudentAndServiceType(ctx, studentID, serviceType)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return latest.BalanceAfter(), nil
}

// Save inserts a ledger row without a concurrency guard. Reserved for
// paths that hold no balance assumption (e.g. migrations); balance-affecting
// writes go through SaveGuarded.
func (r *LedgerRepository) Save(ctx context.Context, ledger *model.ServiceLedger) error {
	query, vars := insertLedgerStatement(ledger)
	return r.db.Execute(ctx, query, vars)
}

// SaveGuarded inserts a ledger row inside a batch transaction that
// re-checks the balance the row was validated against. If another writer
// appended a row in between, the guard throws, the batch aborts and
// ErrBalanceConflict is returned with no row written. This is the
// serialization point for concurrent consumptions of the same entitlement.
func (r *LedgerRepository) SaveGuarded(ctx context.Context, ledger *model.ServiceLedger, expectedBalance int) error {
	guard := fmt.Sprintf(`
		LET $latest = (
			SELECT balance_after FROM service_ledger
			WHERE student_id = $student_id AND service_type = $service_type
			ORDER BY created_at DESC
			LIMIT 1
		);
		IF (($latest[0].balance_after) ?? 0) != $expected_balance {
			THROW "%s"
		}
	`, balanceConflictMarker)

	insert, vars := insertLedgerStatement(ledger)
	vars["expected_balance"] = expectedBalance

	batch := database.NewAtomicBatch()
	batch.Add(guard, map[string]interface{}{
		"student_id":       ledger.StudentID(),
		"service_type":     ledger.ServiceType(),
		"expected_balance": expectedBalance,
	})
	batch.Add(insert, vars)

	if err := batch.Execute(ctx, r.db); err != nil {
		if strings.Contains(err.Error(), balanceConflictMarker) {
			return ErrBalanceConflict
		}
		return err
	}
	return nil
}

func insertLedgerStatement(ledger *model.ServiceLedger) (string, map[string]interface{}) {
	props := ledger.Props()
	query := `
		CREATE type::thing("service_ledger", $id) CONTENT {
			student_id: $student_id,
			service_type: $service_type,
			quantity: $quantity,
			type: $type,
			source: $source,
			balance_after: $balance_after,
			related_hold_id: $related_hold_id,
			related_booking_id: $related_booking_id,
			reason: $reason,
			booking_source: $booking_source,
			created_at: $created_at,
			created_by: $created_by
		}
	`
	vars := map[string]interface{}{
		"id":                 props.ID,
		"student_id":         props.StudentID,
		"service_type":       props.ServiceType,
		"quantity":           props.Quantity,
		"type":               string(props.Type),
		"source":             string(props.Source),
		"balance_after":      props.BalanceAfter,
		"related_hold_id":    props.RelatedHoldID,
		"related_booking_id": props.RelatedBookingID,
		"reason":             props.Reason,
		"booking_source":     props.BookingSource,
		"created_at":         props.CreatedAt,
		"created_by":         props.CreatedBy,
	}
	return query, vars
}

func rowsToLedgers(result []interface{}) []*model.ServiceLedger {
	rows := extractQueryResults(result)
	ledgers := make([]*model.ServiceLedger, 0, len(rows))
	for _, row := range rows {
		ledgers = append(ledgers, rowToLedger(row))
	}
	return ledgers
}

func rowToLedger(row map[string]interface{}) *model.ServiceLedger {
	return model.ReconstructServiceLedger(model.ServiceLedgerProps{
		ID:               convertSurrealID(row["id"]),
		StudentID:        getString(row, "student_id"),
		ServiceType:      getString(row, "service_type"),
		Quantity:         getInt(row, "quantity"),
		Type:             model.LedgerType(getString(row, "type")),
		Source:           model.LedgerSource(getString(row, "source")),
		BalanceAfter:     getInt(row, "balance_after"),
		RelatedHoldID:    getString(row, "related_hold_id"),
		RelatedBookingID: getString(row, "related_booking_id"),
		Reason:           getString(row, "reason"),
		BookingSource:    getString(row, "booking_source"),
		CreatedAt:        getTime(row, "created_at"),
		CreatedBy:        getString(row, "created_by"),
	})
}
