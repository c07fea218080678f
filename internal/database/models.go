package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Batch is one persisted lookup batch with its summary fields. Records and
// Errors are populated only when a single batch is fetched by ID.
type Batch struct {
	ID             int            `json:"id"`
	PageURL        string         `json:"page_url"`
	Status         string         `json:"status"`
	Message        string         `json:"message"`
	TotalProcessed int            `json:"total_processed"`
	CreatedAt      time.Time      `json:"created_at"`
	Records        []LookupRecord `json:"records,omitempty"`
	Errors         []string       `json:"errors,omitempty"`
}

// LookupRecord is one extracted result within a batch. Position preserves
// the input order of the batch's identifier list.
type LookupRecord struct {
	ID         int    `json:"id"`
	BatchID    int    `json:"batch_id"`
	Position   int    `json:"position"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// BatchStore handles batch database operations
type BatchStore struct {
	db *sql.DB
}

// NewBatchStore creates a new batch store
func NewBatchStore(db *sql.DB) *BatchStore {
	return &BatchStore{db: db}
}

// Create persists a batch together with its records and error messages in
// one transaction. The batch's ID and CreatedAt are filled in on success.
func (s *BatchStore) Create(batch *Batch) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"INSERT INTO batches (page_url, status, message, total_processed) VALUES (?, ?, ?, ?)",
		batch.PageURL, batch.Status, batch.Message, batch.TotalProcessed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	batchID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get batch ID: %w", err)
	}
	batch.ID = int(batchID)

	for i := range batch.Records {
		record := &batch.Records[i]
		record.BatchID = batch.ID
		record.Position = i

		res, err := tx.Exec(
			"INSERT INTO lookup_records (batch_id, position, identifier, name, phone, email) VALUES (?, ?, ?, ?, ?, ?)",
			record.BatchID, record.Position, record.Identifier, record.Name, record.Phone, record.Email,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record for %s: %w", record.Identifier, err)
		}
		recordID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get record ID: %w", err)
		}
		record.ID = int(recordID)
	}

	for _, message := range batch.Errors {
		if _, err := tx.Exec(
			"INSERT INTO batch_errors (batch_id, message) VALUES (?, ?)",
			batch.ID, message,
		); err != nil {
			return fmt.Errorf("failed to insert batch error: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	return s.db.QueryRow(
		"SELECT created_at FROM batches WHERE id = ?", batch.ID,
	).Scan(&batch.CreatedAt)
}

// GetAll returns batch summaries, newest first, without records
func (s *BatchStore) GetAll() ([]Batch, error) {
	rows, err := s.db.Query(`
		SELECT id, page_url, status, message, total_processed, created_at
		FROM batches ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var b Batch
		if err := rows.Scan(&b.ID, &b.PageURL, &b.Status, &b.Message, &b.TotalProcessed, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, b)
	}

	return batches, rows.Err()
}

// GetByID returns one batch with its records and error messages
func (s *BatchStore) GetByID(id int) (*Batch, error) {
	var b Batch
	err := s.db.QueryRow(`
		SELECT id, page_url, status, message, total_processed, created_at
		FROM batches WHERE id = ?`, id,
	).Scan(&b.ID, &b.PageURL, &b.Status, &b.Message, &b.TotalProcessed, &b.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query batch %d: %w", id, err)
	}

	records, err := s.getRecords(id)
	if err != nil {
		return nil, err
	}
	b.Records = records

	errorMessages, err := s.getErrors(id)
	if err != nil {
		return nil, err
	}
	b.Errors = errorMessages

	return &b, nil
}

func (s *BatchStore) getRecords(batchID int) ([]LookupRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, batch_id, position, identifier, name, phone, email
		FROM lookup_records WHERE batch_id = ? ORDER BY position`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records for batch %d: %w", batchID, err)
	}
	defer rows.Close()

	var records []LookupRecord
	for rows.Next() {
		var r LookupRecord
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Position, &r.Identifier, &r.Name, &r.Phone, &r.Email); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

func (s *BatchStore) getErrors(batchID int) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT message FROM batch_errors WHERE batch_id = ? ORDER BY id", batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query errors for batch %d: %w", batchID, err)
	}
	defer rows.Close()

	var messages []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan batch error: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}
