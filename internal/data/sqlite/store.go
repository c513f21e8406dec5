package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/gridley/internal/data"
	"github.com/zjrosen/gridley/internal/log"
)

// recordColumns is the list of columns to select for record queries.
const recordColumns = `id, name, category, status, amount, media_url, body, created_at`

// RecordModel represents the database row for the records table.
type RecordModel struct {
	ID        string
	Name      string
	Category  string
	Status    string
	Amount    float64
	MediaURL  string
	Body      string
	CreatedAt int64 // Unix timestamp
}

// toRow converts a database RecordModel to a grid data.Row. Every column
// becomes a cell; media_url rides separately as the row's media reference.
func (m *RecordModel) toRow() data.Row {
	return data.Row{
		ID: m.ID,
		Cells: map[string]string{
			"id":       m.ID,
			"name":     m.Name,
			"category": m.Category,
			"status":   m.Status,
			"amount":   strconv.FormatFloat(m.Amount, 'f', 2, 64),
			"body":     m.Body,
			"created":  time.Unix(m.CreatedAt, 0).UTC().Format("2006-01-02"),
		},
		MediaRef: m.MediaURL,
	}
}

// RecordStore reads and writes the records table.
type RecordStore struct {
	db *sql.DB
}

func newRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// scanRecord scans a row into a RecordModel.
func scanRecord(scanner interface{ Scan(...any) error }) (*RecordModel, error) {
	var model RecordModel
	err := scanner.Scan(
		&model.ID, &model.Name, &model.Category, &model.Status,
		&model.Amount, &model.MediaURL, &model.Body, &model.CreatedAt,
	)
	return &model, err
}

// List loads every record ordered by creation time, newest first, as grid
// rows. The result is the base collection the pipeline derives from.
func (s *RecordStore) List() (*data.Collection, error) {
	rows, err := s.db.Query(`SELECT ` + recordColumns + ` FROM records ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []data.Row
	for rows.Next() {
		model, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		out = append(out, model.toRow())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating record rows: %w", err)
	}

	log.Debug(log.CatDB, "records loaded", "count", len(out))
	return data.NewCollection(out), nil
}

// Insert persists one record. A blank ID gets a generated UUID.
func (s *RecordStore) Insert(model *RecordModel) error {
	if model.ID == "" {
		model.ID = uuid.NewString()
	}
	if model.CreatedAt == 0 {
		model.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.Exec(
		`INSERT INTO records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		model.ID, model.Name, model.Category, model.Status,
		model.Amount, model.MediaURL, model.Body, model.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Count returns the number of records.
func (s *RecordStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Seed inserts n synthetic records inside one transaction, for the demo and
// bench paths. Existing records are untouched.
func (s *RecordStore) Seed(n int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(
		`INSERT INTO records (` + recordColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare seed insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	categories := []string{"tools", "toys", "parts", "supplies"}
	statuses := []string{"active", "pending", "archived"}
	base := time.Now().Unix()

	for i := 0; i < n; i++ {
		_, err := stmt.Exec(
			uuid.NewString(),
			fmt.Sprintf("record %06d", i),
			categories[i%len(categories)],
			statuses[i%len(statuses)],
			float64(i%997)+0.25,
			"",
			fmt.Sprintf("## record %06d\n\nSynthetic row for demos and benches.", i),
			base-int64(i),
		)
		if err != nil {
			return fmt.Errorf("failed to seed record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	log.Info(log.CatDB, "seeded records", "count", n)
	return nil
}
