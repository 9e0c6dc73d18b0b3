package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/justraqib/semantic-photo/internal/domain/memory"
)

// MemoryRepository persists memory.Memory via plain SQL over pgx.
type MemoryRepository struct {
	pool *pgxpool.Pool
}

func NewMemoryRepository(pool *pgxpool.Pool) *MemoryRepository {
	return &MemoryRepository{pool: pool}
}

func (r *MemoryRepository) Save(ctx context.Context, m *memory.Memory) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `
		INSERT INTO memories (id, owner_id, memory_date, label, photo_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (owner_id, memory_date) DO UPDATE SET
			label = EXCLUDED.label,
			photo_ids = EXCLUDED.photo_ids
	`, m.ID(), m.OwnerID(), m.MemoryDate(), m.Label(), m.PhotoIDs(), m.CreatedAt())
	return err
}

func (r *MemoryRepository) DeleteByOwnerAndDate(ctx context.Context, ownerID uuid.UUID, memoryDate time.Time) error {
	db := GetDBTX(ctx, r.pool)
	_, err := db.Exec(ctx, `DELETE FROM memories WHERE owner_id = $1 AND memory_date = $2`, ownerID, memoryDate)
	return err
}

func (r *MemoryRepository) FindByOwnerAndDate(ctx context.Context, ownerID uuid.UUID, memoryDate time.Time) (*memory.Memory, error) {
	db := GetDBTX(ctx, r.pool)
	row := db.QueryRow(ctx, `
		SELECT id, owner_id, memory_date, label, photo_ids, created_at
		FROM memories
		WHERE owner_id = $1 AND memory_date = $2
	`, ownerID, memoryDate)
	return scanMemory(row)
}

func (r *MemoryRepository) OwnersWithPhotos(ctx context.Context) ([]uuid.UUID, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, `SELECT DISTINCT owner_id FROM photos WHERE is_deleted = false`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

func (r *MemoryRepository) CandidatesOnThisDay(ctx context.Context, ownerID uuid.UUID, month time.Month, day, beforeYear int) ([]memory.Candidate, error) {
	db := GetDBTX(ctx, r.pool)
	rows, err := db.Query(ctx, `
		SELECT id, taken_at
		FROM photos
		WHERE owner_id = $1
			AND is_deleted = false
			AND taken_at IS NOT NULL
			AND EXTRACT(MONTH FROM taken_at) = $2
			AND EXTRACT(DAY FROM taken_at) = $3
			AND EXTRACT(YEAR FROM taken_at) < $4
		ORDER BY taken_at DESC
	`, ownerID, int(month), day, beforeYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []memory.Candidate
	for rows.Next() {
		var c memory.Candidate
		if err := rows.Scan(&c.PhotoID, &c.TakenAt); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func scanMemory(row pgx.Row) (*memory.Memory, error) {
	var (
		id, ownerID uuid.UUID
		memoryDate  time.Time
		label       string
		photoIDs    []uuid.UUID
		createdAt   time.Time
	)
	err := row.Scan(&id, &ownerID, &memoryDate, &label, &photoIDs, &createdAt)
	if err != nil {
		return nil, HandleNotFound(err)
	}
	return memory.Reconstruct(id, ownerID, memoryDate, label, photoIDs, createdAt), nil
}
