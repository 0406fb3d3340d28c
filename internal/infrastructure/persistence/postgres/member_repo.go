package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FONAR-bit/fonar-project/internal/domain/model"
	"github.com/FONAR-bit/fonar-project/internal/domain/port"
	"github.com/FONAR-bit/fonar-project/internal/domain/valueobject"
)

// MemberRepo implements port.MemberDirectory over the members table. Member
// identity is owned elsewhere; this is a read-side directory.
type MemberRepo struct {
	pool *pgxpool.Pool
}

// NewMemberRepo creates a PostgreSQL-backed member directory.
func NewMemberRepo(pool *pgxpool.Pool) *MemberRepo {
	return &MemberRepo{pool: pool}
}

// FindByID resolves one member reference.
func (r *MemberRepo) FindByID(ctx context.Context, id uuid.UUID) (*port.Member, error) {
	query := `SELECT id, name, class FROM members WHERE id = $1`
	member, err := scanMember(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

// ListAll retrieves every member, sorted by name.
func (r *MemberRepo) ListAll(ctx context.Context) ([]port.Member, error) {
	query := `SELECT id, name, class FROM members ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []port.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}
	return members, rows.Err()
}

func scanMember(s scannable) (*port.Member, error) {
	var (
		id       uuid.UUID
		name     string
		classStr string
	)
	if err := s.Scan(&id, &name, &classStr); err != nil {
		return nil, fmt.Errorf("scan member: %w", err)
	}

	class, err := valueobject.NewMemberClass(classStr)
	if err != nil {
		return nil, fmt.Errorf("parse member class: %w", err)
	}

	return &port.Member{ID: id, Name: name, Class: class}, nil
}
