package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shortlyapp/shortly/internal/models"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	// ResolveAndCount increments the click counter and returns the link in a
	// single statement, so concurrent resolutions never lose updates.
	ResolveAndCount(ctx context.Context, code string) (*models.Link, error)
	ListByUser(ctx context.Context, userID string) ([]models.Link, error)
	UpdateLongURL(ctx context.Context, code, userID, longURL string) (*models.Link, error)
	Delete(ctx context.Context, code, userID string) error
	Stats(ctx context.Context, code, userID string) (*models.LinkStats, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, short_code, long_url, user_id, clicks, created_at, updated_at`

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO urls (id, short_code, long_url, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING clicks, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ID,
		link.ShortCode,
		link.LongURL,
		link.UserID,
	).Scan(&link.Clicks, &link.CreatedAt, &link.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) ResolveAndCount(ctx context.Context, code string) (*models.Link, error) {
	query := `
		UPDATE urls
		SET clicks = clicks + 1
		WHERE short_code = $1
		RETURNING ` + linkColumns

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, code))
}

func (r *linkRepository) ListByUser(ctx context.Context, userID string) ([]models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM urls WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []models.Link{}
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(
			&l.ID, &l.ShortCode, &l.LongURL, &l.UserID,
			&l.Clicks, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

// UpdateLongURL mutates the target URL. The owner filter makes "exists but
// not yours" indistinguishable from "does not exist".
func (r *linkRepository) UpdateLongURL(ctx context.Context, code, userID, longURL string) (*models.Link, error) {
	query := `
		UPDATE urls
		SET long_url = $3, updated_at = NOW()
		WHERE short_code = $1 AND user_id = $2
		RETURNING ` + linkColumns

	return r.scanOne(r.db.Pool.QueryRow(ctx, query, code, userID, longURL))
}

func (r *linkRepository) Delete(ctx context.Context, code, userID string) error {
	result, err := r.db.Pool.Exec(ctx,
		`DELETE FROM urls WHERE short_code = $1 AND user_id = $2`, code, userID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) Stats(ctx context.Context, code, userID string) (*models.LinkStats, error) {
	query := `
		SELECT short_code, long_url, clicks, created_at, updated_at
		FROM urls
		WHERE short_code = $1 AND user_id = $2
	`

	stats := &models.LinkStats{}
	err := r.db.Pool.QueryRow(ctx, query, code, userID).Scan(
		&stats.ShortCode,
		&stats.LongURL,
		&stats.Clicks,
		&stats.CreatedAt,
		&stats.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link stats: %w", err)
	}

	return stats, nil
}

func (r *linkRepository) scanOne(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.LongURL,
		&link.UserID,
		&link.Clicks,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}
