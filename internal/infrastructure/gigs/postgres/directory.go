package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/baechuer/gig-tickets/internal/domain"
)

type Directory struct {
	db *sql.DB
}

func New(db *sql.DB) *Directory { return &Directory{db: db} }

type scanner interface {
	Scan(dest ...any) error
}

func scanGig(s scanner) (domain.Gig, error) {
	var g domain.Gig
	err := s.Scan(
		&g.Slug, &g.BandName, &g.Year, &g.City, &g.Date, &g.Venue,
		&g.CollectionPoint, &g.CollectionTime, &g.Capacity, &g.Price, &g.Image, &g.Description,
	)
	return g, err
}

func (d *Directory) FindBySlug(ctx context.Context, slug string) (domain.Gig, bool, error) {
	g, err := scanGig(d.db.QueryRowContext(ctx, getGigSQL, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Gig{}, false, nil
	}
	if err != nil {
		return domain.Gig{}, false, err
	}
	return g, true, nil
}

func (d *Directory) FindAll(ctx context.Context) ([]domain.Gig, error) {
	rows, err := d.db.QueryContext(ctx, listGigsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	gigs := []domain.Gig{}
	for rows.Next() {
		g, err := scanGig(rows)
		if err != nil {
			return nil, err
		}
		gigs = append(gigs, g)
	}
	return gigs, rows.Err()
}

// EnsureSchema creates the gigs table if it is missing.
func (d *Directory) EnsureSchema(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, createGigsTableSQL); err != nil {
		return fmt.Errorf("create gigs table: %w", err)
	}
	return nil
}

// Seed upserts gigs in one transaction; restart safe.
func (d *Directory) Seed(ctx context.Context, gigs []domain.Gig) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, g := range gigs {
		if _, err := tx.ExecContext(ctx, upsertGigSQL,
			g.Slug, g.BandName, g.Year, g.City, g.Date, g.Venue,
			g.CollectionPoint, g.CollectionTime, g.Capacity, g.Price, g.Image, g.Description,
		); err != nil {
			return fmt.Errorf("seed gig %q: %w", g.Slug, err)
		}
	}
	return tx.Commit()
}
