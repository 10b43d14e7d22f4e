package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/game/character"
)

var (
	// ErrSavedCharacterNotFound is returned when no saved character matches a lookup.
	ErrSavedCharacterNotFound = errors.New("saved character not found")
	// ErrSavedCharacterExists is returned by Create when (owner, name) is taken.
	ErrSavedCharacterExists = errors.New("saved character already exists")
)

// SavedCharacter is the persisted form of a character: exactly the fields
// Registry.Recreate needs.
type SavedCharacter struct {
	ID            string
	Owner         string
	Name          string
	ClassName     string
	ExplicitClass string
	Level         int
	Experience    int
	Skills        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Snapshot captures c in its persisted form.
func Snapshot(c *character.Character) SavedCharacter {
	return SavedCharacter{
		ID:            c.ID(),
		Owner:         c.Owner(),
		Name:          c.Name(),
		ClassName:     c.ClassName(),
		ExplicitClass: c.ExplicitClass(),
		Level:         c.Level(),
		Experience:    c.Exp(),
		Skills:        c.SkillNames(),
	}
}

// State converts the saved row to the recreate contract.
func (s SavedCharacter) State() character.State {
	return character.State{
		ClassName:     s.ClassName,
		Owner:         s.Owner,
		Name:          s.Name,
		Skills:        s.Skills,
		ExplicitClass: s.ExplicitClass,
		Level:         s.Level,
		Exp:           s.Experience,
	}
}

// SavedCharacterRepository persists characters between simulations.
type SavedCharacterRepository struct {
	db *pgxpool.Pool
}

// NewSavedCharacterRepository creates a repository backed by db.
//
// Precondition: db must be a valid, open connection pool.
func NewSavedCharacterRepository(db *pgxpool.Pool) *SavedCharacterRepository {
	return &SavedCharacterRepository{db: db}
}

const savedColumns = `id, owner_id, name, class_name, explicit_class, level, experience, skills, created_at, updated_at`

// Save upserts c keyed by (owner, name).
//
// Postcondition: Returns the stored row with timestamps set.
func (r *SavedCharacterRepository) Save(ctx context.Context, c *character.Character) (SavedCharacter, error) {
	s := Snapshot(c)
	row := r.db.QueryRow(ctx, `
		INSERT INTO saved_characters
			(id, owner_id, name, class_name, explicit_class, level, experience, skills)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (owner_id, name) DO UPDATE SET
			class_name     = EXCLUDED.class_name,
			explicit_class = EXCLUDED.explicit_class,
			level          = EXCLUDED.level,
			experience     = EXCLUDED.experience,
			skills         = EXCLUDED.skills,
			updated_at     = NOW()
		RETURNING `+savedColumns,
		s.ID, s.Owner, s.Name, s.ClassName, s.ExplicitClass, s.Level, s.Experience, s.Skills,
	)
	out, err := scanSaved(row)
	if err != nil {
		return SavedCharacter{}, fmt.Errorf("saving character %q: %w", s.Name, err)
	}
	return out, nil
}

// Create inserts c and fails when its owner already saved a character of the
// same name.
//
// Postcondition: Returns ErrSavedCharacterExists on a duplicate (owner, name).
func (r *SavedCharacterRepository) Create(ctx context.Context, c *character.Character) (SavedCharacter, error) {
	s := Snapshot(c)
	row := r.db.QueryRow(ctx, `
		INSERT INTO saved_characters
			(id, owner_id, name, class_name, explicit_class, level, experience, skills)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+savedColumns,
		s.ID, s.Owner, s.Name, s.ClassName, s.ExplicitClass, s.Level, s.Experience, s.Skills,
	)
	out, err := scanSaved(row)
	if err != nil {
		if isUniqueViolation(err) {
			return SavedCharacter{}, fmt.Errorf("%s/%s: %w", s.Owner, s.Name, ErrSavedCharacterExists)
		}
		return SavedCharacter{}, fmt.Errorf("creating character %q: %w", s.Name, err)
	}
	return out, nil
}

// Get returns the character called name owned by owner.
//
// Postcondition: Returns ErrSavedCharacterNotFound when absent.
func (r *SavedCharacterRepository) Get(ctx context.Context, owner, name string) (SavedCharacter, error) {
	row := r.db.QueryRow(ctx, `SELECT `+savedColumns+` FROM saved_characters WHERE owner_id = $1 AND name = $2`, owner, name)
	s, err := scanSaved(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SavedCharacter{}, fmt.Errorf("%s/%s: %w", owner, name, ErrSavedCharacterNotFound)
		}
		return SavedCharacter{}, fmt.Errorf("querying saved character: %w", err)
	}
	return s, nil
}

// ListByOwner returns every character of owner ordered by name.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *SavedCharacterRepository) ListByOwner(ctx context.Context, owner string) ([]SavedCharacter, error) {
	rows, err := r.db.Query(ctx, `SELECT `+savedColumns+` FROM saved_characters WHERE owner_id = $1 ORDER BY name ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("listing saved characters: %w", err)
	}
	defer rows.Close()

	out := make([]SavedCharacter, 0)
	for rows.Next() {
		s, err := scanSaved(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning saved character row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes the character called name owned by owner.
//
// Postcondition: Returns ErrSavedCharacterNotFound when no row was removed.
func (r *SavedCharacterRepository) Delete(ctx context.Context, owner, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM saved_characters WHERE owner_id = $1 AND name = $2`, owner, name)
	if err != nil {
		return fmt.Errorf("deleting saved character: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", owner, name, ErrSavedCharacterNotFound)
	}
	return nil
}

// Restore loads the saved character and rebuilds it through registry.
func (r *SavedCharacterRepository) Restore(ctx context.Context, registry *character.Registry, owner, name string) (*character.Character, error) {
	s, err := r.Get(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	c, err := registry.Recreate(s.State())
	if err != nil {
		return nil, fmt.Errorf("restoring %s/%s: %w", owner, name, err)
	}
	return c, nil
}

func scanSaved(row pgx.Row) (SavedCharacter, error) {
	var s SavedCharacter
	err := row.Scan(
		&s.ID, &s.Owner, &s.Name, &s.ClassName, &s.ExplicitClass,
		&s.Level, &s.Experience, &s.Skills, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// isUniqueViolation reports whether err is SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
