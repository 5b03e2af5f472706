package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

// db is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// PostgresRepository persists watchlists and generated analyses into Postgres.
type PostgresRepository struct {
	db db
	sb sq.StatementBuilderType
}

var _ ports.Repository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a pgx connection or pool.
func NewPostgresRepository(conn db) *PostgresRepository {
	return &PostgresRepository{
		db: conn,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// ListUsersWithTagsAndCatalysts loads every user with tags and catalysts in
// one query, ordered by creation time at every level.
func (r *PostgresRepository) ListUsersWithTagsAndCatalysts(ctx context.Context) ([]domain.UserWork, error) {
	query, args, err := r.sb.
		Select("u.id", "u.email", "u.name", "t.id", "t.name", "c.content").
		From("users u").
		LeftJoin("tags t ON t.user_id = u.id").
		LeftJoin("catalysts c ON c.tag_id = t.id").
		OrderBy("u.created_at", "u.id", "t.created_at", "t.id", "c.created_at", "c.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bulk load: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query bulk load: %w", err)
	}
	defer rows.Close()

	var (
		users []domain.UserWork
		user  *domain.UserWork
		tag   *domain.TagWork
	)
	for rows.Next() {
		var (
			userID, tagID     pgtype.UUID
			email, name       string
			tagName, catalyst pgtype.Text
		)
		if err := rows.Scan(&userID, &email, &name, &tagID, &tagName, &catalyst); err != nil {
			return nil, fmt.Errorf("scan bulk load: %w", err)
		}

		if user == nil || user.ID != uuid.UUID(userID.Bytes) {
			users = append(users, domain.UserWork{ID: uuid.UUID(userID.Bytes), Email: email, Name: name})
			user = &users[len(users)-1]
			tag = nil
		}
		if !tagID.Valid {
			continue
		}
		if tag == nil || tag.ID != uuid.UUID(tagID.Bytes) {
			user.Tags = append(user.Tags, domain.TagWork{ID: uuid.UUID(tagID.Bytes), Name: tagName.String, Catalysts: []string{}})
			tag = &user.Tags[len(user.Tags)-1]
		}
		if catalyst.Valid {
			tag.Catalysts = append(tag.Catalysts, catalyst.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows bulk load: %w", err)
	}

	return users, nil
}

// CreateAssessment appends one assessment row.
func (r *PostgresRepository) CreateAssessment(ctx context.Context, tagID uuid.UUID, result domain.AssessmentResult) (domain.Assessment, error) {
	query, args, err := r.sb.
		Insert("tag_assessments").
		Columns("tag_id", "points", "sentiment", "summary").
		Values(tagID, result.Points, string(result.Sentiment), result.Summary).
		Suffix("RETURNING id, tag_id, points, sentiment, summary, created_at").
		ToSql()
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("build insert assessment: %w", err)
	}

	a, err := scanAssessment(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Assessment{}, fmt.Errorf("insert assessment: %w", err)
	}
	return a, nil
}

// ListAssessments returns the newest assessments of a tag first.
func (r *PostgresRepository) ListAssessments(ctx context.Context, tagID uuid.UUID, limit int) ([]domain.Assessment, error) {
	query, args, err := r.sb.
		Select("id", "tag_id", "points", "sentiment", "summary", "created_at").
		From("tag_assessments").
		Where(sq.Eq{"tag_id": tagID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list assessments: %w", err)
	}
	return collect(ctx, r.db, "list assessments", query, args, scanAssessment)
}

// FindOrCreateUser returns the user with email, creating it on first sign-in.
func (r *PostgresRepository) FindOrCreateUser(ctx context.Context, email, name string) (domain.User, error) {
	query, args, err := r.sb.
		Insert("users").
		Columns("email", "name").
		Values(email, name).
		Suffix("ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email RETURNING id, email, name, created_at").
		ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("build upsert user: %w", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

// GetUser loads a user by ID.
func (r *PostgresRepository) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	query, args, err := r.sb.
		Select("id", "email", "name", "created_at").
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.User{}, fmt.Errorf("build get user: %w", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CreateTag inserts a tag for tag.UserID.
func (r *PostgresRepository) CreateTag(ctx context.Context, tag domain.Tag) (domain.Tag, error) {
	query, args, err := r.sb.
		Insert("tags").
		Columns("user_id", "name", "type").
		Values(tag.UserID, tag.Name, string(tag.Type)).
		Suffix("RETURNING id, user_id, name, type, created_at").
		ToSql()
	if err != nil {
		return domain.Tag{}, fmt.Errorf("build insert tag: %w", err)
	}

	out, err := scanTag(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Tag{}, fmt.Errorf("insert tag: %w", err)
	}
	return out, nil
}

// GetTag loads a tag by ID.
func (r *PostgresRepository) GetTag(ctx context.Context, id uuid.UUID) (domain.Tag, error) {
	query, args, err := r.sb.
		Select("id", "user_id", "name", "type", "created_at").
		From("tags").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Tag{}, fmt.Errorf("build get tag: %w", err)
	}

	t, err := scanTag(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Tag{}, fmt.Errorf("get tag: %w", err)
	}
	return t, nil
}

// ListTags returns a user's tags in creation order.
func (r *PostgresRepository) ListTags(ctx context.Context, userID uuid.UUID) ([]domain.Tag, error) {
	query, args, err := r.sb.
		Select("id", "user_id", "name", "type", "created_at").
		From("tags").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list tags: %w", err)
	}
	return collect(ctx, r.db, "list tags", query, args, scanTag)
}

// DeleteTag removes a tag; catalysts and analyses cascade.
func (r *PostgresRepository) DeleteTag(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "tags", id)
}

// CreateCatalyst attaches a watch-item to a tag.
func (r *PostgresRepository) CreateCatalyst(ctx context.Context, tagID uuid.UUID, content string) (domain.Catalyst, error) {
	query, args, err := r.sb.
		Insert("catalysts").
		Columns("tag_id", "content").
		Values(tagID, content).
		Suffix("RETURNING id, tag_id, content, created_at").
		ToSql()
	if err != nil {
		return domain.Catalyst{}, fmt.Errorf("build insert catalyst: %w", err)
	}

	c, err := scanCatalyst(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Catalyst{}, fmt.Errorf("insert catalyst: %w", err)
	}
	return c, nil
}

// GetCatalyst loads a catalyst by ID.
func (r *PostgresRepository) GetCatalyst(ctx context.Context, id uuid.UUID) (domain.Catalyst, error) {
	query, args, err := r.sb.
		Select("id", "tag_id", "content", "created_at").
		From("catalysts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Catalyst{}, fmt.Errorf("build get catalyst: %w", err)
	}

	c, err := scanCatalyst(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return domain.Catalyst{}, fmt.Errorf("get catalyst: %w", err)
	}
	return c, nil
}

// ListCatalysts returns the catalysts of a tag in creation order.
func (r *PostgresRepository) ListCatalysts(ctx context.Context, tagID uuid.UUID) ([]domain.Catalyst, error) {
	query, args, err := r.sb.
		Select("id", "tag_id", "content", "created_at").
		From("catalysts").
		Where(sq.Eq{"tag_id": tagID}).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list catalysts: %w", err)
	}
	return collect(ctx, r.db, "list catalysts", query, args, scanCatalyst)
}

// DeleteCatalyst removes a catalyst.
func (r *PostgresRepository) DeleteCatalyst(ctx context.Context, id uuid.UUID) error {
	return r.deleteByID(ctx, "catalysts", id)
}

// CreateReport stores an on-demand report.
func (r *PostgresRepository) CreateReport(ctx context.Context, tagID uuid.UUID, content string) (domain.Report, error) {
	id, createdAt, err := r.insertContent(ctx, "daily_reports", tagID, content)
	if err != nil {
		return domain.Report{}, err
	}
	return domain.Report{ID: id, TagID: tagID, Content: content, CreatedAt: createdAt}, nil
}

// ListReports returns the newest reports of a tag first.
func (r *PostgresRepository) ListReports(ctx context.Context, tagID uuid.UUID, limit int) ([]domain.Report, error) {
	query, args, err := r.contentQuery("daily_reports", tagID, limit)
	if err != nil {
		return nil, err
	}
	return collect(ctx, r.db, "list reports", query, args, func(s scanner) (domain.Report, error) {
		var (
			rep    domain.Report
			id, tg pgtype.UUID
		)
		if err := s.Scan(&id, &tg, &rep.Content, &rep.CreatedAt); err != nil {
			return domain.Report{}, err
		}
		rep.ID, rep.TagID = uuid.UUID(id.Bytes), uuid.UUID(tg.Bytes)
		return rep, nil
	})
}

// CreateOverallAnalysis stores an overall analysis.
func (r *PostgresRepository) CreateOverallAnalysis(ctx context.Context, tagID uuid.UUID, content string) (domain.OverallAnalysis, error) {
	id, createdAt, err := r.insertContent(ctx, "overall_analyses", tagID, content)
	if err != nil {
		return domain.OverallAnalysis{}, err
	}
	return domain.OverallAnalysis{ID: id, TagID: tagID, Content: content, CreatedAt: createdAt}, nil
}

// ListOverallAnalyses returns the newest overall analyses of a tag first.
func (r *PostgresRepository) ListOverallAnalyses(ctx context.Context, tagID uuid.UUID, limit int) ([]domain.OverallAnalysis, error) {
	query, args, err := r.contentQuery("overall_analyses", tagID, limit)
	if err != nil {
		return nil, err
	}
	return collect(ctx, r.db, "list overall analyses", query, args, func(s scanner) (domain.OverallAnalysis, error) {
		var (
			out    domain.OverallAnalysis
			id, tg pgtype.UUID
		)
		if err := s.Scan(&id, &tg, &out.Content, &out.CreatedAt); err != nil {
			return domain.OverallAnalysis{}, err
		}
		out.ID, out.TagID = uuid.UUID(id.Bytes), uuid.UUID(tg.Bytes)
		return out, nil
	})
}

func (r *PostgresRepository) insertContent(ctx context.Context, table string, tagID uuid.UUID, content string) (uuid.UUID, time.Time, error) {
	query, args, err := r.sb.
		Insert(table).
		Columns("tag_id", "content").
		Values(tagID, content).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("build insert %s: %w", table, err)
	}

	var (
		id        pgtype.UUID
		createdAt time.Time
	)
	if err := r.db.QueryRow(ctx, query, args...).Scan(&id, &createdAt); err != nil {
		return uuid.Nil, time.Time{}, fmt.Errorf("insert %s: %w", table, err)
	}
	return uuid.UUID(id.Bytes), createdAt, nil
}

func (r *PostgresRepository) contentQuery(table string, tagID uuid.UUID, limit int) (string, []any, error) {
	query, args, err := r.sb.
		Select("id", "tag_id", "content", "created_at").
		From(table).
		Where(sq.Eq{"tag_id": tagID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build list %s: %w", table, err)
	}
	return query, args, nil
}

func (r *PostgresRepository) deleteByID(ctx context.Context, table string, id uuid.UUID) error {
	query, args, err := r.sb.Delete(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete %s: %w", table, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", table, domain.ErrNotFound)
	}
	return nil
}

func collect[T any](ctx context.Context, conn db, op, query string, args []any, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

func scanUser(s scanner) (domain.User, error) {
	var (
		u  domain.User
		id pgtype.UUID
	)
	if err := s.Scan(&id, &u.Email, &u.Name, &u.CreatedAt); err != nil {
		return domain.User{}, notFound(err)
	}
	u.ID = uuid.UUID(id.Bytes)
	return u, nil
}

func scanTag(s scanner) (domain.Tag, error) {
	var (
		t          domain.Tag
		id, userID pgtype.UUID
		tagType    string
	)
	if err := s.Scan(&id, &userID, &t.Name, &tagType, &t.CreatedAt); err != nil {
		return domain.Tag{}, notFound(err)
	}
	t.ID, t.UserID, t.Type = uuid.UUID(id.Bytes), uuid.UUID(userID.Bytes), domain.TagType(tagType)
	return t, nil
}

func scanCatalyst(s scanner) (domain.Catalyst, error) {
	var (
		c         domain.Catalyst
		id, tagID pgtype.UUID
	)
	if err := s.Scan(&id, &tagID, &c.Content, &c.CreatedAt); err != nil {
		return domain.Catalyst{}, notFound(err)
	}
	c.ID, c.TagID = uuid.UUID(id.Bytes), uuid.UUID(tagID.Bytes)
	return c, nil
}

func scanAssessment(s scanner) (domain.Assessment, error) {
	var (
		a         domain.Assessment
		id, tagID pgtype.UUID
		sentiment string
	)
	if err := s.Scan(&id, &tagID, &a.Points, &sentiment, &a.Summary, &a.CreatedAt); err != nil {
		return domain.Assessment{}, notFound(err)
	}
	a.ID, a.TagID, a.Sentiment = uuid.UUID(id.Bytes), uuid.UUID(tagID.Bytes), domain.Sentiment(sentiment)
	return a, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
