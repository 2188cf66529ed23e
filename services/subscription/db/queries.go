package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Subscriber struct {
	ID        int64
	Email     string
	CreatedAt int64
}

type CreateSubscriberParams struct {
	Email     string
	CreatedAt int64
}

const createSubscriber = `
INSERT INTO emails (email, created_at) VALUES (?, ?)
`

func (q *Queries) CreateSubscriber(ctx context.Context, arg CreateSubscriberParams) error {
	_, err := q.db.ExecContext(ctx, createSubscriber, arg.Email, arg.CreatedAt)
	return err
}

const deleteSubscriber = `
DELETE FROM emails WHERE email = ?
`

func (q *Queries) DeleteSubscriber(ctx context.Context, email string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteSubscriber, email)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listSubscribers = `
SELECT id, email, created_at FROM emails ORDER BY created_at DESC
`

func (q *Queries) ListSubscribers(ctx context.Context) ([]Subscriber, error) {
	rows, err := q.db.QueryContext(ctx, listSubscribers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Subscriber
	for rows.Next() {
		var s Subscriber
		err := rows.Scan(&s.ID, &s.Email, &s.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

type CreateUnsubscribeTokenParams struct {
	Token string
	Email string
}

const createUnsubscribeToken = `
INSERT OR REPLACE INTO unsubscribe_tokens (token, email) VALUES (?, ?)
`

func (q *Queries) CreateUnsubscribeToken(ctx context.Context, arg CreateUnsubscribeTokenParams) error {
	_, err := q.db.ExecContext(ctx, createUnsubscribeToken, arg.Token, arg.Email)
	return err
}

const getEmailFromToken = `
SELECT email FROM unsubscribe_tokens WHERE token = ?
`

func (q *Queries) GetEmailFromToken(ctx context.Context, token string) (string, error) {
	row := q.db.QueryRowContext(ctx, getEmailFromToken, token)
	var email string
	err := row.Scan(&email)
	return email, err
}

const getTokenForEmail = `
SELECT token FROM unsubscribe_tokens WHERE email = ?
`

func (q *Queries) GetTokenForEmail(ctx context.Context, email string) (string, error) {
	row := q.db.QueryRowContext(ctx, getTokenForEmail, email)
	var token string
	err := row.Scan(&token)
	return token, err
}

const deleteTokensForEmail = `
DELETE FROM unsubscribe_tokens WHERE email = ?
`

func (q *Queries) DeleteTokensForEmail(ctx context.Context, email string) error {
	_, err := q.db.ExecContext(ctx, deleteTokensForEmail, email)
	return err
}
