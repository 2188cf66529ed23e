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

// Schedule is one cached timetable row. Date is "YYYY-MM-DD",
// Starttime/Endtime are "HH:MM"; the fixed-width formats sort
// chronologically as plain strings.
type Schedule struct {
	ID        int64
	Date      string
	Starttime string
	Endtime   string
	Room      string
	Remain    int64
}

type GetScheduleIdParams struct {
	Date      string
	Starttime string
	Endtime   string
	Room      string
}

const getScheduleId = `
SELECT id FROM schedules
WHERE date = ? AND starttime = ? AND endtime = ? AND room = ?
`

func (q *Queries) GetScheduleId(ctx context.Context, arg GetScheduleIdParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, getScheduleId,
		arg.Date, arg.Starttime, arg.Endtime, arg.Room)
	var id int64
	err := row.Scan(&id)
	return id, err
}

type CreateScheduleParams struct {
	Date      string
	Starttime string
	Endtime   string
	Room      string
	Remain    int64
}

const createSchedule = `
INSERT INTO schedules (date, starttime, endtime, room, remain)
VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) CreateSchedule(ctx context.Context, arg CreateScheduleParams) error {
	_, err := q.db.ExecContext(ctx, createSchedule,
		arg.Date, arg.Starttime, arg.Endtime, arg.Room, arg.Remain)
	return err
}

type UpdateScheduleParams struct {
	Room   string
	Remain int64
	ID     int64
}

const updateSchedule = `
UPDATE schedules SET room = ?, remain = ? WHERE id = ?
`

func (q *Queries) UpdateSchedule(ctx context.Context, arg UpdateScheduleParams) error {
	_, err := q.db.ExecContext(ctx, updateSchedule, arg.Room, arg.Remain, arg.ID)
	return err
}

const getAvailableSchedulesAfter = `
SELECT id, date, starttime, endtime, room, remain FROM schedules
WHERE remain > 0 AND date > ?
ORDER BY date, starttime
`

func (q *Queries) GetAvailableSchedulesAfter(ctx context.Context, date string) ([]Schedule, error) {
	rows, err := q.db.QueryContext(ctx, getAvailableSchedulesAfter, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Schedule
	for rows.Next() {
		var s Schedule
		err := rows.Scan(&s.ID, &s.Date, &s.Starttime, &s.Endtime, &s.Room, &s.Remain)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
