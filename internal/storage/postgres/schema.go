package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id      TEXT PRIMARY KEY,
		name    TEXT NOT NULL,
		email   TEXT NOT NULL DEFAULT '',
		phone   TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		category     TEXT NOT NULL DEFAULT '',
		description  TEXT NOT NULL DEFAULT '',
		ticket_price NUMERIC(12, 2) NOT NULL DEFAULT 0,
		event_start  TIMESTAMPTZ,
		event_end    TIMESTAMPTZ,
		capacity     INTEGER NOT NULL CHECK (capacity >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES users (id),
		event_id    TEXT NOT NULL REFERENCES events (id),
		visit_date  TEXT NOT NULL,
		visit_time  TEXT NOT NULL DEFAULT '',
		ticket_type TEXT NOT NULL DEFAULT '',
		quantity    INTEGER NOT NULL CHECK (quantity > 0),
		total_price NUMERIC(12, 2) NOT NULL DEFAULT 0,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS bookings_event_id_idx ON bookings (event_id)`,
	`CREATE INDEX IF NOT EXISTS bookings_user_id_idx ON bookings (user_id)`,
}
