package store

// Schema is applied at startup; every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS admins (
    id            UUID PRIMARY KEY,
    email         TEXT UNIQUE NOT NULL,
    name          TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'ADMIN',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS students (
    id            UUID PRIMARY KEY,
    roll_number   TEXT UNIQUE NOT NULL,
    student_name  TEXT NOT NULL,
    department    TEXT NOT NULL,
    program_type  TEXT NOT NULL CHECK (program_type IN ('UG', 'PG')),
    password_hash TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_department ON students(department);

CREATE TABLE IF NOT EXISTS attendance (
    id             UUID PRIMARY KEY,
    student_id     UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    date           DATE NOT NULL,
    am_present     BOOLEAN NOT NULL DEFAULT FALSE,
    pm_present     BOOLEAN NOT NULL DEFAULT FALSE,
    training_event TEXT NOT NULL DEFAULT '',
    remarks        TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (student_id, date)
);

CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date);

CREATE TABLE IF NOT EXISTS daily_events (
    id                UUID PRIMARY KEY,
    date              DATE NOT NULL,
    event_name        TEXT NOT NULL,
    event_description TEXT NOT NULL DEFAULT '',
    completed         BOOLEAN NOT NULL DEFAULT FALSE,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (date, event_name)
);
`
