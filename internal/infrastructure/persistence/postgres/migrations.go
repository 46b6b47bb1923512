package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: ENTITY REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS students (
	id UUID PRIMARY KEY,
	nim TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	thesis_title TEXT NOT NULL DEFAULT '',
	supervisor_id UUID,
	current_stage INTEGER NOT NULL DEFAULT 1,
	stage_history JSONB NOT NULL DEFAULT '[]',
	scheduled_sessions JSONB NOT NULL DEFAULT '[]',
	is_scheduled BOOLEAN NOT NULL DEFAULT FALSE,
	outcome TEXT NOT NULL DEFAULT '',
	revision_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'active',
	graduated_at TIMESTAMP WITH TIME ZONE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	CONSTRAINT students_stage_range CHECK (current_stage BETWEEN 1 AND 13)
);

CREATE INDEX IF NOT EXISTS idx_students_status ON students(status);
CREATE INDEX IF NOT EXISTS idx_students_stage ON students(current_stage);
CREATE INDEX IF NOT EXISTS idx_students_supervisor ON students(supervisor_id);

CREATE TABLE IF NOT EXISTS lecturers (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	nidn TEXT NOT NULL DEFAULT '',
	expertise_tags TEXT[] NOT NULL DEFAULT '{}',
	role TEXT NOT NULL,
	quota_max INTEGER NOT NULL DEFAULT 0,
	quota_used INTEGER NOT NULL DEFAULT 0,
	availability JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	CONSTRAINT lecturers_quota CHECK (quota_used >= 0 AND quota_used <= quota_max)
);

CREATE INDEX IF NOT EXISTS idx_lecturers_role ON lecturers(role);

CREATE TABLE IF NOT EXISTS rooms (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	capacity INTEGER NOT NULL,
	facilities TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	CONSTRAINT rooms_capacity CHECK (capacity > 0)
);
`

const migration001Down = `
DROP TABLE IF EXISTS rooms;
DROP TABLE IF EXISTS lecturers;
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: SESSIONS & SLOT BOOKINGS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS sessions (
	id UUID PRIMARY KEY,
	kind TEXT NOT NULL,
	student_id UUID NOT NULL REFERENCES students(id),
	supervisor_id UUID,
	defense_date DATE NOT NULL,
	slot TEXT NOT NULL,
	room_id UUID NOT NULL REFERENCES rooms(id),
	examiner_ids UUID[] NOT NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	CONSTRAINT sessions_kind CHECK (kind IN ('sempro', 'final_defense'))
);

CREATE INDEX IF NOT EXISTS idx_sessions_student ON sessions(student_id);
CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(defense_date);

-- The booking ledger backing the availability index. The unique
-- constraint makes concurrent reservations for the same resource+slot
-- lose at insert time.
CREATE TABLE IF NOT EXISTS slot_bookings (
	id BIGSERIAL PRIMARY KEY,
	resource_type TEXT NOT NULL,
	resource_id UUID NOT NULL,
	defense_date DATE NOT NULL,
	slot TEXT NOT NULL,
	session_id UUID NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	CONSTRAINT slot_bookings_resource CHECK (resource_type IN ('lecturer', 'room')),
	CONSTRAINT slot_bookings_unique UNIQUE (resource_type, resource_id, defense_date, slot)
);

CREATE INDEX IF NOT EXISTS idx_slot_bookings_session ON slot_bookings(session_id);
`

const migration002Down = `
DROP TABLE IF EXISTS slot_bookings;
DROP TABLE IF EXISTS sessions;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: ACADEMIC CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS calendar_events (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	start_date TIMESTAMP WITH TIME ZONE NOT NULL,
	end_date TIMESTAMP WITH TIME ZONE NOT NULL,
	semester TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	CONSTRAINT calendar_events_kind CHECK (kind IN ('proposal', 'seminar', 'yudisium')),
	CONSTRAINT calendar_events_unique_pair UNIQUE (kind, semester)
);

CREATE INDEX IF NOT EXISTS idx_calendar_events_semester ON calendar_events(semester);
`

const migration003Down = `
DROP TABLE IF EXISTS calendar_events;
`
