package store

// The DDL sticks to types both postgres and sqlite understand.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS candidates (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL,
		chat_id BIGINT NOT NULL DEFAULT 0,
		city TEXT NOT NULL DEFAULT '',
		citizenship TEXT NOT NULL DEFAULT '',
		birth_date TIMESTAMP,
		relocation_ready BOOLEAN,
		status TEXT NOT NULL DEFAULT 'pending',
		resume_text TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS vacancies (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS applications (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL REFERENCES candidates(id),
		vacancy_id TEXT NOT NULL REFERENCES vacancies(id),
		status TEXT NOT NULL DEFAULT 'active',
		applied_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		vacancy_id TEXT NOT NULL REFERENCES vacancies(id),
		ord INTEGER NOT NULL,
		text TEXT NOT NULL,
		format TEXT NOT NULL,
		choices TEXT NOT NULL DEFAULT '',
		for_screening BOOLEAN NOT NULL DEFAULT FALSE,
		screening_prompt TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL REFERENCES candidates(id),
		application_id TEXT NOT NULL REFERENCES applications(id),
		vacancy_id TEXT NOT NULL REFERENCES vacancies(id),
		current_question_id TEXT NOT NULL DEFAULT '',
		step INTEGER NOT NULL DEFAULT 0,
		answers TEXT NOT NULL DEFAULT '{}',
		state TEXT NOT NULL DEFAULT 'started',
		consent TEXT NOT NULL DEFAULT '',
		version BIGINT NOT NULL DEFAULT 1,
		started_at TIMESTAMP NOT NULL,
		last_active TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS interactions_application_idx ON interactions(application_id)`,
	`CREATE TABLE IF NOT EXISTS analysis_results (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL REFERENCES candidates(id),
		application_id TEXT NOT NULL REFERENCES applications(id),
		source TEXT NOT NULL,
		score DOUBLE PRECISION NOT NULL DEFAULT 0,
		decision TEXT NOT NULL DEFAULT 'pending',
		summary TEXT NOT NULL DEFAULT '',
		processed_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS hr_notifications (
		id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL REFERENCES candidates(id),
		channel TEXT NOT NULL DEFAULT 'telegram',
		payload TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'sent',
		sent_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reminders (
		chat_id BIGINT PRIMARY KEY,
		application_id TEXT NOT NULL,
		due_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS registration_tokens (
		token TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL REFERENCES candidates(id),
		created_at TIMESTAMP NOT NULL,
		used_at TIMESTAMP
	)`,
}
