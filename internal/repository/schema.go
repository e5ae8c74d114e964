package repository

// Schema definitions for the Harrier database.
// Compatible with both SQLite and PostgreSQL.

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    merchant_id TEXT NOT NULL,
    customer_id TEXT NOT NULL,
    amount REAL NOT NULL,
    payment_method TEXT,
    status TEXT,
    platform TEXT,
    timestamp TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    amount_flag INTEGER NOT NULL DEFAULT 0,
    time_flag INTEGER NOT NULL DEFAULT 0,
    velocity_flag INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_transactions_merchant ON transactions(merchant_id);
CREATE INDEX IF NOT EXISTS idx_transactions_merchant_ts ON transactions(merchant_id, timestamp);
CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions(merchant_id, customer_id);
`

const schemaRiskProfiles = `
CREATE TABLE IF NOT EXISTS risk_profiles (
    id TEXT PRIMARY KEY,
    merchant_id TEXT NOT NULL,
    overall_risk_score REAL NOT NULL,
    detected_patterns TEXT NOT NULL,
    risk_factors TEXT NOT NULL,
    monitoring_status TEXT NOT NULL,
    review_required INTEGER NOT NULL DEFAULT 0,
    last_updated TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_risk_profiles_merchant ON risk_profiles(merchant_id);
CREATE INDEX IF NOT EXISTS idx_risk_profiles_updated ON risk_profiles(merchant_id, last_updated);
`

const schemaTimelineEvents = `
CREATE TABLE IF NOT EXISTS timeline_events (
    id TEXT PRIMARY KEY,
    merchant_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    severity TEXT NOT NULL,
    description TEXT NOT NULL,
    metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_timeline_events_merchant ON timeline_events(merchant_id);
CREATE INDEX IF NOT EXISTS idx_timeline_events_ts ON timeline_events(merchant_id, timestamp);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaTransactions,
		schemaRiskProfiles,
		schemaTimelineEvents,
	}
}
