package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scenarios (
    id                  TEXT PRIMARY KEY,
    name                TEXT NOT NULL,
    description         TEXT NOT NULL DEFAULT '',
    income_adjustment   REAL NOT NULL DEFAULT 0,
    expense_adjustment  REAL NOT NULL DEFAULT 0,
    is_default          INTEGER NOT NULL DEFAULT 0,
    created_at          TEXT NOT NULL,
    updated_at          TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS goals (
    id                    TEXT PRIMARY KEY,
    name                  TEXT NOT NULL,
    target_amount         REAL NOT NULL,
    target_date           TEXT NOT NULL,
    current_amount        REAL NOT NULL DEFAULT 0,
    monthly_contribution  REAL NOT NULL DEFAULT 0,
    created_at            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS spending_records (
    file_path       TEXT NOT NULL,
    seq             INTEGER NOT NULL,
    date            TEXT NOT NULL,
    category        TEXT NOT NULL,
    amount          REAL NOT NULL,
    is_anomaly      INTEGER NOT NULL DEFAULT 0,
    anomaly_reason  TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (file_path, seq)
);

CREATE TABLE IF NOT EXISTS forecast_points (
    file_path         TEXT NOT NULL,
    date              TEXT NOT NULL,
    actual            REAL,
    predicted         REAL NOT NULL,
    confidence_lower  REAL NOT NULL,
    confidence_upper  REAL NOT NULL,
    PRIMARY KEY (file_path, date)
);

CREATE TABLE IF NOT EXISTS income_sources (
    file_path    TEXT NOT NULL,
    seq          INTEGER NOT NULL,
    name         TEXT NOT NULL,
    amount       REAL NOT NULL,
    percentage   REAL NOT NULL DEFAULT 0,
    growth_rate  REAL NOT NULL DEFAULT 0,
    stability    TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (file_path, seq)
);

CREATE TABLE IF NOT EXISTS file_tracker (
    file_path     TEXT PRIMARY KEY,
    mtime_ns      INTEGER NOT NULL,
    size_bytes    INTEGER NOT NULL,
    parse_errors  INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_spending_date ON spending_records(date);
`
