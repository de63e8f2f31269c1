package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- One row per reduce run
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,      -- UUID
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    command TEXT NOT NULL,        -- run, reduce
    input_hash TEXT,              -- sha256 of the raw input
    substrate TEXT NOT NULL,      -- goroutine, process, sequential
    capacity INTEGER NOT NULL,
    max_workers INTEGER DEFAULT 0,
    records INTEGER DEFAULT 0,
    workers INTEGER DEFAULT 0,
    total_count INTEGER DEFAULT 0,
    status TEXT NOT NULL,         -- success, failed
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_runs_input ON runs(input_hash);

-- Collected (key, topic, score) totals, in output order
CREATE TABLE IF NOT EXISTS run_totals (
    total_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    key TEXT NOT NULL,
    topic TEXT NOT NULL,
    score INTEGER NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, key, topic)
);

CREATE INDEX IF NOT EXISTS idx_totals_run ON run_totals(run_id);
CREATE INDEX IF NOT EXISTS idx_totals_key ON run_totals(key);
`
