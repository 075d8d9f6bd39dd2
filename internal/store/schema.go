package store

const schema = `
CREATE TABLE IF NOT EXISTS installed_mods (
    app_id INTEGER NOT NULL,
    identifier TEXT NOT NULL,
    title TEXT,
    pack_file TEXT,
    version TEXT,
    install_path TEXT NOT NULL,
    installed_at TIMESTAMP NOT NULL,
    PRIMARY KEY (app_id, identifier)
);

CREATE TABLE IF NOT EXISTS operations (
    request_id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    app_id INTEGER NOT NULL,
    item_id INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    error TEXT,
    pumps INTEGER,
    elapsed_ms INTEGER,
    finished_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_installed_path ON installed_mods(install_path);
CREATE INDEX IF NOT EXISTS idx_operations_app ON operations(app_id);
CREATE INDEX IF NOT EXISTS idx_operations_finished ON operations(finished_at);
`
