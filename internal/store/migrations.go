package store

// migration is a single versioned schema change.
type migration struct {
	version int
	sql     string
}

// migrations are applied in order; each runs at most once per database.
var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);

			CREATE TABLE IF NOT EXISTS documents (
				collection TEXT NOT NULL,
				id         TEXT NOT NULL,
				data       TEXT NOT NULL,
				updated_at TIMESTAMP NOT NULL,
				PRIMARY KEY (collection, id)
			);

			CREATE INDEX IF NOT EXISTS idx_documents_collection
				ON documents(collection);

			INSERT INTO schema_version (version) VALUES (1);
		`,
	},
}
