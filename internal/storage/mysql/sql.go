package mysql

const getArtifactSQL = `
SELECT payload
FROM model_artifacts
WHERE name = ?
`

const upsertArtifactSQL = `
INSERT INTO model_artifacts (name, payload)
VALUES (?, ?)
ON DUPLICATE KEY UPDATE
  payload    = VALUES(payload),
  updated_at = CURRENT_TIMESTAMP
`

// CreateTableSQL is the schema the store expects.
const CreateTableSQL = `
CREATE TABLE IF NOT EXISTS model_artifacts (
  name       VARCHAR(191) NOT NULL PRIMARY KEY,
  payload    LONGBLOB     NOT NULL,
  created_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
)
`
