package data

import "fmt"

// UserSchema returns the CREATE TABLE statement for a user table named table,
// followed by its index statements. table must already be a safe identifier.
func UserSchema(d Dialect, table string) (string, []string) {
	q := d.QuoteIdent(table)
	createSQL := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    user_id %s,
    username VARCHAR(64) NOT NULL UNIQUE,
    password VARCHAR(2048) NOT NULL,
    token VARCHAR(512),
    token_expired BIGINT DEFAULT 0
)`, q, d.AutoIncrementKey())

	indexes := []string{
		fmt.Sprintf("CREATE UNIQUE INDEX %s ON %s (username)", d.QuoteIdent(table+"_username_uindex"), q),
		fmt.Sprintf("CREATE INDEX %s ON %s (token)", d.QuoteIdent(table+"_token_index"), q),
	}
	return createSQL, indexes
}
