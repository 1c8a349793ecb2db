package token

const (
	tokenColumns = `id, user_id, name, token_hash, created_at, expires_at`

	SelectAllTokens = `
		SELECT ` + tokenColumns + `
		FROM user_tokens
	`
	SelectUserTokens = `
		SELECT ` + tokenColumns + `
		FROM user_tokens
		WHERE user_id = $1
		ORDER BY created_at, id
	`
	InsertToken = `
		INSERT INTO user_tokens (user_id, name, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + tokenColumns + `
	`
	DeleteUserTokenByName = `
		DELETE FROM user_tokens
		WHERE user_id = $1 AND name = $2
	`
)
