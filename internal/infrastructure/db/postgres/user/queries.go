package user

const (
	userColumns = `id, uuid, email, name, password_hash, kind, created_at, last_action_at`

	SelectUserByID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE uuid = $1
	`
	SelectUserByInternalID = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
	`
	SelectUserByEmail = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1
	`
	InsertUser = `
		INSERT INTO users (email, name, password_hash, kind)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns + `
	`
	UpdateLastAction = `
		UPDATE users
		SET last_action_at = $2
		WHERE id = $1
	`
)
