package resource

const (
	resourceColumns = `id, user_id, file_name, created_at, expires_at`

	SelectResource = `
		SELECT ` + resourceColumns + `
		FROM resources
		WHERE id = $1
	`
	SelectResources = `
		SELECT ` + resourceColumns + `
		FROM resources
		ORDER BY expires_at
	`
	SelectResourceExists = `SELECT EXISTS (SELECT 1 FROM resources WHERE id = $1)`
	InsertResource       = `
		INSERT INTO resources (id, user_id, file_name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + resourceColumns + `
	`
	DeleteResourceByID = `DELETE FROM resources WHERE id = $1`
)
