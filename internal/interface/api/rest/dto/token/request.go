package token

type IssueRequest struct {
	Name string `json:"name"`
	// Duration is one of the configured tier names, e.g. "90d".
	Duration string `json:"duration"`
}
