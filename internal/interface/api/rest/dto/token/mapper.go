package token

import (
	"time"

	"tempfiles-api/internal/domain/token"
)

func ToIssueResponse(secret string, t token.Token) IssueResponse {
	return IssueResponse{
		Token:     secret,
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}
}

func ToResponseToken(t token.Token, now time.Time) Token {
	return Token{
		Name:      t.Name,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
		Expired:   t.Expired(now),
	}
}

func ToResponseTokens(tsDomain token.Tokens, now time.Time) Tokens {
	ts := make(Tokens, len(tsDomain))
	for idx, t := range tsDomain {
		ts[idx] = ToResponseToken(*t, now)
	}

	return ts
}
