package ports

// SecretHasher turns passwords and token secrets into salted, self-describing hashes.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(candidate, stored string) (bool, error)
}
