package domain

import "math/rand/v2"

const (
	projectIDLength   = 12
	projectIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewProjectID generates a random 12-character alphanumeric project ID.
// IDs are opaque and not guessing-resistant; uniqueness is enforced by the
// store, which retries on collision.
func NewProjectID() string {
	b := make([]byte, projectIDLength)
	for i := range b {
		b[i] = projectIDAlphabet[rand.IntN(len(projectIDAlphabet))]
	}
	return string(b)
}
