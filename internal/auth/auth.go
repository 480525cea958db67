package auth

import (
	"log"
	"strconv"
	"strings"
)

// User identifies the owner behind an API token.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Credential binds a bearer token to a user.
type Credential struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Repository supplies provisioned credentials. Token issuance happens
// outside this process; the core only reads.
type Repository interface {
	LoadAll() ([]Credential, error)
}

// Service resolves bearer tokens to users. The token table is built once at
// startup from the repository plus "token=id" pairs from the environment,
// and is read-only afterwards.
type Service struct {
	tokens map[string]User
}

func NewWithRepo(repo Repository, initial []string) (*Service, error) {
	s := &Service{tokens: make(map[string]User)}
	if repo != nil {
		creds, err := repo.LoadAll()
		if err != nil {
			log.Printf("failed to load credentials from repo: %v", err)
		}
		for _, c := range creds {
			s.tokens[c.Token] = c.User
		}
	}
	for _, pair := range initial {
		token, user, ok := parsePair(pair)
		if !ok {
			continue
		}
		if _, exists := s.tokens[token]; !exists {
			s.tokens[token] = user
		}
	}
	return s, nil
}

// parsePair splits a "token=id" entry; the id must be a positive integer.
func parsePair(pair string) (string, User, bool) {
	token, idPart, found := strings.Cut(strings.TrimSpace(pair), "=")
	if !found || token == "" {
		return "", User{}, false
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return "", User{}, false
	}
	return token, User{ID: id}, true
}

// Resolve returns the user behind the token, if it is known.
func (s *Service) Resolve(token string) (User, bool) {
	u, ok := s.tokens[token]
	return u, ok
}
