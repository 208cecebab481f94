package auth

import "context"

// LoginTestChecker is a Checker for unit tests, with per-token canned answers.
type LoginTestChecker struct {
	LoggedSessions map[string]bool
}

func NewLoginTestChecker() *LoginTestChecker {
	return &LoginTestChecker{
		LoggedSessions: map[string]bool{},
	}
}

func (tc *LoginTestChecker) IsLogged(_ context.Context, token string) (bool, error) {
	return tc.LoggedSessions[token], nil
}
