package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

// AuthService exchanges credentials for a session.
//
// It performs the network round-trip only; storing the result is the caller's job.
type AuthService struct {
	api       *APIService
	loginPath string
}

func NewAuthService(api *APIService, loginPath string) *AuthService {
	if loginPath == "" {
		loginPath = "/api/v1/auth/login"
	}
	return &AuthService{api: api, loginPath: loginPath}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginPayload struct {
	User  *models.UserProfile `json:"user"`
	Token string              `json:"token"`
}

// Login posts credentials and returns the user and bearer token.
//
// Both {"user", "token"} and {"data": {"user", "token"}} responses are accepted.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Session{}, fmt.Errorf("%w: email and password are required", shared.ErrAuthFailed)
	}

	body, err := json.Marshal(credentials{Email: email, Password: password})
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to encode credentials: %w", err)
	}

	resp, err := s.api.Post(ctx, s.loginPath, body)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden || apiErr.StatusCode == http.StatusBadRequest) {
			return models.Session{}, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		return models.Session{}, err
	}

	var flat loginPayload
	if err := json.Unmarshal(resp.Body, &flat); err != nil {
		return models.Session{}, fmt.Errorf("failed to decode login response: %w", err)
	}
	if flat.Token == "" {
		env, err := Decode[loginPayload](resp)
		if err != nil {
			return models.Session{}, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		flat = env.Data
	}

	if flat.Token == "" {
		return models.Session{}, fmt.Errorf("%w: response carried no token", shared.ErrAuthFailed)
	}
	if flat.User == nil {
		flat.User = &models.UserProfile{Email: email}
	}
	return models.Session{User: flat.User, Token: flat.Token}, nil
}
