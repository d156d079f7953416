package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopscript/apiserver/internal/metrics"
	"github.com/shopscript/apiserver/internal/store"
	"github.com/shopscript/apiserver/types"
)

// RecoveryService resets passwords through a stored security question.
//
// The flow keeps no state between steps. RequestQuestion discloses the question
// to anyone who knows the username; that is existing behaviour.
type RecoveryService struct {
	users  UserRepository
	hasher PasswordHasher
}

func NewRecoveryService(users UserRepository, hasher PasswordHasher) *RecoveryService {
	return &RecoveryService{users: users, hasher: hasher}
}

// RequestQuestion returns the security question configured for username.
func (s *RecoveryService) RequestQuestion(ctx context.Context, username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", ErrMissingFields
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(user.SecurityQuestion) == "" {
		return "", ErrNoQuestionConfigured
	}
	return user.SecurityQuestion, nil
}

// AnswerAndReset stores newPassword when answer matches the stored answer,
// ignoring case and surrounding whitespace. Nothing else on the record changes.
func (s *RecoveryService) AnswerAndReset(ctx context.Context, username, answer, newPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(answer) == "" || newPassword == "" {
		return ErrMissingFields
	}

	user, err := s.findUser(ctx, username)
	if err != nil {
		s.record(err)
		return err
	}
	if strings.TrimSpace(user.SecurityQuestion) == "" || strings.TrimSpace(user.SecurityAnswer) == "" {
		s.record(ErrNoQuestionConfigured)
		return ErrNoQuestionConfigured
	}
	if !answersMatch(answer, user.SecurityAnswer) {
		s.record(ErrIncorrectAnswer)
		zerolog.Ctx(ctx).Info().Int("user_id", user.ID).Msg("password reset rejected: incorrect answer")
		return ErrIncorrectAnswer
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.record(err)
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hashed); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.record(ErrUserNotFound)
			return ErrUserNotFound
		}
		s.record(err)
		return fmt.Errorf("update password: %w", err)
	}

	s.record(nil)
	zerolog.Ctx(ctx).Info().Int("user_id", user.ID).Msg("password reset via security question")
	return nil
}

func (s *RecoveryService) findUser(ctx context.Context, username string) (types.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUserNotFound
		}
		return types.User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *RecoveryService) record(err error) {
	outcome := "error"
	switch {
	case err == nil:
		outcome = "success"
	case errors.Is(err, ErrIncorrectAnswer):
		outcome = "incorrect_answer"
	case errors.Is(err, ErrUserNotFound):
		outcome = "user_not_found"
	case errors.Is(err, ErrNoQuestionConfigured):
		outcome = "no_question"
	}
	metrics.PasswordResetsTotal.WithLabelValues(outcome).Inc()
}

func answersMatch(submitted, stored string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(stored))
}
