package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopscript/apiserver/types"
)

const maxSettingValueLength = 2000

// DefaultSettings are written when the settings table is empty.
var DefaultSettings = map[string]string{
	"hero_title":    "Find Your Next Obsession",
	"hero_subtitle": "Shop the latest trends in fashion, electronics, and home essentials. unbeatable prices and premium quality.",
	"hero_image":    "https://images.unsplash.com/photo-1472851294608-415522f97817?auto=format&fit=crop&q=80&w=1920",
}

// SettingRepository defines persistence operations for site settings.
type SettingRepository interface {
	All(ctx context.Context) (map[string]string, error)
	Count(ctx context.Context) (int, error)
	Upsert(ctx context.Context, settings map[string]string) error
}

// SettingService manages site-wide configurable content.
type SettingService struct {
	repo SettingRepository
}

func NewSettingService(repo SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

func (s *SettingService) All(ctx context.Context) (map[string]string, error) {
	return s.repo.All(ctx)
}

// Update upserts every pair; admin only.
func (s *SettingService) Update(ctx context.Context, actor types.Principal, settings map[string]string) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if len(settings) == 0 {
		return ErrMissingFields
	}

	cleaned := make(map[string]string, len(settings))
	for key, value := range settings {
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("%w: setting key must not be empty", ErrInvalidInput)
		}
		if utf8.RuneCountInString(value) > maxSettingValueLength {
			return fmt.Errorf("%w: value for %s is too long", ErrInvalidInput, key)
		}
		cleaned[key] = value
	}
	return s.repo.Upsert(ctx, cleaned)
}

// SeedDefaults writes DefaultSettings when no settings exist. It reports whether it wrote anything.
func (s *SettingService) SeedDefaults(ctx context.Context) (bool, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if err := s.repo.Upsert(ctx, DefaultSettings); err != nil {
		return false, err
	}
	return true, nil
}
