// Package memory is an in-process implementation of the store. It backs the
// "memory" storage mode and the handler tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ViniZap4/tonote-server/domain"
)

type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[string]domain.User
	notes    map[string]domain.Note
	sessions map[string]domain.SessionRecord
	otps     map[string]domain.OTPCode
	resets   map[string]resetRecord
}

type resetRecord struct {
	domain.PasswordReset
	used bool
}

func New() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[string]domain.User),
		notes:    make(map[string]domain.Note),
		sessions: make(map[string]domain.SessionRecord),
		otps:     make(map[string]domain.OTPCode),
		resets:   make(map[string]resetRecord),
	}
}

// WithClock replaces the time source; tests use it to order updates.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }

func cloneNote(n domain.Note) domain.Note {
	n.Tags = append([]string{}, n.Tags...)
	return n
}

func (s *Store) ListNotes(_ context.Context, userID string) ([]domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notes := make([]domain.Note, 0)
	for _, n := range s.notes {
		if n.UserID == userID {
			notes = append(notes, cloneNote(n))
		}
	}
	sort.SliceStable(notes, func(i, j int) bool {
		if notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].ID < notes[j].ID
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes, nil
}

func (s *Store) GetNote(_ context.Context, userID, id string) (domain.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return domain.Note{}, fmt.Errorf("get note %s: %w", id, domain.ErrNotFound)
	}
	return cloneNote(n), nil
}

func (s *Store) CreateNote(_ context.Context, userID string, in domain.NoteInput) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := domain.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		Tags:      domain.NormalizeTags(in.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.notes[n.ID] = n
	return cloneNote(n), nil
}

func (s *Store) UpdateNote(_ context.Context, userID, id string, p domain.NotePatch) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return domain.Note{}, fmt.Errorf("update note %s: %w", id, domain.ErrNotFound)
	}
	p.Apply(&n)
	n.UpdatedAt = s.now()
	s.notes[id] = n
	return cloneNote(n), nil
}

func (s *Store) SetArchived(_ context.Context, userID, id string, archived bool) (domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return domain.Note{}, fmt.Errorf("archive note %s: %w", id, domain.ErrNotFound)
	}
	n.IsArchived = archived
	n.UpdatedAt = s.now()
	s.notes[id] = n
	return cloneNote(n), nil
}

func (s *Store) DeleteNote(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return fmt.Errorf("delete note %s: %w", id, domain.ErrNotFound)
	}
	delete(s.notes, id)
	return nil
}

func (s *Store) ListTags(ctx context.Context, userID string) ([]string, error) {
	notes, err := s.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.AllTags(notes), nil
}

func (s *Store) CreateUser(_ context.Context, email, passwordHash string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return domain.User{}, fmt.Errorf("create user: %w", domain.ErrEmailTaken)
		}
	}
	now := s.now()
	prefs := domain.DefaultPreferences()
	u := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		ColorTheme:   prefs.ColorTheme,
		FontTheme:    prefs.FontTheme,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("get user by email: %w", domain.ErrNotFound)
}

func (s *Store) GetUserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, domain.ErrNotFound)
	}
	return u, nil
}

func (s *Store) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("update password: %w", domain.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = s.now()
	s.users[userID] = u
	return nil
}

func (s *Store) UpdatePreferences(_ context.Context, userID string, p domain.Preferences) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, fmt.Errorf("update preferences: %w", domain.ErrNotFound)
	}
	u.ColorTheme = p.ColorTheme
	u.FontTheme = p.FontTheme
	u.UpdatedAt = s.now()
	s.users[userID] = u
	return u, nil
}

func (s *Store) CreateSession(_ context.Context, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[rec.TokenHash] = rec
	return nil
}

func (s *Store) GetSession(_ context.Context, tokenHash string) (domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[tokenHash]
	if !ok {
		return domain.SessionRecord{}, fmt.Errorf("get session: %w", domain.ErrNotFound)
	}
	return rec, nil
}

func (s *Store) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}

func (s *Store) DeleteUserSessions(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, rec := range s.sessions {
		if rec.UserID == userID {
			delete(s.sessions, hash)
		}
	}
	return nil
}

func (s *Store) SaveOTP(_ context.Context, c domain.OTPCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Attempts = 0
	s.otps[c.Email] = c
	return nil
}

func (s *Store) GetOTP(_ context.Context, email string) (domain.OTPCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.otps[email]
	if !ok {
		return domain.OTPCode{}, fmt.Errorf("get otp: %w", domain.ErrNotFound)
	}
	return c, nil
}

func (s *Store) IncrementOTPAttempts(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.otps[email]
	if !ok {
		return 0, fmt.Errorf("increment otp attempts: %w", domain.ErrNotFound)
	}
	c.Attempts++
	s.otps[email] = c
	return c.Attempts, nil
}

func (s *Store) DeleteOTP(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.otps, email)
	return nil
}

func (s *Store) CreateReset(_ context.Context, r domain.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets[r.TokenHash] = resetRecord{PasswordReset: r}
	return nil
}

func (s *Store) ConsumeReset(_ context.Context, tokenHash string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.resets[tokenHash]
	if !ok || r.used || !r.ExpiresAt.After(now) {
		return "", fmt.Errorf("consume reset: %w", domain.ErrTokenInvalid)
	}
	r.used = true
	s.resets[tokenHash] = r
	return r.UserID, nil
}
