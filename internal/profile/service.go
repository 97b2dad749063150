// Package profile keeps the candidate profile in sync with its CV source file
// and drives the deterministic invalidation that follows a profile change.
package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"jobradar/internal/identity"
	"jobradar/internal/repository"
)

// DefaultProfileID is the single-candidate profile row. The schema allows
// more; nothing else assumes only one exists.
const DefaultProfileID = "default"

// BootstrapError marks a failure reading or fingerprinting the CV source. The
// previous profile state stays authoritative when it occurs.
type BootstrapError struct {
	Path string
	Err  error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("profile bootstrap from %s: %v", e.Path, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }

func IsBootstrapError(err error) bool {
	var be *BootstrapError
	return errors.As(err, &be)
}

type Service struct {
	profiles  repository.ProfileRepository
	relevance repository.RelevanceRepository
	cvPath    string
	logger    *log.Logger
	now       func() time.Time
	readFile  func(string) ([]byte, error)
}

func NewService(profiles repository.ProfileRepository, relevance repository.RelevanceRepository, cvPath string, logger *log.Logger) *Service {
	return &Service{
		profiles:  profiles,
		relevance: relevance,
		cvPath:    cvPath,
		logger:    logger,
		now:       time.Now,
		readFile:  os.ReadFile,
	}
}

func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) WithReadFile(fn func(string) ([]byte, error)) *Service {
	s.readFile = fn
	return s
}

// Bootstrap fingerprints the CV file and reconciles the stored profile. An
// unchanged fingerprint is a no-op. A changed one rewrites the profile row and
// resets every relevance row for it, which makes all pairs stale at once.
func (s *Service) Bootstrap(ctx context.Context) (bool, error) {
	raw, err := s.readFile(s.cvPath)
	if err != nil {
		berr := &BootstrapError{Path: s.cvPath, Err: err}
		if serr := s.profiles.SetLastError(ctx, DefaultProfileID, berr.Error()); serr != nil {
			s.logger.Printf("[Profile] set last_error failed err=%v", serr)
		}
		return false, berr
	}

	fp, err := identity.Fingerprint(bytes.NewReader(raw))
	if err != nil {
		return false, &BootstrapError{Path: s.cvPath, Err: err}
	}

	existing, err := s.profiles.Get(ctx, DefaultProfileID)
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}
	if existing != nil && existing.Fingerprint == fp {
		return false, nil
	}

	rec := repository.ProfileRecord{
		ProfileID:   DefaultProfileID,
		CVPath:      s.cvPath,
		Fingerprint: fp,
		ProfileText: normalizeProfileText(raw),
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.profiles.Upsert(ctx, rec); err != nil {
		return false, fmt.Errorf("store profile: %w", err)
	}

	if existing != nil {
		if err := s.relevance.ResetForProfile(ctx, DefaultProfileID); err != nil {
			return false, fmt.Errorf("reset relevance for profile: %w", err)
		}
		s.logger.Printf("[Profile] fingerprint changed profile=%s, relevance reset", DefaultProfileID)
	} else {
		s.logger.Printf("[Profile] created profile=%s", DefaultProfileID)
	}
	return true, nil
}

// Current returns the stored profile or ErrProfileNotFound.
func (s *Service) Current(ctx context.Context) (*repository.ProfileRecord, error) {
	p, err := s.profiles.Get(ctx, DefaultProfileID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, repository.ErrProfileNotFound
	}
	return p, nil
}

func normalizeProfileText(raw []byte) string {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, strings.TrimRight(l, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
