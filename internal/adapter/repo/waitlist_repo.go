package repo

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"strang/internal/domain"
	"strang/internal/infra"
	"strang/internal/storage"
)

const waitlistDocument = "waitlist.json"

type waitlistFile struct {
	Emails []string `json:"emails"`
}

// FileWaitlistRepository stores waitlist emails in a JSON document. The file
// is re-read on every call so edits made while the server runs are honored.
type FileWaitlistRepository struct {
	mu     sync.Mutex
	store  *storage.FileStore
	lower  cases.Caser
	logger zerolog.Logger
}

// NewFileWaitlistRepository creates a waitlist repository.
func NewFileWaitlistRepository(store *storage.FileStore, logger *infra.Logger) *FileWaitlistRepository {
	return &FileWaitlistRepository{
		store:  store,
		lower:  cases.Lower(language.Und),
		logger: infra.LoggerOrNop(logger),
	}
}

// NormalizeEmail trims and lower-cases an address.
func (r *FileWaitlistRepository) NormalizeEmail(email string) string {
	return r.lower.String(strings.TrimSpace(email))
}

// Join adds email unless its normalized form is already present.
func (r *FileWaitlistRepository) Join(ctx context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	normalized := r.NormalizeEmail(email)
	if normalized == "" {
		return false, domain.Errorf(domain.ErrInvalidInput, "email is required")
	}
	emails := r.loadLocked()
	for _, existing := range emails {
		if r.NormalizeEmail(existing) == normalized {
			return false, nil
		}
	}
	emails = append(emails, normalized)
	if err := r.store.WriteJSON(ctx, waitlistDocument, waitlistFile{Emails: emails}); err != nil {
		r.logger.Error().Err(err).Str("file", waitlistDocument).Msg("persist waitlist failed")
		return false, err
	}
	return true, nil
}

// Count returns the number of stored emails.
func (r *FileWaitlistRepository) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loadLocked()), nil
}

func (r *FileWaitlistRepository) loadLocked() []string {
	var doc waitlistFile
	if err := r.store.ReadJSON(waitlistDocument, &doc); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warn().Err(err).Str("file", waitlistDocument).Msg("ignoring unreadable waitlist")
		}
		return nil
	}
	return doc.Emails
}

var _ domain.WaitlistRepository = (*FileWaitlistRepository)(nil)
