// Package filestore persists verification requests as a single JSON
// snapshot on a shared filesystem path. Every mutation rewrites the whole
// document to a temporary file and renames it over the previous snapshot,
// so a reader never observes a torn document. It exists for local runs and
// for deployments where the two processes share a volume instead of a
// DynamoDB table.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-autopost/internal/domain"
)

// Store is a file-backed verification request store. The snapshot is
// re-read on every operation so mutations from the other process become
// visible without any IPC channel.
type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Put(_ context.Context, v *domain.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := records[v.VerificationID]; exists {
		return fmt.Errorf("verification id taken: %w", domain.ErrConflict)
	}
	records[v.VerificationID] = *v
	return s.save(records)
}

func (s *Store) Get(_ context.Context, verificationID string) (*domain.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	v, ok := records[verificationID]
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return &v, nil
}

// ListByStatus returns matching records ordered created_at ascending.
func (s *Store) ListByStatus(_ context.Context, status string) ([]domain.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []domain.VerificationRequest
	for _, v := range records {
		if v.Status == status {
			out = append(out, v)
		}
	}
	sortByCreatedAt(out)
	return out, nil
}

func (s *Store) FindPendingBySessionKey(_ context.Context, sessionKey string) (*domain.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	var matches []domain.VerificationRequest
	for _, v := range records {
		if v.SessionKey == sessionKey && v.Status == domain.StatusPending {
			matches = append(matches, v)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no pending verification for session key: %w", domain.ErrNotFound)
	}
	sortByCreatedAt(matches)
	return &matches[0], nil
}

// Transition moves a pending record to a terminal status. The check and the
// write happen under the store lock against a freshly loaded snapshot, which
// is the per-record serialization this backend can offer.
func (s *Store) Transition(_ context.Context, verificationID, newStatus, code string, resolvedAt time.Time) (*domain.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	v, ok := records[verificationID]
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	if v.Status != domain.StatusPending {
		return nil, fmt.Errorf("verification not pending: %w", domain.ErrConflict)
	}
	v.Status = newStatus
	v.Code = code
	v.ResolvedAt = &resolvedAt
	records[verificationID] = v
	if err := s.save(records); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) Delete(_ context.Context, verificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return err
	}
	delete(records, verificationID)
	return s.save(records)
}

func (s *Store) List(_ context.Context) ([]domain.VerificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]domain.VerificationRequest, 0, len(records))
	for _, v := range records {
		out = append(out, v)
	}
	sortByCreatedAt(out)
	return out, nil
}

// Reset replaces the snapshot with an empty document in one atomic rename.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(map[string]domain.VerificationRequest{})
}

// load reads the current snapshot. A missing file is an empty store. An
// unparseable file is preserved alongside for forensics and the store falls
// back to empty rather than silently overwriting it.
func (s *Store) load() (map[string]domain.VerificationRequest, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]domain.VerificationRequest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var records map[string]domain.VerificationRequest
	if err := json.Unmarshal(data, &records); err != nil {
		corruptPath := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().Unix())
		if renameErr := os.Rename(s.path, corruptPath); renameErr != nil {
			slog.Error("could not preserve corrupt snapshot", "path", s.path, "err", renameErr)
		} else {
			slog.Error("corrupt snapshot preserved, starting empty", "path", s.path, "preserved", corruptPath, "err", err)
		}
		return map[string]domain.VerificationRequest{}, nil
	}
	if records == nil {
		records = map[string]domain.VerificationRequest{}
	}
	return records, nil
}

// save writes the full snapshot to a temp file in the same directory and
// renames it into place.
func (s *Store) save(records map[string]domain.VerificationRequest) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func sortByCreatedAt(list []domain.VerificationRequest) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
