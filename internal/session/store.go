// File: internal/session/store.go
// Package session persists authenticated browser state to disk so
// later tool calls can act on a site without logging in again. Each
// site gets one JSON file holding its cookies, user agent and save
// time; records expire 24 hours after they were written.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// TTL is how long a saved session stays usable.
const TTL = 24 * time.Hour

const fileSuffix = "_session.json"

var (
	ErrNotFound    = errors.New("session not found")
	ErrExpired     = errors.New("session expired, please login again")
	ErrInvalidSite = errors.New("invalid site name")
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the persisted state of one authenticated site.
type Record struct {
	Site      string            `json:"site"`
	Cookies   []*network.Cookie `json:"cookies"`
	UserAgent string            `json:"userAgent"`
	Timestamp int64             `json:"timestamp"` // unix milliseconds
}

// Info is one row of a session listing.
type Info struct {
	Site        string `json:"site"`
	Age         int64  `json:"age"` // milliseconds
	AgeHuman    string `json:"ageHuman"`
	Expired     bool   `json:"expired"`
	CookieCount int    `json:"cookieCount"`
}

// Listing is the full session inventory with totals.
type Listing struct {
	Sessions []Info `json:"sessions"`
	Total    int    `json:"total"`
	Active   int    `json:"active"`
	Expired  int    `json:"expired"`
}

// ClearResult reports the outcome of a Clear call. A missing session
// is reported here rather than as an error.
type ClearResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Store reads and writes session files under a single directory.
type Store struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(dir string, logger *zap.Logger) *Store {
	return &Store{
		dir:    dir,
		logger: logger.Named("sessions"),
		now:    time.Now,
	}
}

func (s *Store) path(site string) (string, error) {
	if site == "" || strings.ContainsAny(site, `/\`) || strings.Contains(site, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidSite, site)
	}
	return filepath.Join(s.dir, site+fileSuffix), nil
}

// Save writes rec to disk, creating the sessions directory if needed.
// A zero Timestamp is filled in with the current time.
func (s *Store) Save(rec *Record) error {
	path, err := s.path(rec.Site)
	if err != nil {
		return err
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = s.now().UnixMilli()
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create sessions dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	s.logger.Info("Session saved",
		zap.String("site", rec.Site),
		zap.Int("cookies", len(rec.Cookies)))
	return nil
}

// Load reads the session for site. It returns ErrNotFound when no
// file exists and ErrExpired when the record is older than TTL.
// Expiry is checked here, before any browser work happens.
func (s *Store) Load(site string) (*Record, error) {
	path, err := s.path(site)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, site)
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", site, err)
	}
	if s.age(rec.Timestamp) > TTL {
		return nil, fmt.Errorf("%w: %s", ErrExpired, site)
	}
	return &rec, nil
}

// List inventories every saved session. A missing sessions directory
// yields an empty listing, not an error. Unreadable files are skipped
// with a warning so one corrupt record cannot hide the rest.
func (s *Store) List() (*Listing, error) {
	out := &Listing{Sessions: []Info{}}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return out, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Warn("Skipping unreadable session file",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn("Skipping corrupt session file",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		age := s.age(rec.Timestamp)
		expired := age > TTL
		out.Sessions = append(out.Sessions, Info{
			Site:        rec.Site,
			Age:         age.Milliseconds(),
			AgeHuman:    humanizeAge(age),
			Expired:     expired,
			CookieCount: len(rec.Cookies),
		})
		if expired {
			out.Expired++
		} else {
			out.Active++
		}
	}
	out.Total = len(out.Sessions)
	return out, nil
}

// Clear deletes the session for site, or every session when site is
// "all". Clearing something that does not exist reports
// success=false rather than failing.
func (s *Store) Clear(site string) (*ClearResult, error) {
	if site == "all" {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			if os.IsNotExist(err) {
				return &ClearResult{Success: false, Message: "No sessions found"}, nil
			}
			return nil, fmt.Errorf("read sessions dir: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
				continue
			}
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
				return nil, fmt.Errorf("remove session: %w", err)
			}
		}
		s.logger.Info("All sessions cleared")
		return &ClearResult{Success: true, Message: "All sessions cleared"}, nil
	}

	path, err := s.path(site)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return &ClearResult{Success: false, Message: "No sessions found"}, nil
		}
		return nil, fmt.Errorf("remove session: %w", err)
	}
	s.logger.Info("Session cleared", zap.String("site", site))
	return &ClearResult{Success: true, Message: fmt.Sprintf("%s session cleared", site)}, nil
}

func (s *Store) age(timestampMs int64) time.Duration {
	return time.Duration(s.now().UnixMilli()-timestampMs) * time.Millisecond
}

func humanizeAge(d time.Duration) string {
	seconds := int64(d.Seconds())
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24
	switch {
	case days > 0:
		return fmt.Sprintf("%d days", days)
	case hours > 0:
		return fmt.Sprintf("%d hours", hours)
	case minutes > 0:
		return fmt.Sprintf("%d minutes", minutes)
	default:
		return fmt.Sprintf("%d seconds", seconds)
	}
}
