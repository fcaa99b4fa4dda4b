// Package passcode manages the single one-time passcode that gates
// credential rotation.
//
// The passcode is a high-entropy URL-safe bearer token with a fixed expiry
// window. It lives in a small JSON file shared with the web front end, so
// every operation reloads the file before acting and persists immediately
// after mutating. Validation enforces a minimum interval between checks by
// blocking the caller, which rate-limits brute-force guessing for every
// entry point that uses the store.
package passcode

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	swerrors "github.com/cserlab/scopuswatch/internal/errors"
)

// Sentinel is the stored value meaning "no passcode / access denied".
// It must never validate.
const Sentinel = ""

// tokenBytes is the entropy of a freshly issued passcode (256 bits).
const tokenBytes = 32

// StoreConfig holds configuration for the passcode store.
type StoreConfig struct {
	// Path is the location of the passcode JSON file.
	Path string

	// ExpiryWindow is how long an issued passcode stays usable.
	ExpiryWindow time.Duration

	// ThrottleInterval is the minimum wall-clock spacing between
	// validation attempts.
	ThrottleInterval time.Duration
}

// DefaultStoreConfig returns the default passcode store configuration.
func DefaultStoreConfig(path string) StoreConfig {
	return StoreConfig{
		Path:             path,
		ExpiryWindow:     24 * time.Hour,
		ThrottleInterval: time.Second,
	}
}

// record is the on-disk shape of the passcode file. Timestamps are
// epoch-seconds; existing files may carry them as either JSON strings or
// numbers, so both are accepted on read and strings are written.
type record struct {
	CurrentPasscode string       `json:"CURRENTPASSCODE"`
	Modified        epochSeconds `json:"MODIFIED"`
	LastChecked     epochSeconds `json:"LASTCHECKED"`
}

// epochSeconds serializes a float epoch-second timestamp as a string while
// accepting bare numbers from older files.
type epochSeconds float64

func (e epochSeconds) MarshalJSON() ([]byte, error) {
	s := strconv.FormatFloat(float64(e), 'f', -1, 64)
	return json.Marshal(s)
}

func (e *epochSeconds) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		*e = epochSeconds(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	*e = epochSeconds(f)
	return nil
}

func (e epochSeconds) time() time.Time {
	sec, frac := math.Modf(float64(e))
	return time.Unix(int64(sec), int64(frac*1e9))
}

func toEpoch(t time.Time) epochSeconds {
	return epochSeconds(float64(t.UnixNano()) / 1e9)
}

// Store owns the current one-time passcode. Exactly one live record exists
// at a time; issuing or resetting overwrites it in place.
type Store struct {
	config StoreConfig

	// now and sleep are injectable for tests.
	now   func() time.Time
	sleep func(time.Duration)

	mu  sync.Mutex
	rec record
}

// NewStore creates a passcode store backed by the file at config.Path,
// bootstrapping a reset record if the file does not exist yet.
func NewStore(config StoreConfig) (*Store, error) {
	s := &Store{
		config: config,
		now:    time.Now,
		sleep:  time.Sleep,
	}

	if _, err := os.Stat(config.Path); os.IsNotExist(err) {
		now := toEpoch(s.now())
		s.rec = record{CurrentPasscode: Sentinel, Modified: now, LastChecked: now}
		if err := s.persist(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, swerrors.StoreError{Path: config.Path, Op: "stat", Err: err}
	}

	return s, nil
}

// SetClock sets custom time functions for testing.
func (s *Store) SetClock(now func() time.Time, sleep func(time.Duration)) {
	s.now = now
	s.sleep = sleep
}

// Create issues a fresh passcode, persists it and returns it. Both the
// modified and last-checked timestamps move to now.
func (s *Store) Create() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(); err != nil {
		return "", err
	}

	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := toEpoch(s.now())
	s.rec = record{CurrentPasscode: token, Modified: now, LastChecked: now}
	if err := s.persist(); err != nil {
		return "", err
	}

	recordIssued()
	return token, nil
}

// ResetLink issues a fresh passcode and returns the reset URL built from
// the supplied base URL.
func (s *Store) ResetLink(baseURL string) (string, error) {
	token, err := s.Create()
	if err != nil {
		return "", err
	}
	return baseURL + "/" + token, nil
}

// IsExpired reports whether the current passcode has outlived the expiry
// window. Expiry is independent of validity: an old unused passcode reports
// expired even though it would still string-match.
func (s *Store) IsExpired() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(); err != nil {
		return false, err
	}

	deadline := s.rec.Modified.time().Add(s.config.ExpiryWindow)
	return !s.now().Before(deadline), nil
}

// IsValid checks a candidate against the stored passcode.
//
// The call first blocks until at least ThrottleInterval has passed since
// the previous check, then records the attempt (updating LASTCHECKED on
// disk before comparing) so that concurrent guessers cannot reset the
// throttle window by racing. The sentinel never validates.
func (s *Store) IsValid(candidate string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(); err != nil {
		return false, err
	}

	last := s.rec.LastChecked.time().Truncate(time.Second)
	if wait := last.Add(s.config.ThrottleInterval).Sub(s.now()); wait > 0 {
		s.sleep(wait)
	}

	s.rec.LastChecked = toEpoch(s.now())
	if err := s.persist(); err != nil {
		return false, err
	}

	valid := candidate != Sentinel && candidate == s.rec.CurrentPasscode
	recordCheck(valid)
	return valid, nil
}

// Reset revokes the current passcode, closing the access window.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := toEpoch(s.now())
	s.rec = record{CurrentPasscode: Sentinel, Modified: now, LastChecked: now}
	if err := s.persist(); err != nil {
		return err
	}

	recordReset()
	return nil
}

// reload refreshes the in-memory record from disk. Every mutating
// operation calls this first so a concurrent writer's state is picked up.
func (s *Store) reload() error {
	data, err := os.ReadFile(s.config.Path)
	if err != nil {
		return swerrors.StoreError{Path: s.config.Path, Op: "read", Err: err}
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return swerrors.StoreError{Path: s.config.Path, Op: "parse", Err: err}
	}

	s.rec = rec
	return nil
}

func (s *Store) persist() error {
	if err := os.MkdirAll(filepath.Dir(s.config.Path), 0700); err != nil {
		return swerrors.StoreError{Path: s.config.Path, Op: "mkdir", Err: err}
	}

	data, err := json.MarshalIndent(s.rec, "", "  ")
	if err != nil {
		return swerrors.StoreError{Path: s.config.Path, Op: "marshal", Err: err}
	}

	if err := os.WriteFile(s.config.Path, data, 0600); err != nil {
		return swerrors.StoreError{Path: s.config.Path, Op: "write", Err: err}
	}

	return nil
}

// newToken generates an unguessable URL-safe token.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate passcode: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
