package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"aasaan-server/config"
)

var (
	ErrOTPNotFound    = errors.New("no pending OTP for this phone number")
	ErrOTPExpired     = errors.New("OTP has expired")
	ErrOTPMismatch    = errors.New("OTP does not match")
	ErrOTPNotVerified = errors.New("OTP has not been verified")
)

// otpEntry is one pending code. Codes are stored bcrypt-hashed; the entry is
// removed on consumption, so a code can be used exactly once.
type otpEntry struct {
	codeHash  []byte
	expiresAt time.Time
	verified  bool
}

// OTPService keeps pending codes in a process-local map keyed by phone
// number. Entries carry an explicit TTL and are swept periodically. State is
// reset on restart.
type OTPService struct {
	mu      sync.Mutex
	pending map[string]*otpEntry
	ttl     time.Duration
	digits  int
}

// NewOTPService creates an OTP service from the loaded config
func NewOTPService() *OTPService {
	ttl := 5 * time.Minute
	digits := 6
	if config.AppConfig != nil {
		ttl = time.Duration(config.AppConfig.OTP.TTLMinutes) * time.Minute
		digits = config.AppConfig.OTP.Digits
	}
	return &OTPService{
		pending: make(map[string]*otpEntry),
		ttl:     ttl,
		digits:  digits,
	}
}

// Issue generates a fresh code for the phone number, replacing any pending
// entry, and returns the plaintext code for delivery. There is no SMS
// gateway in this build; the caller logs the code instead.
func (s *OTPService) Issue(phoneNumber string) (string, error) {
	code, err := s.generateCode()
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.pending[phoneNumber] = &otpEntry{
		codeHash:  hash,
		expiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	return code, nil
}

// Verify checks the code for the phone number. On success the entry is
// marked verified (so a subsequent register call can consume it) and the
// expiry window keeps running.
func (s *OTPService) Verify(phoneNumber, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[phoneNumber]
	if !ok {
		return ErrOTPNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.pending, phoneNumber)
		return ErrOTPExpired
	}
	if bcrypt.CompareHashAndPassword(entry.codeHash, []byte(code)) != nil {
		return ErrOTPMismatch
	}

	entry.verified = true
	return nil
}

// Consume atomically removes the verified entry for the phone number. It
// fails if the entry is missing, expired, or was never verified.
func (s *OTPService) Consume(phoneNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[phoneNumber]
	if !ok {
		return ErrOTPNotFound
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.pending, phoneNumber)
		return ErrOTPExpired
	}
	if !entry.verified {
		return ErrOTPNotVerified
	}

	delete(s.pending, phoneNumber)
	return nil
}

// IsVerified reports whether a live, verified entry exists for the phone
func (s *OTPService) IsVerified(phoneNumber string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.pending[phoneNumber]
	return ok && entry.verified && time.Now().Before(entry.expiresAt)
}

// Cleanup removes expired entries to prevent unbounded growth
func (s *OTPService) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for phone, entry := range s.pending {
		if now.After(entry.expiresAt) {
			delete(s.pending, phone)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("🧹 OTP cleanup removed %d expired entries", removed)
	}
}

// StartCleanupLoop sweeps expired entries until the stop channel closes
func (s *OTPService) StartCleanupLoop(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// generateCode produces an n-digit numeric code using crypto/rand
func (s *OTPService) generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < s.digits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", s.digits, n), nil
}
