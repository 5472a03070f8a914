// internal/membership/implementation.go
package membership

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Authenticator stores member credentials and verifies passphrases behind a
// rate limiter.
type Authenticator struct {
	mu          sync.Mutex
	credentials map[string]Credential
	rateLimiter *rate.Limiter
}

// NewAuthenticator allows attemptsPerMinute verifications per minute, with
// bursts of the same size.
func NewAuthenticator(attemptsPerMinute int) *Authenticator {
	if attemptsPerMinute <= 0 {
		attemptsPerMinute = 5
	}
	return &Authenticator{
		credentials: make(map[string]Credential),
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(attemptsPerMinute)), attemptsPerMinute),
	}
}

// SetPassphrase hashes and stores passphrase for memberID, replacing any
// previous credential.
func (a *Authenticator) SetPassphrase(memberID, passphrase string) error {
	credential, err := NewCredential(memberID, passphrase)
	if err != nil {
		return fmt.Errorf("failed to hash passphrase: %w", err)
	}

	a.Store(credential)
	return nil
}

// Store installs an already hashed credential, replacing any previous one.
func (a *Authenticator) Store(credential Credential) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.credentials[credential.MemberID] = credential
}

// Forget drops memberID's credential. The member can no longer authenticate.
func (a *Authenticator) Forget(memberID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.credentials, memberID)
}

// Authenticate verifies passphrase for memberID. Members without a
// credential never authenticate.
func (a *Authenticator) Authenticate(memberID, passphrase string) error {
	if !a.rateLimiter.Allow() {
		return ErrRateLimited
	}

	a.mu.Lock()
	credential, ok := a.credentials[memberID]
	a.mu.Unlock()
	if !ok {
		return ErrInvalidCredentials
	}

	match, err := credential.Verify(passphrase)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if !match {
		return ErrInvalidCredentials
	}

	return nil
}
