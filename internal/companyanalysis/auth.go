package companyanalysis

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrInvalidCredentials covers bad logins and bad tokens alike so callers
// cannot distinguish the two.
var ErrInvalidCredentials = errors.New("could not validate credentials")

const tokenTTL = 30 * time.Minute

// Tokens issues and verifies HMAC-signed bearer tokens. No third-party JWT
// stack: the token is base64(payload) + "." + base64(hmac-sha256(payload)).
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens builds a token signer. An empty secret gets a random one, which
// means tokens do not survive process restarts.
func NewTokens(secret string) *Tokens {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &Tokens{secret: key, now: time.Now}
}

type tokenClaims struct {
	Sub string `json:"sub"`
	Exp int64  `json:"exp"`
}

// Issue returns a signed token for the username.
func (t *Tokens) Issue(username string) (string, error) {
	payload, err := json.Marshal(tokenClaims{
		Sub: username,
		Exp: t.now().Add(tokenTTL).Unix(),
	})
	if err != nil {
		return "", err
	}
	body := base64.RawURLEncoding.EncodeToString(payload)
	return body + "." + t.sign(body), nil
}

// Verify checks the signature and expiry and returns the username.
func (t *Tokens) Verify(token string) (string, error) {
	body, sig, ok := strings.Cut(token, ".")
	if !ok {
		return "", ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(sig), []byte(t.sign(body))) != 1 {
		return "", ErrInvalidCredentials
	}
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Sub == "" {
		return "", ErrInvalidCredentials
	}
	if t.now().Unix() >= claims.Exp {
		return "", ErrInvalidCredentials
	}
	return claims.Sub, nil
}

func (t *Tokens) sign(body string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(body))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Users is an in-memory user registry with salted password hashes.
type Users struct {
	mu    sync.Mutex
	creds map[string]storedCred
}

type storedCred struct {
	salt string
	hash string
}

// NewUsers returns an empty registry.
func NewUsers() *Users {
	return &Users{creds: make(map[string]storedCred)}
}

// Register adds a user. Duplicate usernames are rejected.
func (u *Users) Register(username, password string) error {
	if username == "" || password == "" {
		return errors.New("username and password required")
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.creds[username]; ok {
		return fmt.Errorf("user %s already exists", username)
	}
	saltBytes := make([]byte, 16)
	_, _ = rand.Read(saltBytes)
	salt := hex.EncodeToString(saltBytes)
	u.creds[username] = storedCred{salt: salt, hash: hashPassword(salt, password)}
	return nil
}

// Authenticate checks a username/password pair.
func (u *Users) Authenticate(username, password string) error {
	u.mu.Lock()
	cred, ok := u.creds[username]
	u.mu.Unlock()
	if !ok {
		return ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(cred.hash), []byte(hashPassword(cred.salt, password))) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

func hashPassword(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + ":" + password))
	return hex.EncodeToString(sum[:])
}
