package storage

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"

	"github.com/guardops/watchpost/storage/model"
)

// Argon2idParams configures password hashing for the users store.
type Argon2idParams struct {
	Time        uint32 `yaml:"time"`
	MemoryKiB   uint32 `yaml:"memory_kib"`
	Parallelism uint8  `yaml:"parallelism"`
	KeyLen      uint32 `yaml:"key_len"`
	SaltLen     uint32 `yaml:"salt_len"`
}

func defaultArgon2idParams() Argon2idParams {
	return Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      64,
		SaltLen:     32,
	}
}

// UsersFileStorage implements model.UsersStore on a single users.json file.
// A missing file is an empty store, which leaves the session gate open.
type UsersFileStorage struct {
	path   string
	params Argon2idParams
	mutex  sync.RWMutex
}

// NewUsersFileStorage creates a UsersFileStorage for the given file path.
func NewUsersFileStorage(path string, params Argon2idParams) *UsersFileStorage {
	if params.Time == 0 {
		params = defaultArgon2idParams()
	}
	return &UsersFileStorage{path: path, params: params}
}

func (s *UsersFileStorage) readUnlocked() ([]model.User, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, model.StorageErrorFrom("read users file", err)
	}
	var users []model.User
	if err = json.Unmarshal(data, &users); err != nil {
		return nil, model.StorageErrorFrom("decode users file", err)
	}
	return users, nil
}

func (s *UsersFileStorage) writeUnlocked(users []model.User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return model.StorageErrorFrom("encode users file", err)
	}
	if err = os.WriteFile(s.path, data, 0o600); err != nil {
		return model.StorageErrorFrom("write users file", err)
	}
	return nil
}

// Count returns the number of users present in the store
func (s *UsersFileStorage) Count() (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	users, err := s.readUnlocked()
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

// List returns all users (without password hashes)
func (s *UsersFileStorage) List() ([]model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	users, err := s.readUnlocked()
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

// Get returns a user by username
func (s *UsersFileStorage) Get(username string) (*model.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	users, err := s.readUnlocked()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			u.PasswordHash = ""
			return &u, nil
		}
	}
	return nil, model.NotFoundErrorFmt("user not found: %s", username)
}

// Create creates a user with an Argon2id-hashed password
func (s *UsersFileStorage) Create(username, password, displayName string) (*model.User, error) {
	if len(username) == 0 || len(password) == 0 {
		return nil, model.ValidationErrorFmt("username and password are required")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	users, err := s.readUnlocked()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username {
			return nil, model.AlreadyExistsErrorFmt("user already exists: %s", username)
		}
	}
	hash, err := hashPasswordArgon2id(password, s.params)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := model.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
	}
	if err = s.writeUnlocked(append(users, u)); err != nil {
		return nil, err
	}
	u.PasswordHash = ""
	return &u, nil
}

// Delete deletes a user by username
func (s *UsersFileStorage) Delete(username string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	users, err := s.readUnlocked()
	if err != nil {
		return err
	}
	kept := users[:0]
	found := false
	for _, u := range users {
		if u.Username == username {
			found = true
			continue
		}
		kept = append(kept, u)
	}
	if !found {
		return model.NotFoundErrorFmt("user not found: %s", username)
	}
	return s.writeUnlocked(kept)
}

// Authenticate validates username/password and auto-upgrades the stored hash
// if the configured params changed
func (s *UsersFileStorage) Authenticate(username, password string) (*model.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	users, err := s.readUnlocked()
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		if u.Username != username {
			continue
		}
		if u.Disabled {
			return nil, errors.Errorf("user disabled")
		}
		ok, err := verifyPasswordArgon2id(u.PasswordHash, password)
		if err != nil || !ok {
			return nil, errors.Errorf("invalid credentials")
		}
		if stored, err := extractArgon2idParams(u.PasswordHash); err == nil && !argon2idParamsEqual(stored, s.params) {
			if newHash, err := hashPasswordArgon2id(password, s.params); err == nil {
				users[i].PasswordHash = newHash
				users[i].UpdatedAt = time.Now().UTC()
				_ = s.writeUnlocked(users)
			}
		}
		u.PasswordHash = ""
		return &u, nil
	}
	return nil, model.NotFoundErrorFmt("user not found: %s", username)
}

// hashPasswordArgon2id returns a PHC-formatted argon2id hash string
// Format: $argon2id$v=19$m=65536,t=1,p=4$<saltB64>$<hashB64>
func hashPasswordArgon2id(password string, p Argon2idParams) (string, error) {
	if p.Time == 0 {
		p = defaultArgon2idParams()
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	dk := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Parallelism, p.KeyLen)
	saltB64 := base64.RawStdEncoding.EncodeToString(salt)
	hashB64 := base64.RawStdEncoding.EncodeToString(dk)
	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s", p.MemoryKiB, p.Time, p.Parallelism, saltB64, hashB64), nil
}

// verifyPasswordArgon2id verifies the given password against a PHC-formatted argon2id hash
func verifyPasswordArgon2id(encoded, password string) (bool, error) {
	params, salt, hash, err := parseArgon2id(encoded)
	if err != nil {
		return false, err
	}
	dk := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Parallelism, uint32(len(hash)))
	if subtle.ConstantTimeCompare(dk, hash) == 1 {
		return true, nil
	}
	return false, nil
}

// extractArgon2idParams parses a PHC-formatted argon2id string and returns parameters
func extractArgon2idParams(encoded string) (Argon2idParams, error) {
	p, _, _, err := parseArgon2id(encoded)
	return p, err
}

// parseArgon2id parses a PHC-formatted argon2id hash and returns parameters, salt and hash bytes.
func parseArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	var out Argon2idParams
	if !strings.HasPrefix(encoded, "$argon2id$") {
		return out, nil, nil, errors.Errorf("unsupported password hash format")
	}
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return out, nil, nil, errors.Errorf("invalid argon2id hash format")
	}
	if parts[2] != "v=19" {
		return out, nil, nil, errors.Errorf("unsupported argon2 version")
	}
	for _, kv := range strings.Split(parts[3], ",") {
		if strings.HasPrefix(kv, "m=") {
			v, err := strconv.ParseUint(strings.TrimPrefix(kv, "m="), 10, 32)
			if err != nil {
				return out, nil, nil, err
			}
			out.MemoryKiB = uint32(v)
		} else if strings.HasPrefix(kv, "t=") {
			v, err := strconv.ParseUint(strings.TrimPrefix(kv, "t="), 10, 32)
			if err != nil {
				return out, nil, nil, err
			}
			out.Time = uint32(v)
		} else if strings.HasPrefix(kv, "p=") {
			v, err := strconv.ParseUint(strings.TrimPrefix(kv, "p="), 10, 8)
			if err != nil {
				return out, nil, nil, err
			}
			out.Parallelism = uint8(v)
		}
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return out, nil, nil, err
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return out, nil, nil, err
	}
	out.SaltLen = uint32(len(salt))
	out.KeyLen = uint32(len(hash))
	return out, salt, hash, nil
}

func argon2idParamsEqual(a, b Argon2idParams) bool {
	return a.Time == b.Time && a.MemoryKiB == b.MemoryKiB && a.Parallelism == b.Parallelism && a.KeyLen == b.KeyLen && a.SaltLen == b.SaltLen
}

var _ model.UsersStore = (*UsersFileStorage)(nil)
