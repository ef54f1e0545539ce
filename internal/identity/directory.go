package identity

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/creatorhub/creatorhub/internal/state"
)

// MinPasswordLength applies to sign-up and password changes.
const MinPasswordLength = 6

var (
	// ErrInvalidCredentials is the only outcome of a failed login; it does
	// not reveal whether the email exists.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	// ErrInvalidRegistration wraps every sign-up form validation failure.
	ErrInvalidRegistration = errors.New("invalid registration")
)

// Directory is the persisted list of registered users.
type Directory struct {
	users *state.Collection[[]User]
	now   func() time.Time
}

// NewDirectory builds a directory on top of the hydrated users collection.
func NewDirectory(users *state.Collection[[]User]) *Directory {
	return &Directory{users: users, now: time.Now}
}

// Users returns every registered user in sign-up order.
func (d *Directory) Users() []User {
	return d.users.Get()
}

// Register validates the form, appends a new user and persists the
// directory. The returned user still carries the password hash.
func (d *Directory) Register(ctx context.Context, reg Registration) (User, error) {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = normalizeEmail(reg.Email)
	if reg.Name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	}
	if _, err := mail.ParseAddress(reg.Email); err != nil {
		return User{}, fmt.Errorf("%w: a valid email is required", ErrInvalidRegistration)
	}
	if len(reg.Password) < MinPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, MinPasswordLength)
	}

	if indexByEmail(d.users.Get(), reg.Email) >= 0 {
		return User{}, ErrEmailTaken
	}

	hash, err := HashPassword(reg.Password)
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:                uuid.NewString(),
		Name:              reg.Name,
		Email:             reg.Email,
		Password:          hash,
		Phone:             strings.TrimSpace(reg.Phone),
		City:              strings.TrimSpace(reg.City),
		State:             strings.TrimSpace(reg.State),
		Country:           strings.TrimSpace(reg.Country),
		Gender:            strings.TrimSpace(reg.Gender),
		ContentCategories: NormalizeCategories(reg.ContentCategories),
		Wallet:            WalletSnapshot{Balance: 0},
		JoinedDate:        d.now().UTC(),
		ReferralCode:      ReferralCode(reg.Name),
	}

	// Checked again under the lock: a concurrent sign-up may have taken the
	// email while the password was hashing.
	err = d.users.Update(ctx, func(users []User) ([]User, error) {
		if indexByEmail(users, reg.Email) >= 0 {
			return nil, ErrEmailTaken
		}
		return append(users, user), nil
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// Authenticate looks up the user by email and checks the password.
// Records created here hold a bcrypt hash; records imported from an older
// browser profile hold the password as typed and are compared as-is.
func (d *Directory) Authenticate(creds Credentials) (User, error) {
	users := d.users.Get()
	i := indexByEmail(users, normalizeEmail(creds.Email))
	if i < 0 {
		return User{}, ErrInvalidCredentials
	}
	if !PasswordMatches(users[i].Password, creds.Password) {
		return User{}, ErrInvalidCredentials
	}
	return users[i], nil
}

// Update replaces the stored record with the same id. Users that never
// registered (the demo account) are not in the directory and are skipped.
func (d *Directory) Update(ctx context.Context, user User) error {
	user.Email = normalizeEmail(user.Email)
	return d.users.Update(ctx, func(users []User) ([]User, error) {
		i := slices.IndexFunc(users, func(u User) bool { return u.ID == user.ID })
		if i < 0 {
			return nil, state.ErrUnchanged
		}
		if j := indexByEmail(users, user.Email); j >= 0 && j != i {
			return nil, ErrEmailTaken
		}
		if user.Password == "" {
			user.Password = users[i].Password
		}
		users[i] = user
		return users, nil
	})
}

// Find returns the directory record for id.
func (d *Directory) Find(id string) (User, error) {
	users := d.users.Get()
	i := slices.IndexFunc(users, func(u User) bool { return u.ID == id })
	if i < 0 {
		return User{}, ErrUserNotFound
	}
	return users[i], nil
}

// Import appends users whose email is not registered yet and returns how
// many were added. Plaintext passwords are hashed on the way in.
func (d *Directory) Import(ctx context.Context, incoming []User) (int, error) {
	added := 0
	err := d.users.Update(ctx, func(users []User) ([]User, error) {
		for _, u := range incoming {
			u.Email = normalizeEmail(u.Email)
			if u.Email == "" || indexByEmail(users, u.Email) >= 0 {
				continue
			}
			if u.ID == "" {
				u.ID = uuid.NewString()
			}
			if u.Password != "" && !isHashed(u.Password) {
				hash, err := HashPassword(u.Password)
				if err != nil {
					return nil, err
				}
				u.Password = hash
			}
			if u.JoinedDate.IsZero() {
				u.JoinedDate = d.now().UTC()
			}
			if u.ReferralCode == "" {
				u.ReferralCode = ReferralCode(u.Name)
			}
			u.ContentCategories = NormalizeCategories(u.ContentCategories)
			users = append(users, u)
			added++
		}
		if added == 0 {
			return nil, state.ErrUnchanged
		}
		return users, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// PasswordMatches compares password against a stored bcrypt hash or, for
// legacy records, the stored plaintext.
func PasswordMatches(stored, password string) bool {
	if stored == "" {
		return false
	}
	if isHashed(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored == password
}

func isHashed(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}

// NormalizeCategories trims, drops empties and removes duplicates while
// keeping the first-seen order.
func NormalizeCategories(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ReferralCode builds a shareable code from up to four letters of the name
// and six random hex characters.
func ReferralCode(name string) string {
	var prefix []rune
	for _, r := range strings.ToUpper(name) {
		if unicode.IsLetter(r) && r < unicode.MaxASCII {
			prefix = append(prefix, r)
		}
		if len(prefix) == 4 {
			break
		}
	}
	if len(prefix) == 0 {
		prefix = []rune("USER")
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return string(prefix) + suffix
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func indexByEmail(users []User, email string) int {
	return slices.IndexFunc(users, func(u User) bool { return normalizeEmail(u.Email) == email })
}
