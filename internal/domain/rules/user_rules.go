// Package rules validates and normalizes user fields independently of storage.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/oksasatya/user-management-api/internal/domain/apperror"
	"github.com/oksasatya/user-management-api/internal/domain/entity"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 50
	EmailMaxLen    = 255
	NameMaxLen     = 100
)

var (
	usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*[a-z0-9]$|^[a-z0-9]$`)
	namePattern     = regexp.MustCompile(`^[a-zA-Z\x{00C0}-\x{00FF}][a-zA-Z\x{00C0}-\x{00FF}\s\-']*$`)

	// adjacent special characters are never allowed inside a username
	forbiddenRuns = []string{"--", "__", "-_", "_-"}

	validate = validator.New()
)

// CreateInput is the raw payload of a create request.
// Role and Active are optional and default to user/true.
type CreateInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      *string
	Active    *bool
}

// UpdateInput is the raw payload of an update request. Nil fields are absent.
type UpdateInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Role      *string
	Active    *bool
}

// NormalizeUsername trims and lowercases v and checks it against the username rules.
func NormalizeUsername(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	n := utf8.RuneCountInString(v)
	switch {
	case n == 0:
		return "", fmt.Errorf("Username is required")
	case n < UsernameMinLen:
		return "", fmt.Errorf("Username must be at least %d characters long", UsernameMinLen)
	case n > UsernameMaxLen:
		return "", fmt.Errorf("Username must be at most %d characters long", UsernameMaxLen)
	}
	if !usernamePattern.MatchString(v) {
		return "", fmt.Errorf("Username must start and end with a letter or number, and can only contain letters, numbers, underscores, and hyphens")
	}
	for _, run := range forbiddenRuns {
		if strings.Contains(v, run) {
			return "", fmt.Errorf("Username cannot have consecutive underscores or hyphens")
		}
	}
	return v, nil
}

// NormalizeEmail trims and lowercases v and checks its syntax.
func NormalizeEmail(v string) (string, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return "", fmt.Errorf("Email is required")
	}
	if utf8.RuneCountInString(v) > EmailMaxLen {
		return "", fmt.Errorf("Email must be at most %d characters long", EmailMaxLen)
	}
	if err := validate.Var(v, "email"); err != nil {
		return "", fmt.Errorf("Email must be a valid email address")
	}
	return v, nil
}

// NormalizeName trims v, checks the name rules and returns it in title case.
// label is the human name of the field, e.g. "First Name".
func NormalizeName(label, v string) (string, error) {
	v = strings.TrimSpace(v)
	n := utf8.RuneCountInString(v)
	if n == 0 {
		return "", fmt.Errorf("%s is required", label)
	}
	if n > NameMaxLen {
		return "", fmt.Errorf("%s must be at most %d characters long", label, NameMaxLen)
	}
	if !namePattern.MatchString(v) {
		return "", fmt.Errorf("%s must contain only letters, spaces, hyphens, and apostrophes", label)
	}
	return titleName(v), nil
}

// titleName capitalizes every word. cases.Title keeps an apostrophe inside
// the word ("O'brien"), so each apostrophe-separated part is cased on its own.
func titleName(v string) string {
	caser := cases.Title(language.Und)
	parts := strings.Split(v, "'")
	for i, p := range parts {
		parts[i] = caser.String(p)
	}
	return strings.Join(parts, "'")
}

// ParseRole accepts exactly one of the enumerated role values.
func ParseRole(v string) (entity.Role, error) {
	r := entity.Role(v)
	if !r.Valid() {
		return "", fmt.Errorf("Role must be one of: admin, user, guest")
	}
	return r, nil
}

// ValidateCreate applies the create profile and returns a normalized user
// without id or timestamps. Every violated field is reported.
func ValidateCreate(in CreateInput) (entity.User, error) {
	verr := &apperror.ValidationError{}
	u := entity.User{Role: entity.DefaultRole, Active: true}

	var err error
	if u.Username, err = NormalizeUsername(in.Username); err != nil {
		verr.Add("username", err.Error())
	}
	if u.Email, err = NormalizeEmail(in.Email); err != nil {
		verr.Add("email", err.Error())
	}
	if u.FirstName, err = NormalizeName("First Name", in.FirstName); err != nil {
		verr.Add("first_name", err.Error())
	}
	if u.LastName, err = NormalizeName("Last Name", in.LastName); err != nil {
		verr.Add("last_name", err.Error())
	}
	if in.Role != nil {
		if u.Role, err = ParseRole(*in.Role); err != nil {
			verr.Add("role", err.Error())
		}
	}
	if in.Active != nil {
		u.Active = *in.Active
	}

	if err := verr.OrNil(); err != nil {
		return entity.User{}, err
	}
	return u, nil
}

// ValidateUpdate applies the update profile: every field optional, at least one required.
func ValidateUpdate(in UpdateInput) (entity.UserPatch, error) {
	verr := &apperror.ValidationError{}
	var p entity.UserPatch

	if in.Username != nil {
		if v, err := NormalizeUsername(*in.Username); err != nil {
			verr.Add("username", err.Error())
		} else {
			p.Username = &v
		}
	}
	if in.Email != nil {
		if v, err := NormalizeEmail(*in.Email); err != nil {
			verr.Add("email", err.Error())
		} else {
			p.Email = &v
		}
	}
	if in.FirstName != nil {
		if v, err := NormalizeName("First Name", *in.FirstName); err != nil {
			verr.Add("first_name", err.Error())
		} else {
			p.FirstName = &v
		}
	}
	if in.LastName != nil {
		if v, err := NormalizeName("Last Name", *in.LastName); err != nil {
			verr.Add("last_name", err.Error())
		} else {
			p.LastName = &v
		}
	}
	if in.Role != nil {
		if r, err := ParseRole(*in.Role); err != nil {
			verr.Add("role", err.Error())
		} else {
			p.Role = &r
		}
	}
	if in.Active != nil {
		v := *in.Active
		p.Active = &v
	}

	if err := verr.OrNil(); err != nil {
		return entity.UserPatch{}, err
	}
	if p.IsEmpty() {
		return entity.UserPatch{}, apperror.NewValidation("body", "At least one field must be provided for update")
	}
	return p, nil
}
