// Package identity resolves who is requesting a release.
package identity

import (
	"fmt"
	"os"
	"os/user"
	"regexp"
	"strings"

	oerrors "github.com/modrel/cli/internal/errors"
)

// userNameRegex limits login names to characters safe in queue file names.
var userNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Requester is the person a release is attributed to.
type Requester struct {
	// User is the login name. It appears in queue file names.
	User string

	// Email receives build farm notifications.
	Email string
}

// Resolve determines the requester. email is the already-resolved email
// setting; when empty it falls back to user@domain.
func Resolve(email, domain string) (Requester, error) {
	return resolve(currentUser, email, domain)
}

func resolve(lookup func() string, email, domain string) (Requester, error) {
	name := lookup()
	if name == "" {
		return Requester{}, oerrors.NewConfigurationError("cannot determine the current user",
			nil, "Set the USER environment variable")
	}
	if !userNameRegex.MatchString(name) {
		return Requester{}, oerrors.NewConfigurationError(
			fmt.Sprintf("user name %q cannot be used in a job name", name),
			map[string]string{"User": name}, "")
	}

	email = strings.TrimSpace(email)
	if email == "" {
		if domain == "" {
			return Requester{}, oerrors.NewConfigurationError("no email address configured",
				map[string]string{"User": name},
				"Set email or emailDomain in the config file, or MODREL_EMAIL in the environment")
		}
		email = name + "@" + strings.TrimPrefix(domain, "@")
	}
	if !strings.Contains(email, "@") {
		return Requester{}, oerrors.NewConfigurationError(
			fmt.Sprintf("invalid email address %q", email),
			map[string]string{"Email": email}, "")
	}

	return Requester{User: name, Email: email}, nil
}

// currentUser returns the login name, stripped of any Windows domain.
func currentUser() string {
	name := ""
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	if name == "" {
		name = os.Getenv("USER")
	}
	if name == "" {
		name = os.Getenv("USERNAME")
	}
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}
