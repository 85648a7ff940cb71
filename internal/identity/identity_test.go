package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/modrel/cli/internal/errors"
)

func fixedUser(name string) func() string {
	return func() string { return name }
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		email   string
		domain  string
		want    Requester
		wantErr bool
	}{
		{
			name:  "explicit email",
			user:  "abc12345",
			email: "first.last@example.com",
			want:  Requester{User: "abc12345", Email: "first.last@example.com"},
		},
		{
			name:   "domain fallback",
			user:   "abc12345",
			domain: "example.com",
			want:   Requester{User: "abc12345", Email: "abc12345@example.com"},
		},
		{
			name:   "domain with at sign",
			user:   "abc12345",
			domain: "@example.com",
			want:   Requester{User: "abc12345", Email: "abc12345@example.com"},
		},
		{name: "no email source", user: "abc12345", wantErr: true},
		{name: "unknown user", email: "a@b", wantErr: true},
		{name: "unsafe user name", user: "a b", email: "a@b", wantErr: true},
		{name: "malformed email", user: "abc12345", email: "nobody", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve(fixedUser(tt.user), tt.email, tt.domain)
			if tt.wantErr {
				assert.True(t, errors.Is(err, oerrors.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveMissingEmailHint(t *testing.T) {
	_, err := resolve(fixedUser("abc12345"), "", "")
	require.Error(t, err)

	var detail *oerrors.DetailError
	require.True(t, errors.As(err, &detail))
	assert.Contains(t, detail.Hint, "MODREL_EMAIL")
	assert.NotContains(t, detail.Hint, "--email", "no such flag exists")
}

func TestCurrentUser(t *testing.T) {
	assert.NotEmpty(t, currentUser())
	assert.NotContains(t, currentUser(), `\`)
}
