package session

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string, host string) environment {
	return environment{
		getenv: func(k string) string { return vars[k] },
		hostname: func() (string, error) {
			if host == "" {
				return "", errors.New("no hostname")
			}
			return host, nil
		},
		pid: 4242,
	}
}

func TestResolveIdentity_PDMUserWins(t *testing.T) {
	id := resolveIdentity("", fakeEnv(map[string]string{
		"EPDMUSER": "m.rossi",
		"USERNAME": "mrossi",
	}, "cad-01"))

	require.Equal(t, "m.rossi", id.UserID)
	require.Equal(t, SourcePDM, id.Source)
	require.Equal(t, "cad-01", id.Host)
	require.Regexp(t, regexp.MustCompile(`^cad-01-4242-[0-9a-f]{8}$`), id.SessionID)
}

func TestResolveIdentity_HintOverridesEnvironment(t *testing.T) {
	id := resolveIdentity("  operator ", fakeEnv(map[string]string{"PDM_USER": "other"}, "cad-01"))
	require.Equal(t, "operator", id.UserID)
	require.Equal(t, SourcePDM, id.Source)
}

func TestResolveIdentity_OSUserWithDomain(t *testing.T) {
	id := resolveIdentity("", fakeEnv(map[string]string{
		"USERNAME":   "mrossi",
		"USERDOMAIN": "ACME",
	}, "cad-02"))

	require.Equal(t, "mrossi", id.UserID)
	require.Equal(t, `ACME\mrossi`, id.DisplayName)
	require.Equal(t, SourceOS, id.Source)
}

func TestResolveIdentity_Unknown(t *testing.T) {
	id := resolveIdentity("", fakeEnv(nil, ""))
	require.Equal(t, "unknown", id.UserID)
	require.Equal(t, "unknown-host", id.Host)
	require.Equal(t, SourceUnknown, id.Source)
}

func TestResolveIdentity_UniqueSessions(t *testing.T) {
	env := fakeEnv(map[string]string{"USER": "u"}, "h")
	require.NotEqual(t, resolveIdentity("", env).SessionID, resolveIdentity("", env).SessionID)
}
