package session

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	pdmUserEnv = []string{"PDM_USER", "PDMUSERNAME", "EPDMUSER", "SWPDM_USER"}
	osUserEnv  = []string{"USERNAME", "USER"}
)

type environment struct {
	getenv   func(string) string
	hostname func() (string, error)
	pid      int
}

func processEnvironment() environment {
	return environment{getenv: os.Getenv, hostname: os.Hostname, pid: os.Getpid()}
}

// ResolveIdentity builds the identity of the current process. A non-empty
// hint wins over the PDM user variables.
func ResolveIdentity(hint string) Identity {
	return resolveIdentity(hint, processEnvironment())
}

func resolveIdentity(hint string, env environment) Identity {
	pdmUser := strings.TrimSpace(hint)
	if pdmUser == "" {
		pdmUser = firstEnv(env.getenv, pdmUserEnv)
	}
	osUser := firstEnv(env.getenv, osUserEnv)
	domain := firstEnv(env.getenv, []string{"USERDOMAIN"})

	id := Identity{Source: SourceUnknown, UserID: "unknown"}
	switch {
	case pdmUser != "":
		id.UserID, id.Source = pdmUser, SourcePDM
	case osUser != "":
		id.UserID, id.Source = osUser, SourceOS
	}
	id.DisplayName = id.UserID
	if domain != "" && osUser != "" && id.UserID == osUser {
		id.DisplayName = domain + `\` + osUser
	}

	host, err := env.hostname()
	host = strings.TrimSpace(host)
	if err != nil || host == "" {
		host = "unknown-host"
	}
	id.Host = host
	id.SessionID = fmt.Sprintf("%s-%d-%s", host, env.pid, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	id.StartedAt = time.Now().UTC()
	return id
}

func firstEnv(getenv func(string) string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
