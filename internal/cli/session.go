package cli

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	httpUtil "github.com/sifan077/bookmarks/internal/http/util"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session <username>",
	Short: "Print a signed session cookie for a user, creating the user if needed",
	Long: `session is the hand-off point for an external login service: it resolves the
user by name and prints the cookie that signs them in.`,
	Args: cobra.ExactArgs(1),
	RunE: runSession,
}

func runSession(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.cfg.Server.Secret == "" {
		return errors.New("server.secret (BOOKMARKS_SECRET) must be set to issue sessions")
	}
	ttl, err := sessionTTL(rt.cfg.Server.SessionTTL)
	if err != nil {
		return err
	}
	if _, err := rt.prepare(cmd.Context()); err != nil {
		return err
	}

	user, err := rt.store.Users().GetOrCreate(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	signer := httpUtil.NewSessionSigner([]byte(rt.cfg.Server.Secret), ttl)
	token, err := signer.Issue(user.ID)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), sessionCookieLine(rt.cfg.Server.SessionCookie, token, time.Now().Add(signer.TTL())))
	return nil
}

// sessionCookieLine renders the cookie in the form a browser's cookie editor accepts.
func sessionCookieLine(name, token string, expires time.Time) string {
	return fmt.Sprintf("%s=%s; Path=/; Expires=%s", name, token, expires.UTC().Format(http.TimeFormat))
}
