// A small demo application that logs users in with GitHub or Twitch and stores
// their accounts in postgres. Run with a config.toml next to the binary and
// GITHUB_CLIENT_ID / GITHUB_CLIENT_SECRET (or the Twitch equivalents) in the
// environment.
package main

import (
	"context"
	"embed"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/render"
	"github.com/lumenhq/lumen/bootstrap"
	"github.com/lumenhq/lumen/config"
	"github.com/lumenhq/lumen/core"
	"github.com/lumenhq/lumen/login"
	"github.com/lumenhq/lumen/oauth"
	"github.com/lumenhq/lumen/postgres"
	"github.com/lumenhq/lumen/server"
)

//go:embed config.toml
var configFS embed.FS

type State struct {
	db       *postgres.DB
	accounts login.AccountService
}

func (s *State) Init(_ *server.Server[*State], _ *config.Config, db *postgres.DB) {
	if err := db.Migrate(context.Background()); err != nil {
		log.Fatalf("Cannot migrate the database: %v", err)
	}
	s.db = db
	s.accounts = postgres.NewAccountService(db)
}

func (s *State) Close(_ context.Context) {
	s.db.Close()
}

func main() {
	cfg, err := config.Load(configFS)
	if err != nil {
		log.Fatal(err)
	}

	state := &State{}
	s := bootstrap.Full(state, cfg)

	handlers := oauth.Handlers{
		OnSuccess: func(lumen *server.Lumen, user *login.UserData, _ *login.TokenData) error {
			// Link the provider login to a local user, creating one on first login.
			_, err := state.accounts.FindUser(lumen.Context(), user)
			if errors.Is(err, core.ErrUserDoesNotExist) {
				_, err = state.accounts.CreateUserAccount(lumen.Context(), user)
			}
			if err != nil {
				return err
			}
			if err := lumen.LoginUser(user); err != nil {
				return err
			}
			lumen.Redirect("/me")
			return nil
		},
	}

	s.Get("/ping", Ping)
	s.Get("/login/github", oauth.LoginHandler[*State](
		oauth.Github(),
		cfg.OAuthProviders["github"],
		handlers,
	))
	s.Get("/login/twitch", oauth.LoginHandler[*State](
		oauth.Twitch(),
		cfg.OAuthProviders["twitch"],
		handlers,
	))
	s.Get("/logout", Logout)
	s.Get("/me", Me)

	log.Fatal(s.Start(context.Background(), nil))
}

func Ping(lumen *server.Lumen, _ *State) error {
	lumen.StatusCode(http.StatusOK)
	return nil
}

func Me(lumen *server.Lumen, state *State) error {
	if lumen.User == nil {
		return core.ErrUnauthenticated
	}
	account, err := state.accounts.FindUser(lumen.Context(), lumen.User)
	if err != nil {
		return err
	}
	render.JSON(lumen.Writer, lumen.Request, map[string]any{
		"id":     account.ID,
		"name":   account.Name,
		"email":  account.Email.String(),
		"joined": account.Joined,
	})
	return nil
}

func Logout(lumen *server.Lumen, _ *State) error {
	if err := lumen.Logout(); err != nil {
		return err
	}
	lumen.Redirect("/")
	return nil
}
