/*
Package server provides a HTTP server implementation for the Lumen stack.
Handlers in this stack take an application-specific state object (used for dependency injection)
and a [Lumen] object which contains a lot of utility functions.

Basic example:

	import (
		"context"
		"log"
		"net"

		"myapp/state"

		"github.com/lumenhq/lumen/config"
		"github.com/lumenhq/lumen/login"
		"github.com/lumenhq/lumen/oauth"
		"github.com/lumenhq/lumen/server"
	)

	func main() {
		cfg, err := config.Load(configFS)
		if err != nil {
			log.Fatal(err)
		}

		// Create server
		state := state.New()
		s := server.New(state, cfg)
		s.AttachDefaultMiddleware()

		// Attach routes
		s.Get("/ping", Ping).
			Get("/login/github", oauth.LoginHandler[*state.State](
				oauth.Github(),
				cfg.OAuthProviders["github"],
				oauth.Handlers{OnSuccess: LoggedIn},
			))

		// Run server
		log.Fatal(s.Start(context.Background(), nil))
	}

	func Ping(lumen *server.Lumen, _ *state.State) error {
		lumen.StatusCode(http.StatusOK)
		return nil
	}

	func LoggedIn(lumen *server.Lumen, user *login.UserData, _ *login.TokenData) error {
		if err := lumen.LoginUser(user); err != nil {
			return err
		}
		lumen.Redirect("/")
		return nil
	}
*/
package server
