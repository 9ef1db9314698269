// Command tokengen signs a chat token for local development.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/weiawesome/jobboard-chat/pkg/jwt"
	pkglog "github.com/weiawesome/jobboard-chat/pkg/log"
)

var opts struct {
	Secret   string
	Issuer   string
	UserID   string
	Email    string
	Role     string
	Inactive bool
	TTL      time.Duration
}

func main() {
	app := &cli.App{
		Name:  "tokengen",
		Usage: "sign a token accepted by the chat websocket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "secret", Usage: "HS256 signing secret", EnvVars: []string{"JWT_SECRET"}, Required: true, Destination: &opts.Secret},
			&cli.StringFlag{Name: "issuer", Usage: "token issuer", EnvVars: []string{"JWT_ISSUER"}, Destination: &opts.Issuer},
			&cli.StringFlag{Name: "user", Usage: "user ID to sign for", Required: true, Destination: &opts.UserID},
			&cli.StringFlag{Name: "email", Usage: "email claim", Destination: &opts.Email},
			&cli.StringFlag{Name: "role", Usage: "role claim", Value: "candidate", Destination: &opts.Role},
			&cli.BoolFlag{Name: "inactive", Usage: "mark the account deactivated", Destination: &opts.Inactive},
			&cli.DurationFlag{Name: "ttl", Usage: "token lifetime", Value: 24 * time.Hour, Destination: &opts.TTL},
		},
		Action: generate,
	}

	if err := app.Run(os.Args); err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("tokengen failed")
	}
}

func generate(c *cli.Context) error {
	manager, err := jwt.NewManager(opts.Secret, opts.Issuer, opts.TTL, 0)
	if err != nil {
		return err
	}

	token, expiresAt, err := manager.Generate(opts.UserID, opts.Email, opts.Role, !opts.Inactive)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, token)
	fmt.Fprintf(c.App.ErrWriter, "expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
