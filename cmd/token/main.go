// Command token issues a signed bearer token for local use and operator tooling.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"bankcards/internal/auth"
	"bankcards/internal/config"
)

func main() {
	subject := flag.StringP("subject", "s", "", "user id (uuid); a random one is generated when empty")
	role := flag.StringP("role", "r", string(auth.RoleUser), "ADMIN or USER")
	ttl := flag.Duration("ttl", 0, "token lifetime; defaults to auth.token_ttl")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}

	userID := uuid.New()
	if *subject != "" {
		userID, err = uuid.Parse(*subject)
		if err != nil {
			logrus.WithError(err).Fatal("invalid subject")
		}
	}
	parsedRole, ok := auth.ParseRole(strings.ToUpper(*role))
	if !ok {
		logrus.WithField("role", *role).Fatal("role must be ADMIN or USER")
	}
	lifetime := cfg.Auth.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := auth.NewJWTService(cfg.Auth.JWTSecret).GenerateAccessToken(userID, parsedRole, lifetime)
	if err != nil {
		logrus.WithError(err).Fatal("sign token")
	}

	fmt.Fprintf(os.Stderr, "subject=%s role=%s ttl=%s\n", userID, parsedRole, lifetime)
	fmt.Println(token)
}
