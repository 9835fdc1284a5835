// Command token mints operator bearer tokens for the /api routes, signed with
// JWT_SECRET.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"lakala-sdk/internal/auth"
	"lakala-sdk/internal/logger"
	"lakala-sdk/internal/utils"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const defaultTTL = 12 * time.Hour

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:], os.Getenv("JWT_SECRET"), os.Stdout); err != nil {
		logger.L().Fatal("Token not issued", zap.Error(err))
	}
}

func run(args []string, secret string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	subject := fs.String("sub", "", "operator identity, e.g. an email address")
	role := fs.String("role", utils.RoleOperator, "operator or admin")
	ttl := fs.Duration("ttl", defaultTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *subject == "" {
		return errors.New("-sub is required")
	}
	if *role != utils.RoleOperator && *role != utils.RoleAdmin {
		return fmt.Errorf("unknown role %q (use %q or %q)", *role, utils.RoleOperator, utils.RoleAdmin)
	}
	if *ttl <= 0 {
		return errors.New("-ttl must be positive")
	}

	token, err := auth.IssueToken([]byte(secret), *subject, *role, *ttl)
	if err != nil {
		return err
	}

	// stdout carries only the token so it can be captured by scripts
	_, err = fmt.Fprintln(out, token)
	return err
}
