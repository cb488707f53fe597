package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xamogh/medxz/internal/config"
	"github.com/xamogh/medxz/internal/domain"
	"github.com/xamogh/medxz/internal/infrastructure/persistence/postgres"
	"github.com/xamogh/medxz/internal/infrastructure/security"
)

// medxz-admin provisions organizations and users out of band. The server
// never creates either; this tool shares the server's hasher and stores so
// CLI-created credentials verify identically at login.

const defaultRole = "front_desk"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "missing command")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, usage())
		os.Exit(2)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "help", "-h", "--help":
		fmt.Println(usage())
		return
	case "bootstrap":
		err = runBootstrap(args)
	case "create-organization":
		err = runCreateOrganization(args)
	case "create-user":
		err = runCreateUser(args)
	case "set-password":
		err = runSetPassword(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s\n", command, usage())
		os.Exit(2)
	}

	if err != nil {
		var uerr usageError
		if errors.As(err, &uerr) {
			fmt.Fprintf(os.Stderr, "%s\n\n%s\n", err, usage())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func usage() string {
	return strings.TrimSpace(`
Usage: medxz-admin <command> [flags]

Commands:
  bootstrap            --org-code CODE --org-name NAME --email EMAIL --password PW [--role ROLE]
                       Create the organization if missing, then its first user.
  create-organization  --org-code CODE --org-name NAME
  create-user          --org-code CODE --email EMAIL --password PW [--role ROLE]
  set-password         --org-code CODE --email EMAIL --password PW

DATABASE_URL selects the target database.
`)
}

type usageError string

func (e usageError) Error() string { return string(e) }

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return usageError("missing required flag --" + name)
	}
	return nil
}

type env struct {
	pool   *pgxpool.Pool
	creds  *postgres.CredentialStore
	admin  *postgres.AdminStore
	hasher *security.Argon2Hasher
}

func connect(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &env{
		pool:  pool,
		creds: postgres.NewCredentialStore(pool, cfg.Database.Timeout),
		admin: postgres.NewAdminStore(pool, cfg.Database.Timeout),
		hasher: security.NewArgon2Hasher(security.Argon2Params{
			Memory:      cfg.Argon2.Memory,
			Iterations:  cfg.Argon2.Iterations,
			Parallelism: cfg.Argon2.Parallelism,
			SaltLength:  16,
			KeyLength:   32,
		}),
	}, nil
}

func runBootstrap(args []string) error {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	orgCode := fs.String("org-code", "", "organization code")
	orgName := fs.String("org-name", "", "organization display name")
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "user password")
	role := fs.String("role", defaultRole, "user role")
	_ = fs.Parse(args)

	for _, f := range []struct{ name, value string }{
		{"org-code", *orgCode}, {"org-name", *orgName}, {"email", *email}, {"password", *password},
	} {
		if err := requireFlag(f.name, f.value); err != nil {
			return err
		}
	}

	ctx := context.Background()
	e, err := connect(ctx)
	if err != nil {
		return err
	}
	defer e.pool.Close()

	org, err := ensureOrganization(ctx, e, *orgCode, *orgName)
	if err != nil {
		return err
	}
	user, err := createUser(ctx, e, org, *email, *password, *role)
	if err != nil {
		return err
	}
	fmt.Printf("organization %s (%s)\nuser %s (%s)\n", org.Code, org.ID, user.Email, user.ID)
	return nil
}

func runCreateOrganization(args []string) error {
	fs := flag.NewFlagSet("create-organization", flag.ExitOnError)
	orgCode := fs.String("org-code", "", "organization code")
	orgName := fs.String("org-name", "", "organization display name")
	_ = fs.Parse(args)

	if err := requireFlag("org-code", *orgCode); err != nil {
		return err
	}
	if err := requireFlag("org-name", *orgName); err != nil {
		return err
	}

	ctx := context.Background()
	e, err := connect(ctx)
	if err != nil {
		return err
	}
	defer e.pool.Close()

	org := &domain.Organization{
		ID:        domain.NewOrganizationID(uuid.New()),
		Code:      strings.TrimSpace(*orgCode),
		Name:      strings.TrimSpace(*orgName),
		CreatedAt: time.Now(),
	}
	if err := e.admin.CreateOrganization(ctx, org); err != nil {
		return err
	}
	fmt.Printf("organization %s (%s)\n", org.Code, org.ID)
	return nil
}

func runCreateUser(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	orgCode := fs.String("org-code", "", "organization code")
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "user password")
	role := fs.String("role", defaultRole, "user role")
	_ = fs.Parse(args)

	for _, f := range []struct{ name, value string }{
		{"org-code", *orgCode}, {"email", *email}, {"password", *password},
	} {
		if err := requireFlag(f.name, f.value); err != nil {
			return err
		}
	}

	ctx := context.Background()
	e, err := connect(ctx)
	if err != nil {
		return err
	}
	defer e.pool.Close()

	org, err := e.creds.FindOrganizationByCode(ctx, strings.TrimSpace(*orgCode))
	if err != nil {
		return err
	}
	if org == nil {
		return fmt.Errorf("unknown organization code: %s", *orgCode)
	}
	user, err := createUser(ctx, e, org, *email, *password, *role)
	if err != nil {
		return err
	}
	fmt.Printf("user %s (%s)\n", user.Email, user.ID)
	return nil
}

func runSetPassword(args []string) error {
	fs := flag.NewFlagSet("set-password", flag.ExitOnError)
	orgCode := fs.String("org-code", "", "organization code")
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "new password")
	_ = fs.Parse(args)

	for _, f := range []struct{ name, value string }{
		{"org-code", *orgCode}, {"email", *email}, {"password", *password},
	} {
		if err := requireFlag(f.name, f.value); err != nil {
			return err
		}
	}

	ctx := context.Background()
	e, err := connect(ctx)
	if err != nil {
		return err
	}
	defer e.pool.Close()

	org, err := e.creds.FindOrganizationByCode(ctx, strings.TrimSpace(*orgCode))
	if err != nil {
		return err
	}
	if org == nil {
		return fmt.Errorf("unknown organization code: %s", *orgCode)
	}
	hash, err := e.hasher.Hash(*password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	normalized := strings.ToLower(strings.TrimSpace(*email))
	updated, err := e.admin.SetPassword(ctx, org.ID, normalized, hash, time.Now())
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("no user with email %s in organization %s", normalized, org.Code)
	}
	fmt.Printf("password updated for %s\n", normalized)
	return nil
}

func ensureOrganization(ctx context.Context, e *env, code, name string) (*domain.Organization, error) {
	code = strings.TrimSpace(code)
	existing, err := e.creds.FindOrganizationByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	org := &domain.Organization{
		ID:        domain.NewOrganizationID(uuid.New()),
		Code:      code,
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now(),
	}
	if err := e.admin.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

func createUser(ctx context.Context, e *env, org *domain.Organization, email, password, role string) (*domain.User, error) {
	hash, err := e.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	user := &domain.User{
		ID:             domain.NewUserID(uuid.New()),
		OrganizationID: org.ID,
		Email:          strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:   hash,
		Role:           strings.TrimSpace(role),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.admin.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
