package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/Skotchmaster/finance_ledger/internal/db"
	"github.com/Skotchmaster/finance_ledger/internal/repo"
	"github.com/Skotchmaster/finance_ledger/internal/service"
	"github.com/Skotchmaster/finance_ledger/internal/transport"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("username", "", "Admin username")
	name := fs.String("name", "", "Display name (defaults to username)")
	email := fs.String("email", "", "Admin email")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dsn := fs.String("dsn", "", "Postgres DSN (defaults to DATABASE_URL)")
	driver := fs.String("driver", "", "pgx or postgres (defaults to DB_DRIVER, then pgx)")
	sqlitePath := fs.String("sqlite", "", "Use a local SQLite file instead of Postgres")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" || *email == "" {
		fmt.Fprintln(stdout, "Usage: createadmin -username <name> -email <email> [-password <pw>] [-dsn <dsn> | -sqlite <path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: username, email")
	}
	if *name == "" {
		*name = *username
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gdb, err := open(ctx, *sqlitePath, *dsn, *driver)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	users := &service.UserService{Repo: &repo.GormRepo{DB: gdb}}
	user, err := users.Bootstrap(ctx, transport.UserCreateRequest{
		Name:     *name,
		Username: *username,
		Email:    *email,
		Password: password,
	})
	switch {
	case errors.Is(err, service.ErrConflict):
		return fmt.Errorf("user %s already exists", *username)
	case err != nil:
		return fmt.Errorf("failed to create admin: %w", err)
	}

	fmt.Fprintf(stdout, "Admin %s created successfully with ID %s\n", user.Username, user.ID)
	return nil
}

func open(ctx context.Context, sqlitePath, dsn, driver string) (*gorm.DB, error) {
	if sqlitePath != "" {
		return db.OpenSQLite(sqlitePath)
	}
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if driver == "" {
		driver = os.Getenv("DB_DRIVER")
	}
	if driver == "" {
		driver = "pgx"
	}
	return db.Open(ctx, driver, dsn)
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
