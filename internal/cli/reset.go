package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/services"
)

var ErrPasswordConfirmationMismatch = errors.New("passwords do not match")

type ResetPasswordOptions struct {
	DBPath string
	Email  string
	// Interactive asks for the new password on the terminal instead of issuing a temporary one.
	Interactive bool
}

// PasswordReader reads one secret after printing label.
type PasswordReader func(label string) (string, error)

func RunResetPasswordCommand(options ResetPasswordOptions, out io.Writer) error {
	return runResetPassword(options, out, TerminalPasswordReader(os.Stdin, out))
}

func runResetPassword(options ResetPasswordOptions, out io.Writer, readPassword PasswordReader) error {
	if services.NormalizeAuthEmail(options.Email) == "" {
		return fmt.Errorf("invalid email address %q", options.Email)
	}

	database, err := db.OpenSQLite(options.DBPath, nil)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Reset never signs tokens, so the service needs no secret.
	auth := services.NewAuthService(db.NewRepositories(database).Users, nil, 0)

	if options.Interactive {
		password, err := readConfirmedPassword(readPassword)
		if err != nil {
			return err
		}
		if err := auth.SetPassword(options.Email, password); err != nil {
			return resetError(options.Email, err)
		}
		fmt.Fprintln(out, "Password updated.")
		return nil
	}

	temporary, err := auth.ResetPassword(options.Email)
	if err != nil {
		return resetError(options.Email, err)
	}
	fmt.Fprintln(out, "Password reset successful")
	fmt.Fprintf(out, "Temporary password: %s\n", temporary)
	fmt.Fprintln(out, "User must change password on next login.")
	return nil
}

func readConfirmedPassword(readPassword PasswordReader) (string, error) {
	password, err := readPassword("New password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	confirmation, err := readPassword("Repeat password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if password != confirmation {
		return "", ErrPasswordConfirmationMismatch
	}
	return password, nil
}

func resetError(email string, err error) error {
	switch {
	case errors.Is(err, services.ErrAuthUserNotFound):
		return fmt.Errorf("user %s not found", email)
	case errors.Is(err, services.ErrWeakPassword):
		return fmt.Errorf("password rejected: %w", err)
	default:
		return fmt.Errorf("reset password: %w", err)
	}
}

// TerminalPasswordReader prompts on out and reads from stdin with echo disabled.
func TerminalPasswordReader(stdin *os.File, out io.Writer) PasswordReader {
	return func(label string) (string, error) {
		fmt.Fprint(out, label)
		value, err := readPasswordNoEcho(stdin)
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(value), nil
	}
}
