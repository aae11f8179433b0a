package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"dreamsite/logger"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassword is replaced in tests.
var readPassword = term.ReadPassword

var adminEmail string

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage moderator accounts",
}

var adminAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a moderator account (postgres driver)",
	RunE:  runAdminAdd,
}

func init() {
	adminAddCmd.Flags().StringVar(&adminEmail, "email", "", "moderator email")
	_ = adminAddCmd.MarkFlagRequired("email")
	adminCmd.AddCommand(adminAddCmd)
}

// promptPassword asks twice without echo and returns the password once both entries match.
func promptPassword(w io.Writer, fd int) ([]byte, error) {
	fmt.Fprint(w, "Enter password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}

	if len(first) == 0 {
		return nil, errors.New("password must not be empty")
	}
	if !bytes.Equal(first, second) {
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}

func runAdminAdd(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.Gateway.Driver != "postgres" {
		return fmt.Errorf("admin add needs the postgres driver, configured driver is %q", cfg.Gateway.Driver)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	password, err := promptPassword(cmd.OutOrStdout(), int(os.Stdin.Fd()))
	if err != nil {
		return err
	}

	b, err := openBackend(cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	user, err := b.Postgres.CreateAdmin(cmd.Context(), adminEmail, string(password))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created admin %s\n", user.Email)
	return nil
}
