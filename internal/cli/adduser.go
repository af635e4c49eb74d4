package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/config"
	"points-exchange-service/internal/domain"
)

var readPasswordFunc = term.ReadPassword // replaced in tests

// NewAddUserCmd creates an account directly in the configured store.
func NewAddUserCmd(configPath *string) *cobra.Command {
	var (
		username string
		role     string
		password string
		subject  string
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a teacher or student account (applies pending migrations first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Enter password: ")
				raw, err := readPasswordFunc(int(syscall.Stdin))
				fmt.Fprintln(cmd.OutOrStdout())
				if err != nil {
					return err
				}
				password = string(raw)
			}
			return addUser(cmd.Context(), cfg, log, username, password, domain.Role(strings.ToLower(role)), subject)
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&role, "role", "student", "teacher or student")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&subject, "subject", "", "subject for a teacher account")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func addUser(ctx context.Context, cfg config.Config, log *zap.Logger, username, password string, role domain.Role, subject string) error {
	if cfg.Postgres.URL == "" {
		return errors.New("adduser needs postgres.url; in-memory accounts do not outlive the command")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := runMigrations(ctx, cfg, log); err != nil {
		return err
	}
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()
	return createAccount(ctx, app.NewAccountService(st.repos.Accounts, st.sessions, log), st.repos.Accounts, username, password, role, subject)
}

func createAccount(ctx context.Context, accounts *app.AccountService, repo app.AccountRepository, username, password string, role domain.Role, subject string) error {
	subject = strings.TrimSpace(subject)
	if subject != "" && role != domain.RoleTeacher {
		return fmt.Errorf("only teachers have a subject")
	}
	acc, err := accounts.Register(ctx, username, password, role)
	if err != nil {
		return err
	}
	if subject == "" {
		return nil
	}
	return repo.SetSubject(ctx, acc.Username, subject)
}
