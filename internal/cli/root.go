// Package cli implements edenctl, the administrator's command line.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	mydb "eden/internal/db"
	"eden/internal/models"
	"eden/internal/moderation"
	"eden/internal/notify"
	"eden/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DBDriver string
	DSN      string
	Format   string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the edenctl root command. Database flags default to
// DB_DRIVER and DB_DSN.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "edenctl",
		Short: "edenctl - EDEN marketplace administration",
		Long:  "Administer the EDEN marketplace database: migrate the schema, promote admins and moderate postings.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.DSN == "" {
				return errors.New("no database: set --dsn or DB_DSN")
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "postgres"
	}
	cmd.PersistentFlags().StringVar(&opts.DBDriver, "db-driver", driver, "database driver (postgres|sqlite)")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", os.Getenv("DB_DSN"), "database connection string")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewPromoteCommand(opts))
	cmd.AddCommand(NewPendingCommand(opts))
	cmd.AddCommand(NewModerateCommand(opts, "approve"))
	cmd.AddCommand(NewModerateCommand(opts, "reject"))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// session is an open database with the services the commands need.
type session struct {
	db       *gorm.DB
	users    *store.Users
	postings *moderation.Engine
	mail     *notify.Dispatcher
}

// open connects to the database. Owner notices are written to the log
// rather than mailed.
func (o *RootOptions) open(cmd *cobra.Command) (*session, error) {
	db, err := mydb.Open(o.DBDriver, o.DSN)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	mail := notify.NewDispatcher(notify.LogSender{Log: logger}, time.Second, logger)
	users := store.NewUsers(db)
	return &session{
		db:       db,
		users:    users,
		postings: moderation.NewEngine(store.NewPostings(db), users, mail, logger),
		mail:     mail,
	}, nil
}

func (s *session) Close() {
	s.mail.Wait()
	if sqlDB, err := s.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// admin is the identity edenctl acts with.
var admin = models.Actor{IsAdmin: true}

// output writes data as JSON, or text as is.
func (o *RootOptions) output(w io.Writer, data any, text string) error {
	if o.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
