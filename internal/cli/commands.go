package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	mydb "eden/internal/db"
	"eden/internal/models"
)

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the marketplace tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := mydb.Migrate(s.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			return opts.output(cmd.OutOrStdout(), map[string]string{"status": "ok"}, "✓ schema up to date")
		},
	}
}

func NewPromoteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "promote <username>",
		Short: "Give a user administrator rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.users.SetRole(cmd.Context(), args[0], models.RoleAdmin); err != nil {
				return err
			}
			return opts.output(cmd.OutOrStdout(),
				map[string]string{"username": args[0], "role": string(models.RoleAdmin)},
				fmt.Sprintf("✓ %s is now an admin", args[0]))
		},
	}
}

type pendingRow struct {
	ID      uint        `json:"id"`
	OwnerID uint        `json:"owner_id"`
	Type    models.Kind `json:"type"`
	Title   string      `json:"title"`
	Created string      `json:"created_at"`
}

func NewPendingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List postings waiting for moderation, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			ps, err := s.postings.ListPendingForModeration(cmd.Context(), admin)
			if err != nil {
				return err
			}

			rows := make([]pendingRow, 0, len(ps))
			var b strings.Builder
			if len(ps) == 0 {
				b.WriteString("no pending postings")
			}
			for i, p := range ps {
				rows = append(rows, pendingRow{
					ID: p.ID, OwnerID: p.OwnerID, Type: p.Kind, Title: p.Title,
					Created: p.CreatedAt.Format("2006-01-02 15:04"),
				})
				if i > 0 {
					b.WriteByte('\n')
				}
				fmt.Fprintf(&b, "%5d  %-13s  %-40s  owner=%d  %s", p.ID, p.Kind, p.Title, p.OwnerID, rows[i].Created)
			}
			return opts.output(cmd.OutOrStdout(), rows, b.String())
		},
	}
}

var pastTense = map[string]string{"approve": "approved", "reject": "rejected"}

// NewModerateCommand builds "approve" or "reject".
func NewModerateCommand(opts *RootOptions, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a pending posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid posting id %q", args[0])
			}
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			action := s.postings.Approve
			if verb == "reject" {
				action = s.postings.Reject
			}
			d, err := action(cmd.Context(), admin, uint(id))
			if err != nil {
				return err
			}
			return opts.output(cmd.OutOrStdout(),
				map[string]any{"id": id, "action": verb, "notification": d.Status},
				fmt.Sprintf("✓ posting %d %s (owner notice: %s)", id, pastTense[verb], d.Status))
		},
	}
}
