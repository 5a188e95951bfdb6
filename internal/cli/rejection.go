package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blues/fundcrm/internal/model"
	"github.com/blues/fundcrm/internal/rejection"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// NewRejectionCommand 拒绝邮件相关命令
func NewRejectionCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rejection",
		Short: "Draft rejection emails",
	}
	cmd.AddCommand(newRejectionReasonsCommand(opts))
	cmd.AddCommand(newRejectionDraftCommand(opts))
	return cmd
}

func newRejectionReasonsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reasons",
		Short: "List the canned rejection reasons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reasons := rejection.Reasons()
			if opts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), reasons)
			}
			for _, r := range reasons {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", r.Key, r.Summary)
			}
			return nil
		},
	}
}

func newRejectionDraftCommand(opts *RootOptions) *cobra.Command {
	var (
		reasons []string
		fields  []string
	)
	cmd := &cobra.Command{
		Use:   "draft <application-id>",
		Short: "Draft a rejection email for an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid application id %q", args[0])
			}
			values, err := parseFields(fields)
			if err != nil {
				return err
			}
			env, err := opts.Env()
			if err != nil {
				return err
			}

			var app model.Application
			if err := env.DB.WithContext(cmd.Context()).First(&app, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("application %s not found", id)
				}
				return err
			}

			email, err := env.Drafter.Draft(cmd.Context(), &app, reasons, values)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), email)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "To: %s\nSubject: %s\n\n%s", email.To, email.Subject, email.Text)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&reasons, "reason", nil, "rejection reason key, see 'fundctl rejection reasons'")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "template placeholder value as key=value")
	return cmd
}

func parseFields(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid field %q: must be key=value", p)
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out, nil
}
