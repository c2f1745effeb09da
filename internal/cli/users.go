package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/chepyr/go-task-board/internal/auth"
	"github.com/chepyr/go-task-board/internal/models"
)

func NewUsersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage the member directory",
	}
	cmd.AddCommand(newUsersAddCommand(opts), newUsersTokenCommand(opts))
	return cmd
}

func newUsersAddCommand(opts *RootOptions) *cobra.Command {
	var user models.User
	cmd := &cobra.Command{
		Use:   "add <user-id>",
		Short: "Add a member so boards and the dashboard can show their name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				user.ID = args[0]
				user.CreatedAt = time.Now().UTC()
				if err := opts.app.Users.Create(ctx, &user); err != nil {
					return nil, err
				}
				return user, nil
			})
		},
	}
	cmd.Flags().StringVar(&user.Fullname, "name", "", "display name")
	cmd.Flags().StringVar(&user.ImgURL, "img", "", "avatar URL")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUsersTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		ttl   time.Duration
		admin bool
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Sign a token for a member with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				if opts.app.JWTSecret == "" {
					return nil, usagef("JWT_SECRET is not configured")
				}
				user, err := opts.app.Users.GetByID(ctx, args[0])
				if err != nil {
					return nil, err
				}
				actor := models.Actor{ID: user.ID, Fullname: user.Fullname, ImgURL: user.ImgURL, IsAdmin: admin}
				token, err := auth.IssueToken(actor, opts.app.JWTSecret, ttl)
				if err != nil {
					return nil, err
				}
				return map[string]string{"user_id": user.ID, "token": token}, nil
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().BoolVar(&admin, "grant-admin", false, "put the admin claim in the token")
	return cmd
}
