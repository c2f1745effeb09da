// Package cli implements the board-service command line.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chepyr/go-task-board/internal/auth"
	"github.com/chepyr/go-task-board/internal/board"
	"github.com/chepyr/go-task-board/internal/cache"
	"github.com/chepyr/go-task-board/internal/dashboard"
	"github.com/chepyr/go-task-board/internal/db"
	"github.com/chepyr/go-task-board/internal/models"
)

// App bundles the services the commands operate on.
type App struct {
	DB        *sqlx.DB
	Boards    *board.Service
	Dashboard *dashboard.Service
	Users     db.UserRepositoryInterface
	JWTSecret string
}

// NewApp wires the repositories and services on top of an open database.
// A nil redis client disables board caching.
func NewApp(conn *sqlx.DB, rc *redis.Client, cacheTTL time.Duration, jwtSecret string, opts ...board.Option) *App {
	boards := db.NewBoardRepository(conn)
	users := db.NewUserRepository(conn)
	return &App{
		DB:        conn,
		Boards:    board.New(cache.NewBoardCache(boards, rc, cacheTTL), opts...),
		Dashboard: dashboard.New(boards, users),
		Users:     users,
		JWTSecret: jwtSecret,
	}
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string // "json" | "yaml"
	Token  string
	As     string
	Admin  bool

	app *App
}

var ValidFormats = []string{"json", "yaml"}

func NewRootCommand(app *App) *cobra.Command {
	opts := &RootOptions{app: app}

	cmd := &cobra.Command{
		Use:           "board-service",
		Short:         "Collaborative task boards",
		Long:          "Manage boards, their groups and tasks, filtered board views and the task dashboard.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats)}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", os.Getenv("BOARD_TOKEN"), "signed token identifying the acting user")
	cmd.PersistentFlags().StringVar(&opts.As, "as", "", "acting user id when no JWT secret is configured")
	cmd.PersistentFlags().BoolVar(&opts.Admin, "admin", false, "act with admin privileges (only with --as)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewBoardsCommand(opts))
	cmd.AddCommand(NewGroupsCommand(opts))
	cmd.AddCommand(NewTasksCommand(opts))
	cmd.AddCommand(NewDashboardCommand(opts))
	cmd.AddCommand(NewUsersCommand(opts))

	return cmd
}

func (o *RootOptions) output(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// run executes fn and prints its result or its failure.
func (o *RootOptions) run(cmd *cobra.Command, fn func(ctx context.Context) (any, error)) error {
	out := o.output(cmd)
	data, err := fn(cmd.Context())
	if err != nil {
		return out.Fail(err)
	}
	return out.Success(data)
}

// actor resolves the acting user. With a JWT secret configured only signed
// tokens are accepted; otherwise --as names the user directly.
func (o *RootOptions) actor(ctx context.Context) (models.Actor, error) {
	secret := o.app.JWTSecret
	switch {
	case o.Token != "" && secret == "":
		return models.Actor{}, usagef("--token given but JWT_SECRET is not configured")
	case o.Token != "":
		return auth.ActorFromToken(o.Token, secret)
	case secret != "":
		return models.Actor{}, auth.ErrMissingToken
	case o.As == "":
		return models.Actor{}, usagef("--as or --token is required")
	}

	actor := models.Actor{ID: db.NormalizeID(o.As), IsAdmin: o.Admin}
	if o.Admin {
		log.WithField("user", actor.ID).Warn("--admin without a signed token: ownership checks are bypassed")
	}
	user, err := o.app.Users.GetByID(ctx, actor.ID)
	switch {
	case err == nil:
		actor.Fullname = user.Fullname
		actor.ImgURL = user.ImgURL
	case errors.Is(err, sql.ErrNoRows):
		actor.Fullname = actor.ID
	default:
		return models.Actor{}, fmt.Errorf("look up user %s: %w", actor.ID, err)
	}
	return actor, nil
}

func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				if err := db.Migrate(ctx, opts.app.DB); err != nil {
					return nil, err
				}
				return map[string]string{"driver": opts.app.DB.DriverName()}, nil
			})
		},
	}
}

func NewDashboardCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show task counts by status and member across all boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				return opts.app.Dashboard.Get(ctx)
			})
		},
	}
}
