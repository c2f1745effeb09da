package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chepyr/go-task-board/internal/models"
	"github.com/chepyr/go-task-board/internal/view"
)

func NewBoardsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List, inspect and change boards",
	}
	cmd.AddCommand(
		newBoardsListCommand(opts),
		newBoardsGetCommand(opts),
		newBoardsViewCommand(opts),
		newBoardsCreateCommand(opts),
		newBoardsUpdateCommand(opts),
		newBoardsRemoveCommand(opts),
		newBoardsMsgCommand(opts),
	)
	return cmd
}

func newBoardsListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all boards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				return opts.app.Boards.Query(ctx)
			})
		},
	}
}

func newBoardsGetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <board-id>",
		Short: "Print a whole board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				return opts.app.Boards.GetByID(ctx, args[0])
			})
		},
	}
}

// ViewOptions holds flags for boards view. Flags add to whatever the
// --filter file sets.
type ViewOptions struct {
	*RootOptions
	FilterFile string
	Filter     view.FilterBy
}

func newBoardsViewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ViewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "view <board-id>",
		Short: "Print a filtered and sorted view of a board",
		Long: fmt.Sprintf(`Print a filtered and sorted view of a board together with the
group and task-name options of the unfiltered board.

Due-date operations: %q

Example:
  board-service boards view 5f0c... --status done --due overdue --sort name --dir -1`, view.DueDateOps),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				filter, err := opts.filter()
				if err != nil {
					return nil, err
				}
				return opts.app.Boards.GetView(ctx, args[0], filter)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.FilterFile, "filter", "", "YAML file with a filter specification")
	f.StringSliceVar(&opts.Filter.ByGroups, "group", nil, "keep only these group ids")
	f.StringArrayVar(&opts.Filter.ByNames, "name", nil, "keep tasks with exactly these titles")
	f.StringSliceVar(&opts.Filter.ByStatuses, "status", nil, "keep tasks with these status ids")
	f.StringSliceVar(&opts.Filter.ByPriorities, "priority", nil, "keep tasks with these priority ids")
	f.StringArrayVar(&opts.Filter.ByMembers, "member", nil, "keep tasks assigned to any of these members")
	f.StringVar(&opts.Filter.ByPerson, "person", "", "keep tasks assigned to this member")
	f.StringArrayVar(&opts.Filter.ByDueDateOp, "due", nil, "keep tasks matching any of these due-date operations")
	f.StringVar(&opts.Filter.SortBy, "sort", "", "sort tasks by name|date|status|priority|members")
	f.IntVar(&opts.Filter.Dir, "dir", 1, "sort direction, 1 or -1")

	return cmd
}

func (o *ViewOptions) filter() (view.FilterBy, error) {
	var filter view.FilterBy
	if o.FilterFile != "" {
		raw, err := os.ReadFile(o.FilterFile)
		if err != nil {
			return filter, usagef("read filter file: %v", err)
		}
		if err := yaml.Unmarshal(raw, &filter); err != nil {
			return filter, usagef("parse filter file %s: %v", o.FilterFile, err)
		}
	}
	flags := o.Filter
	filter.ByGroups = append(filter.ByGroups, flags.ByGroups...)
	filter.ByNames = append(filter.ByNames, flags.ByNames...)
	filter.ByStatuses = append(filter.ByStatuses, flags.ByStatuses...)
	filter.ByPriorities = append(filter.ByPriorities, flags.ByPriorities...)
	filter.ByMembers = append(filter.ByMembers, flags.ByMembers...)
	filter.ByDueDateOp = append(filter.ByDueDateOp, flags.ByDueDateOp...)
	if flags.ByPerson != "" {
		filter.ByPerson = flags.ByPerson
	}
	if flags.SortBy != "" {
		filter.SortBy = flags.SortBy
		filter.Dir = flags.Dir
	}
	if filter.Dir != 0 && filter.Dir != 1 && filter.Dir != -1 {
		return filter, usagef("dir must be 1 or -1, got %d", filter.Dir)
	}
	return filter, nil
}

func newBoardsCreateCommand(opts *RootOptions) *cobra.Command {
	var (
		title   string
		starred bool
		members []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a board owned by the acting user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				actor, err := opts.actor(ctx)
				if err != nil {
					return nil, err
				}
				b := models.Board{Title: title, IsStarred: starred}
				if len(members) > 0 {
					users, err := opts.app.Users.FindByIDs(ctx, members)
					if err != nil {
						return nil, err
					}
					for _, u := range users {
						b.Members = append(b.Members, models.MiniUser{ID: u.ID, Fullname: u.Fullname, ImgURL: u.ImgURL})
					}
				}
				return opts.app.Boards.Create(ctx, actor, b)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "board title")
	cmd.Flags().BoolVar(&starred, "starred", false, "mark the board as starred")
	cmd.Flags().StringSliceVar(&members, "member", nil, "user ids to add as members")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newBoardsUpdateCommand(opts *RootOptions) *cobra.Command {
	var (
		title   string
		starred bool
	)
	cmd := &cobra.Command{
		Use:   "update <board-id>",
		Short: "Change a board's title or starred flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				b, err := opts.app.Boards.GetByID(ctx, args[0])
				if err != nil {
					return nil, err
				}
				if cmd.Flags().Changed("title") {
					b.Title = title
				}
				if cmd.Flags().Changed("starred") {
					b.IsStarred = starred
				}
				return opts.app.Boards.Update(ctx, *b)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().BoolVar(&starred, "starred", false, "starred flag")
	return cmd
}

func newBoardsRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <board-id>",
		Short: "Delete a board you own (any board with --admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				actor, err := opts.actor(ctx)
				if err != nil {
					return nil, err
				}
				if err := opts.app.Boards.Remove(ctx, actor, args[0]); err != nil {
					return nil, err
				}
				return map[string]string{"removed": args[0]}, nil
			})
		},
	}
}

func newBoardsMsgCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "msg",
		Short: "Post or delete board messages",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <board-id> <text>",
		Short: "Post a message on the board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				actor, err := opts.actor(ctx)
				if err != nil {
					return nil, err
				}
				return opts.app.Boards.AddMessage(ctx, actor, args[0], args[1])
			})
		},
	}, &cobra.Command{
		Use:   "remove <board-id> <msg-id>",
		Short: "Delete a board message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				if err := opts.app.Boards.RemoveMessage(ctx, args[0], args[1]); err != nil {
					return nil, err
				}
				return map[string]string{"removed": args[1]}, nil
			})
		},
	})
	return cmd
}
