package cli

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/chepyr/go-task-board/internal/board"
	"github.com/chepyr/go-task-board/internal/models"
)

func NewTasksCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Add, change, reorder and remove tasks",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <board-id> <task-id>",
			Short: "Print a task with its updates and activity",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, func(ctx context.Context) (any, error) {
					return opts.app.Boards.GetTask(ctx, args[0], args[1])
				})
			},
		},
		newTasksAddCommand(opts),
		&cobra.Command{
			Use:   "duplicate <board-id> <group-id> <task-id>",
			Short: "Copy a task and insert the copy right after it",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, func(ctx context.Context) (any, error) {
					actor, err := opts.actor(ctx)
					if err != nil {
						return nil, err
					}
					return opts.app.Boards.DuplicateTask(ctx, actor, args[0], args[1], args[2])
				})
			},
		},
		newTasksUpdateCommand(opts),
		&cobra.Command{
			Use:   "note <board-id> <group-id> <task-id> <text>",
			Short: "Add a progress update to the top of a task",
			Args:  cobra.ExactArgs(4),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, func(ctx context.Context) (any, error) {
					actor, err := opts.actor(ctx)
					if err != nil {
						return nil, err
					}
					return opts.app.Boards.AddUpdate(ctx, actor, args[0], args[1], args[2], args[3])
				})
			},
		},
		&cobra.Command{
			Use:   "reorder <board-id> <group-id> <task-id>...",
			Short: "Set the order of all tasks of a group",
			Args:  cobra.MinimumNArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, func(ctx context.Context) (any, error) {
					b, err := opts.app.Boards.GetByID(ctx, args[0])
					if err != nil {
						return nil, err
					}
					idx := b.GroupIndex(args[1])
					if idx < 0 {
						return opts.app.Boards.ReorderTasks(ctx, args[0], args[1], nil)
					}
					tasks, err := permute(b.Groups[idx].Tasks, args[2:], func(t models.Task) string { return t.ID })
					if err != nil {
						return nil, err
					}
					return opts.app.Boards.ReorderTasks(ctx, args[0], args[1], tasks)
				})
			},
		},
		&cobra.Command{
			Use:   "remove <board-id> <group-id> <task-id>",
			Short: "Delete a task and print it",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, func(ctx context.Context) (any, error) {
					return opts.app.Boards.RemoveTask(ctx, args[0], args[1], args[2])
				})
			},
		},
	)
	return cmd
}

func newTasksAddCommand(opts *RootOptions) *cobra.Command {
	var (
		title string
		front bool
	)
	cmd := &cobra.Command{
		Use:   "add <board-id> <group-id>",
		Short: "Add a task to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				actor, err := opts.actor(ctx)
				if err != nil {
					return nil, err
				}
				placement := board.AtEnd
				if front {
					placement = board.AtFront
				}
				return opts.app.Boards.AddTask(ctx, actor, args[0], args[1], title, placement)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "New Task", "task title")
	cmd.Flags().BoolVar(&front, "front", false, "insert at the top of the group")
	return cmd
}

func newTasksUpdateCommand(opts *RootOptions) *cobra.Command {
	var (
		set      string
		activity string
	)
	cmd := &cobra.Command{
		Use:   "update <board-id> <group-id> <task-id>",
		Short: "Set task fields and record an activity",
		Long: `Set task fields and record an activity.

Example:
  board-service tasks update <board> <group> <task> \
    --set '{"status":{"id":"done","txt":"Done","cssVar":"#00c875"}}' \
    --activity "Changed status to Done"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				actor, err := opts.actor(ctx)
				if err != nil {
					return nil, err
				}
				var patch map[string]any
				if err := sonic.ConfigStd.UnmarshalFromString(set, &patch); err != nil {
					return nil, usagef("invalid --set JSON: %v", err)
				}
				return opts.app.Boards.UpdateTask(ctx, actor, args[0], args[1], args[2], patch, activity)
			})
		},
	}
	cmd.Flags().StringVar(&set, "set", "{}", "fields to set, as a JSON object")
	cmd.Flags().StringVar(&activity, "activity", "", "activity title to record")
	return cmd
}
