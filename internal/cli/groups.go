package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/chepyr/go-task-board/internal/models"
)

func NewGroupsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Add, change, reorder and remove board groups",
	}

	var title string
	add := &cobra.Command{
		Use:   "add <board-id>",
		Short: "Append a group to the board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				actor, err := opts.actor(ctx)
				if err != nil {
					return nil, err
				}
				return opts.app.Boards.AddGroup(ctx, actor, args[0], title)
			})
		},
	}
	add.Flags().StringVar(&title, "title", "New Group", "group title")

	cmd.AddCommand(
		add,
		newGroupsUpdateCommand(opts),
		&cobra.Command{
			Use:   "reorder <board-id> <group-id>...",
			Short: "Set the order of all groups of the board",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, func(ctx context.Context) (any, error) {
					b, err := opts.app.Boards.GetByID(ctx, args[0])
					if err != nil {
						return nil, err
					}
					groups, err := permute(b.Groups, args[1:], func(g models.Group) string { return g.ID })
					if err != nil {
						return nil, err
					}
					return opts.app.Boards.ReorderGroups(ctx, args[0], groups)
				})
			},
		},
		&cobra.Command{
			Use:   "remove <board-id> <group-id>",
			Short: "Delete a group and all its tasks",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.run(cmd, func(ctx context.Context) (any, error) {
					return opts.app.Boards.RemoveGroup(ctx, args[0], args[1])
				})
			},
		},
	)
	return cmd
}

func newGroupsUpdateCommand(opts *RootOptions) *cobra.Command {
	var (
		title     string
		color     string
		collapsed bool
	)
	cmd := &cobra.Command{
		Use:   "update <board-id> <group-id>",
		Short: "Change a group's title, color or collapsed flag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context) (any, error) {
				b, err := opts.app.Boards.GetByID(ctx, args[0])
				if err != nil {
					return nil, err
				}
				idx := b.GroupIndex(args[1])
				if idx < 0 {
					// let the engine report the missing group
					return opts.app.Boards.UpdateGroup(ctx, args[0], models.Group{ID: args[1]})
				}
				group := b.Groups[idx]
				if cmd.Flags().Changed("title") {
					group.Title = title
				}
				if cmd.Flags().Changed("color") {
					group.Style.Color = color
				}
				if cmd.Flags().Changed("collapsed") {
					group.IsCollapsed = collapsed
				}
				return opts.app.Boards.UpdateGroup(ctx, args[0], group)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&color, "color", "", "display color")
	cmd.Flags().BoolVar(&collapsed, "collapsed", false, "collapsed flag")
	return cmd
}

// permute orders items by the given ids, which must name every item once.
func permute[T any](items []T, ids []string, id func(T) string) ([]T, error) {
	if len(ids) != len(items) {
		return nil, usagef("expected %d ids, got %d", len(items), len(ids))
	}
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[id(it)] = it
	}
	out := make([]T, 0, len(ids))
	for _, want := range ids {
		it, ok := byID[want]
		if !ok {
			return nil, usagef("unknown or repeated id %q", want)
		}
		out = append(out, it)
		delete(byID, want)
	}
	return out, nil
}
