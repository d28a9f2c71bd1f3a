package main

import (
	"github.com/spf13/cobra"
)

func newNotificationsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"n"},
		Short:   "Read your notifications",
	}
	cmd.AddCommand(
		newNotificationsListCmd(a),
		newNotificationsReadCmd(a),
		newNotificationsReadAllCmd(a),
	)
	return cmd
}

func newNotificationsListCmd(a *app) *cobra.Command {
	var (
		unread      bool
		page, limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			notifications, err := client.ListNotifications(cmd.Context(), unread, page, limit)
			if err != nil {
				return err
			}
			count, err := client.UnreadCount(cmd.Context())
			if err != nil {
				return err
			}
			a.renderNotifications(notifications)
			a.printf("%d unread\n", count)
			return nil
		},
	}

	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 20, "page size")
	return cmd
}

func newNotificationsReadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read <notification-id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := client.MarkNotificationRead(cmd.Context(), id); err != nil {
				return err
			}
			a.printf("Marked as read\n")
			return nil
		},
	}
}

func newNotificationsReadAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := a.restored(cmd.Context())
			if err != nil {
				return err
			}
			updated, err := client.MarkAllNotificationsRead(cmd.Context())
			if err != nil {
				return err
			}
			a.printf("Marked %d notifications as read\n", updated)
			return nil
		},
	}
}
