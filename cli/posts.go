// ABOUTME: posts subcommands for the social media calendar
// ABOUTME: list, add, rm and publish scheduled posts to Google Calendar
package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/duoproservices/portal/config"
	"github.com/duoproservices/portal/gcal"
	"github.com/duoproservices/portal/localapi"
	"github.com/duoproservices/portal/models"
)

func NewPostsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage the social media calendar",
	}
	cmd.AddCommand(newPostsListCommand(rootOpts))
	cmd.AddCommand(newPostsAddCommand(rootOpts))
	cmd.AddCommand(newPostsRmCommand(rootOpts))
	cmd.AddCommand(newPostsPublishCommand(rootOpts))
	return cmd
}

// postsFor loads the whole calendar, or one month of it when month is YYYY-MM.
func postsFor(cmd *cobra.Command, app *App, month string) ([]models.SocialPost, error) {
	if month == "" {
		posts, err := app.Social.Load(cmd.Context())
		if err != nil {
			return nil, err
		}
		localapi.SortPosts(posts)
		return posts, nil
	}
	m, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q (use YYYY-MM)", month)
	}
	return app.Social.Month(cmd.Context(), m.Year(), m.Month())
}

func newPostsListCommand(rootOpts *RootOptions) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts in date order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			posts, err := postsFor(cmd, app, month)
			if err != nil {
				return err
			}
			return rootOpts.emit(cmd.OutOrStdout(), posts, func() error {
				rows := make([][]string, 0, len(posts))
				for _, p := range posts {
					rows = append(rows, []string{p.ID, p.Date, p.Time, string(p.Platform), string(p.Status), truncate(p.Content, 40)})
				}
				printTable(cmd.OutOrStdout(), "No posts found.", []string{"ID", "Date", "Time", "Platform", "Status", "Content"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	return cmd
}

func newPostsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var post models.SocialPost
	var platform, status string

	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a post to the calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			post.Content = args[0]
			post.Platform = models.Platform(platform)
			post.Status = models.PostStatus(status)

			saved, err := app.Social.SavePost(cmd.Context(), post)
			if err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbCreated, "social-post", saved.ID, fmt.Sprintf("Planned %s post for %s", saved.Platform, saved.Date))

			return rootOpts.emit(cmd.OutOrStdout(), saved, func() error {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Added %s post on %s (%s)\n", saved.Platform, saved.Date, saved.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&post.Date, "date", time.Now().Format(time.DateOnly), "publish date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&post.Time, "time", "", "publish time (HH:MM)")
	cmd.Flags().StringVar(&platform, "platform", string(models.PlatformInstagram), "platform (instagram|facebook|linkedin|tiktok)")
	cmd.Flags().StringVar(&post.ImageURL, "image", "", "image URL")
	cmd.Flags().StringVar(&status, "status", "", "status (draft|scheduled|published)")
	return cmd
}

func newPostsRmCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			if err := app.Social.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.Record(cmd.Context(), models.VerbDeleted, "social-post", args[0], "Deleted post")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
			return nil
		},
	}
}

func newPostsPublishCommand(rootOpts *RootOptions) *cobra.Command {
	var month string
	var markPublished bool

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish scheduled posts to Google Calendar",
		Long:  "Creates or updates one calendar event per scheduled post. Drafts are skipped.\nRequires GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and a token at $XDG_DATA_HOME/duopro/google-token.json.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rootOpts.App()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			ts, err := gcal.TokenSource(ctx, gcal.TokenPath(config.AppName))
			if err != nil {
				return err
			}
			publisher, err := gcal.NewPublisher(ctx, ts, app.Config.CalendarID, time.Local, app.Logger.Named("gcal"))
			if err != nil {
				return err
			}

			posts, err := postsFor(cmd, app, month)
			if err != nil {
				return err
			}
			report, err := publisher.PublishAll(ctx, posts)
			if err != nil {
				return err
			}

			if markPublished {
				for _, id := range report.Published {
					if _, err := app.Social.SetStatus(ctx, id, models.PostPublished); err != nil {
						return fmt.Errorf("published %s but failed to update its status: %w", id, err)
					}
				}
			}

			return rootOpts.emit(cmd.OutOrStdout(), report, func() error {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %d created, %d updated, %d drafts skipped\n", report.Created, report.Updated, report.Skipped)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "only this month (YYYY-MM)")
	cmd.Flags().BoolVar(&markPublished, "mark-published", false, "set published posts to status published")
	return cmd
}
