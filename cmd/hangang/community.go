package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/hangang/internal/apperror"
	"github.com/sakif/hangang/internal/feed"
)

// loadFeed opens the community screen. Partial failures are reported but
// do not stop the command; whatever loaded is still usable.
func (a *app) loadFeed(ctx context.Context) *feed.Feed {
	f := feed.New(a.client, a.session, a.logger)
	report := f.LoadAll(ctx)
	for _, err := range []error{report.Posts, report.Comments, report.Likes} {
		if err != nil {
			a.printf("warning: %s\n", apperror.UserMessage(err))
		}
	}
	return f
}

func newFeedCmd(a *app) *cobra.Command {
	var withComments bool
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the community feed, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := a.loadFeed(cmd.Context())
			defer f.Close()

			posts := f.Posts()
			if len(posts) == 0 {
				a.printf("No posts yet.\n")
				return nil
			}

			me := a.session.UserID()
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tAUTHOR\tDATE\tLIKES\tCOMMENTS\tTEXT")
			for _, p := range posts {
				likes := fmt.Sprint(f.LikeCount(p.ID))
				if me != "" && f.IsLiked(p.ID, me) {
					likes += "*"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					p.ID, p.AuthorID, p.CreatedAt.Local().Format("2006-01-02 15:04"),
					likes, f.CommentCount(p.ID), oneLine(p.Text, 60))
				if withComments {
					for _, c := range f.CommentsFor(p.ID) {
						fmt.Fprintf(tw, "  %s\t%s\t%s\t\t\t%s\n",
							c.ID, c.AuthorID, c.CreatedAt.Local().Format("2006-01-02 15:04"), oneLine(c.Text, 60))
					}
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&withComments, "comments", "c", false, "show comments under each post")
	return cmd
}

func newPostCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <text>",
		Short: "Write, edit or delete a post",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := feed.New(a.client, a.session, a.logger)
			defer f.Close()

			post, err := f.SubmitPost(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.printf("Posted %s.\n", post.ID)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "edit <id> <text>",
		Short: "Replace the text of your post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := a.loadFeed(cmd.Context())
			defer f.Close()
			if err := f.EditPost(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			a.printf("Post %s updated.\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete your post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := a.loadFeed(cmd.Context())
			defer f.Close()
			if err := f.DeletePost(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Post %s deleted.\n", args[0])
			return nil
		},
	})
	return cmd
}

func newCommentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment <post-id> <text>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := a.loadFeed(cmd.Context())
			defer f.Close()
			c, err := f.SubmitComment(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if c.ID != "" {
				a.printf("Comment %s added.\n", c.ID)
			} else {
				a.printf("Comment added.\n")
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete your comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := a.loadFeed(cmd.Context())
			defer f.Close()
			if err := f.DeleteComment(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.printf("Comment %s deleted.\n", args[0])
			return nil
		},
	})
	return cmd
}

func newLikeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like a post, or unlike it if you already do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := a.loadFeed(cmd.Context())
			defer f.Close()
			liked, err := f.ToggleLike(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if liked {
				a.printf("Liked. %d like(s).\n", f.LikeCount(args[0]))
			} else {
				a.printf("Unliked. %d like(s).\n", f.LikeCount(args[0]))
			}
			return nil
		},
	}
}

// oneLine flattens s and cuts it to max runes.
func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
