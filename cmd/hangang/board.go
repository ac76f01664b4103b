package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/hangang/internal/busking"
	"github.com/sakif/hangang/internal/inquiry"
	"github.com/sakif/hangang/internal/marker"
	"github.com/sakif/hangang/internal/model"
)

func newInquiryCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:     "inquiries",
		Aliases: []string{"inquiry"},
		Short:   "List your inquiries, grouped by status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := inquiry.New(a.client, a.session, a.logger)
			defer b.Close()

			load := b.LoadMine
			if all {
				load = b.LoadAll
			}
			if err := load(cmd.Context()); err != nil {
				return err
			}

			a.printInquiries("Waiting for an answer", b.Pending())
			a.printInquiries("Answered", b.Answered())
			a.printInquiries("Unrecognized status", b.Unknown())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list every user's inquiries (admin)")

	cmd.AddCommand(&cobra.Command{
		Use:   "ask <question>",
		Short: "Send a question to the park office",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := inquiry.New(a.client, a.session, a.logger)
			defer b.Close()
			inq, err := b.Ask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			a.printf("Inquiry sent%s.\n", idSuffix(inq.ID))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "answer <id> <answer>",
		Short: "Answer an inquiry (admin)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := inquiry.New(a.client, a.session, a.logger)
			defer b.Close()
			if err := b.LoadAll(cmd.Context()); err != nil {
				return err
			}
			if err := b.Answer(cmd.Context(), args[0], strings.Join(args[1:], " ")); err != nil {
				return err
			}
			a.printf("Inquiry %s answered.\n", args[0])
			return nil
		},
	})
	return cmd
}

func (a *app) printInquiries(title string, items []model.Inquiry) {
	if len(items) == 0 {
		return
	}
	a.printf("%s (%d)\n", title, len(items))
	for _, inq := range items {
		a.printf("  [%s] %s  %s\n", inq.ID, inq.QuestionDate.Local().Format("2006-01-02"), oneLine(inq.Question, 70))
		if inq.Answer != nil {
			a.printf("      → %s\n", oneLine(*inq.Answer, 70))
		}
	}
}

func newBuskingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "busking",
		Short: "Busking schedule and applications",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schedule",
		Short: "Show approved performances, soonest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := busking.New(a.client, a.session, a.logger)
			defer b.Close()
			if err := b.Load(cmd.Context()); err != nil {
				return err
			}
			schedule := b.Schedule()
			if len(schedule) == 0 {
				a.printf("Nothing scheduled.\n")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tPERFORMER\tGENRE\tBAND")
			for _, entry := range schedule {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry.Date, entry.PerformerName, entry.Genre, entry.BandName)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "mine",
		Short: "Show your applications and their state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := busking.New(a.client, a.session, a.logger)
			defer b.Close()
			if err := b.LoadMine(cmd.Context()); err != nil {
				return err
			}
			mine := b.Mine()
			if len(mine) == 0 {
				a.printf("No applications.\n")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tPERFORMER\tGENRE\tSTATE")
			for _, entry := range mine {
				state, _ := busking.StateOf(entry)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\n", entry.Date, entry.PerformerName, entry.Genre, state.Icon(), state.Label())
			}
			return tw.Flush()
		},
	})

	var form busking.Form
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Apply for a busking slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := busking.New(a.client, a.session, a.logger)
			defer b.Close()
			sent, err := b.Apply(cmd.Context(), form)
			if err != nil {
				return err
			}
			a.printf("Application for %s sent%s. It is pending review.\n", sent.Date, idSuffix(sent.ID))
			return nil
		},
	}
	apply.Flags().StringVar(&form.PerformerName, "name", "", "performer name")
	apply.Flags().StringVar(&form.Date, "date", "", "performance date, YYYY-MM-DD")
	apply.Flags().StringVar(&form.Genre, "genre", "", "genre")
	apply.Flags().StringVar(&form.Description, "description", "", "what you will perform")
	apply.Flags().StringVar(&form.BandName, "band", "", "band name")
	cmd.AddCommand(apply)

	return cmd
}

func newMarkersCmd(a *app) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "markers",
		Short: "List map markers (parking, toilets, stages...)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := marker.New(a.client, a.logger)
			if err := d.Load(cmd.Context()); err != nil {
				return err
			}

			markers := d.All()
			if typ != "" {
				markers = d.ByType(typ)
			}
			if len(markers) == 0 {
				a.printf("No markers. Known types: %s\n", strings.Join(d.Types(), ", "))
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tNAME\tADDRESS\tHOURS")
			for _, m := range markers {
				hours := ""
				if m.Time != nil {
					hours = *m.Time
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Type, m.Name, m.Address, hours)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&typ, "type", "t", "", "only markers of this type")
	return cmd
}

func idSuffix(id string) string {
	if id == "" {
		return ""
	}
	return " (" + id + ")"
}
