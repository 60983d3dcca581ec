package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go-skin-inspector/internal/catalog"
	apperrors "go-skin-inspector/internal/errors"
	"go-skin-inspector/pkg/models"

	"github.com/spf13/cobra"
)

func newConditionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conditions",
		Aliases: []string{"cond"},
		Short:   "Browse the skin condition reference",
	}

	var risk string
	list := &cobra.Command{
		Use:   "list",
		Short: "List conditions, optionally by risk level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			conditions := cat.All()
			if risk != "" {
				r, err := models.ParseRisk(risk)
				if err != nil {
					return err
				}
				conditions = cat.FilterByRisk(r)
			}
			return printConditions(cmd.OutOrStdout(), conditions, opts.json)
		},
	}
	list.Flags().StringVar(&risk, "risk", "", "only show conditions with this risk (low, moderate, high)")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one condition in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			cond, err := cat.Get(args[0])
			if err != nil {
				if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
					if s := cat.Suggest(args[0], 3); len(s) > 0 {
						return fmt.Errorf("condition %q not found, did you mean %s?", args[0], strings.Join(s, ", "))
					}
				}
				return err
			}
			if opts.json {
				return writeJSON(cmd.OutOrStdout(), cond)
			}
			printCondition(cmd.OutOrStdout(), cond)
			return nil
		},
	}

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search conditions by name or symptom",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := catalog.Default()
			q := strings.Join(args, " ")
			found := cat.Search(q)
			if len(found) == 0 && !opts.json {
				fmt.Fprintf(cmd.OutOrStdout(), "No conditions match %q.\n", q)
				if s := cat.Suggest(q, 3); len(s) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Did you mean: %s\n", strings.Join(s, ", "))
				}
				return nil
			}
			return printConditions(cmd.OutOrStdout(), found, opts.json)
		},
	}

	cmd.AddCommand(list, show, search)
	return cmd
}

func printConditions(out io.Writer, conditions []models.Condition, asJSON bool) error {
	if asJSON {
		if conditions == nil {
			conditions = []models.Condition{}
		}
		return writeJSON(out, conditions)
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRISK\tSEE A DOCTOR")
	fmt.Fprintln(w, "--\t----\t----\t------------")
	for _, c := range conditions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Risk, yesNo(c.NeedsMedicalAttention))
	}
	return w.Flush()
}

func printCondition(out io.Writer, c models.Condition) {
	fmt.Fprintf(out, "%s (%s)\n", c.Name, c.ID)
	fmt.Fprintf(out, "Risk: %s\n", c.Risk)
	if c.NeedsMedicalAttention {
		fmt.Fprintln(out, "Medical attention recommended.")
	}
	fmt.Fprintf(out, "\n%s\n\nSymptoms:\n", c.Description)
	for _, s := range c.Symptoms {
		fmt.Fprintf(out, "  - %s\n", s)
	}
	fmt.Fprintf(out, "\nTreatment: %s\n", c.Treatment)
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
