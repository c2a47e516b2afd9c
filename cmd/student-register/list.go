package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every registered student",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := open(true)
		if err != nil {
			return err
		}
		defer a.Close()

		students, err := a.store.GetStudents(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if listJSON {
			return printJSON(out, students)
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL")
		for _, s := range students {
			fmt.Fprintf(w, "%d\t%s\t%s\n", s.ID, s.Name, s.Email)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
}
