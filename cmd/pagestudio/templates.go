package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ds124wfegd/pagestudio/internal/entity"
	"github.com/ds124wfegd/pagestudio/internal/pkg/processing"
	"github.com/ds124wfegd/pagestudio/internal/pkg/processor"
	"github.com/spf13/cobra"
)

func newTemplatesCmd(a *app) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List the layout templates the processor offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			var templates []entity.TemplateInfo
			if local {
				templates = processor.TemplateList()
			} else {
				var err error
				client := processing.New(a.cfg.Client.BaseURL, a.cfg.Client.Timeout)
				templates, err = client.Templates(cmd.Context())
				if err != nil {
					return err
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range templates {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "List built-in templates without asking the server")

	return cmd
}
