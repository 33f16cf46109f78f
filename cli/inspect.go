package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/digitorus/pdfstamp"
)

func newInspectCommand(a *app) *cobra.Command {
	var contentPage int

	cmd := &cobra.Command{
		Use:   "inspect [flags] <input.pdf>",
		Short: "Print the pages and revisions of a PDF as JSON",
		Example: `  pdfstamp inspect signed.pdf
  pdfstamp inspect --content 1 signed.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			if contentPage > 0 {
				content, err := pdfstamp.PageContent(input, contentPage)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}

			info, err := pdfstamp.Inspect(input)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}

	cmd.Flags().IntVar(&contentPage, "content", 0, "Print the decoded content stream of this page instead")
	return cmd
}
