package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tablecast/signage/internal/pkg/slideimage"
)

func newRenderCardCommand() *cobra.Command {
	var (
		card slideimage.Card
		out  string
	)

	cmd := &cobra.Command{
		Use:   "render-card",
		Short: "Render a fact card to SVG or PNG",
		Long:  "Writes the card a fact slide would display. The format follows the --out extension.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(card.Text) == "" {
				return fmt.Errorf("--text is required")
			}
			var data []byte
			switch ext := strings.ToLower(filepath.Ext(out)); ext {
			case ".svg":
				data = []byte(slideimage.RenderSVG(card))
			case ".png":
				r, err := slideimage.NewRenderer()
				if err != nil {
					return err
				}
				if data, err = r.RenderPNG(card); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported output extension %q, use .svg or .png", ext)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&card.Text, "text", "", "card text")
	cmd.Flags().StringVar(&card.Category, "category", "", "category label")
	cmd.Flags().StringVar(&card.Emoji, "emoji", "", "emoji shown above the text")
	cmd.Flags().StringVar(&card.Background, "bg", slideimage.DefaultBackground, "background #rrggbb")
	cmd.Flags().StringVar(&card.Foreground, "fg", slideimage.DefaultForeground, "text #rrggbb")
	cmd.Flags().StringVarP(&out, "out", "o", "card.svg", "output file")
	return cmd
}
