package cmd

import (
	"fmt"

	"github.com/Iron-Ham/areavis/internal/errors"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [layout]",
	Short: "Check a layout file",
	Long: `Load a layout file and report every validation problem in it.

The layout defaults to layout.path from the configuration. Use "-" to read
the layout from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := layoutPath(cfg, args)

	l, err := readLayout(path, cmd.InOrStdin())
	if err != nil {
		if errors.Is(err, errors.ErrInvalidLayout) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is invalid:\n", path)
			for _, e := range joined(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", e)
			}
		}
		return err
	}

	areas, widgets := l.Index()
	fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d areas, %d widgets\n", path, len(areas), len(widgets))
	return nil
}

// joined returns the validation errors carried by a layout error.
func joined(err error) []*errors.ValidationError {
	var out []*errors.ValidationError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if v, ok := e.(*errors.ValidationError); ok {
			out = append(out, v)
			return
		}
		if multi, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range multi.Unwrap() {
				walk(inner)
			}
			return
		}
		walk(errors.Unwrap(e))
	}
	walk(err)
	return out
}
