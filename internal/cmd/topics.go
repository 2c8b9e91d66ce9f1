package cmd

import (
	"fmt"
	"io"

	"github.com/Iron-Ham/areavis/internal/visibility"
	"github.com/spf13/cobra"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Show the topics a widget listens and publishes on",
	Long: `Show the event bus topics a widget uses for visibility.

Examples:
  # Topics for widget w1 placed in area main
  areavis topics --widget w1 --area main

  # Include the widget's own areas
  areavis topics --widget w1 --area main --local content --local details`,
	RunE: runTopics,
}

var (
	topicsWidget string
	topicsArea   string
	topicsLocal  []string
)

func init() {
	rootCmd.AddCommand(topicsCmd)

	topicsCmd.Flags().StringVarP(&topicsWidget, "widget", "w", "", "Widget ID (required)")
	topicsCmd.Flags().StringVarP(&topicsArea, "area", "a", "", "Area containing the widget (required)")
	topicsCmd.Flags().StringSliceVarP(&topicsLocal, "local", "l", nil, "Local area names owned by the widget")
	_ = topicsCmd.MarkFlagRequired("widget")
	_ = topicsCmd.MarkFlagRequired("area")
}

func runTopics(cmd *cobra.Command, args []string) error {
	printTopics(cmd.OutOrStdout(), topicsWidget, topicsArea, topicsLocal)
	return nil
}

func printTopics(out io.Writer, widget, area string, local []string) {
	row := func(dir, topic, note string) {
		fmt.Fprintf(out, "  %-10s %-48s %s\n", dir, topic, note)
	}

	fmt.Fprintf(out, "widget %s in area %s\n", widget, area)
	row("listen", visibility.DidChangeTopic(area), "OnChange")
	row("listen", visibility.AreaRequestTopic(widget), "OnAnyAreaRequest")
	row("publish", visibility.WidgetRequestTopicFor(widget, true), "PublisherForWidget")
	row("publish", visibility.WidgetRequestTopicFor(widget, false), "PublisherForWidget")

	for _, name := range local {
		busName := visibility.AreaName(widget, name)
		fmt.Fprintf(out, "\narea %s\n", busName)
		row("listen", visibility.DidChangeTopic(busName), "RegisterArea OnChange")
		row("listen", visibility.AreaRequestTopic(busName), "RegisterArea OnRequest")
		row("publish", visibility.AreaRequestTopicFor(busName, false), "PublisherForArea")
		row("publish", visibility.WillChangeTopicFor(busName, false), "confirmation")
		row("publish", visibility.DidChangeTopicFor(busName, false), "confirmation")
	}
}
