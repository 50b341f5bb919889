package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/voyager-portal/internal/chart"
	"github.com/AngelCh415/voyager-portal/internal/metrics"
	"github.com/AngelCh415/voyager-portal/internal/scheduling"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [segment]",
	Short: "Print campaign totals, top campaigns and segment accept rates",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSummary,
}

func runSummary(cmd *cobra.Command, args []string) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		rows, err := svc.SegmentBreakdown(args[0])
		if err != nil {
			return fmt.Errorf("%q: %w", args[0], err)
		}
		return printBars(cmd, rows)
	}

	v := svc.CampaignStats()
	fmt.Fprintf(out, "Offers:   %s\n", metrics.FormatCount(v.TotalOffers))
	fmt.Fprintf(out, "Accepted: %s\n", metrics.FormatCount(v.TotalAccepted))
	fmt.Fprintf(out, "Rate:     %s\n\n", v.OverallRateLabel)
	fmt.Fprintln(out, "Top campaigns")
	if err := printBars(cmd, v.TopCampaigns); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nSegments")
	return printBars(cmd, v.Segments)
}

func printBars(cmd *cobra.Command, rows []metrics.BarRow) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSHOWN\tACCEPTED\tRATE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, metrics.FormatCount(r.Shown), metrics.FormatCount(r.Accepted), r.RateLabel)
	}
	return tw.Flush()
}

var (
	donutOut  string
	donutSize float64
	donutKind string
)

var donutCmd = &cobra.Command{
	Use:   "donut",
	Short: "Write a donut chart SVG of segment sizes or accepted offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		arcs := svc.SegmentsOverview().Arcs
		switch donutKind {
		case "segments":
		case "accepts":
			arcs = svc.PayloadArcs()
		default:
			return fmt.Errorf("unknown chart %q (segments|accepts)", donutKind)
		}

		if donutOut == "" || donutOut == "-" {
			return chart.Donut(cmd.OutOrStdout(), arcs, donutSize)
		}
		f, err := os.Create(donutOut)
		if err != nil {
			return err
		}
		return errors.Join(chart.Donut(f, arcs, donutSize), f.Close())
	},
}

var scheduleHour int

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show the send-time recommendation for an hour",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := scheduling.BuildView(scheduleHour)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  %s\n", v.Selected.Label, v.Selected.Recommendation)
		fmt.Fprintf(out, "confidence %.0f%%, peak %s (%s users)\n",
			v.Selected.Confidence*100, scheduling.Label(v.Peak.Hour), metrics.FormatCount(float64(v.Peak.Users)))
		return nil
	},
}

func init() {
	donutCmd.Flags().StringVarP(&donutOut, "out", "o", "-", "Output file, - for stdout")
	donutCmd.Flags().Float64Var(&donutSize, "size", chart.DefaultSize, "Chart size in px")
	donutCmd.Flags().StringVar(&donutKind, "chart", "segments", "segments or accepts")
	scheduleCmd.Flags().IntVar(&scheduleHour, "hour", scheduling.DefaultHour, "Hour of day, 0-23")
}
