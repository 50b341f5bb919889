// Command portalctl renders portal views from a payload file and talks to
// the notification backend without starting the server.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AngelCh415/voyager-portal/internal/ingest"
	"github.com/AngelCh415/voyager-portal/internal/metrics"
	"github.com/AngelCh415/voyager-portal/internal/models"
	"github.com/AngelCh415/voyager-portal/internal/store"
)

var (
	payloadPath string
	backendURL  string
	timeout     time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "portalctl",
	Short:         "Manager portal views and backend actions from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&payloadPath, "payload", "p", "", "Campaign stats payload JSON (default: bundled copy)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", os.Getenv("BACKEND_URL"), "Notification backend base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Backend request timeout")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(donutCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(triggerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadPayload() (models.Payload, error) {
	if payloadPath == "" {
		p, err := ingest.Embedded()
		if err != nil {
			return models.Payload{}, err
		}
		return ingest.Normalize(p), nil
	}
	b, err := os.ReadFile(payloadPath)
	if err != nil {
		return models.Payload{}, err
	}
	p, err := ingest.Decode(b)
	if err != nil {
		return models.Payload{}, fmt.Errorf("%s: %w", payloadPath, err)
	}
	return ingest.Normalize(p), nil
}

func newService() (*metrics.Service, error) {
	p, err := loadPayload()
	if err != nil {
		return nil, err
	}
	st := store.NewMemoryStore()
	st.SetPayload(p, payloadPath, time.Now())
	return metrics.NewService(st, metrics.DefaultSegments), nil
}
