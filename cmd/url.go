package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var urlServer string

var errNothingPublished = errors.New("no pack has been published yet")

var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the pack URL last broadcast by a running server",
	Example: `  packhost url
  packhost url --server http://packs.internal:8080`,
	Args: cobra.NoArgs,
	RunE: runURL,
}

func init() {
	urlCmd.Flags().StringVar(&urlServer, "server", "http://localhost:8080", "Base URL of a running packhost serve")
}

func runURL(cmd *cobra.Command, _ []string) error {
	status, err := fetchPackStatus(urlServer)
	if err != nil {
		return err
	}
	if status.URL == "" {
		return errNothingPublished
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), status.URL)
	return err
}

func fetchPackStatus(server string) (*packStatus, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(strings.TrimSuffix(server, "/") + "/pack")
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var status packStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("invalid pack status: %w", err)
	}
	return &status, nil
}
