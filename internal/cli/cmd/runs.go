package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"mast/internal/cli/client"
	"mast/pkg/api"
)

// NewRunsCommand creates the runs command
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List run history or get a specific run's details",
		Run:   runRuns,
	}

	cmd.Flags().StringP("id", "i", "", "Run UUID to inspect")
	cmd.Flags().IntP("limit", "n", 0, "Maximum number of runs to list")

	return cmd
}

func runRuns(cmd *cobra.Command, args []string) {
	runUUID, _ := cmd.Flags().GetString("id")
	limit, _ := cmd.Flags().GetInt("limit")

	var path string
	if runUUID != "" {
		path = fmt.Sprintf("/runs/%s", runUUID)
	} else if limit > 0 {
		path = fmt.Sprintf("/runs?limit=%d", limit)
	} else {
		path = "/runs"
	}

	resp, err := client.SendRequest(http.MethodGet, path, nil)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	body, err := client.ReadResponseBody(resp)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var result interface{}
	if runUUID != "" {
		var detail api.RunDetail
		if err := client.DecodeResponse(body, &detail); err != nil {
			fmt.Printf("Runs failed: %v\n", err)
			return
		}
		result = detail
	} else {
		var briefs []api.RunBrief
		if err := client.DecodeResponse(body, &briefs); err != nil {
			fmt.Printf("Runs failed: %v\n", err)
			return
		}
		result = briefs
	}

	formatted, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Printf("Error: Failed to format output - %v\n", err)
		return
	}
	fmt.Println(string(formatted))
}
