package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"mast/internal/cli/client"
	"mast/pkg/api"
)

// NewListCommand creates the list command
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pipelines or get specific pipeline details",
		Run:   runList,
	}

	cmd.Flags().StringP("id", "i", "", "Specific pipeline ID to list")

	return cmd
}

func runList(cmd *cobra.Command, args []string) {
	listPipelineID, _ := cmd.Flags().GetString("id")

	var path string
	if listPipelineID != "" {
		path = fmt.Sprintf("/pipeline/%s", listPipelineID)
	} else {
		path = "/pipeline"
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
	if listPipelineID != "" {
		var detail api.PipelineDetail
		if err := client.DecodeResponse(body, &detail); err != nil {
			fmt.Printf("List failed: %v\n", err)
			return
		}
		result = detail
	} else {
		var briefs []api.PipelineBrief
		if err := client.DecodeResponse(body, &briefs); err != nil {
			fmt.Printf("List failed: %v\n", err)
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
