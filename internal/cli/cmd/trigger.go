package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"mast/internal/cli/client"
	"mast/pkg/api"
)

// NewTriggerCommand creates the trigger command
func NewTriggerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Trigger a pipeline run",
		Run:   runTrigger,
	}

	cmd.Flags().UintP("id", "i", 0, "Pipeline ID to trigger (required)")
	cmd.Flags().StringP("event", "e", "", "Event to trigger with (defaults to manual)")
	cmd.MarkFlagRequired("id")

	return cmd
}

func runTrigger(cmd *cobra.Command, args []string) {
	pipelineID, _ := cmd.Flags().GetUint("id")
	event, _ := cmd.Flags().GetString("event")

	jsonData, err := json.Marshal(api.TriggerRequest{
		PipelineID: pipelineID,
		Event:      event,
	})
	if err != nil {
		fmt.Printf("Error: Failed to serialize data - %v\n", err)
		return
	}

	resp, err := client.SendRequest(http.MethodPost, "/trigger", bytes.NewBuffer(jsonData))
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

	var triggerResp api.TriggerResponse
	if err := client.DecodeResponse(body, &triggerResp); err != nil {
		fmt.Printf("Trigger failed: %v\n", err)
		return
	}
	fmt.Printf("Successfully triggered pipeline, run %s\n", triggerResp.RunUUID)
}
