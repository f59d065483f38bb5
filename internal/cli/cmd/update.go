package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"mast/internal/cli/client"
	"mast/pkg/api"
)

func NewUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <name> <declaration.yaml>",
		Short: "Publish a new version of an existing pipeline",
		Args:  cobra.ExactArgs(2),
		Run:   runUpdate,
	}
	return cmd
}

func runUpdate(cmd *cobra.Command, args []string) {
	name := args[0]
	file, err := os.Open(args[1])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer file.Close()

	resp, err := client.SendFile(http.MethodPost, "/update/"+name, file)
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

	var brief api.PipelineBrief
	if err := client.DecodeResponse(body, &brief); err != nil {
		fmt.Printf("Update failed: %v\n", err)
		return
	}
	fmt.Printf("Updated pipeline %q to version %d (ID %d)\n", brief.Name, brief.Version, brief.ID)
}
