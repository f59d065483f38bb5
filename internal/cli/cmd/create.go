package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"mast/internal/cli/client"
	"mast/pkg/api"
)

func NewCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <declaration.yaml>",
		Short: "Register a new pipeline from a declaration file",
		Args:  cobra.ExactArgs(1),
		Run:   runCreate,
	}
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) {
	file, err := os.Open(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer file.Close()

	resp, err := client.SendFile(http.MethodPost, "/create", file)
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
		fmt.Printf("Create failed: %v\n", err)
		return
	}
	fmt.Printf("Created pipeline %q with ID %d (version %d)\n", brief.Name, brief.ID, brief.Version)
}
