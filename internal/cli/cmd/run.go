package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"mast/internal/engine"
	"mast/internal/engine/dockerenv"
	"mast/internal/engine/localenv"
	"mast/pkg/decl"
)

// NewRunCommand creates the run command, which executes a declaration
// file directly without a server.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <declaration.yaml>",
		Short: "Execute a pipeline declaration locally",
		Args:  cobra.ExactArgs(1),
		Run:   runRun,
	}

	cmd.Flags().StringP("event", "e", decl.EventManual, "Event to trigger with")
	cmd.Flags().BoolP("docker", "d", false, "Run jobs in docker containers instead of the host")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) {
	event, _ := cmd.Flags().GetString("event")
	useDocker, _ := cmd.Flags().GetBool("docker")

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	p, err := decl.Parse(data)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	var prov engine.Provisioner = &localenv.Provisioner{}
	if useDocker {
		dockerProv, err := dockerenv.NewProvisioner(nil)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		prov = dockerProv
	}

	eng := engine.New(prov, engine.Config{})
	result, err := eng.Run(context.Background(), p, event)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	printResult(result)
	if result.Status != engine.StatusSuccess {
		os.Exit(1)
	}
}

func printResult(result engine.PipelineResult) {
	names := make([]string, 0, len(result.Jobs))
	for name := range result.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("pipeline %s: %s (%s)\n", result.Pipeline, result.Status, result.Duration.Round(time.Millisecond))
	for _, name := range names {
		job := result.Jobs[name]
		fmt.Printf("  job %s: %s\n", name, job.Status)
		for _, step := range job.Steps {
			line := fmt.Sprintf("    step %s: %s", step.Step, step.Status)
			if step.Reason != engine.ReasonNone {
				line += fmt.Sprintf(" (%s)", step.Reason)
			}
			fmt.Println(line)
			if step.Status == engine.StatusFailed && step.Output != "" {
				fmt.Print(step.Output)
			}
		}
	}
}
