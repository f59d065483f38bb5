package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mast/internal/cli/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use: "mast",
		Run: func(cmd *cobra.Command, args []string) {},
	}
	cmd.RegisterCommands(rootCmd)

	// With arguments the CLI behaves like a normal one-shot command;
	// without, it drops into an interactive session so the login token
	// survives between commands.
	if len(os.Args) > 1 {
		if err := rootCmd.Execute(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	startInteractiveMode(rootCmd)
}

func startInteractiveMode(rootCmd *cobra.Command) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("mast CLI - Type 'help' to show help, 'exit' or 'quit' to quit")
	fmt.Print(">> ")

	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "exit" || input == "quit" {
			break
		}
		if input == "" {
			fmt.Print(">> ")
			continue
		}

		if input == "help" {
			rootCmd.Help()
			fmt.Print(">> ")
			continue
		}

		rootCmd.SetArgs(strings.Fields(input))
		if err := rootCmd.Execute(); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		fmt.Print(">> ")
	}
}
