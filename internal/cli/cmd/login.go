package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"mast/internal/cli/client"
	"mast/internal/common"
	"mast/pkg/api"
)

func NewLoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to the pipeline server",
		Run:   runLogin,
	}

	cmd.Flags().StringP("username", "u", "", "Username for login (required)")
	cmd.Flags().StringP("password", "p", "", "Password for login (required)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	jsonData, err := json.Marshal(api.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		fmt.Printf("Error: Failed to serialize data - %v\n", err)
		return
	}

	resp, err := client.SendRequest(http.MethodPost, "/login", bytes.NewBuffer(jsonData))
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
	if err := client.DecodeResponse(body, nil); err != nil {
		fmt.Printf("Login failed: %v\n", err)
		return
	}

	token, err := common.GetAuthorizationToken(resp.Header.Get("Authorization"))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	client.SaveToken(token)
	fmt.Println("Login successful")
}
