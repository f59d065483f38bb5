// Package client is the CLI's HTTP layer. The server usually runs
// behind a self-signed certificate, so the client trusts an extra CA
// from CA_CERT_PATH when one exists.
package client

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"mast/internal/common"
)

var (
	token      string
	serverURL  = "https://localhost:8080"
	caCertPath = ""
)

func init() {
	if envURL := os.Getenv("MAST_SERVER_URL"); envURL != "" {
		serverURL = envURL
	}
	if envCaPath := os.Getenv("CA_CERT_PATH"); envCaPath != "" {
		caCertPath = envCaPath
	}
}

func SaveToken(t string) {
	token = t
}

func SendRequest(method, path string, body io.Reader) (*http.Response, error) {
	req, err := CreateRequest(method, path, body)
	if err != nil {
		return nil, err
	}
	return DoRequest(req)
}

// SendFile posts a declaration document.
func SendFile(method, path string, file io.Reader) (*http.Response, error) {
	req, err := CreateRequest(method, path, file)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/yaml")
	return DoRequest(req)
}

func CreateRequest(method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, serverURL+path, body)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func DoRequest(req *http.Request) (*http.Response, error) {
	client := &http.Client{
		Transport: createTLSTransport(),
	}
	return client.Do(req)
}

func createTLSTransport() *http.Transport {
	tlsConfig := &tls.Config{}
	if caCertPath != "" {
		caCert, err := os.ReadFile(caCertPath)
		if err != nil {
			fmt.Printf("fail to read ca cert: %v\n", err)
		} else {
			caCertPool := x509.NewCertPool()
			if caCertPool.AppendCertsFromPEM(caCert) {
				tlsConfig.RootCAs = caCertPool
			} else {
				fmt.Println("fail to parse ca cert, use system default cert pool")
			}
		}
	}
	return &http.Transport{
		TLSClientConfig: tlsConfig,
	}
}

func ReadResponseBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, fmt.Errorf("empty response")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	return body, nil
}

// DecodeResponse unmarshals the server envelope and, when the call
// succeeded, its data field into out (which may be nil).
func DecodeResponse(body []byte, out interface{}) error {
	var envelope common.Response
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("parse response failed: %w", err)
	}
	if envelope.Code != common.SuccessCode {
		return fmt.Errorf("%s", envelope.Message)
	}
	if out == nil || envelope.Data == nil {
		return nil
	}
	data, err := json.Marshal(envelope.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
