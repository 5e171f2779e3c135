// Command ownworldctl is the operator/player console client: a thin
// HTTP client over ownworldd's reducer surface (spec §6), generalizing
// the teacher's user-console.go/tools/console.go pair (a bufio.Scanner
// menu loop plus an os.Args CLI mode, both talking straight to the
// sqlite file) into a client that talks to the server process instead
// of the database file, since this module's database is single-writer
// (internal/store) and not meant to be opened by a second process.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ownworld/core/internal/ids"
)

type client struct {
	baseURL    string
	identity   ids.Identity
	httpClient *http.Client
}

func newClient(baseURL string, identity ids.Identity) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		identity:   identity,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *client) call(reducerName string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/reducer/"+reducerName, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if !c.identity.IsZero() {
		req.Header.Set("X-Ownworld-Identity", c.identity.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return string(respBody), nil
}

func (c *client) sendMessage(text string) (string, error) {
	return c.call("send_message", map[string]string{"text": text})
}

func (c *client) purchaseMemoryGridNode(nodeID string) (string, error) {
	return c.call("purchase_memory_grid_node", map[string]string{"node_id": nodeID})
}

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8080", "ownworldd base URL")
	identityFlag := flag.String("identity", "", "caller identity (hex), empty runs unauthenticated")
	flag.Parse()

	var identity ids.Identity
	if *identityFlag != "" {
		var err error
		identity, err = ids.ParseIdentity(*identityFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -identity: %v\n", err)
			os.Exit(1)
		}
	}

	c := newClient(*addr, identity)

	if args := flag.Args(); len(args) > 0 {
		runOnce(c, args)
		return
	}

	runInteractive(c)
}

// runOnce handles non-interactive invocation: `ownworldctl say hello
// world` or `ownworldctl buy <node_id>` (teacher: handleCLI's
// os.Args[1] switch in user-console.go).
func runOnce(c *client, args []string) {
	switch args[0] {
	case "say":
		result, err := c.sendMessage(strings.Join(args[1:], " "))
		report(result, err)
	case "buy":
		if len(args) < 2 {
			fmt.Println("usage: buy <node_id>")
			return
		}
		result, err := c.purchaseMemoryGridNode(args[1])
		report(result, err)
	default:
		fmt.Printf("unknown command: %s\n", args[0])
	}
}

func report(result string, err error) {
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(result)
}

// runInteractive is the menu loop (teacher: user-console.go's
// for { ... scanner.Scan() ... switch choice } loop).
func runInteractive(c *client) {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println()
		fmt.Println("========================================")
		fmt.Println("   OWNWORLD CONSOLE")
		fmt.Println("========================================")
		fmt.Println("1. Send chat message / command")
		fmt.Println("2. Purchase memory grid node")
		fmt.Println("3. Exit")
		fmt.Println("========================================")
		fmt.Print("Select option: ")

		if !scanner.Scan() {
			break
		}
		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			fmt.Print("Message: ")
			if !scanner.Scan() {
				return
			}
			result, err := c.sendMessage(scanner.Text())
			report(result, err)
		case "2":
			fmt.Print("Node ID: ")
			if !scanner.Scan() {
				return
			}
			result, err := c.purchaseMemoryGridNode(strings.TrimSpace(scanner.Text()))
			report(result, err)
		case "3":
			fmt.Println("Exiting.")
			return
		default:
			fmt.Println("Invalid option.")
		}
	}
}
