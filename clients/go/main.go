// msgboard CLI - command line client for the message board
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/eldtechnologies/msgboard/clients/go/board"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := board.NewClient(os.Getenv("BOARD_URL"))
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		exitOnError(err)
		printJSON(resp)

	case "list":
		messages, err := client.List()
		exitOnError(err)
		for _, msg := range messages {
			fmt.Printf("%s  %s\n", msg.ID, msg.Text)
		}

	case "post":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: board post <text> [id]")
			os.Exit(1)
		}
		id := ""
		if len(os.Args) > 3 {
			id = os.Args[3]
		}
		created, err := client.Create(id, os.Args[2])
		exitOnError(err)
		fmt.Printf("Posted: %s\n", created)

	case "get":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: board get <id>")
			os.Exit(1)
		}
		messages, err := client.Get(os.Args[2])
		exitOnError(err)
		printJSON(messages)

	case "help", "--help", "-h":
		usage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`msgboard CLI

Usage: board <command> [options]

Commands:
  list                 List all messages
  post <text> [id]     Post a message, optionally with an explicit id
  get <id>             Show messages with the given id
  health               Check server health

Environment:
  BOARD_URL     Server URL (default: http://localhost:8080)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
