// Command minidb-client is an interactive REPL against a running
// minidb-server: plain HTTP calls against a single engine, with no
// leader redirect since MiniDb never replicates.
package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
)

func main() {
	server := flag.String("server", "http://127.0.0.1:8081", "minidb-server base URL")
	flag.Parse()

	u, err := url.Parse(*server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --server URL: %v\n", err)
		os.Exit(1)
	}

	client := &RemoteClient{HTTP: &http.Client{}, Base: u}
	if err := runClientREPL(client); err != nil {
		fmt.Fprintf(os.Stderr, "repl: %v\n", err)
		os.Exit(1)
	}
}

func runClientREPL(client *RemoteClient) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "minidb-client> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	errColor := color.New(color.FgRed)
	headerColor := color.New(color.FgCyan)

	headerColor.Println("MiniDb client - connected to " + client.Base.String())
	fmt.Println("Type 'help' for available commands")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		if parts[0] == "exit" || parts[0] == "quit" {
			return nil
		}

		if err := dispatchClient(client, parts); err != nil {
			errColor.Printf("error: %v\n", err)
		}
	}
}

func dispatchClient(client *RemoteClient, parts []string) error {
	switch parts[0] {
	case "help":
		printClientHelp()
	case "info":
		out, err := client.Info()
		if err != nil {
			return err
		}
		fmt.Println(out)
	case "select":
		if len(parts) != 2 {
			return fmt.Errorf("usage: select <key>")
		}
		if err := validateKey(parts[1]); err != nil {
			return err
		}
		out, err := client.Select(parts[1])
		if err != nil {
			return err
		}
		fmt.Println(out)
	case "insert":
		if len(parts) != 3 {
			return fmt.Errorf("usage: insert <key> <hex-row>")
		}
		if err := validateKey(parts[1]); err != nil {
			return err
		}
		if err := client.Insert(parts[1], parts[2]); err != nil {
			return err
		}
		fmt.Println("OK")
	case "update":
		if len(parts) != 3 {
			return fmt.Errorf("usage: update <key> <hex-row>")
		}
		if err := validateKey(parts[1]); err != nil {
			return err
		}
		if err := client.Update(parts[1], parts[2]); err != nil {
			return err
		}
		fmt.Println("OK")
	case "delete":
		if len(parts) != 2 {
			return fmt.Errorf("usage: delete <key>")
		}
		if err := validateKey(parts[1]); err != nil {
			return err
		}
		if err := client.Delete(parts[1]); err != nil {
			return err
		}
		fmt.Println("OK")
	case "scan":
		out, err := client.Scan()
		if err != nil {
			return err
		}
		fmt.Print(out)
	default:
		fmt.Printf("Unknown command: %s\n", parts[0])
		printClientHelp()
	}
	return nil
}

func printClientHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  select <key>             - Fetch a row as hex")
	fmt.Println("  insert <key> <hex-row>   - Insert a row")
	fmt.Println("  update <key> <hex-row>   - Overwrite a row")
	fmt.Println("  delete <key>             - Delete a row")
	fmt.Println("  scan                     - List every row")
	fmt.Println("  info                     - Show engine stats")
	fmt.Println("  help                     - Show this help message")
	fmt.Println("  exit, quit               - Exit the program")
}
