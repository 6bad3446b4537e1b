package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/minidb/minidb/engine"
)

var (
	errUsage = fmt.Errorf("usage error")
)

// runREPL drives an interactive session against eng, using readline's
// line editing and history, and fatih/color for error/header
// highlighting.
func runREPL(eng *engine.Engine) error {
	historyPath := filepath.Join(os.TempDir(), ".minidb_history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "minidb> ",
		HistoryFile:     historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	errColor := color.New(color.FgRed)
	headerColor := color.New(color.FgCyan)

	fmt.Println("MiniDb - fixed-row embedded record store")
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

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if err := dispatch(eng, headerColor, fields); err != nil {
			if err == errExit {
				return nil
			}
			errColor.Printf("error: %v\n", err)
		}
	}
}

var errExit = fmt.Errorf("exit requested")

func dispatch(eng *engine.Engine, headerColor *color.Color, fields []string) error {
	switch fields[0] {
	case "help":
		printHelp()
	case "info":
		info := eng.Info()
		fmt.Printf("data_size=%d row_count=%d free_count=%d\n", info.DataSize, info.RowCount, info.FreeCount)
	case "select":
		return cmdSelect(eng, fields)
	case "insert":
		return cmdInsert(eng, fields)
	case "update":
		return cmdUpdate(eng, fields)
	case "delete":
		return cmdDelete(eng, fields)
	case "scan":
		cmdScan(eng, headerColor)
	case "exit", "quit":
		return errExit
	default:
		return fmt.Errorf("%w: unknown command %q (try 'help')", errUsage, fields[0])
	}
	return nil
}

func parseKey(s string) (int64, error) {
	key, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid key %q", errUsage, s)
	}
	return key, nil
}

// parseRow decodes a hex-encoded row and right-pads it with zeros to
// dataSize bytes. A row longer than dataSize is an error.
func parseRow(hexStr string, dataSize uint64) ([]byte, error) {
	decoded, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid hex row %q: %v", errUsage, hexStr, err)
	}
	if uint64(len(decoded)) > dataSize {
		return nil, fmt.Errorf("%w: row is %d bytes, data_size is %d", errUsage, len(decoded), dataSize)
	}
	buf := make([]byte, dataSize)
	copy(buf, decoded)
	return buf, nil
}

func cmdSelect(eng *engine.Engine, fields []string) error {
	if len(fields) != 2 {
		return fmt.Errorf("%w: usage: select <key>", errUsage)
	}
	key, err := parseKey(fields[1])
	if err != nil {
		return err
	}
	buf := make([]byte, eng.Info().DataSize)
	if err := eng.Select(key, buf); err != nil {
		return err
	}
	fmt.Println(hex.EncodeToString(buf))
	return nil
}

func cmdInsert(eng *engine.Engine, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("%w: usage: insert <key> <hex-row>", errUsage)
	}
	key, err := parseKey(fields[1])
	if err != nil {
		return err
	}
	row, err := parseRow(fields[2], eng.Info().DataSize)
	if err != nil {
		return err
	}
	if err := eng.Insert(key, row); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func cmdUpdate(eng *engine.Engine, fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("%w: usage: update <key> <hex-row>", errUsage)
	}
	key, err := parseKey(fields[1])
	if err != nil {
		return err
	}
	row, err := parseRow(fields[2], eng.Info().DataSize)
	if err != nil {
		return err
	}
	if err := eng.Update(key, row); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func cmdDelete(eng *engine.Engine, fields []string) error {
	if len(fields) != 2 {
		return fmt.Errorf("%w: usage: delete <key>", errUsage)
	}
	key, err := parseKey(fields[1])
	if err != nil {
		return err
	}
	if err := eng.Delete(key); err != nil {
		return err
	}
	fmt.Println("OK")
	return nil
}

func cmdScan(eng *engine.Engine, headerColor *color.Color) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	headerColor.Fprintln(w, "KEY\tROW")
	_ = eng.SelectAll(func(key int64, buf []byte) bool {
		fmt.Fprintf(w, "%d\t%s\n", key, hex.EncodeToString(buf))
		return true
	})
	w.Flush()
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  select <key>             - Print a row as hex")
	fmt.Println("  insert <key> <hex-row>   - Insert a row (hex, right-padded to data_size)")
	fmt.Println("  update <key> <hex-row>   - Overwrite an existing row")
	fmt.Println("  delete <key>             - Delete a row")
	fmt.Println("  scan                     - List every row in ascending key order")
	fmt.Println("  info                     - Show data_size/row_count/free_count")
	fmt.Println("  help                     - Show this help message")
	fmt.Println("  exit, quit               - Exit the program")
}
