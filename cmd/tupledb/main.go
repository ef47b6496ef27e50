package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"tupledb/internal/engine"
	"tupledb/internal/sql"
)

var flagDir = flag.String("dir", ".", "directory holding table and index files")

func main() {
	flag.Parse()

	if err := os.MkdirAll(*flagDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create data directory: %v\n", err)
		os.Exit(1)
	}

	eng := engine.New(*flagDir, os.Stdout)
	runREPL(eng)
}

func runREPL(eng *engine.Engine) {
	reader := bufio.NewReader(os.Stdin)
	var buffer strings.Builder

	for {
		prompt := "tupledb> "
		if buffer.Len() > 0 {
			prompt = "...> "
		}
		fmt.Print(prompt)

		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return
			}
			fmt.Fprintln(os.Stderr, "read error:", err)
			return
		}

		line = strings.TrimSpace(line)
		if buffer.Len() == 0 && line == "" {
			continue
		}

		// Dot commands, only when no statement is buffered.
		if buffer.Len() == 0 && strings.HasPrefix(line, ".") {
			if handleMetaCommand(line) {
				return
			}
			continue
		}

		if line != "" {
			if buffer.Len() > 0 {
				buffer.WriteString(" ")
			}
			buffer.WriteString(line)
		}

		if strings.HasSuffix(line, ";") {
			statement := buffer.String()
			buffer.Reset()
			handleStatement(statement, eng)
		}
	}
}

// handleMetaCommand processes dot commands. Returns true when the REPL
// should exit.
func handleMetaCommand(line string) bool {
	switch strings.ToLower(strings.Fields(line)[0]) {
	case ".exit", ".quit":
		return true
	case ".help":
		fmt.Println("Commands:")
		fmt.Println()
		fmt.Println("  LOAD tableName FROM 'file' [WITH INDEX];")
		fmt.Println("    - file lines look like: 42,'some value'")
		fmt.Println()
		fmt.Println("  SELECT attr FROM tableName [WHERE cond [AND cond]...];")
		fmt.Println("    - attr: key, value, *, count(*)")
		fmt.Println("    - cond: key|value followed by =, <>, <, <=, >, >= and a literal")
		fmt.Println()
		fmt.Println("Meta commands:")
		fmt.Println("  .help   Show this help")
		fmt.Println("  .exit   Exit the REPL")
		fmt.Println()
	default:
		fmt.Printf("Unknown meta command: %s\n", line)
	}
	return false
}

func handleStatement(statement string, eng *engine.Engine) {
	stmt, err := sql.Parse(statement)
	if err != nil {
		fmt.Println("Parse error:", err)
		return
	}

	if err := eng.Execute(stmt); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
}
