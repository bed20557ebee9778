// Command client is an interactive terminal frontend for the employee
// directory. It drives the table state machine against a running server:
// listing, sorting, paginating, inline edits, adding and wiping records.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/okramsen/staffdir/internal/client"
	"github.com/okramsen/staffdir/internal/config"
	"github.com/okramsen/staffdir/internal/logging"
	"github.com/okramsen/staffdir/internal/table"
)

func main() {
	if err := godotenv.Overload(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	serverURL := flag.String("server", cfg.Client.BaseURL, "directory server base URL")
	flag.Parse()

	m := table.New(client.New(*serverURL))

	ctx := context.Background()
	fmt.Println(table.StatusLoading)
	if err := m.Load(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	printPage(m)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && dispatch(ctx, m, line) {
			return
		}
		fmt.Print("> ")
	}
}

// dispatch runs one command line and reports whether the session should end.
func dispatch(ctx context.Context, m *table.Machine, line string) bool {
	args := strings.Fields(line)

	switch args[0] {
	case "quit", "exit":
		return true

	case "help":
		printHelp()

	case "list", "ls":
		printPage(m)

	case "reload":
		fmt.Println(table.StatusLoading)
		if err := m.Load(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			break
		}
		printPage(m)

	case "sort":
		if len(args) != 2 {
			fmt.Println("usage: sort <field>")
			break
		}
		f, ok := table.ParseField(args[1])
		if !ok {
			fmt.Printf("unknown field %q (one of: %s)\n", args[1], fieldList())
			break
		}
		m.SortBy(f)
		printPage(m)

	case "page":
		n, err := strconv.Atoi(argOr(args, 1))
		if err != nil {
			fmt.Println("usage: page <number>")
			break
		}
		m.SetPage(n - 1)
		printPage(m)

	case "size":
		n, err := strconv.Atoi(argOr(args, 1))
		if err != nil {
			fmt.Printf("usage: size <n>, one of %v\n", table.PageSizes)
			break
		}
		m.SetPageSize(n)
		printPage(m)

	case "edit":
		if len(args) < 4 {
			fmt.Println("usage: edit <id> <field> <value>")
			break
		}
		f, ok := table.ParseField(args[2])
		if !ok {
			fmt.Printf("unknown field %q (one of: %s)\n", args[2], fieldList())
			break
		}
		if !m.StartEdit(args[1], f) {
			fmt.Printf("no employee with id %q\n", args[1])
			break
		}
		m.EditValue(strings.Join(args[3:], " "))
		fmt.Println(table.StatusSaving)
		if err := m.CommitEdit(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			m.CancelEdit()
			break
		}
		printPage(m)

	case "add":
		if len(args) != 6 {
			fmt.Println("usage: add <firstName> <lastName> <position> <phone> <email>")
			break
		}
		m.OpenDraft()
		for i, f := range table.Fields {
			m.SetDraftField(f, args[i+1])
		}
		fmt.Println(table.StatusAdding)
		if err := m.SubmitDraft(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			m.CloseDraft()
			break
		}
		printPage(m)

	case "wipe":
		fmt.Println(table.StatusDeleting)
		if err := m.DeleteAll(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			break
		}
		fmt.Println("all employees deleted")

	default:
		fmt.Printf("unknown command %q, try help\n", args[0])
	}

	return false
}

func printPage(m *table.Machine) {
	st := m.State()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFIRST\tLAST\tPOSITION\tPHONE\tEMAIL")
	for _, e := range st.VisibleRows() {
		marker := ""
		if msg, bad := st.RowInvalid(e.ID); bad {
			marker = "  ! " + msg
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s%s\n",
			e.ID, e.FirstName, e.LastName, e.Position, e.Phone, e.Email, marker)
	}
	w.Flush()

	pages := st.PageCount()
	if pages == 0 {
		fmt.Println("no employees")
		return
	}
	fmt.Printf("page %d/%d, %d employees, sorted by %s\n",
		st.PageIndex+1, pages, len(st.Records), st.SortKey)
}

func printHelp() {
	fmt.Print(`commands:
  list                                       show the current page
  sort <field>                               sort by field, repeat to flip direction
  page <number>                              go to page
  size <n>                                   rows per page (5, 10 or 25)
  edit <id> <field> <value>                  change one cell and save
  add <first> <last> <position> <phone> <email>
  wipe                                       delete all employees
  reload                                     refetch from the server
  quit
`)
}

func fieldList() string {
	names := make([]string, len(table.Fields))
	for i, f := range table.Fields {
		names[i] = f.String()
	}
	return strings.Join(names, ", ")
}

func argOr(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
