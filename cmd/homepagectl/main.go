// Command homepagectl manages the wishlist through the HTTP API and prints
// admin password hashes.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/khauni/homepage/internal/wishlist"
	"github.com/khauni/homepage/internal/wishlist/client"
	"github.com/khauni/homepage/pkg/config"
	"github.com/khauni/homepage/pkg/env"
	"github.com/khauni/homepage/pkg/security"
)

const usage = `usage: homepagectl [-server URL] <command> [flags]

commands:
  list            print the wishlist (-order newest|insertion)
  add             create an item (-name, -link, -description, -image, -price)
  update <id>     patch an item; only the flags you pass are sent
  purchase <id>   mark an item purchased (-undo to clear)
  delete <id>     remove an item
  hash-password   read a password from stdin and print its argon2id hash
`

func main() {
	_ = godotenv.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "homepagectl:", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("invalid usage")

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	global := flag.NewFlagSet("homepagectl", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	server := global.String("server", env.Get("HOMEPAGE_SERVER_URL", "http://localhost:3000"), "homepage base URL")
	password := global.String("password", env.Get("HOMEPAGE_ADMIN_PASSWORD", ""), "admin password used to obtain a token")
	if err := global.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	rest := global.Args()
	if len(rest) == 0 {
		return errUsage
	}
	cmd, cmdArgs := rest[0], rest[1:]

	if cmd == "hash-password" {
		return hashPassword(stdin, stdout)
	}

	c := client.New(*server)
	if *password != "" && cmd != "list" {
		if _, err := c.Login(ctx, *password); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	}

	switch cmd {
	case "list":
		return listItems(ctx, c, cmdArgs, stdout)
	case "add":
		return addItem(ctx, client.NewAdminView(c), cmdArgs, stdout)
	case "update":
		return updateItem(ctx, client.NewAdminView(c), cmdArgs, stdout)
	case "purchase":
		return purchaseItem(ctx, client.NewAdminView(c), cmdArgs, stdout)
	case "delete":
		return deleteItem(ctx, client.NewAdminView(c), cmdArgs, stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func listItems(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	orderFlag := fs.String("order", string(wishlist.OrderNewestFirst), "newest|insertion")
	asJSON := fs.Bool("json", false, "print raw JSON")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	order, err := wishlist.ParseOrder(*orderFlag)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	view := client.NewPublicView(c)
	if order == wishlist.OrderNewestFirst {
		if err := view.Refresh(ctx); err != nil {
			return err
		}
		return printItems(stdout, view.Items(), *asJSON)
	}
	items, err := c.List(ctx, order)
	if err != nil {
		return err
	}
	return printItems(stdout, items, *asJSON)
}

func addItem(ctx context.Context, view *client.AdminView, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var in wishlist.CreateInput
	fs.StringVar(&in.Name, "name", "", "item name (required)")
	fs.StringVar(&in.Link, "link", "", "product link (required)")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.StringVar(&in.ImageURL, "image", "", "image URL")
	fs.StringVar(&in.Price, "price", "", "free-form price")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	item, err := view.Add(ctx, in)
	if err != nil {
		return err
	}
	return printJSON(stdout, item)
}

func updateItem(ctx context.Context, view *client.AdminView, args []string, stdout io.Writer) error {
	id, args, err := takeID(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "item name")
	link := fs.String("link", "", "product link")
	description := fs.String("description", "", "description")
	image := fs.String("image", "", "image URL")
	price := fs.String("price", "", "free-form price")
	purchased := fs.Bool("purchased", false, "purchased flag")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	var patch wishlist.UpdateInput
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = name
		case "link":
			patch.Link = link
		case "description":
			patch.Description = description
		case "image":
			patch.ImageURL = image
		case "price":
			patch.Price = price
		case "purchased":
			patch.Purchased = purchased
		}
	})

	item, err := view.Update(ctx, id, patch)
	if err != nil {
		return err
	}
	return printJSON(stdout, item)
}

func purchaseItem(ctx context.Context, view *client.AdminView, args []string, stdout io.Writer) error {
	id, args, err := takeID(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("purchase", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	undo := fs.Bool("undo", false, "mark as not purchased")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	item, err := view.SetPurchased(ctx, id, !*undo)
	if err != nil {
		return err
	}
	return printJSON(stdout, item)
}

func deleteItem(ctx context.Context, view *client.AdminView, args []string, stdout io.Writer) error {
	id, _, err := takeID(args)
	if err != nil {
		return err
	}
	if err := view.Remove(ctx, id); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "deleted %s (%d items remain)\n", id, len(view.Items()))
	return err
}

func hashPassword(stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return fmt.Errorf("%w: empty password", errUsage)
	}
	hash, err := security.HashPassword(password, cfg.Password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, hash)
	return err
}

func takeID(args []string) (string, []string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", nil, fmt.Errorf("%w: missing item id", errUsage)
	}
	return args[0], args[1:], nil
}

func printItems(w io.Writer, items []wishlist.Item, asJSON bool) error {
	if asJSON {
		return printJSON(w, items)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tPURCHASED\tADDED")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", item.ID, item.Name, item.Price, item.Purchased, item.AddedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
