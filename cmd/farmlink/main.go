package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/docopt/docopt-go"
	"golang.org/x/term"

	"github.com/farmlink/farmlink-go/internal/api"
	"github.com/farmlink/farmlink-go/internal/config"
	"github.com/farmlink/farmlink-go/internal/localstore"
	"github.com/farmlink/farmlink-go/internal/model"
	"github.com/farmlink/farmlink-go/internal/session"
	"github.com/farmlink/farmlink-go/internal/syncer"
)

const usage = `FarmLink command line client.

Talks to a FarmLink server and keeps your login session on this machine.
Set FARMLINK_API_URL to point at a server (default http://localhost:8080)
and FARMLINK_LOG=debug for verbose logging.

Usage:
    farmlink login --email=<email>
    farmlink logout
    farmlink whoami
    farmlink register --name=<name> --email=<email> [--phone=<phone>]
    farmlink listings [--search=<text>] [--category=<category>] [--min-price=<price>] [--max-price=<price>] [--sort=<order>]
    farmlink listing <id>
    farmlink sell --title=<title> --location=<location> --category=<category> --description=<text> --price=<price> [--image=<path>]...
    farmlink edit-listing <id> --title=<title> --location=<location> --category=<category> --description=<text> --price=<price> [--image=<path>]...
    farmlink delete-listing <id> [--yes]
    farmlink message <id> <content>
    farmlink discussions [--limit=<n>]
    farmlink discussion <id>
    farmlink post --title=<title> --content=<text> [--image=<path>]
    farmlink edit-post <id> --title=<title> --content=<text> [--image=<path>]
    farmlink delete-post <id> [--yes]
    farmlink stats
    farmlink theme [<value>]

Options:
    -h --help              Show this screen.
    --search=<text>        Filter listings by title or description.
    --category=<category>  Filter listings by category.
    --min-price=<price>    Lowest price to include.
    --max-price=<price>    Highest price to include.
    --sort=<order>         newest, priceAsc or priceDesc [default: newest].
    --limit=<n>            Maximum number of posts to return.
    --image=<path>         Attach a photo (JPEG or PNG).
    --yes                  Skip the confirmation prompt.`

type app struct {
	cfg    config.Config
	db     *sql.DB
	sess   *session.Store
	client *api.Client
	log    *slog.Logger
}

func main() {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.db.Close()

	if err := a.run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", friendly(err))
		os.Exit(1)
	}
}

func newApp() (*app, error) {
	level := slog.LevelWarn
	if strings.EqualFold(os.Getenv("FARMLINK_LOG"), "debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := localstore.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}
	if err := localstore.EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	sess := session.NewStore(db)
	if err := sess.Restore(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	client := api.NewClient(&http.Client{Timeout: cfg.Timeout}, cfg.APIURL, sess)

	return &app{cfg: cfg, db: db, sess: sess, client: client, log: logger}, nil
}

func (a *app) run(ctx context.Context, opts docopt.Opts) error {
	switch {
	case is(opts, "login"):
		return a.cmdLogin(ctx, str(opts, "--email"))
	case is(opts, "logout"):
		return a.cmdLogout(ctx)
	case is(opts, "whoami"):
		return a.cmdWhoami()
	case is(opts, "register"):
		return a.cmdRegister(ctx, opts)
	case is(opts, "listings"):
		return a.cmdListings(ctx, opts)
	case is(opts, "listing"):
		return a.cmdListing(ctx, str(opts, "<id>"))
	case is(opts, "sell"):
		return a.cmdSell(ctx, opts)
	case is(opts, "edit-listing"):
		return a.cmdEditListing(ctx, opts)
	case is(opts, "delete-listing"):
		return a.cmdDeleteListing(ctx, str(opts, "<id>"), is(opts, "--yes"))
	case is(opts, "message"):
		return a.cmdMessage(ctx, str(opts, "<id>"), str(opts, "<content>"))
	case is(opts, "discussions"):
		return a.cmdDiscussions(ctx, opts)
	case is(opts, "discussion"):
		return a.cmdDiscussion(ctx, str(opts, "<id>"))
	case is(opts, "post"):
		return a.cmdPost(ctx, opts)
	case is(opts, "edit-post"):
		return a.cmdEditPost(ctx, opts)
	case is(opts, "delete-post"):
		return a.cmdDeletePost(ctx, str(opts, "<id>"), is(opts, "--yes"))
	case is(opts, "stats"):
		return a.cmdStats(ctx)
	case is(opts, "theme"):
		return a.cmdTheme(ctx, str(opts, "<value>"))
	}
	return fmt.Errorf("unknown command")
}

func is(opts docopt.Opts, name string) bool {
	v, _ := opts.Bool(name)
	return v
}

func str(opts docopt.Opts, name string) string {
	v, ok := opts[name].(string)
	if !ok {
		return ""
	}
	return v
}

// friendly maps the client error taxonomy to messages fit for a terminal.
func friendly(err error) string {
	var authErr *api.AuthError
	var netErr *api.NetworkError
	switch {
	case errors.Is(err, api.ErrUnauthenticated):
		return "you are not logged in (run: farmlink login --email=<email>)"
	case errors.Is(err, api.ErrNotFound):
		return "not found"
	case errors.Is(err, syncer.ErrMutationInProgress):
		return "a change for this item is still pending, try again in a moment"
	case errors.As(err, &authErr):
		return authErr.Error()
	case errors.As(err, &netErr):
		return fmt.Sprintf("could not reach the server: %v", netErr.Err)
	default:
		return err.Error()
	}
}

func (a *app) cmdLogin(ctx context.Context, email string) error {
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}

	resp, err := a.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.sess.Login(ctx, resp.User, resp.Token); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s <%s>\n", resp.User.Name, resp.User.Email)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.sess.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func (a *app) cmdWhoami() error {
	ident := a.sess.Identity()
	if ident == nil || !a.sess.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}
	fmt.Printf("%s <%s>\n", ident.Name, ident.Email)
	if ident.Phone != "" {
		fmt.Printf("Phone: %s\n", ident.Phone)
	}
	return nil
}

func (a *app) cmdRegister(ctx context.Context, opts docopt.Opts) error {
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirmed, err := promptPassword("Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirmed {
		return fmt.Errorf("passwords do not match")
	}

	err = a.client.Register(ctx, api.RegisterRequest{
		Name:     str(opts, "--name"),
		Email:    str(opts, "--email"),
		Password: password,
		Phone:    str(opts, "--phone"),
	})
	if err != nil {
		return err
	}

	fmt.Println("Account created. Log in with: farmlink login --email=" + str(opts, "--email"))
	return nil
}

func (a *app) cmdListings(ctx context.Context, opts docopt.Opts) error {
	q := model.Query{
		Search:   str(opts, "--search"),
		Category: str(opts, "--category"),
		MinPrice: str(opts, "--min-price"),
		MaxPrice: str(opts, "--max-price"),
		SortBy:   str(opts, "--sort"),
	}
	if q.SortBy == "" {
		q.SortBy = model.SortNewest
	}

	controller := syncer.New(a.client.Listings)
	unsubscribe := controller.Subscribe(func(s syncer.Snapshot[model.Listing]) {
		a.log.Debug("listings sync", "status", s.Status.String(), "items", len(s.Items))
	})
	defer unsubscribe()

	if err := controller.SetQuery(ctx, q); err != nil {
		return err
	}

	snap := controller.Snapshot()
	if len(snap.Items) == 0 {
		fmt.Println("No listings found.")
		return nil
	}
	for _, l := range snap.Items {
		fmt.Printf("%s  %-30s  %-24s  %s\n", l.ID, truncate(l.Title, 30), l.Category, l.Price)
	}
	return nil
}

func (a *app) cmdListing(ctx context.Context, id string) error {
	listing, err := a.client.Listing(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", listing.Title)
	fmt.Printf("Category:  %s\n", listing.Category)
	fmt.Printf("Price:     %s\n", listing.Price)
	fmt.Printf("Location:  %s\n", listing.Location)
	fmt.Printf("Seller:    %s\n", listing.Seller.Name)
	fmt.Printf("Posted:    %s\n", listing.CreatedAt.Format("2006-01-02"))
	if listing.Description != "" {
		fmt.Printf("\n%s\n", listing.Description)
	}
	for _, img := range listing.Images {
		fmt.Printf("Photo: %s\n", img)
	}

	// Seller contact is only available to logged-in members.
	if a.sess.Authenticated() {
		seller, err := a.client.User(ctx, listing.Seller.ID)
		if err == nil && seller.Phone != "" {
			fmt.Printf("Contact:   %s\n", seller.Phone)
		}
	}
	return nil
}

func (a *app) listingDraft(opts docopt.Opts) (api.ListingDraft, error) {
	draft := api.ListingDraft{
		Title:       str(opts, "--title"),
		Location:    str(opts, "--location"),
		Category:    str(opts, "--category"),
		Description: str(opts, "--description"),
		Price:       str(opts, "--price"),
	}
	paths, _ := opts["--image"].([]string)
	for _, path := range paths {
		upload, err := readUpload(path)
		if err != nil {
			return draft, err
		}
		draft.Images = append(draft.Images, upload)
	}
	return draft, nil
}

func (a *app) cmdSell(ctx context.Context, opts docopt.Opts) error {
	draft, err := a.listingDraft(opts)
	if err != nil {
		return err
	}

	co := syncer.NewCoordinator(a.sess, func(context.Context) error { return nil })
	var created *model.Listing
	err = co.Mutate(ctx, syncer.Create, "", func(ctx context.Context) error {
		var opErr error
		created, opErr = a.client.CreateListing(ctx, draft)
		return opErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("Listing created: %s\n", created.ID)
	return nil
}

func (a *app) cmdEditListing(ctx context.Context, opts docopt.Opts) error {
	id := str(opts, "<id>")
	draft, err := a.listingDraft(opts)
	if err != nil {
		return err
	}

	co := syncer.NewCoordinator(a.sess, func(context.Context) error { return nil })
	err = co.Mutate(ctx, syncer.Update, id, func(ctx context.Context) error {
		_, opErr := a.client.UpdateListing(ctx, id, draft)
		return opErr
	})
	if err != nil {
		return err
	}

	fmt.Println("Listing updated.")
	return nil
}

func (a *app) cmdDeleteListing(ctx context.Context, id string, skipConfirm bool) error {
	if !skipConfirm && !confirm("Delete this listing?") {
		fmt.Println("Aborted.")
		return nil
	}

	co := syncer.NewCoordinator(a.sess, func(context.Context) error { return nil })
	err := co.Mutate(ctx, syncer.Delete, id, func(ctx context.Context) error {
		return a.client.DeleteListing(ctx, id)
	})
	if err != nil {
		return err
	}

	fmt.Println("Listing deleted.")
	return nil
}

func (a *app) cmdMessage(ctx context.Context, id, content string) error {
	if err := a.client.MessageSeller(ctx, id, content); err != nil {
		return err
	}
	fmt.Println("Message sent.")
	return nil
}

func (a *app) cmdDiscussions(ctx context.Context, opts docopt.Opts) error {
	var q model.Query
	if v := str(opts, "--limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			return fmt.Errorf("invalid limit %q", v)
		}
		q.Limit = limit
	}

	controller := syncer.New(a.client.Discussions)
	if err := controller.SetQuery(ctx, q); err != nil {
		return err
	}

	snap := controller.Snapshot()
	if len(snap.Items) == 0 {
		fmt.Println("No discussions yet.")
		return nil
	}
	for _, p := range snap.Items {
		fmt.Printf("%s  %-40s  %s  %s\n", p.ID, truncate(p.Title, 40), p.Author.Name, p.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func (a *app) cmdDiscussion(ctx context.Context, id string) error {
	post, err := a.client.Discussion(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", post.Title)
	fmt.Printf("By %s on %s\n\n", post.Author.Name, post.CreatedAt.Format("2006-01-02"))
	fmt.Println(post.Content)
	if post.ImageURL != "" {
		fmt.Printf("\nPhoto: %s\n", post.ImageURL)
	}
	return nil
}

func (a *app) discussionDraft(opts docopt.Opts) (api.DiscussionDraft, error) {
	draft := api.DiscussionDraft{
		Title:   str(opts, "--title"),
		Content: str(opts, "--content"),
	}
	paths, _ := opts["--image"].([]string)
	if len(paths) > 1 {
		return draft, fmt.Errorf("a post can have at most one photo")
	}
	if len(paths) == 1 {
		upload, err := readUpload(paths[0])
		if err != nil {
			return draft, err
		}
		draft.Image = &upload
	}
	return draft, nil
}

func (a *app) cmdPost(ctx context.Context, opts docopt.Opts) error {
	draft, err := a.discussionDraft(opts)
	if err != nil {
		return err
	}

	co := syncer.NewCoordinator(a.sess, func(context.Context) error { return nil })
	var created *model.DiscussionPost
	err = co.Mutate(ctx, syncer.Create, "", func(ctx context.Context) error {
		var opErr error
		created, opErr = a.client.CreateDiscussion(ctx, draft)
		return opErr
	})
	if err != nil {
		return err
	}

	fmt.Printf("Posted: %s\n", created.ID)
	return nil
}

func (a *app) cmdEditPost(ctx context.Context, opts docopt.Opts) error {
	id := str(opts, "<id>")
	draft, err := a.discussionDraft(opts)
	if err != nil {
		return err
	}

	co := syncer.NewCoordinator(a.sess, func(context.Context) error { return nil })
	err = co.Mutate(ctx, syncer.Update, id, func(ctx context.Context) error {
		_, opErr := a.client.UpdateDiscussion(ctx, id, draft)
		return opErr
	})
	if err != nil {
		return err
	}

	fmt.Println("Post updated.")
	return nil
}

func (a *app) cmdDeletePost(ctx context.Context, id string, skipConfirm bool) error {
	if !skipConfirm && !confirm("Delete this post?") {
		fmt.Println("Aborted.")
		return nil
	}

	co := syncer.NewCoordinator(a.sess, func(context.Context) error { return nil })
	err := co.Mutate(ctx, syncer.Delete, id, func(ctx context.Context) error {
		return a.client.DeleteDiscussion(ctx, id)
	})
	if err != nil {
		return err
	}

	fmt.Println("Post deleted.")
	return nil
}

func (a *app) cmdStats(ctx context.Context) error {
	// Stats are a one-element collection to the sync layer.
	controller := syncer.New(func(ctx context.Context, _ model.Query) ([]model.CommunityStats, error) {
		stats, err := a.client.CommunityStats(ctx)
		if err != nil {
			return nil, err
		}
		return []model.CommunityStats{*stats}, nil
	})
	if err := controller.Refresh(ctx); err != nil {
		return err
	}

	stats := controller.Snapshot().Items[0]
	fmt.Printf("Members:     %d\n", stats.TotalUsers)
	fmt.Printf("Discussions: %d\n", stats.TotalDiscussions)
	return nil
}

func (a *app) cmdTheme(ctx context.Context, value string) error {
	if value == "" {
		theme, err := localstore.Theme(ctx, a.db)
		if err != nil {
			return err
		}
		fmt.Println(theme)
		return nil
	}
	return localstore.SetTheme(ctx, a.db, value)
}

func readUpload(path string) (api.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.Upload{}, fmt.Errorf("reading image %s: %w", path, err)
	}
	return api.Upload{Name: filepath.Base(path), Data: data}, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(data), nil
}

func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
