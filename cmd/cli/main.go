package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/wadjakorntonsri/clicklink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/clicklink/pkg/adapters/repository"
	"github.com/wadjakorntonsri/clicklink/pkg/config"
	"github.com/wadjakorntonsri/clicklink/pkg/core/domain"
	"github.com/wadjakorntonsri/clicklink/pkg/core/services"
	"github.com/wadjakorntonsri/clicklink/pkg/ports"
)

const usage = "expected 'export', 'import', 'list' or 'token' subcommands"

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenSubject := tokenCmd.String("subject", "cli", "token subject (usually an email)")
	tokenTTL := tokenCmd.Duration("ttl", 24*time.Hour, "token lifetime")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()

	if os.Args[1] == "token" {
		tokenCmd.Parse(os.Args[2:])
		doToken(cfg, *tokenSubject, *tokenTTL)
		return
	}

	repo, err := repository.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to db: %v", err)
	}
	defer repo.Close()
	service := services.NewLinkService(repo)
	ctx := context.Background()

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		doExport(ctx, service, os.Stdout)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		doImport(ctx, service, *importFile)
	case "list":
		listCmd.Parse(os.Args[2:])
		links, err := service.List(ctx)
		if err != nil {
			log.Fatalf("List failed: %v", err)
		}
		if err := writeTable(os.Stdout, cfg, links); err != nil {
			log.Fatalf("Write failed: %v", err)
		}
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func doExport(ctx context.Context, service ports.LinkService, w io.Writer) {
	links, err := service.Export(ctx)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(links); err != nil {
		log.Fatalf("Encode failed: %v", err)
	}
}

func doImport(ctx context.Context, service ports.LinkService, filename string) {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer file.Close()

	var links []domain.Link
	if err := json.NewDecoder(file).Decode(&links); err != nil {
		log.Fatalf("Decode failed: %v", err)
	}

	count, err := service.Import(ctx, links)
	if err != nil {
		log.Fatalf("Import stopped after %d links: %v", count, err)
	}
	log.Printf("Imported %d links", count)
}

func doToken(cfg *config.Config, subject string, ttl time.Duration) {
	if !cfg.AuthEnabled() {
		log.Fatal("JWT_SECRET is not set; the admin API is open")
	}
	token, expiresAt, err := handler.SignToken([]byte(cfg.JWTSecret), subject, ttl)
	if err != nil {
		log.Fatalf("Token failed: %v", err)
	}
	fmt.Println(token)
	log.Printf("Token for %s expires %s", subject, expiresAt.Format(time.RFC3339))
}

// writeTable prints one row per link with its public short URL
func writeTable(w io.Writer, cfg *config.Config, links []domain.Link) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SHORT URL\tTARGET\tCLICKS\tLAST CLICKED\tCREATED")
	for _, l := range links {
		lastClicked := "never"
		if l.LastClicked != nil {
			lastClicked = l.LastClicked.Local().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			cfg.ShortURL(l.Code), l.TargetURL, l.Clicks, lastClicked, l.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}
