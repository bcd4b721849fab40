package main

import (
	"encoding/xml"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/troubleonmonday/forum-bot/pkg/config"
	"github.com/troubleonmonday/forum-bot/pkg/corpus"
)

type urlset struct {
	XMLName xml.Name   `xml:"urlset"`
	Xmlns   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

func joinBase(base string, path string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return path
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	path = strings.TrimPrefix(path, "/")
	return base + path
}

func main() {
	_ = godotenv.Load()

	var threadsPath string
	var outDir string
	var baseURL string

	flag.StringVar(&threadsPath, "threads", "", "thread store path (overrides THREADS_PATH)")
	flag.StringVar(&outDir, "out", "./public", "output directory (site root)")
	flag.StringVar(&baseURL, "base", "https://troubleonmonday.com/troubleonmondays", "canonical base URL")
	flag.Parse()

	cfg := config.Load()
	if threadsPath == "" {
		threadsPath = cfg.ThreadsPath
	}

	threads, err := corpus.NewStore(threadsPath).Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load threads:", err)
		os.Exit(2)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintln(os.Stderr, "mkdir out:", err)
		os.Exit(2)
	}

	// Basic site pages.
	now := time.Now().UTC().Format("2006-01-02")
	entries := []urlEntry{
		{Loc: joinBase(baseURL, ""), LastMod: now, ChangeFreq: "daily", Priority: "1.0"},
		{Loc: joinBase(baseURL, "privacy/"), ChangeFreq: "yearly", Priority: "0.3"},
		{Loc: joinBase(baseURL, "terms/"), ChangeFreq: "yearly", Priority: "0.3"},
	}

	for _, t := range threads {
		id := strings.TrimSpace(t.ID)
		if id == "" {
			continue
		}
		entries = append(entries, urlEntry{
			Loc:        joinBase(baseURL, "thread/"+url.PathEscape(id)+"/"),
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	// Deterministic ordering helps diffs and debugging.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Loc < entries[j].Loc
	})

	s := urlset{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  entries,
	}
	outPath := filepath.Join(outDir, "sitemap.xml")
	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "create sitemap:", err)
		os.Exit(2)
	}
	defer f.Close()

	if _, err := f.WriteString(xml.Header); err != nil {
		fmt.Fprintln(os.Stderr, "write header:", err)
		os.Exit(2)
	}
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	if err := enc.Encode(s); err != nil {
		fmt.Fprintln(os.Stderr, "encode sitemap:", err)
		os.Exit(2)
	}
	if err := enc.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, "flush sitemap:", err)
		os.Exit(2)
	}
}
