package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func statusCmd(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	metrics := fs.Bool("metrics", true, "include /metrics output")
	_ = fs.Parse(args)

	base := strings.TrimRight(strings.TrimSpace(*baseURL), "/")
	cl := &http.Client{Timeout: 5 * time.Second}

	body, code, err := fetch(cl, base+"/healthz")
	if err != nil {
		fmt.Fprintln(os.Stderr, "healthz:", err)
		os.Exit(1)
	}
	fmt.Printf("healthz: %s\n", strings.TrimSpace(body))
	if code/100 != 2 {
		os.Exit(1)
	}

	if *metrics {
		body, code, err = fetch(cl, base+"/metrics")
		if err != nil {
			fmt.Fprintln(os.Stderr, "metrics:", err)
			os.Exit(1)
		}
		fmt.Print(body)
		if code/100 != 2 {
			os.Exit(1)
		}
	}
}

func fetch(cl *http.Client, url string) (string, int, error) {
	resp, err := cl.Get(url)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(b), resp.StatusCode, nil
}
