package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jr0d/notion-clip/pkg/clip"
	"github.com/jr0d/notion-clip/pkg/clip/client"
)

const (
	queryTimeout  = 300
	queryInterval = 2
)

var (
	relayURL      string
	databaseID    string
	title         string
	pageURL       string
	noBrowserExec bool
	tokenPath     string
	caFile        string
	relogin       bool
)

// cachedToken is the on-disk form of the access token.
type cachedToken struct {
	Token string `json:"token"`
}

func main() {
	if databaseID == "" || title == "" {
		bail("--database-id and --title are required", 1)
	}

	relayClient, err := client.New(relayURL, caFile, nil)
	if err != nil {
		bail(fmt.Sprintf("failed to get HTTP client: %v", err), 1)
	}
	relayClient.NoBrowser = noBrowserExec
	relayClient.QueryTimeout = queryTimeout
	relayClient.QueryInterval = queryInterval
	relayClient.Out = os.Stderr

	token := ""
	if !relogin {
		token = readToken()
	}

	if token == "" {
		token, err = login(relayClient)
		if err != nil {
			bail(err.Error(), 1)
		}
		writeToken(token)
	}

	res, err := relayClient.Save(&clip.SaveRequest{
		DatabaseID: databaseID,
		Title:      title,
		URL:        pageURL,
		Token:      token,
	})
	if err != nil {
		bail(fmt.Sprintf("save failed: %v", err), 1)
	}

	fmt.Println(res.PageURL)
}

func login(c *client.ClipClient) (string, error) {
	if err := c.Initialize(); err != nil {
		return "", fmt.Errorf("error initializing: %w", err)
	}

	if err := c.Start(); err != nil {
		// the URL was printed, the user can still open it by hand
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}

	token, err := c.Query()
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	return token, nil
}

func init() {
	flag.StringVar(&relayURL, "relay-url", os.Getenv("NOTION_CLIP_RELAY_URL"), "The base URL of the notion-clip relay")
	flag.StringVar(&databaseID, "database-id", os.Getenv("NOTION_CLIP_DATABASE_ID"), "Notion database to add the page to")
	flag.StringVar(&title, "title", "", "Page title")
	flag.StringVar(&pageURL, "url", "", "URL to store with the page")
	flag.BoolVar(&noBrowserExec, "no-browser-exec", false, "Do not launch a browser window")
	flag.BoolVar(&relogin, "relogin", false, "Ignore the cached token and log in again")
	flag.StringVar(&caFile, "ca-file", "", "CA certificate file")

	defaultTokenPath := ""
	if home := homeDir(); home != "" {
		defaultTokenPath = filepath.Join(home, ".notion-clip", "token")
	}

	flag.StringVar(&tokenPath, "token-file", defaultTokenPath, "Alternate token file")

	flag.Parse()

	if relayURL == "" {
		bail("--relay-url is not defined", 1)
	}
	if tokenPath == "" {
		bail("--token-file is not defined", 1)
	}
}

func homeDir() string {
	if h := os.Getenv("HOME"); h != "" {
		return h
	}
	return os.Getenv("USERPROFILE") // windows
}

func readToken() string {
	stat, err := os.Stat(tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return ""
		}
		bail(fmt.Sprintf("error getting token file info: %s", err.Error()), 1)
	}
	if stat.IsDir() {
		bail(fmt.Sprintf("token path is a directory: %s\n", tokenPath), 1)
	}

	data, err := os.ReadFile(tokenPath)
	if err != nil {
		bail("could not read token", 1)
	}
	cached := &cachedToken{}
	if err := json.Unmarshal(data, cached); err != nil {
		bail(fmt.Sprintf("failed to parse token: %s\n", tokenPath), 1)
	}
	return cached.Token
}

func writeToken(token string) {
	if err := os.MkdirAll(filepath.Dir(tokenPath), os.FileMode(0700)); err != nil {
		bail(fmt.Sprintf("could not create token dir: %v", err), 1)
	}

	data, err := json.Marshal(&cachedToken{Token: token})
	if err != nil {
		bail("could not encode token", 1)
	}

	if err := os.WriteFile(tokenPath, data, os.FileMode(0600)); err != nil {
		bail(fmt.Sprintf("failed to write token: %s", err), 1)
	}
}

func bail(msg string, code int) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(code)
}
