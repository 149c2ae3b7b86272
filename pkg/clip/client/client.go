package client

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"

	"github.com/jr0d/notion-clip/pkg/clip"
)

var (
	// ErrExpired is returned by Query when the relay dropped the token before it was polled.
	ErrExpired = errors.New("relay token expired, start the login again")
	ErrTimeout = errors.New("timed out waiting for login")
)

type clientState struct {
	authURL string
	key     string
}

type ClipClient struct {
	RelayURI   string
	HTTPClient *http.Client
	NoBrowser  bool
	state      clientState

	// Out is where Start prints the auth URL. Defaults to stdout.
	Out io.Writer

	QueryTimeout  uint
	QueryInterval uint

	sleep func(time.Duration)
}

func New(relayURI string, CAfile string, CAData []byte) (*ClipClient, error) {
	client := ClipClient{
		RelayURI: relayURI,
	}

	certPool, err := x509.SystemCertPool()
	if err != nil {
		certPool = x509.NewCertPool()
	}

	if len(CAfile) > 0 {
		pem, err := os.ReadFile(CAfile)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", CAfile, err)
		}
		certPool.AppendCertsFromPEM(pem)
	}

	if len(CAData) > 0 {
		certPool.AppendCertsFromPEM(CAData)
	}

	tr := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{RootCAs: certPool},
	}

	client.HTTPClient = &http.Client{Transport: tr, Timeout: 30 * time.Second}

	return &client, nil
}

// Initialize picks a fresh relay key and derives the URL that starts the login.
func (k *ClipClient) Initialize() error {
	key := uuid.NewString()
	k.state = clientState{
		authURL: fmt.Sprintf("%s?state=%s", k.join(clip.AuthEndpoint), url.QueryEscape(key)),
		key:     key,
	}
	return nil
}

// Key is the relay key chosen by Initialize.
func (k *ClipClient) Key() string {
	return k.state.key
}

func (k *ClipClient) AuthURL() string {
	return k.state.authURL
}

func (k *ClipClient) Start() error {
	if k.state.key == "" {
		return errors.New("client is not initialized")
	}
	_, _ = fmt.Fprintf(k.out(), "Auth URL: %s\n", k.state.authURL)
	if !k.NoBrowser {
		if err := browser.OpenURL(k.state.authURL); err != nil {
			return fmt.Errorf("could not open browser: %w", err)
		}
	}
	return nil
}

// Query polls the relay until the token arrives, the relay reports an error,
// or QueryTimeout seconds pass.
func (k *ClipClient) Query() (string, error) {
	if k.state.key == "" {
		return "", errors.New("client is not initialized")
	}
	req := fmt.Sprintf("%s?key=%s", k.join(clip.TokenEndpoint), url.QueryEscape(k.state.key))
	start := time.Now()
	timeout := time.Duration(k.QueryTimeout) * time.Second
	for time.Since(start) < timeout {
		tokenResponse, err := k.poll(req)
		if err != nil {
			return "", err
		}
		switch {
		case tokenResponse.Token != "":
			return tokenResponse.Token, nil
		case tokenResponse.Error == clip.ExpiredError:
			return "", ErrExpired
		case tokenResponse.Error != "":
			return "", fmt.Errorf("relay error: %s", tokenResponse.Error)
		}
		k.wait(time.Duration(k.QueryInterval) * time.Second)
	}
	return "", ErrTimeout
}

func (k *ClipClient) poll(req string) (*clip.PollResponse, error) {
	res, err := k.HTTPClient.Get(req)
	if err != nil {
		return nil, fmt.Errorf("error accessing token endpoint: %w", err)
	}
	defer res.Body.Close()

	tokenResponse := &clip.PollResponse{}
	if err := json.NewDecoder(res.Body).Decode(tokenResponse); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	if res.StatusCode != http.StatusOK && tokenResponse.Error == "" {
		return nil, fmt.Errorf("server responded with invalid status: %d", res.StatusCode)
	}
	return tokenResponse, nil
}

// Save creates a page through the relay's save endpoint.
func (k *ClipClient) Save(saveReq *clip.SaveRequest) (*clip.SaveResponse, error) {
	data, err := json.Marshal(saveReq)
	if err != nil {
		return nil, fmt.Errorf("error marshalling save request: %w", err)
	}

	resp, err := k.HTTPClient.Post(k.join(clip.SaveEndpoint), "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error calling save endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading save response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		errResponse := &clip.ErrorResponse{}
		if err := json.Unmarshal(body, errResponse); err != nil || errResponse.Error == "" {
			return nil, fmt.Errorf("server responded with invalid status: %d, body: %s", resp.StatusCode, body)
		}
		return nil, fmt.Errorf("save failed (%d): %s", resp.StatusCode, errResponse.Error)
	}

	response := &clip.SaveResponse{}
	if err := json.Unmarshal(body, response); err != nil {
		return nil, fmt.Errorf("failed to parse server response: %w", err)
	}
	return response, nil
}

func (k *ClipClient) join(endpoint string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(k.RelayURI, "/"), strings.TrimPrefix(endpoint, "/"))
}

func (k *ClipClient) out() io.Writer {
	if k.Out != nil {
		return k.Out
	}
	return os.Stdout
}

func (k *ClipClient) wait(d time.Duration) {
	if k.sleep != nil {
		k.sleep(d)
		return
	}
	time.Sleep(d)
}
