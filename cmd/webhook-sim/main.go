// Command webhook-sim sends a signed GitHub webhook delivery to a running relay.
package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/google/go-github/v66/github"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type options struct {
	target string
	secret string
	event  string
	action string
	repo   string
	title  string
	url    string
	login  string
	draft  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	opts := fetchOptions()

	log, err := zap.NewDevelopment()
	if err != nil {
		stdlog.Fatalf("cannot initialize logger: %v", err)
	}
	defer log.Sync()

	payload, err := buildPayload(opts)
	if err != nil {
		log.Fatal("cannot build payload", zap.Error(err))
	}

	status, body, err := send(ctx, opts, payload, log)
	if err != nil {
		log.Fatal("delivery failed", zap.Error(err))
	}

	log.Info("delivery sent",
		zap.String("target", opts.target),
		zap.String("event", opts.event),
		zap.Int("status", status),
		zap.ByteString("response", body))
}

func fetchOptions() options {
	var o options

	flag.StringVar(&o.target, "target", "http://localhost:5001/github/webhook", "Relay webhook url")
	flag.StringVar(&o.secret, "secret", "", "GitHub webhook secret; empty sends the delivery unsigned")
	flag.StringVar(&o.event, "event", "pull_request", "Event type: pull_request or ping")
	flag.StringVar(&o.action, "action", "opened", "Pull request action")
	flag.StringVar(&o.repo, "repo", "acme/widgets", "Repository full name")
	flag.StringVar(&o.title, "title", "Simulated pull request", "Pull request title")
	flag.StringVar(&o.url, "url", "https://github.com/acme/widgets/pull/1", "Pull request url")
	flag.StringVar(&o.login, "login", "octocat", "Pull request author login")
	flag.BoolVar(&o.draft, "draft", false, "Mark the pull request as a draft")
	flag.Parse()

	return o
}

func buildPayload(o options) ([]byte, error) {
	switch o.event {
	case "ping":
		return json.Marshal(&github.PingEvent{
			Zen:    github.String("Keep it logically awesome."),
			HookID: github.Int64(1),
		})
	case "pull_request":
		return json.Marshal(&github.PullRequestEvent{
			Action: github.String(o.action),
			PullRequest: &github.PullRequest{
				Title:   github.String(o.title),
				HTMLURL: github.String(o.url),
				Draft:   github.Bool(o.draft),
				User:    &github.User{Login: github.String(o.login)},
			},
			Repo: &github.Repository{FullName: github.String(o.repo)},
		})
	default:
		return nil, fmt.Errorf("unsupported event %q", o.event)
	}
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// send retries connection failures and 5xx responses; 4xx answers are final.
func send(ctx context.Context, o options, payload []byte, log *zap.Logger) (int, []byte, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	delivery := uuid.NewString()

	var status int
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.target, bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set(github.EventTypeHeader, o.event)
			req.Header.Set(github.DeliveryIDHeader, delivery)
			if o.secret != "" {
				req.Header.Set(github.SHA256SignatureHeader, sign(o.secret, payload))
			}

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			status = resp.StatusCode
			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if status >= http.StatusInternalServerError {
				return fmt.Errorf("relay answered %d", status)
			}

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("retrying delivery", zap.Uint("attempt", n+1), zap.String("delivery", delivery), zap.Error(err))
		}),
		retry.LastErrorOnly(true),
	)

	return status, body, err
}
