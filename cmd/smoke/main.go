// Command smoke opens one browser session against the configured target and
// runs the landing page checks. It exits non-zero if any check fails, after
// saving a screenshot and the page source to the artifact store.
//
// Usage:
//
//	go run ./cmd/smoke --headless --no-s3
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kuitang/tradeui-e2e/internal/config"
	"github.com/kuitang/tradeui-e2e/internal/errs"
	"github.com/kuitang/tradeui-e2e/internal/obs"
	"github.com/kuitang/tradeui-e2e/internal/pages"
	"github.com/kuitang/tradeui-e2e/internal/session"
)

const testName = "smoke"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.MustLoadConfig(config.ParseFlags())
	cfg.PrintStartupSummary()

	level, err := obs.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	runLog, err := obs.OpenRunLog(cfg.LogDir, level)
	if err != nil {
		log.Fatalf("open run log: %v", err)
	}
	defer runLog.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := session.Open(ctx, cfg, runLog.Logger)
	if err != nil {
		log.Fatalf("open session: %v", err)
	}

	failed := false
	if err := run(ctx, sess); err != nil {
		failed = true
		sess.ForTest(testName).Error("smoke failed", "error", err)
		log.Print(failureLine(err))
		if saved, err := sess.CaptureFailure(context.WithoutCancel(ctx), testName, "failure"); err != nil {
			log.Printf("failure capture incomplete: %v", err)
		} else {
			for _, loc := range saved {
				log.Printf("saved %s", loc)
			}
		}
	}
	if err := sess.Close(); err != nil {
		log.Printf("close session: %v", err)
	}
	if failed {
		runLog.Close()
		log.Fatalf("smoke failed, see %s", runLog.Path)
	}
	log.Printf("smoke passed (run %s)", sess.RunID)
}

func run(ctx context.Context, sess *session.Session) error {
	home := pages.NewHomePage(sess.Pages(testName), sess.Config.BaseURL)
	for _, check := range []func(context.Context) error{
		home.Load,
		home.VerifyNavigationMenuVisible,
		home.VerifyNavigationItemsExist,
		home.VerifyDownloadSectionVisible,
	} {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// failureLine summarizes a failed check by its code and message.
func failureLine(err error) string {
	return fmt.Sprintf("smoke check failed [%s]: %s", errs.CodeOf(err), errs.MessageOf(err))
}
