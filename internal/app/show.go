package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/storage"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit       int
	PruneBefore time.Duration
}

// Show prints recent audited alerts, optionally pruning old rows first.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show alerts")
	}
	if closeStore != nil {
		defer closeStore()
	}

	return showAlerts(ctx, store, os.Stdout, opts, time.Now)
}

func showAlerts(ctx context.Context, store storage.AlertStore, out io.Writer, opts ShowOptions, now func() time.Time) error {
	if opts.PruneBefore > 0 {
		cutoff := now().UTC().Add(-opts.PruneBefore)
		if err := store.DeleteAlertsBefore(ctx, cutoff); err != nil {
			return fmt.Errorf("prune alerts: %w", err)
		}
	}

	alerts, err := store.ListRecentAlerts(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Fprintln(out, "no alerts found")
		return nil
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tAlert\tSignature\tMint\tAmount\tPosted")

	for _, alert := range alerts {
		posted := ""
		if alert.PostedID != nil {
			posted = *alert.PostedID
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			alert.CreatedAt.UTC().Format(time.RFC3339),
			alert.AlertID,
			alert.Signature,
			alert.Mint,
			alert.Amount.String(),
			posted,
		)
	}

	return writer.Flush()
}
