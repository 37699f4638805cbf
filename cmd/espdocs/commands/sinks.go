package commands

import (
	"cmp"
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/espdocs/internal/config"
	"git.home.luguber.info/inful/espdocs/internal/dispatch"
	"git.home.luguber.info/inful/espdocs/internal/eventstore"
	"git.home.luguber.info/inful/espdocs/internal/logfields"
	"git.home.luguber.info/inful/espdocs/internal/metrics"
	"git.home.luguber.info/inful/espdocs/internal/notify"
)

// observers holds the optional run sinks. Every sink is best effort: a sink
// that cannot be opened is logged and skipped.
type observers struct {
	store     *eventstore.SQLiteStore
	publisher *notify.Publisher
	prom      *metrics.PrometheusRecorder
	textfile  string
}

func openObservers(root *CLI, cfg *config.Config, logger *slog.Logger) *observers {
	o := &observers{}

	if path := cmp.Or(root.HistoryDB, cfg.History.Path); path != "" {
		store, err := eventstore.NewSQLiteStore(path)
		if err != nil {
			logger.Warn("Run history disabled", logfields.Path(path), logfields.Error(err))
		} else {
			o.store = store
		}
	}

	if cfg.Notify.NATSURL != "" {
		pub, err := notify.NewPublisher(cfg.Notify.NATSURL, cfg.Notify.Subject, cfg.Notify.JetStream)
		if err != nil {
			logger.Warn("Event publishing disabled", logfields.URL(cfg.Notify.NATSURL), logfields.Error(err))
		} else {
			o.publisher = pub
		}
	}

	if o.textfile = cmp.Or(root.MetricsFile, cfg.Metrics.TextfilePath); o.textfile != "" {
		o.prom = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
	}
	return o
}

// dispatchOptions returns the dispatcher options wiring the open sinks.
func (o *observers) dispatchOptions(logger *slog.Logger) []dispatch.Option {
	opts := []dispatch.Option{dispatch.WithLogger(logger)}
	var fan notify.Fanout
	if o.store != nil {
		fan = append(fan, o.store)
	}
	if o.publisher != nil {
		fan = append(fan, o.publisher)
	}
	if len(fan) > 0 {
		opts = append(opts, dispatch.WithEventSink(fan))
	}
	if o.prom != nil {
		opts = append(opts, dispatch.WithRecorder(o.prom))
	}
	return opts
}

// flush writes the metrics textfile after a run.
func (o *observers) flush(logger *slog.Logger) {
	if o.prom == nil {
		return
	}
	if err := o.prom.WriteTextfile(o.textfile); err != nil {
		logger.Warn("Failed to write metrics textfile", logfields.Path(o.textfile), logfields.Error(err))
	}
}

func (o *observers) close(logger *slog.Logger) {
	if o.store != nil {
		if err := o.store.Close(); err != nil {
			logger.Warn("Failed to close run history", logfields.Error(err))
		}
	}
	if o.publisher != nil {
		if err := o.publisher.Close(); err != nil {
			logger.Warn("Failed to close NATS connection", logfields.Error(err))
		}
	}
}

// runMatrix executes one dispatcher run with the given sinks.
func runMatrix(ctx context.Context, g *Global, o *observers, opts dispatch.Options) int {
	d := dispatch.New(opts, g.Out, o.dispatchOptions(g.Logger)...)
	code := d.Run(ctx)
	o.flush(g.Logger)
	return code
}
