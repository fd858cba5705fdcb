// Package cmd defines the CLI commands for the factpoller executable.
//
// Architecture overview:
//   - Configuration: Viper loads an optional YAML/JSON/TOML file given by --config and POLLER_* environment
//     overrides (POLLER_POLLER_ITERATIONS, POLLER_STORAGE_PROVIDER, ...). Invalid settings fail before any fetch.
//   - Run loop: internal/poller performs poller.iterations rounds of fetch, status check, strict decode and save,
//     sleeping poller.interval after each round. The first failure ends the run and the process exits 1.
//   - Fetching: a single Colly collector is built at startup and reused; revisits of the same URL are allowed and
//     4xx/5xx responses are handed back to the status check instead of surfacing as transport errors.
//   - Persistence & fanout: each record lands under a fresh UUIDv7 key in the configured store (local files,
//     memory, GCS, or Postgres). When notify.topic is set a small JSON notification is published per record.
//   - Observability: zap logs "Starting up" and one "Written one file" line per record; Prometheus counters and a
//     fetch latency histogram are served from /metrics when metrics.addr is set.
//
// Operational notes:
//   - SIGINT/SIGTERM cancel the run context; an in-flight fetch or sleep returns promptly and the run fails.
//   - Records already written stay in place when a later iteration fails.
package cmd
