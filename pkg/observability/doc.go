/*
Package observability provides ready-made machina.Hooks adapters: structured
logging via slog and Prometheus metrics. Both observe transitions from the
outside; neither can influence entry resolution.
*/
package observability
