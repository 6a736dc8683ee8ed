/*
Package plotter implements the controller that owns one plot.

A Plotter holds the function registry, the color allocator, the current domain
and a sink. Every mutation (adding or removing a function, changing the domain)
is followed by a full refresh: all entries are re-sampled in registry order and
the complete batch of series replaces whatever the sink showed before.

A Plotter is not safe for concurrent use. Callers that share one across
goroutines (the HTTP server does, per session) serialise access themselves.
*/
package plotter
