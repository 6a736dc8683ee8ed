/*
Package ports defines the driven ports (interfaces) of the plotter.

These interfaces decouple the registry, sampler and refresh logic from the
expression library, the chart renderer and the storage backends.

# Key Interfaces

  - Evaluator / Program: Compile expression text and evaluate it at a binding.
  - PlotSink: Receives a full batch of series on every refresh.
  - StateStore: Persists and loads per-session plot state.
  - DistributedLocker: Provides distributed locking for concurrent session access.
*/
package ports
