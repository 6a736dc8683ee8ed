/*
Package domain contains the core models of the plotter.

It defines the values exchanged between the registry, the sampler and the plot
sinks. This package is kept pure and free of external dependencies like I/O,
expression evaluation or persistence.

# Key Entities

  - Domain: The [XMin, XMax] interval a function is sampled over.
  - Sample: A single finite (x, y) point of a curve.
  - Series: The ordered samples of one function, with its label and color.
  - Plot: The batch of series handed to a sink in one refresh.
  - PlotState: The persisted, evaluator-free snapshot of a plotter session.
*/
package domain
