/*
Package plotcalc plots single-variable functions and evaluates one-off arithmetic.

A Service hosts many independent plot sessions. Each session keeps an ordered
list of expressions in x, each with a color handed out cyclically from a
palette, plus the domain they are sampled over. Every mutation rebuilds the
whole plot: each expression is sampled at evenly spaced points and any point
where it is undefined or not finite is left out of its curve.

# Usage

	svc, err := plotcalc.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	state, err := svc.CreateSession(ctx) // seeded with sin(x)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := svc.AddFunction(ctx, state.SessionID, "x^2", &domain.Domain{XMin: -2, XMax: 2}); err != nil {
		log.Println(domain.UserMessage(err))
	}

	plot, _ := svc.Plot(ctx, state.SessionID)
	for _, series := range plot.Series {
		fmt.Println(series.Label, len(series.Points))
	}

	fmt.Println(svc.Calculate(ctx, "2^10")) // 1024

Expressions are evaluated by govaluate with '^' read as exponentiation and
the usual math functions (sin, sqrt, log, ...) available. Sessions live in
memory unless a store such as the Redis adapter is configured; the HTTP, MCP
and CLI surfaces under pkg/adapters and cmd/plotcalc are thin wrappers over
Service.
*/
package plotcalc
