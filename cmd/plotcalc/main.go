// Command plotcalc plots functions of x and evaluates arithmetic expressions
// from the terminal, over HTTP or as MCP tools.
package main

func main() {
	Execute()
}
