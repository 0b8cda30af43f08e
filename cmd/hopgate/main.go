// Package main is the entry point for hopgate, a self-hosted
// bang-style redirector for the browser search bar.
package main

func main() {
	Execute()
}
