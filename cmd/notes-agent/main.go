// Package main provides the notes-agent command: a single-turn notes
// assistant that saves and recalls notes through an LLM tool loop.
package main

func main() {
	Execute()
}
