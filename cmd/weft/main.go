// Command weft is the command-line front end for the text regeneration
// engine.
package main

import "os"

func main() {
	os.Exit(run())
}
