// Command cachesim replays memory traces against set-associative caches.
package main

import "github.com/sarchlab/cachesim/cachesim/cmd"

func main() {
	cmd.Execute()
}
