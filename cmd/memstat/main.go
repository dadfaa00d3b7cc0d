// Command memstat exercises memkit containers over each allocator and
// reports per-container allocation statistics.
package main

func main() {
	execute()
}
