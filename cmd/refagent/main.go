// Command refagent runs the in-house reference AI as a standalone HTTP
// service implementing the move protocol (spec §6), so it can be
// registered as a Team endpoint alongside third-party agents.
package main

import (
	"flag"
	"log"
	"net/http"

	"connect4-tournament/internal/refagent"
)

func main() {
	addr := flag.String("addr", ":9001", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/", refagent.Handler)

	log.Printf("[refagent] listening on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("[refagent] server error: %v", err)
	}
}
