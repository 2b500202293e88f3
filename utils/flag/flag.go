/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer = "api_server"
)

var (
	IsDevelopment bool
	ServiceName   string
	ByPassAuth    bool
)

func init() {
	flag.BoolVar(&IsDevelopment, "dev", true, "set to true if the current run is for development. default value is true")
	flag.StringVar(&ServiceName, "service", APIServer, "service name reported to logging and tracing")
	flag.BoolVar(&ByPassAuth, "no_auth", false, "skip identity provider validation, trust the sub header as-is. local development only")
}

// ParseFlags parses the shared flag set. Only main calls this; registration
// above already fills in the defaults, and in test binaries the testing
// package owns command line parsing.
func ParseFlags() {
	flag.Parse()
}
