package flag

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Importing this package must never parse the command line: test binaries
// carry testing flags this set does not know about, and the testing package
// parses them itself. Registration alone has to leave the defaults usable.
func TestDefaultsSetAtRegistration(t *testing.T) {
	assert.True(t, IsDevelopment)
	assert.Equal(t, APIServer, ServiceName)
	assert.False(t, ByPassAuth)

	assert.NotNil(t, flag.CommandLine.Lookup("service"))
	assert.NotNil(t, flag.CommandLine.Lookup("no_auth"))
}
