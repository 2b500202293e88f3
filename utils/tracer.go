package utils

import (
	"github.com/sirupsen/logrus"
	"github.com/soundforge/soundforge/utils/dotenv"
	. "github.com/soundforge/soundforge/utils/flag"
	Logger "github.com/soundforge/soundforge/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// InitTracer starts the Datadog tracer. Call once from main before serving.
func InitTracer() {
	env := "development"
	if dotenv.IsProdEnv() {
		env = "production"
	}

	tracer.Start(
		tracer.WithService(ServiceName),
		tracer.WithEnv(env),
	)

	Logger.Log.WithFields(
		logrus.Fields{"service": ServiceName, "is_development": IsDevelopment},
	).Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
