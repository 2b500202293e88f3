package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/soundforge/soundforge/server"
	"github.com/soundforge/soundforge/server/middlewares"
	. "github.com/soundforge/soundforge/utils"
	"github.com/soundforge/soundforge/utils/dotenv"
	. "github.com/soundforge/soundforge/utils/flag"
	. "github.com/soundforge/soundforge/utils/log"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
)

func cleanup() {
	CloseProfiler()
	CloseTracer()
	Log.Info("api server shutdown")
}

func main() {
	defer cleanup()

	ParseFlags()
	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	InitTracer()
	InitProfiler()
	if !ByPassAuth {
		middlewares.Setup()
	}

	db, err := GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect to database: ", err)
	}
	DatabaseSetupAndMigration(db)

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()

	router.Use(cors.Default())
	router.Use(gintrace.Middleware(ServiceName))

	api := server.NewAPI(db, GetRedisClient())
	server.RegisterRoutes(router, api, ByPassAuth)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	Log.Info("api server starts up")
	router.Run(":8080")
}
