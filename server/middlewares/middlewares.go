package middlewares

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/gin-gonic/gin"
)

const (
	// Header carrying the resolved identity-provider subject after auth.
	HeaderSub = "sub"
	// Profile hints forwarded from the provider, used on first resolution.
	HeaderHintName   = "hint-name"
	HeaderHintAvatar = "hint-avatar"

	errorTokenAuthFail = 401001
)

var (
	// cognitoClient is a thread safe client that performs user authorization
	// based on jwt token. Before using this client, make sure it's initialized
	// correctly.
	cognitoClient *cognitoidentityprovider.Client
)

// Setup initialized all package scoped variables that are needed to perform
// middleware functionalities, such as Cognito client. This function must be
// called before any middleware is used.
func Setup() {
	client, err := createCognitoClient()
	if err != nil {
		// Abort directly if the Cognito isn't setup successfully, which is crucial
		// for server side authorization.
		log.Fatalf("fail to setup Cognito client: %s", err.Error())
	}
	setCognitoClient(client)
}

// createCognitoClient creates a default client with aws config located in path
// ~/.aws/config, and return error on error.
func createCognitoClient() (*cognitoidentityprovider.Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return nil, err
	}
	return cognitoidentityprovider.NewFromConfig(cfg), nil
}

func setCognitoClient(client *cognitoidentityprovider.Client) {
	cognitoClient = client
}

// stripIdentityHeaders drops the identity headers from the incoming request.
// Those headers are an internal contract written by this package after token
// validation; a value supplied by the client is a forgery attempt.
func stripIdentityHeaders(c *gin.Context) {
	c.Request.Header.Del(HeaderSub)
	c.Request.Header.Del(HeaderHintName)
	c.Request.Header.Del(HeaderHintAvatar)
}

func tokenFrom(c *gin.Context) string {
	jwt := c.GetHeader("token")
	if jwt == "" {
		jwt = c.Query("token")
	}
	return jwt
}

// forwardVerifiedSubject validates the jwt against the identity provider and
// replaces it with the provider subject in the "sub" header, plus profile
// hint headers the identity bridge consumes on first sight. The server never
// sees or stores credentials beyond this hop. Aborts with 401 on a token the
// provider rejects.
func forwardVerifiedSubject(c *gin.Context, jwt string) {
	user, err := cognitoClient.GetUser(context.TODO(), &cognitoidentityprovider.GetUserInput{AccessToken: &jwt})

	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code": errorTokenAuthFail,
			"msg":  err.Error(),
		})
		c.Abort()
		return
	}

	c.Request.Header.Del("token")
	c.Request.Header.Set(HeaderSub, *user.Username)
	for _, attr := range user.UserAttributes {
		if attr.Name == nil || attr.Value == nil {
			continue
		}
		switch *attr.Name {
		case "name":
			c.Request.Header.Set(HeaderHintName, *attr.Value)
		case "picture":
			c.Request.Header.Set(HeaderHintAvatar, *attr.Value)
		}
	}

	// before request
	c.Next()
}

// JWT middleware guards routes that require an authenticated caller. The jwt
// comes from the "token" header (or query for websocket-like clients); a
// missing or invalid token is a 401.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		stripIdentityHeaders(c)

		jwt := tokenFrom(c)
		if jwt == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": errorTokenAuthFail,
				"msg":  "empty jwt token",
			})
			c.Abort()
			return
		}
		forwardVerifiedSubject(c, jwt)
	}
}

// OptionalJWT guards routes that accept anonymous visitors. Client-supplied
// identity headers are always stripped so nobody can impersonate a subject;
// when a token is presented it is validated exactly like JWT(), so logged-in
// visitors keep their personalization on public pages.
func OptionalJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		stripIdentityHeaders(c)

		jwt := tokenFrom(c)
		if jwt == "" {
			c.Next()
			return
		}
		forwardVerifiedSubject(c, jwt)
	}
}
