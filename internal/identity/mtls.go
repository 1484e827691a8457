package identity

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ctxCaller = "ledger_caller"

// CreatorHeader carries a base64 creator blob on requests that are neither
// token- nor certificate-authenticated.
const CreatorHeader = "X-Creator"

// AuthOptions selects which credentials Authenticate accepts.
type AuthOptions struct {
	// Tokens verifies Bearer caller tokens. nil disables token auth.
	Tokens *TokenIssuer
	// AllowCreatorHeader accepts the X-Creator header. Development only.
	AllowCreatorHeader bool
}

// Authenticate returns a Gin middleware that resolves the request's Caller.
//
// Credentials are tried in order: Bearer caller token, TLS client
// certificate, X-Creator header. The first one present decides; an invalid
// credential aborts with 401 rather than falling through.
func Authenticate(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if opts.Tokens != nil && strings.HasPrefix(authHeader, "Bearer ") {
			caller, err := opts.Tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "invalid token: " + err.Error(),
				})
				return
			}
			c.Set(ctxCaller, caller)
			c.Next()
			return
		}

		if c.Request.TLS != nil && len(c.Request.TLS.PeerCertificates) > 0 {
			blob, err := FromCertificate(c.Request.TLS.PeerCertificates[0])
			if err == nil {
				var caller Caller
				caller, err = FromCreator(blob)
				if err == nil {
					c.Set(ctxCaller, caller)
					c.Next()
					return
				}
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "client certificate rejected: " + err.Error(),
			})
			return
		}

		if opts.AllowCreatorHeader {
			if h := c.GetHeader(CreatorHeader); h != "" {
				caller, err := FromCreatorBase64(h)
				if err != nil {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
						"error": err.Error(),
					})
					return
				}
				c.Set(ctxCaller, caller)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "caller identity required",
		})
	}
}

// CallerFromCtx retrieves the Caller injected by Authenticate.
func CallerFromCtx(c *gin.Context) (Caller, bool) {
	v, ok := c.Get(ctxCaller)
	if !ok {
		return Caller{}, false
	}
	caller, ok := v.(Caller)
	return caller, ok
}
