package identity_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/recordledger/internal/fault"
	"github.com/jmerrifield20/recordledger/internal/identity"
)

const fakePEM = "-----BEGIN CERTIFICATE-----\nMIIB\n-----END CERTIFICATE-----\n"

func TestFromCreator_serializedIdentity(t *testing.T) {
	blob := identity.SerializeIdentity("Org1MSP", []byte(fakePEM))

	caller, err := identity.FromCreator(blob)
	if err != nil {
		t.Fatal(err)
	}
	if caller.Provider != "Org1" {
		t.Errorf("Provider: got %q, want Org1", caller.Provider)
	}
	if caller.ClientID != base64.StdEncoding.EncodeToString(blob) {
		t.Errorf("ClientID should be the base64 creator blob")
	}
}

func TestProviderFromCreator_stripsControlCharacters(t *testing.T) {
	cases := map[string]string{
		"\n\x07Org1MSP\x12rest":   "Org1",
		"\n\x0cHospital12MSPxyz":  "Hospital12",
		"\x01\x02Clinic\x1fMSP":   "Clinic",
		"NoMarkerHere\n":          "NoMarkerHere",
		"\n\nDoubleNewlineMSPabc": "DoubleNewline",
	}
	for in, want := range cases {
		if got := identity.ProviderFromCreator([]byte(in)); got != want {
			t.Errorf("ProviderFromCreator(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestFromCreator_rejectsEmpty(t *testing.T) {
	if _, err := identity.FromCreator(nil); !errors.Is(err, fault.ErrMalformed) {
		t.Errorf("expected malformed, got %v", err)
	}
	if _, err := identity.FromCreator([]byte("\n\x03MSP")); !errors.Is(err, fault.ErrMalformed) {
		t.Errorf("expected malformed for blob without provider, got %v", err)
	}
}

func TestParseSerializedIdentity_roundTrip(t *testing.T) {
	blob := identity.SerializeIdentity("Org2MSP", []byte(fakePEM))
	msp, pemBytes, err := identity.ParseSerializedIdentity(blob)
	if err != nil {
		t.Fatal(err)
	}
	if msp != "Org2MSP" || string(pemBytes) != fakePEM {
		t.Errorf("got (%q, %q)", msp, pemBytes)
	}
}

func selfSignedCert(t *testing.T, org string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "alice", Organization: []string{org}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return cert
}

func TestFromCertificate(t *testing.T) {
	blob, err := identity.FromCertificate(selfSignedCert(t, "Org3"))
	if err != nil {
		t.Fatal(err)
	}
	caller, err := identity.FromCreator(blob)
	if err != nil {
		t.Fatal(err)
	}
	if caller.Provider != "Org3" {
		t.Errorf("Provider: got %q, want Org3", caller.Provider)
	}
}

func TestTokenIssuer_roundTrip(t *testing.T) {
	ti := identity.NewTokenIssuer([]byte("test-secret"), "recordledger", time.Hour)
	blob := identity.SerializeIdentity("Org1MSP", []byte(fakePEM))

	token, err := ti.Issue(blob)
	if err != nil {
		t.Fatal(err)
	}
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("expected 3-part JWT, got %d parts", len(parts))
	}

	caller, err := ti.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	want, _ := identity.FromCreator(blob)
	if caller != want {
		t.Errorf("got %+v, want %+v", caller, want)
	}
}

func TestTokenIssuer_wrongSecret(t *testing.T) {
	a := identity.NewTokenIssuer([]byte("secret-a"), "recordledger", time.Hour)
	b := identity.NewTokenIssuer([]byte("secret-b"), "recordledger", time.Hour)

	token, err := a.Issue(identity.SerializeIdentity("Org1MSP", nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Verify(token); err == nil {
		t.Error("expected verification failure with a different secret")
	}
}

func authRouter(opts identity.AuthOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", identity.Authenticate(opts), func(c *gin.Context) {
		caller, _ := identity.CallerFromCtx(c)
		c.JSON(http.StatusOK, caller)
	})
	return r
}

func TestAuthenticate_creatorHeader(t *testing.T) {
	r := authRouter(identity.AuthOptions{AllowCreatorHeader: true})
	blob := identity.SerializeIdentity("Org1MSP", []byte(fakePEM))

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(identity.CreatorHeader, base64.StdEncoding.EncodeToString(blob))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"provider":"Org1"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestAuthenticate_headerDisabled(t *testing.T) {
	r := authRouter(identity.AuthOptions{})
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(identity.CreatorHeader, base64.StdEncoding.EncodeToString(identity.SerializeIdentity("Org1MSP", nil)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestAuthenticate_badToken(t *testing.T) {
	ti := identity.NewTokenIssuer([]byte("s"), "recordledger", time.Hour)
	r := authRouter(identity.AuthOptions{Tokens: ti, AllowCreatorHeader: true})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
